package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories bundles repository instances bound to one transaction.
type Repositories struct {
	Companies  *CompanyRepository
	Users      *UserRepository
	Currencies *CurrencyRepository
	Sessions   *SessionRepository
	Payments   *PaymentRepository
}

type TransactionCoordinator struct {
	pool *pgxpool.Pool
}

func NewTransactionCoordinator(db *DB) *TransactionCoordinator {
	return &TransactionCoordinator{pool: db.Pool}
}

func bind(q Executor) *Repositories {
	return &Repositories{
		Companies:  &CompanyRepository{q: q},
		Users:      &UserRepository{q: q},
		Currencies: &CurrencyRepository{q: q},
		Sessions:   &SessionRepository{q: q},
		Payments:   &PaymentRepository{q: q},
	}
}

// WithTransaction runs fn against repositories bound to a single read-committed
// transaction. Any error from fn rolls everything back, including row locks
// taken with the ForUpdate finders.
func (tc *TransactionCoordinator) WithTransaction(
	ctx context.Context,
	fn func(ctx context.Context, repos *Repositories) error,
) error {
	return pgx.BeginTxFunc(ctx, tc.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, bind(tx))
	})
}
