package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrPaymentNotFound = domain.NewNotFoundError("payment")

const paymentColumns = `
	p.id, p.identifier, p.user_id, p.currency_id, p.amount::text, p.payment_method, p.return_url,
	p.status, p.error, p.collection, p.transactions, p.next_action, p.data,
	p.created_at, p.updated_at`

type PaymentRepository struct {
	q Executor
}

func NewPaymentRepository(db *DB) *PaymentRepository {
	return &PaymentRepository{q: db.Pool}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			identifier, user_id, currency_id, amount, payment_method, return_url,
			status, error, collection, transactions, next_action, data, created_at, updated_at
		) VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	p, err := toPaymentModel(payment)
	if err != nil {
		return err
	}

	err = r.q.QueryRow(ctx, query,
		p.Identifier,
		p.UserID,
		p.CurrencyID,
		p.Amount,
		p.PaymentMethod,
		p.ReturnURL,
		p.Status,
		p.Error,
		p.Collection,
		p.Transactions,
		p.NextAction,
		p.Data,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(&payment.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewValidationError("identifier", "payment already exists")
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1`
	return scanPayment(r.q.QueryRow(ctx, query, id))
}

// FindByIDForUpdate retrieves a payment with row-level lock
func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = $1 FOR UPDATE`
	return scanPayment(r.q.QueryRow(ctx, query, id))
}

func (r *PaymentRepository) FindByIdentifierForUser(ctx context.Context, userID int64, identifier string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments p WHERE p.user_id = $1 AND p.identifier = $2`
	return scanPayment(r.q.QueryRow(ctx, query, userID, identifier))
}

// FindByIdentifierForCompany only sees payments made by users of the company.
func (r *PaymentRepository) FindByIdentifierForCompany(ctx context.Context, companyID int64, identifier string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p
		JOIN users u ON u.id = p.user_id
		WHERE u.company_id = $1 AND p.identifier = $2
	`
	return scanPayment(r.q.QueryRow(ctx, query, companyID, identifier))
}

func (r *PaymentRepository) ListByUser(ctx context.Context, userID int64, page Page) ([]*domain.Payment, error) {
	page = page.Normalize()
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p WHERE p.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, page.Limit, page.Offset)
}

func (r *PaymentRepository) ListByCompany(ctx context.Context, companyID int64, page Page) ([]*domain.Payment, error) {
	page = page.Normalize()
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p
		JOIN users u ON u.id = p.user_id
		WHERE u.company_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, companyID, page.Limit, page.Offset)
}

// FindStaleProcessing finds PROCESSING payments not touched since cutoff.
// Payments the reconciler has never visited come first, then the ones it
// visited longest ago, so rows that stay in flight cannot hold the batch.
func (r *PaymentRepository) FindStaleProcessing(ctx context.Context, cutoff time.Time, limit int) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments p
		WHERE p.status = 'PROCESSING'
		  AND p.updated_at < $1
		  AND (p.reconciled_at IS NULL OR p.reconciled_at < $1)
		ORDER BY p.reconciled_at ASC NULLS FIRST, p.updated_at ASC, p.id ASC
		LIMIT $2
	`
	return r.list(ctx, query, cutoff, limit)
}

// MarkReconciled records a reconciler visit. updated_at is left alone.
func (r *PaymentRepository) MarkReconciled(ctx context.Context, id int64, at time.Time) error {
	result, err := r.q.Exec(ctx, `UPDATE payments SET reconciled_at = $1 WHERE id = $2`, at, id)
	if err != nil {
		return fmt.Errorf("failed to mark payment reconciled: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, error = $2, collection = $3, transactions = $4,
			next_action = $5, updated_at = $6
		WHERE id = $7
	`

	p, err := toPaymentModel(payment)
	if err != nil {
		return err
	}

	result, err := r.q.Exec(ctx, query,
		p.Status,
		p.Error,
		p.Collection,
		p.Transactions,
		p.NextAction,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Payment, error) {
		return scanPayment(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}

// scanPayment converts a database row into a domain Payment.
// Returns ErrPaymentNotFound if the row doesn't exist.
func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var m PaymentModel
	err := row.Scan(
		&m.ID, &m.Identifier, &m.UserID, &m.CurrencyID, &m.Amount, &m.PaymentMethod, &m.ReturnURL,
		&m.Status, &m.Error, &m.Collection, &m.Transactions, &m.NextAction, &m.Data,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	return toDomainPayment(m)
}
