package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrCurrencyNotFound = domain.NewNotFoundError("currency")

const currencyColumns = `
	id, company_id, code, display_code, description, symbol, unit,
	divisibility, enabled, created_at, updated_at`

type CurrencyRepository struct {
	q Executor
}

func NewCurrencyRepository(db *DB) *CurrencyRepository {
	return &CurrencyRepository{q: db.Pool}
}

// CreateIfAbsent inserts the currency unless the company already has the
// code. Existing rows are never overwritten.
func (r *CurrencyRepository) CreateIfAbsent(ctx context.Context, c *domain.Currency) (bool, error) {
	query := `
		INSERT INTO currencies (
			company_id, code, display_code, description, symbol, unit,
			divisibility, enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (company_id, code) DO NOTHING
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		c.CompanyID,
		c.Code,
		c.DisplayCode,
		c.Description,
		c.Symbol,
		c.Unit,
		c.Divisibility,
		c.Enabled,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create currency: %w", err)
	}
	return true, nil
}

func (r *CurrencyRepository) FindByID(ctx context.Context, id int64) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE id = $1`
	return scanCurrency(r.q.QueryRow(ctx, query, id))
}

func (r *CurrencyRepository) FindByCode(ctx context.Context, companyID int64, code string) (*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE company_id = $1 AND code = $2`
	return scanCurrency(r.q.QueryRow(ctx, query, companyID, code))
}

func (r *CurrencyRepository) ListByCompany(ctx context.Context, companyID int64) ([]*domain.Currency, error) {
	query := `SELECT ` + currencyColumns + ` FROM currencies WHERE company_id = $1 ORDER BY code`

	rows, err := r.q.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("query currencies by company: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Currency, error) {
		return scanCurrency(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}

// SetEnabled enables exactly the given codes for the company and disables the rest.
func (r *CurrencyRepository) SetEnabled(ctx context.Context, companyID int64, codes []string) error {
	query := `
		UPDATE currencies
		SET enabled = (code = ANY($2)), updated_at = NOW()
		WHERE company_id = $1
	`

	if codes == nil {
		codes = []string{}
	}
	if _, err := r.q.Exec(ctx, query, companyID, codes); err != nil {
		return fmt.Errorf("failed to update enabled currencies: %w", err)
	}
	return nil
}

func scanCurrency(row pgx.Row) (*domain.Currency, error) {
	var m CurrencyModel
	err := row.Scan(
		&m.ID, &m.CompanyID, &m.Code, &m.DisplayCode, &m.Description, &m.Symbol, &m.Unit,
		&m.Divisibility, &m.Enabled, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCurrencyNotFound
		}
		return nil, fmt.Errorf("failed to scan currency: %w", err)
	}
	return toDomainCurrency(m), nil
}
