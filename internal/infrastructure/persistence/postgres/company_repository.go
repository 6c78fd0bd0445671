package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrCompanyNotFound = domain.NewNotFoundError("company")

const companyColumns = `
	id, identifier, admin_id, secret, api_key, publishable_key, webhook_secret,
	success_url, cancel_url, active, created_at, updated_at`

type CompanyRepository struct {
	q Executor
}

func NewCompanyRepository(db *DB) *CompanyRepository {
	return &CompanyRepository{q: db.Pool}
}

func (r *CompanyRepository) Create(ctx context.Context, c *domain.Company) error {
	query := `
		INSERT INTO companies (
			identifier, admin_id, secret, api_key, publishable_key, webhook_secret,
			success_url, cancel_url, active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		c.Identifier,
		c.AdminID,
		c.Secret,
		c.APIKey,
		c.PublishableKey,
		c.WebhookSecret,
		c.SuccessURL,
		c.CancelURL,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	).Scan(&c.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewValidationError("identifier", "company already exists")
		}
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

func (r *CompanyRepository) FindByID(ctx context.Context, id int64) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return scanCompany(r.q.QueryRow(ctx, query, id))
}

func (r *CompanyRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE identifier = $1`
	return scanCompany(r.q.QueryRow(ctx, query, identifier))
}

// FindByIdentifierForUpdate locks the company row until the transaction ends.
func (r *CompanyRepository) FindByIdentifierForUpdate(ctx context.Context, identifier string) (*domain.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE identifier = $1 FOR UPDATE`
	return scanCompany(r.q.QueryRow(ctx, query, identifier))
}

func (r *CompanyRepository) Update(ctx context.Context, c *domain.Company) error {
	query := `
		UPDATE companies
		SET admin_id = $1, api_key = $2, publishable_key = $3, webhook_secret = $4,
			success_url = $5, cancel_url = $6, active = $7, updated_at = $8
		WHERE id = $9
	`

	result, err := r.q.Exec(ctx, query,
		c.AdminID,
		c.APIKey,
		c.PublishableKey,
		c.WebhookSecret,
		c.SuccessURL,
		c.CancelURL,
		c.Active,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update company: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrCompanyNotFound
	}
	return nil
}

func scanCompany(row pgx.Row) (*domain.Company, error) {
	var m CompanyModel
	err := row.Scan(
		&m.ID, &m.Identifier, &m.AdminID, &m.Secret, &m.APIKey, &m.PublishableKey, &m.WebhookSecret,
		&m.SuccessURL, &m.CancelURL, &m.Active, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("failed to scan company: %w", err)
	}
	return toDomainCompany(m), nil
}
