package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrUserNotFound = domain.NewNotFoundError("user")

const userColumns = `id, identifier, token, company_id, customer_id, created_at, updated_at`

type UserRepository struct {
	q Executor
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (identifier, token, company_id, customer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		u.Identifier, u.Token, u.CompanyID, u.CustomerID, u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetOrCreate returns the user with identifier, creating it under companyID
// when missing. An existing user without a company is attached to companyID.
func (r *UserRepository) GetOrCreate(ctx context.Context, identifier uuid.UUID, companyID *int64) (*domain.User, error) {
	query := `
		INSERT INTO users (identifier, company_id)
		VALUES ($1, $2)
		ON CONFLICT (identifier) DO UPDATE
			SET company_id = COALESCE(users.company_id, EXCLUDED.company_id)
		RETURNING ` + userColumns

	return scanUser(r.q.QueryRow(ctx, query, identifier, companyID))
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.q.QueryRow(ctx, query, id))
}

// FindByIDForUpdate locks the user row until the transaction ends.
func (r *UserRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(r.q.QueryRow(ctx, query, id))
}

func (r *UserRepository) FindByIdentifier(ctx context.Context, identifier uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE identifier = $1`
	return scanUser(r.q.QueryRow(ctx, query, identifier))
}

// FindByIdentifierForCompany scopes the lookup to one company.
func (r *UserRepository) FindByIdentifierForCompany(ctx context.Context, companyID int64, identifier uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE company_id = $1 AND identifier = $2`
	return scanUser(r.q.QueryRow(ctx, query, companyID, identifier))
}

func (r *UserRepository) ListByCompany(ctx context.Context, companyID int64, page Page) ([]*domain.User, error) {
	page = page.Normalize()
	query := `
		SELECT ` + userColumns + `
		FROM users WHERE company_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, fmt.Errorf("query users by company: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.User, error) {
		return scanUser(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET token = $1, company_id = $2, customer_id = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.q.Exec(ctx, query, u.Token, u.CompanyID, u.CustomerID, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var m UserModel
	err := row.Scan(&m.ID, &m.Identifier, &m.Token, &m.CompanyID, &m.CustomerID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return toDomainUser(m), nil
}
