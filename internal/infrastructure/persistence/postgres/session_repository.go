package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/jackc/pgx/v5"
)

var ErrSessionNotFound = domain.NewNotFoundError("session")

const sessionColumns = `
	s.id, s.identifier, s.user_id, s.mode, s.success_url, s.cancel_url,
	s.completed, s.data, s.created_at, s.updated_at`

type SessionRepository struct {
	q Executor
}

func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{q: db.Pool}
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	query := `
		INSERT INTO sessions (
			identifier, user_id, mode, success_url, cancel_url, completed, data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		s.Identifier,
		s.UserID,
		string(s.Mode),
		s.SuccessURL,
		s.CancelURL,
		s.Completed,
		objectJSON(s.Data),
		s.CreatedAt,
		s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		if IsUniqueViolation(err) {
			return domain.NewValidationError("identifier", "session already exists")
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *SessionRepository) FindByIdentifierForUser(ctx context.Context, userID int64, identifier string) (*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions s WHERE s.user_id = $1 AND s.identifier = $2`
	return scanSession(r.q.QueryRow(ctx, query, userID, identifier))
}

// FindByIdentifierForCompanyForUpdate finds a session owned by any user of
// the company and locks it. Sessions of other companies are not visible.
func (r *SessionRepository) FindByIdentifierForCompanyForUpdate(ctx context.Context, companyID int64, identifier string) (*domain.Session, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE u.company_id = $1 AND s.identifier = $2
		FOR UPDATE OF s
	`
	return scanSession(r.q.QueryRow(ctx, query, companyID, identifier))
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64, page Page) ([]*domain.Session, error) {
	page = page.Normalize()
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s WHERE s.user_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, userID, page.Limit, page.Offset)
}

func (r *SessionRepository) ListByCompany(ctx context.Context, companyID int64, page Page) ([]*domain.Session, error) {
	page = page.Normalize()
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions s
		JOIN users u ON u.id = s.user_id
		WHERE u.company_id = $1
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $2 OFFSET $3
	`
	return r.list(ctx, query, companyID, page.Limit, page.Offset)
}

func (r *SessionRepository) Update(ctx context.Context, s *domain.Session) error {
	query := `UPDATE sessions SET completed = $1, updated_at = $2 WHERE id = $3`

	result, err := r.q.Exec(ctx, query, s.Completed, s.UpdatedAt, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *SessionRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Session, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Session, error) {
		return scanSession(row)
	})
	if err != nil {
		return nil, fmt.Errorf("error occurred while scanning rows: %w", err)
	}
	return results, nil
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var m SessionModel
	err := row.Scan(
		&m.ID, &m.Identifier, &m.UserID, &m.Mode, &m.SuccessURL, &m.CancelURL,
		&m.Completed, &m.Data, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return toDomainSession(m), nil
}
