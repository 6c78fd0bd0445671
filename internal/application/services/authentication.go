package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
)

// Principal is an authenticated caller resolved to local rows.
type Principal struct {
	Identity *application.Identity
	User     *domain.User
	Company  *domain.Company
}

type AuthenticationService struct {
	ledger    application.Ledger
	cache     application.IdentityCache
	users     *postgres.UserRepository
	companies *postgres.CompanyRepository
	ttl       time.Duration
	logger    *slog.Logger
}

func NewAuthenticationService(
	ledger application.Ledger,
	cache application.IdentityCache,
	users *postgres.UserRepository,
	companies *postgres.CompanyRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *AuthenticationService {
	return &AuthenticationService{
		ledger:    ledger,
		cache:     cache,
		users:     users,
		companies: companies,
		ttl:       ttl,
		logger:    logger,
	}
}

// AuthenticateAdmin requires the ledger admin group and an existing company.
func (s *AuthenticationService) AuthenticateAdmin(ctx context.Context, token string) (*Principal, error) {
	identity, err := s.identity(ctx, token)
	if err != nil {
		return nil, err
	}
	if !identity.InGroup(domain.AdminGroup) {
		return nil, application.NewAuthenticationFailedError("Invalid admin user")
	}

	company, err := s.companies.FindByIdentifier(ctx, identity.Company)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, application.NewAuthenticationFailedError("Inactive company")
		}
		return nil, application.NewInternalError(err)
	}

	return s.resolve(ctx, identity, company)
}

// AuthenticateUser requires an active company.
func (s *AuthenticationService) AuthenticateUser(ctx context.Context, token string) (*Principal, error) {
	identity, err := s.identity(ctx, token)
	if err != nil {
		return nil, err
	}

	company, err := s.companies.FindByIdentifier(ctx, identity.Company)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, application.NewAuthenticationFailedError("Inactive company")
		}
		return nil, application.NewInternalError(err)
	}
	if !company.Active {
		return nil, application.NewAuthenticationFailedError("Inactive company")
	}

	return s.resolve(ctx, identity, company)
}

// VerifyUncached asks the ledger directly and refreshes the cache entry.
func (s *AuthenticationService) VerifyUncached(ctx context.Context, token string) (*application.Identity, error) {
	if token == "" {
		return nil, application.NewAuthenticationFailedError("Missing token")
	}

	identity, err := s.ledger.VerifyToken(ctx, token)
	if err != nil {
		if ledgerErr, ok := application.IsLedgerError(err); ok && !ledgerErr.IsRetryable() {
			_ = s.cache.Delete(ctx, token)
			return nil, application.NewAuthenticationFailedError("")
		}
		return nil, application.NewLedgerUnavailableError(err)
	}
	if identity.Company == "" {
		return nil, application.NewAuthenticationFailedError("User has no company")
	}

	if err := s.cache.Set(ctx, token, identity, s.ttl); err != nil {
		s.logger.Warn("failed to cache identity", "error", err)
	}
	return identity, nil
}

// Forget drops a token from the cache, used when a token is revoked locally.
func (s *AuthenticationService) Forget(ctx context.Context, token string) {
	if err := s.cache.Delete(ctx, token); err != nil {
		s.logger.Warn("failed to evict identity", "error", err)
	}
}

func (s *AuthenticationService) identity(ctx context.Context, token string) (*application.Identity, error) {
	if token == "" {
		return nil, application.NewAuthenticationFailedError("Missing token")
	}

	identity, ok, err := s.cache.Get(ctx, token)
	if err != nil {
		// The ledger stays authoritative when the cache is down.
		s.logger.Warn("identity cache unavailable", "error", err)
	}
	if ok {
		return identity, nil
	}

	return s.VerifyUncached(ctx, token)
}

func (s *AuthenticationService) resolve(ctx context.Context, identity *application.Identity, company *domain.Company) (*Principal, error) {
	identifier, err := uuid.Parse(identity.ID)
	if err != nil {
		return nil, application.NewAuthenticationFailedError("Invalid user")
	}

	user, err := s.users.GetOrCreate(ctx, identifier, &company.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	if user.CompanyID == nil || *user.CompanyID != company.ID {
		return nil, application.NewAuthenticationFailedError("User belongs to another company")
	}

	return &Principal{Identity: identity, User: user, Company: company}, nil
}
