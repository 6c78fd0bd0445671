package services

import (
	"context"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
)

// QueryService serves the read-only admin listings.
type QueryService struct {
	currencies *postgres.CurrencyRepository
	users      *postgres.UserRepository
}

func NewQueryService(currencies *postgres.CurrencyRepository, users *postgres.UserRepository) *QueryService {
	return &QueryService{
		currencies: currencies,
		users:      users,
	}
}

func (s *QueryService) ListCurrencies(ctx context.Context, company *domain.Company) ([]*domain.Currency, error) {
	currencies, err := s.currencies.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return currencies, nil
}

func (s *QueryService) GetCurrency(ctx context.Context, company *domain.Company, code string) (*domain.Currency, error) {
	currency, err := s.currencies.FindByCode(ctx, company.ID, code)
	if err != nil {
		return nil, asServiceError(err)
	}
	return currency, nil
}

func (s *QueryService) ListUsers(ctx context.Context, company *domain.Company, page postgres.Page) ([]*domain.User, error) {
	users, err := s.users.ListByCompany(ctx, company.ID, page)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return users, nil
}

func (s *QueryService) GetUser(ctx context.Context, company *domain.Company, identifier uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByIdentifierForCompany(ctx, company.ID, identifier)
	if err != nil {
		return nil, asServiceError(err)
	}
	return user, nil
}
