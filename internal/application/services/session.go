package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
)

type SessionService struct {
	sessions  *postgres.SessionRepository
	customers *CustomerService
	processor application.Processor
	logger    *slog.Logger
}

func NewSessionService(
	sessions *postgres.SessionRepository,
	customers *CustomerService,
	processor application.Processor,
	logger *slog.Logger,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		customers: customers,
		processor: processor,
		logger:    logger,
	}
}

// Create opens a hosted setup flow for the user to save a card.
func (s *SessionService) Create(ctx context.Context, company *domain.Company, user *domain.User, cmd CreateSessionCommand) (*domain.Session, error) {
	if err := requireConfigured(company); err != nil {
		return nil, err
	}

	fields := domain.FieldErrors{}
	if cmd.Mode == "" {
		cmd.Mode = domain.SessionModeSetup
	}
	if cmd.Mode != domain.SessionModeSetup {
		fields.Add("mode", fmt.Sprintf("unsupported mode %q", cmd.Mode))
	}
	if cmd.SuccessURL == "" {
		cmd.SuccessURL = company.SuccessURL
	}
	if cmd.CancelURL == "" {
		cmd.CancelURL = company.CancelURL
	}
	checkURL(fields, "success_url", cmd.SuccessURL)
	checkURL(fields, "cancel_url", cmd.CancelURL)
	if err := fields.Err(); err != nil {
		return nil, err
	}

	if err := s.customers.EnsureCustomer(ctx, company, user, cmd.Email); err != nil {
		return nil, err
	}

	processorSession, err := s.processor.CreateSetupSession(ctx, company.APIKey, application.SetupSessionRequest{
		CustomerID: *user.CustomerID,
		SuccessURL: cmd.SuccessURL,
		CancelURL:  cmd.CancelURL,
	})
	if err != nil {
		return nil, processorFailure(err)
	}

	session, err := domain.NewSession(
		processorSession.ID,
		user.ID,
		cmd.Mode,
		cmd.SuccessURL,
		cmd.CancelURL,
		processorSession.Raw,
	)
	if err != nil {
		return nil, asServiceError(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("setup session created", "session", session.Identifier, "user", user.Identifier)
	return session, nil
}

func (s *SessionService) Get(ctx context.Context, user *domain.User, identifier string) (*domain.Session, error) {
	session, err := s.sessions.FindByIdentifierForUser(ctx, user.ID, identifier)
	if err != nil {
		return nil, asServiceError(err)
	}
	return session, nil
}

func (s *SessionService) List(ctx context.Context, user *domain.User, page postgres.Page) ([]*domain.Session, error) {
	sessions, err := s.sessions.ListByUser(ctx, user.ID, page)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return sessions, nil
}

func (s *SessionService) ListForCompany(ctx context.Context, company *domain.Company, page postgres.Page) ([]*domain.Session, error) {
	sessions, err := s.sessions.ListByCompany(ctx, company.ID, page)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return sessions, nil
}
