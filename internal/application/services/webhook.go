package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
)

// WebhookService verifies processor events and drives the matching local
// session or payment. Lookups are always scoped to the company in the URL.
type WebhookService struct {
	companies      *postgres.CompanyRepository
	payments       *postgres.PaymentRepository
	paymentService *PaymentService
	processor      application.Processor
	tc             *postgres.TransactionCoordinator
	logger         *slog.Logger
}

func NewWebhookService(
	companies *postgres.CompanyRepository,
	payments *postgres.PaymentRepository,
	paymentService *PaymentService,
	processor application.Processor,
	tc *postgres.TransactionCoordinator,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		companies:      companies,
		payments:       payments,
		paymentService: paymentService,
		processor:      processor,
		tc:             tc,
		logger:         logger,
	}
}

func (s *WebhookService) Handle(ctx context.Context, companyIdentifier string, body []byte, signature string) (*WebhookResult, error) {
	company, err := s.companies.FindByIdentifier(ctx, companyIdentifier)
	if err != nil {
		return nil, asServiceError(err)
	}
	if err := requireConfigured(company); err != nil {
		return nil, err
	}

	event, err := s.processor.ParseEvent(body, signature, company.WebhookSecret)
	if err != nil {
		s.logger.Warn("rejected webhook", "company", company.Identifier, "error", err)
		switch {
		case errors.Is(err, application.ErrInvalidSignature):
			return nil, application.NewInvalidSignatureError(err)
		case errors.Is(err, application.ErrInvalidPayload):
			return nil, application.NewInvalidPayloadError(err)
		default:
			return nil, application.NewInternalError(err)
		}
	}

	logger := s.logger.With("company", company.Identifier, "event_id", event.ID, "event_type", event.Type)

	switch event.Type {
	case application.EventCheckoutSessionCompleted:
		return s.completeSession(ctx, logger, company, event)
	case application.EventPaymentIntentSucceeded:
		return s.transitionPayment(ctx, logger, company, event, domain.StatusSucceeded, "")
	case application.EventPaymentIntentPaymentFailed:
		return s.transitionPayment(ctx, logger, company, event, domain.StatusFailed, event.ErrorMessage)
	default:
		logger.Debug("ignoring unhandled event type")
		return &WebhookResult{Message: fmt.Sprintf("Unhandled event type: %s", event.Type)}, nil
	}
}

func (s *WebhookService) completeSession(ctx context.Context, logger *slog.Logger, company *domain.Company, event *application.Event) (*WebhookResult, error) {
	var already bool
	err := s.tc.WithTransaction(ctx, func(ctx context.Context, repos *postgres.Repositories) error {
		session, err := repos.Sessions.FindByIdentifierForCompanyForUpdate(ctx, company.ID, event.ObjectID)
		if err != nil {
			return err
		}
		if session.Completed {
			already = true
			return nil
		}
		if err := session.Complete(); err != nil {
			return err
		}
		return repos.Sessions.Update(ctx, session)
	})
	switch {
	case errors.Is(err, domain.ErrNotFound):
		logger.Info("session not owned by this service", "session", event.ObjectID)
		return &WebhookResult{Message: "Unknown session: " + event.ObjectID}, nil
	case err != nil:
		return nil, asServiceError(err)
	case already:
		return &WebhookResult{Message: "Session already completed"}, nil
	}

	logger.Info("session completed", "session", event.ObjectID)
	return &WebhookResult{}, nil
}

func (s *WebhookService) transitionPayment(
	ctx context.Context,
	logger *slog.Logger,
	company *domain.Company,
	event *application.Event,
	target domain.PaymentStatus,
	errMsg string,
) (*WebhookResult, error) {
	payment, err := s.payments.FindByIdentifierForCompany(ctx, company.ID, event.ObjectID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("payment not owned by this service", "payment", event.ObjectID)
			return &WebhookResult{Message: "Unknown payment: " + event.ObjectID}, nil
		}
		return nil, asServiceError(err)
	}

	_, err = s.paymentService.Transition(ctx, payment.ID, target, errMsg)
	if err != nil {
		// Replays and the losing side of a race land here.
		if errors.Is(err, domain.ErrInvalidTransition) {
			logger.Info("payment already final", "payment", payment.Identifier)
			return &WebhookResult{Message: "Payment already processed"}, nil
		}
		logger.Error("payment transition failed", "payment", payment.Identifier, "error", err)
		return nil, err
	}

	return &WebhookResult{}, nil
}
