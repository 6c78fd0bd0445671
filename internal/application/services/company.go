package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
)

type CompanyService struct {
	currencies    *postgres.CurrencyRepository
	processor     application.Processor
	tc            *postgres.TransactionCoordinator
	publicBaseURL string
	logger        *slog.Logger
}

func NewCompanyService(
	currencies *postgres.CurrencyRepository,
	processor application.Processor,
	tc *postgres.TransactionCoordinator,
	publicBaseURL string,
	logger *slog.Logger,
) *CompanyService {
	return &CompanyService{
		currencies:    currencies,
		processor:     processor,
		tc:            tc,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
	}
}

func (s *CompanyService) Get(ctx context.Context, company *domain.Company) (*CompanyView, error) {
	currencies, err := s.currencies.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return &CompanyView{Company: company, Currencies: currencies}, nil
}

// WebhookURL is the canonical endpoint the processor delivers a company's events to.
func (s *CompanyService) WebhookURL(companyIdentifier string) string {
	return fmt.Sprintf("%s/api/webhook/%s/", s.publicBaseURL, companyIdentifier)
}

// Update applies an admin's changes. Local field errors are collected and
// reported together before the processor is contacted.
func (s *CompanyService) Update(ctx context.Context, company *domain.Company, cmd UpdateCompanyCommand) (*CompanyView, error) {
	fields := domain.FieldErrors{}

	if cmd.APIKey != nil && strings.TrimSpace(*cmd.APIKey) == "" {
		fields.Add("api_key", "must not be blank")
	}
	if cmd.PublishableKey != nil && strings.TrimSpace(*cmd.PublishableKey) == "" {
		fields.Add("publishable_key", "must not be blank")
	}
	if cmd.SuccessURL != nil {
		checkURL(fields, "success_url", *cmd.SuccessURL)
	}
	if cmd.CancelURL != nil {
		checkURL(fields, "cancel_url", *cmd.CancelURL)
	}

	if cmd.Currencies != nil {
		known, err := s.currencies.ListByCompany(ctx, company.ID)
		if err != nil {
			return nil, application.NewInternalError(err)
		}
		codes := make([]string, 0, len(known))
		for _, c := range known {
			codes = append(codes, c.Code)
		}
		var unknown []string
		for _, code := range cmd.Currencies {
			if !slices.Contains(codes, code) {
				unknown = append(unknown, code)
			}
		}
		if len(unknown) > 0 {
			fields.Add("currencies", "unknown currency codes: "+strings.Join(unknown, ", "))
		}
	}

	if err := fields.Err(); err != nil {
		return nil, err
	}

	var webhookSecret string
	keyChanged := cmd.APIKey != nil && *cmd.APIKey != company.APIKey
	if keyChanged {
		secret, err := s.configureProcessor(ctx, company, *cmd.APIKey)
		if err != nil {
			return nil, err
		}
		webhookSecret = secret
	}

	var updated *domain.Company
	err := s.tc.WithTransaction(ctx, func(ctx context.Context, repos *postgres.Repositories) error {
		locked, err := repos.Companies.FindByIdentifierForUpdate(ctx, company.Identifier)
		if err != nil {
			return err
		}

		if keyChanged {
			locked.APIKey = *cmd.APIKey
			if webhookSecret != "" {
				locked.WebhookSecret = webhookSecret
			}
		}
		if cmd.PublishableKey != nil {
			locked.PublishableKey = *cmd.PublishableKey
		}
		if cmd.SuccessURL != nil {
			locked.SuccessURL = *cmd.SuccessURL
		}
		if cmd.CancelURL != nil {
			locked.CancelURL = *cmd.CancelURL
		}

		if err := repos.Companies.Update(ctx, locked); err != nil {
			return err
		}
		if cmd.Currencies != nil {
			if err := repos.Currencies.SetEnabled(ctx, locked.ID, cmd.Currencies); err != nil {
				return err
			}
		}
		updated = locked
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.logger.Info("company updated", "company", updated.Identifier, "api_key_changed", keyChanged)
	return s.Get(ctx, updated)
}

// configureProcessor makes sure the processor delivers this company's events to
// us. It returns the signing secret of a newly registered endpoint, or "" when
// one already exists at the canonical URL, in which case the stored secret is kept.
func (s *CompanyService) configureProcessor(ctx context.Context, company *domain.Company, apiKey string) (string, error) {
	webhookURL := s.WebhookURL(company.Identifier)

	endpoints, err := s.processor.ListWebhookEndpoints(ctx, apiKey)
	if err != nil {
		return "", credentialFailure(err)
	}
	for _, ep := range endpoints {
		if ep.URL == webhookURL {
			if company.WebhookSecret == "" {
				s.logger.Warn("webhook endpoint exists but no signing secret is stored",
					"company", company.Identifier,
					"endpoint_id", ep.ID,
				)
			}
			return "", nil
		}
	}

	endpoint, err := s.processor.CreateWebhookEndpoint(ctx, apiKey, application.CreateWebhookEndpointRequest{
		URL:    webhookURL,
		Events: application.WebhookEvents,
	})
	if err != nil {
		return "", credentialFailure(err)
	}
	return endpoint.Secret, nil
}

func credentialFailure(err error) error {
	if procErr, ok := application.IsProcessorError(err); ok && procErr.IsAuthentication() {
		return application.NewInvalidCredentialsError(err)
	}
	return application.NewProcessorError(err)
}
