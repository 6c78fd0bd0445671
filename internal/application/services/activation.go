package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
)

// Ledger subtype every processor deposit is posted under.
const (
	DepositSubtype     = "deposit_stripe"
	DepositTxType      = "credit"
	DepositDescription = "Deposit from Stripe"
	DepositStatus      = "complete"
)

type ActivationService struct {
	auth       *AuthenticationService
	ledger     application.Ledger
	currencies *postgres.CurrencyRepository
	tc         *postgres.TransactionCoordinator
	logger     *slog.Logger
}

func NewActivationService(
	auth *AuthenticationService,
	ledger application.Ledger,
	currencies *postgres.CurrencyRepository,
	tc *postgres.TransactionCoordinator,
	logger *slog.Logger,
) *ActivationService {
	return &ActivationService{
		auth:       auth,
		ledger:     ledger,
		currencies: currencies,
		tc:         tc,
		logger:     logger,
	}
}

// Activate registers or re-activates the caller's company with the caller as admin.
// Ledger reads happen before any local write so a ledger outage leaves nothing behind.
func (s *ActivationService) Activate(ctx context.Context, token string) (*CompanyView, error) {
	identity, identifier, err := s.verifyAdmin(ctx, token)
	if err != nil {
		return nil, err
	}

	ledgerCurrencies, err := s.ledger.ListCurrencies(ctx, token)
	if err != nil {
		return nil, application.NewLedgerUnavailableError(err)
	}
	if err := s.ensureSubtype(ctx, token); err != nil {
		return nil, err
	}

	var company *domain.Company
	err = s.tc.WithTransaction(ctx, func(ctx context.Context, repos *postgres.Repositories) error {
		admin, err := repos.Users.GetOrCreate(ctx, identifier, nil)
		if err != nil {
			return err
		}

		company, err = repos.Companies.FindByIdentifierForUpdate(ctx, identity.Company)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if admin.CompanyID != nil && (company == nil || *admin.CompanyID != company.ID) {
			return application.NewAuthenticationFailedError("User belongs to another company")
		}

		switch {
		case errors.Is(err, domain.ErrNotFound):
			company, err = domain.NewCompany(identity.Company, admin.ID)
			if err != nil {
				return err
			}
			if err := repos.Companies.Create(ctx, company); err != nil {
				return err
			}
		default:
			if company.AdminID != admin.ID {
				if err := s.clearAdminToken(ctx, repos, company.AdminID); err != nil {
					return err
				}
			}
			company.Activate(admin.ID)
			if err := repos.Companies.Update(ctx, company); err != nil {
				return err
			}
		}

		admin.SetToken(token)
		if admin.CompanyID == nil {
			admin.CompanyID = &company.ID
		}
		if err := repos.Users.Update(ctx, admin); err != nil {
			return err
		}

		return s.mirrorCurrencies(ctx, repos, company.ID, ledgerCurrencies)
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	currencies, err := s.currencies.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("company activated",
		"company", company.Identifier,
		"admin", identity.ID,
		"currencies", len(currencies),
	)

	return &CompanyView{Company: company, Currencies: currencies}, nil
}

// Deactivate stops the company from taking payments and forgets the admin's credential.
func (s *ActivationService) Deactivate(ctx context.Context, token string) error {
	identity, _, err := s.verifyAdmin(ctx, token)
	if err != nil {
		return err
	}

	err = s.tc.WithTransaction(ctx, func(ctx context.Context, repos *postgres.Repositories) error {
		company, err := repos.Companies.FindByIdentifierForUpdate(ctx, identity.Company)
		if err != nil {
			return err
		}

		company.Deactivate()
		if err := repos.Companies.Update(ctx, company); err != nil {
			return err
		}
		return s.clearAdminToken(ctx, repos, company.AdminID)
	})
	if err != nil {
		return asServiceError(err)
	}

	s.auth.Forget(ctx, token)
	s.logger.Info("company deactivated", "company", identity.Company, "admin", identity.ID)
	return nil
}

func (s *ActivationService) verifyAdmin(ctx context.Context, token string) (*application.Identity, uuid.UUID, error) {
	identity, err := s.auth.VerifyUncached(ctx, token)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !identity.InGroup(domain.AdminGroup) {
		return nil, uuid.Nil, application.NewAuthenticationFailedError("Invalid admin user")
	}

	identifier, err := uuid.Parse(identity.ID)
	if err != nil {
		return nil, uuid.Nil, application.NewAuthenticationFailedError("Invalid user")
	}
	return identity, identifier, nil
}

func (s *ActivationService) clearAdminToken(ctx context.Context, repos *postgres.Repositories, adminID int64) error {
	previous, err := repos.Users.FindByIDForUpdate(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	if previous.Token == nil {
		return nil
	}
	previous.ClearToken()
	return repos.Users.Update(ctx, previous)
}

// mirrorCurrencies creates local rows for ledger currencies that are not known yet.
// Existing rows are never overwritten.
func (s *ActivationService) mirrorCurrencies(ctx context.Context, repos *postgres.Repositories, companyID int64, ledgerCurrencies []application.LedgerCurrency) error {
	for _, lc := range ledgerCurrencies {
		currency, err := domain.NewCurrency(companyID, lc.Code, lc.Divisibility)
		if err != nil {
			s.logger.Warn("skipping ledger currency", "code", lc.Code, "error", err)
			continue
		}
		currency.DisplayCode = lc.DisplayCode
		currency.Description = lc.Description
		currency.Symbol = lc.Symbol
		currency.Unit = lc.Unit

		if _, err := repos.Currencies.CreateIfAbsent(ctx, currency); err != nil {
			return err
		}
	}
	return nil
}

func (s *ActivationService) ensureSubtype(ctx context.Context, token string) error {
	subtypes, err := s.ledger.ListSubtypes(ctx, token)
	if err != nil {
		return application.NewLedgerUnavailableError(err)
	}
	for _, st := range subtypes {
		if st.Name == DepositSubtype && st.TxType == DepositTxType {
			return nil
		}
	}

	_, err = s.ledger.CreateSubtype(ctx, token, application.CreateSubtypeRequest{
		Name:        DepositSubtype,
		TxType:      DepositTxType,
		Description: DepositDescription,
	})
	if err != nil {
		return application.NewLedgerUnavailableError(err)
	}
	s.logger.Info("created ledger subtype", "name", DepositSubtype)
	return nil
}
