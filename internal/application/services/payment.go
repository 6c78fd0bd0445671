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

type PaymentService struct {
	payments   *postgres.PaymentRepository
	currencies *postgres.CurrencyRepository
	customers  *CustomerService
	processor  application.Processor
	ledger     application.Ledger
	tc         *postgres.TransactionCoordinator
	logger     *slog.Logger
}

func NewPaymentService(
	payments *postgres.PaymentRepository,
	currencies *postgres.CurrencyRepository,
	customers *CustomerService,
	processor application.Processor,
	ledger application.Ledger,
	tc *postgres.TransactionCoordinator,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		payments:   payments,
		currencies: currencies,
		customers:  customers,
		processor:  processor,
		ledger:     ledger,
		tc:         tc,
		logger:     logger,
	}
}

// Create charges a saved card on-session. A decline is returned to the caller
// with the processor's reason and nothing is written locally.
func (s *PaymentService) Create(ctx context.Context, company *domain.Company, user *domain.User, cmd CreatePaymentCommand) (*PaymentView, error) {
	if err := requireConfigured(company); err != nil {
		return nil, err
	}

	fields := domain.FieldErrors{}
	var currency *domain.Currency
	if cmd.Currency == "" {
		fields.Add("currency", "is required")
	} else {
		c, err := s.currencies.FindByCode(ctx, company.ID, cmd.Currency)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			fields.Add("currency", "currency is not accepted by this company")
		case err != nil:
			return nil, application.NewInternalError(err)
		case !c.Enabled:
			fields.Add("currency", "currency is not accepted by this company")
		default:
			currency = c
		}
	}
	if cmd.Amount <= 0 {
		fields.Add("amount", "must be greater than zero")
	}
	if cmd.PaymentMethod == "" {
		fields.Add("payment_method", "is required")
	}
	if cmd.ReturnURL != "" {
		checkURL(fields, "return_url", cmd.ReturnURL)
	}
	if err := fields.Err(); err != nil {
		return nil, err
	}

	amount, err := domain.FromMinorUnits(cmd.Amount, currency.Divisibility)
	if err != nil {
		return nil, err
	}
	minor, err := domain.ToMinorUnits(amount, currency.Divisibility)
	if err != nil {
		return nil, err
	}

	if err := s.customers.EnsureCustomer(ctx, company, user, cmd.Email); err != nil {
		return nil, err
	}
	method, err := s.customers.ValidatePaymentMethod(ctx, company, user, cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	intent, err := s.processor.CreatePaymentIntent(ctx, company.APIKey, application.PaymentIntentRequest{
		CustomerID:    *user.CustomerID,
		PaymentMethod: method.ID,
		Amount:        minor,
		Currency:      currency.Code,
		ReturnURL:     cmd.ReturnURL,
		Metadata: map[string]string{
			"user":    user.Identifier.String(),
			"company": company.Identifier,
		},
		IdempotencyKey: "payment-" + user.Identifier.String() + "-" + uuid.NewString(),
	})
	if err != nil {
		if procErr, ok := application.IsProcessorError(err); ok && procErr.Declined {
			s.logger.Info("payment declined",
				"user", user.Identifier,
				"code", procErr.Code,
			)
		}
		return nil, processorFailure(err)
	}

	payment, err := domain.NewPayment(intent.ID, user.ID, currency.ID, amount, method.ID, cmd.ReturnURL)
	if err != nil {
		return nil, asServiceError(err)
	}
	payment.NextAction = intent.NextAction
	payment.Data = intent.Raw

	if err := s.payments.Create(ctx, payment); err != nil {
		// The intent is already confirmed at the processor but no row exists
		// for the webhook or the reconciler to settle.
		s.logger.Error("confirmed intent could not be stored, reconcile by hand",
			"intent", intent.ID,
			"intent_status", intent.Status,
			"user", user.Identifier,
			"company", company.Identifier,
			"amount", amount.String(),
			"currency", currency.Code,
			"error", err,
		)
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("payment created",
		"payment", payment.Identifier,
		"user", user.Identifier,
		"amount", amount.String(),
		"currency", currency.Code,
		"intent_status", intent.Status,
	)

	return &PaymentView{Payment: payment, Currency: currency}, nil
}

// Transition moves a PROCESSING payment to a terminal state. For SUCCEEDED the
// ledger credit is posted inside the same database transaction: if the post
// fails nothing is committed and the payment stays PROCESSING.
func (s *PaymentService) Transition(ctx context.Context, paymentID int64, target domain.PaymentStatus, errMsg string) (*domain.Payment, error) {
	var result *domain.Payment

	err := s.tc.WithTransaction(ctx, func(ctx context.Context, repos *postgres.Repositories) error {
		payment, err := repos.Payments.FindByIDForUpdate(ctx, paymentID)
		if err != nil {
			return err
		}

		if err := payment.TransitionTo(target, errMsg); err != nil {
			return err
		}

		if target == domain.StatusSucceeded {
			if err := s.postCredit(ctx, repos, payment); err != nil {
				return err
			}
		}

		if err := repos.Payments.Update(ctx, payment); err != nil {
			return err
		}
		result = payment
		return nil
	})
	if err != nil {
		return nil, asServiceError(err)
	}

	s.logger.Info("payment transitioned",
		"payment", result.Identifier,
		"status", result.Status,
		"collection", result.Collection,
	)
	return result, nil
}

func (s *PaymentService) postCredit(ctx context.Context, repos *postgres.Repositories, payment *domain.Payment) error {
	user, err := repos.Users.FindByID(ctx, payment.UserID)
	if err != nil {
		return err
	}
	if user.CompanyID == nil {
		return application.NewInternalError(errors.New("payment user has no company"))
	}
	company, err := repos.Companies.FindByID(ctx, *user.CompanyID)
	if err != nil {
		return err
	}
	admin, err := repos.Users.FindByID(ctx, company.AdminID)
	if err != nil {
		return err
	}
	if admin.Token == nil {
		return application.NewLedgerUnavailableError(errors.New("company admin has no ledger credential"))
	}
	currency, err := repos.Currencies.FindByID(ctx, payment.CurrencyID)
	if err != nil {
		return err
	}

	minor, err := domain.ToMinorUnits(payment.Amount, currency.Divisibility)
	if err != nil {
		return err
	}

	collection, err := s.ledger.CreateTransactionCollection(ctx, *admin.Token, application.TransactionCollectionRequest{
		Transactions: []application.LedgerTransaction{{
			User:     user.Identifier.String(),
			Amount:   minor,
			Currency: currency.Code,
			Status:   DepositStatus,
			Subtype:  DepositSubtype,
			TxType:   DepositTxType,
			Metadata: map[string]string{
				"stripe_payment_intent": payment.Identifier,
				"stripe_payment_method": payment.PaymentMethod,
			},
		}},
	})
	if err != nil {
		s.logger.Error("ledger post failed", "payment", payment.Identifier, "error", err)
		return application.NewLedgerUnavailableError(err)
	}

	payment.RecordLedgerPosting(collection.ID, collection.Transactions)
	return nil
}

func (s *PaymentService) Get(ctx context.Context, user *domain.User, identifier string) (*PaymentView, error) {
	payment, err := s.payments.FindByIdentifierForUser(ctx, user.ID, identifier)
	if err != nil {
		return nil, asServiceError(err)
	}
	return s.view(ctx, payment)
}

func (s *PaymentService) List(ctx context.Context, company *domain.Company, user *domain.User, page postgres.Page) ([]*PaymentView, error) {
	payments, err := s.payments.ListByUser(ctx, user.ID, page)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return s.views(ctx, company, payments)
}

func (s *PaymentService) GetForCompany(ctx context.Context, company *domain.Company, identifier string) (*PaymentView, error) {
	payment, err := s.payments.FindByIdentifierForCompany(ctx, company.ID, identifier)
	if err != nil {
		return nil, asServiceError(err)
	}
	return s.view(ctx, payment)
}

func (s *PaymentService) ListForCompany(ctx context.Context, company *domain.Company, page postgres.Page) ([]*PaymentView, error) {
	payments, err := s.payments.ListByCompany(ctx, company.ID, page)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return s.views(ctx, company, payments)
}

func (s *PaymentService) view(ctx context.Context, payment *domain.Payment) (*PaymentView, error) {
	currency, err := s.currencies.FindByID(ctx, payment.CurrencyID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return &PaymentView{Payment: payment, Currency: currency}, nil
}

func (s *PaymentService) views(ctx context.Context, company *domain.Company, payments []*domain.Payment) ([]*PaymentView, error) {
	currencies, err := s.currencies.ListByCompany(ctx, company.ID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	byID := make(map[int64]*domain.Currency, len(currencies))
	for _, c := range currencies {
		byID[c.ID] = c
	}

	views := make([]*PaymentView, 0, len(payments))
	for _, p := range payments {
		views = append(views, &PaymentView{Payment: p, Currency: byID[p.CurrencyID]})
	}
	return views, nil
}
