package services

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
)

var ErrPaymentMethodNotFound = domain.NewNotFoundError("payment method")

type CustomerService struct {
	processor application.Processor
	tc        *postgres.TransactionCoordinator
	logger    *slog.Logger
}

func NewCustomerService(processor application.Processor, tc *postgres.TransactionCoordinator, logger *slog.Logger) *CustomerService {
	return &CustomerService{
		processor: processor,
		tc:        tc,
		logger:    logger,
	}
}

// EnsureCustomer binds the user to a processor customer once. The user row is
// locked while the customer is created so concurrent requests do not create two.
// email may be empty.
func (s *CustomerService) EnsureCustomer(ctx context.Context, company *domain.Company, user *domain.User, email string) error {
	if user.Configured() {
		return nil
	}

	err := s.tc.WithTransaction(ctx, func(ctx context.Context, repos *postgres.Repositories) error {
		locked, err := repos.Users.FindByIDForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		if locked.Configured() {
			user.BindCustomer(*locked.CustomerID)
			return nil
		}

		customerID, err := s.processor.CreateCustomer(ctx, company.APIKey, application.CreateCustomerRequest{
			UserIdentifier: user.Identifier.String(),
			Email:          email,
		})
		if err != nil {
			return processorFailure(err)
		}

		locked.BindCustomer(customerID)
		if err := repos.Users.Update(ctx, locked); err != nil {
			return err
		}
		user.BindCustomer(customerID)
		return nil
	})
	if err != nil {
		return asServiceError(err)
	}

	s.logger.Info("bound processor customer", "user", user.Identifier, "customer", *user.CustomerID)
	return nil
}

// ValidatePaymentMethod fails with NotFound unless methodID belongs to the
// user's own customer.
func (s *CustomerService) ValidatePaymentMethod(ctx context.Context, company *domain.Company, user *domain.User, methodID string) (*application.PaymentMethod, error) {
	if !user.Configured() || methodID == "" {
		return nil, ErrPaymentMethodNotFound
	}

	method, err := s.processor.GetPaymentMethod(ctx, company.APIKey, methodID)
	if err != nil {
		if procErr, ok := application.IsProcessorError(err); ok && procErr.StatusCode == http.StatusNotFound {
			return nil, ErrPaymentMethodNotFound
		}
		return nil, processorFailure(err)
	}
	if method.CustomerID != *user.CustomerID {
		s.logger.Warn("payment method owned by another customer",
			"user", user.Identifier,
			"payment_method", methodID,
		)
		return nil, ErrPaymentMethodNotFound
	}

	return method, nil
}

// ListPaymentMethods returns the user's saved cards; empty until a customer exists.
func (s *CustomerService) ListPaymentMethods(ctx context.Context, company *domain.Company, user *domain.User) ([]application.PaymentMethod, error) {
	if !user.Configured() {
		return []application.PaymentMethod{}, nil
	}

	methods, err := s.processor.ListPaymentMethods(ctx, company.APIKey, *user.CustomerID)
	if err != nil {
		return nil, processorFailure(err)
	}
	if methods == nil {
		methods = []application.PaymentMethod{}
	}
	return methods, nil
}
