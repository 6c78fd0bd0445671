package services

import (
	"errors"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/go-playground/validator"
)

var validate = validator.New()

// processorFailure maps adapter errors to the service taxonomy.
func processorFailure(err error) error {
	procErr, ok := application.IsProcessorError(err)
	if !ok {
		return application.NewProcessorError(err)
	}
	if procErr.Declined {
		return application.NewPaymentDeclinedError(procErr.Message, err)
	}
	return application.NewProcessorError(err)
}

// asServiceError passes service and domain errors through and wraps the rest as internal.
func asServiceError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := application.IsServiceError(err); ok {
		return err
	}
	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	return application.NewInternalError(err)
}

func checkURL(fields domain.FieldErrors, field, value string) {
	if err := validate.Var(value, "required,url"); err != nil {
		fields.Add(field, "must be an absolute URL")
	}
}

func requireConfigured(company *domain.Company) error {
	if !company.Configured() {
		return domain.NewValidationError("company", "company is not configured for payments")
	}
	return nil
}
