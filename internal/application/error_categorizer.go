package application

import (
	"context"
	"errors"
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
)

// ErrorCategory represents the nature of an error for retry logic
type ErrorCategory string

const (
	CategoryTransient      ErrorCategory = "TRANSIENT"
	CategoryPermanent      ErrorCategory = "PERMANENT"
	CategoryBusinessRule   ErrorCategory = "BUSINESS_RULE"
	CategoryClientError    ErrorCategory = "CLIENT_ERROR"
	CategoryInfrastructure ErrorCategory = "INFRASTRUCTURE"
)

// CategorizeError determines error category for retry and logging purposes
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CategoryTransient
	}

	if svcErr, ok := IsServiceError(err); ok {
		switch svcErr.Code {
		case ErrCodeAuthenticationFailed, ErrCodeInvalidSignature,
			ErrCodeInvalidPayload, ErrCodeInvalidCredentials:
			return CategoryClientError
		case ErrCodePaymentDeclined:
			return CategoryPermanent
		case ErrCodeLedgerUnavailable, ErrCodeTimeout:
			return CategoryTransient
		case ErrCodeInternal:
			return CategoryInfrastructure
		}
	}

	if errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrInvalidAmount) {
		return CategoryBusinessRule
	}

	if errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) {
		return CategoryClientError
	}

	if ledgerErr, ok := IsLedgerError(err); ok {
		if ledgerErr.IsRetryable() {
			return CategoryTransient
		}
		return CategoryPermanent
	}

	if procErr, ok := IsProcessorError(err); ok {
		switch {
		case procErr.IsRetryable():
			return CategoryTransient
		case procErr.Declined:
			return CategoryPermanent
		case procErr.IsAuthentication():
			return CategoryClientError
		default:
			return CategoryPermanent
		}
	}

	// Default: Transient (safe fallback)
	return CategoryTransient
}

// IsRetryable returns true if the error category suggests retry
func IsRetryable(err error) bool {
	category := CategorizeError(err)
	return category == CategoryTransient || category == CategoryInfrastructure
}

// ToHTTPStatus maps error to appropriate HTTP status code
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	if _, ok := IsLedgerError(err); ok {
		return http.StatusServiceUnavailable
	}

	if _, ok := IsProcessorError(err); ok {
		return http.StatusBadGateway
	}

	// Default to 500
	return http.StatusInternalServerError
}

// ToErrorCode clear error code for API responses
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}

	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return domain.ErrCodeInvalidTransition
	case errors.Is(err, domain.ErrInvalidAmount):
		return domain.ErrCodeInvalidAmount
	case errors.Is(err, domain.ErrValidation):
		return domain.ErrCodeValidation
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrCodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	}

	if _, ok := IsLedgerError(err); ok {
		return ErrCodeLedgerUnavailable
	}

	if _, ok := IsProcessorError(err); ok {
		return ErrCodeProcessorError
	}

	return ErrCodeInternal
}
