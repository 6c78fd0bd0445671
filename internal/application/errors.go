package application

import (
	"errors"
	"fmt"
	"net/http"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodePaymentDeclined      = "PAYMENT_DECLINED"
	ErrCodeInvalidSignature     = "INVALID_SIGNATURE"
	ErrCodeInvalidPayload       = "INVALID_PAYLOAD"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeLedgerUnavailable    = "LEDGER_UNAVAILABLE"
	ErrCodeProcessorError       = "PROCESSOR_ERROR"
	ErrCodeTimeout              = "TIMEOUT"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// Sentinels returned by the processor adapter when a webhook cannot be trusted.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
)

func NewAuthenticationFailedError(message string) *ServiceError {
	if message == "" {
		message = "Invalid user"
	}
	return &ServiceError{
		Code:       ErrCodeAuthenticationFailed,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewPaymentDeclinedError carries the processor's human readable reason.
func NewPaymentDeclinedError(message string, err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodePaymentDeclined,
		Message:    message,
		HTTPStatus: http.StatusPaymentRequired,
		Err:        err,
	}
}

func NewInvalidSignatureError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidSignature,
		Message:    "Invalid webhook signature",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidPayloadError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidPayload,
		Message:    "Invalid webhook payload",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewInvalidCredentialsError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidCredentials,
		Message:    "Processor rejected the API key",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

// NewLedgerUnavailableError marks a failed ledger call as retryable by the caller.
func NewLedgerUnavailableError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeLedgerUnavailable,
		Message:    "Ledger is unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewProcessorError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeProcessorError,
		Message:    "Payment processor request failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// ProcessorError is the adapter-neutral form of a processor API failure.
type ProcessorError struct {
	Code       string
	Message    string
	StatusCode int
	// Declined is set when the processor refused a charge.
	Declined bool
	Err      error
}

func (e *ProcessorError) Error() string {
	return fmt.Sprintf("processor error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
}

func (e *ProcessorError) Unwrap() error {
	return e.Err
}

func (e *ProcessorError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// IsAuthentication reports whether the processor rejected the API key.
func (e *ProcessorError) IsAuthentication() bool {
	return e.StatusCode == http.StatusUnauthorized
}

func IsProcessorError(err error) (*ProcessorError, bool) {
	var procErr *ProcessorError
	ok := errors.As(err, &procErr)
	return procErr, ok
}

// LedgerError is returned by the ledger adapter for non-2xx responses.
type LedgerError struct {
	Message    string
	StatusCode int
}

func (e *LedgerError) Error() string {
	return fmt.Sprintf("ledger error: %s (status: %d)", e.Message, e.StatusCode)
}

func (e *LedgerError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func IsLedgerError(err error) (*LedgerError, bool) {
	var ledgerErr *LedgerError
	ok := errors.As(err, &ledgerErr)
	return ledgerErr, ok
}
