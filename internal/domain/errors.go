package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Sentinel errors matched with errors.Is across layers.
var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
)

// DomainError represents a business logic error
type DomainError struct {
	Code    string
	Message string
	// Fields carries per-field messages for validation failures.
	Fields map[string]string
	Err    error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeInvalidTransition = "INVALID_TRANSITION"
	ErrCodeInvalidAmount     = "INVALID_AMOUNT"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeNotFound          = "NOT_FOUND"
)

func NewInvalidTransitionError(from, to PaymentStatus) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Err:     ErrInvalidTransition,
	}
}

func NewInvalidAmountError(reason string) *DomainError {
	return &DomainError{
		Code:    ErrCodeInvalidAmount,
		Message: reason,
		Err:     ErrInvalidAmount,
	}
}

func NewNotFoundError(entity string) *DomainError {
	return &DomainError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found", entity),
		Err:     ErrNotFound,
	}
}

// NewValidationError reports a single invalid field.
func NewValidationError(field, message string) *DomainError {
	fields := FieldErrors{}
	fields.Add(field, message)
	return fields.toError()
}

// FieldErrors aggregates field level validation failures so they can be
// reported together instead of failing on the first one.
type FieldErrors map[string]string

// Add records message for field. The first message for a field wins.
func (f FieldErrors) Add(field, message string) {
	if _, exists := f[field]; exists {
		return
	}
	f[field] = message
}

// Err returns nil when no field failed.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	return f.toError()
}

func (f FieldErrors) toError() *DomainError {
	keys := slices.Sorted(maps.Keys(f))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+f[k])
	}

	return &DomainError{
		Code:    ErrCodeValidation,
		Message: strings.Join(parts, "; "),
		Fields:  maps.Clone(f),
		Err:     ErrValidation,
	}
}

// IsErrorCode checks if an error is a DomainError with a specific code
func IsErrorCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ValidationFields extracts field messages from a validation error, if any.
func ValidationFields(err error) map[string]string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Fields
	}
	return nil
}
