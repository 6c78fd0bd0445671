package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
)

type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// APIResponse is the success envelope shared by every endpoint.
type APIResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// WriteError maps application errors to HTTP responses. Server side failures
// are logged with their cause; the client only sees the public message.
func WriteError(w http.ResponseWriter, err error, logger *slog.Logger) {
	statusCode := application.ToHTTPStatus(err)
	errorCode := application.ToErrorCode(err)

	if statusCode >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			"code", errorCode,
			"status", statusCode,
			"error", err,
		)
	}

	response := ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    errorCode,
			Message: publicMessage(err),
			Details: domain.ValidationFields(err),
		},
	}

	writeBody(w, statusCode, response)
}

// WriteJSON wraps data in the success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	writeBody(w, status, APIResponse{Success: true, Data: data})
}

func writeBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func publicMessage(err error) string {
	if svcErr, ok := application.IsServiceError(err); ok {
		return svcErr.Message
	}

	var domainErr *domain.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return "An internal error occurred"
}
