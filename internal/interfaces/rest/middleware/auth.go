package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
)

const tokenScheme = "Token"

// AuthenticateFunc resolves a bearer token to a principal.
type AuthenticateFunc func(ctx context.Context, token string) (*services.Principal, error)

// Authenticate rejects requests without a valid `Authorization: Token <token>`
// header and stores the resolved principal on the request context.
func Authenticate(authenticate AuthenticateFunc, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := TokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				rest.WriteError(w, application.NewAuthenticationFailedError("Authentication credentials were not provided"), logger)
				return
			}

			principal, err := authenticate(r.Context(), token)
			if err != nil {
				rest.WriteError(w, err, logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(rest.WithPrincipal(r.Context(), principal)))
		})
	}
}

// TokenFromHeader extracts the credential from an Authorization header value.
func TokenFromHeader(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, tokenScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
