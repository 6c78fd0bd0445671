package handlers

import (
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/middleware"
)

// HandleActivate registers (or re-activates) the company of the calling ledger admin.
// The token is verified inside the service, never from the identity cache.
func (h *Handlers) HandleActivate(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromHeader(r.Header.Get("Authorization"))
	if !ok {
		rest.WriteError(w, application.NewAuthenticationFailedError("Authentication credentials were not provided"), h.logger)
		return
	}

	view, err := h.activation.Activate(r.Context(), token)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewCompanyResponse(view, h.companies.WebhookURL(view.Company.Identifier)))
}

func (h *Handlers) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	token, ok := middleware.TokenFromHeader(r.Header.Get("Authorization"))
	if !ok {
		rest.WriteError(w, application.NewAuthenticationFailedError("Authentication credentials were not provided"), h.logger)
		return
	}

	if err := h.activation.Deactivate(r.Context(), token); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, struct{}{})
}
