package handlers

import (
	"io"
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
)

const signatureHeader = "Stripe-Signature"

// HandleWebhook passes the raw body through untouched; the signature is
// computed over the exact bytes received.
func (h *Handlers) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var companyID string
	if err := pathParam(r, "companyId", &companyID); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rest.WriteError(w, application.NewInvalidPayloadError(err), h.logger)
		return
	}

	result, err := h.webhooks.Handle(r.Context(), companyID, body, r.Header.Get(signatureHeader))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.WebhookResponse{Message: result.Message})
}
