package handlers

import (
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
	"github.com/google/uuid"
)

type UpdateCompanyRequest struct {
	APIKey         *string  `json:"api_key" validate:"omitempty,min=1"`
	PublishableKey *string  `json:"publishable_key" validate:"omitempty,min=1"`
	SuccessURL     *string  `json:"success_url" validate:"omitempty,url"`
	CancelURL      *string  `json:"cancel_url" validate:"omitempty,url"`
	Currencies     []string `json:"currencies" validate:"omitempty,dive,required"`
}

func (h *Handlers) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	view, err := h.companies.Get(r.Context(), p.Company)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewCompanyResponse(view, h.companies.WebhookURL(p.Company.Identifier)))
}

// HandleUpdateCompany applies a partial update; omitted fields keep their value.
func (h *Handlers) HandleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req UpdateCompanyRequest
	if err := h.decodeBody(w, r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	view, err := h.companies.Update(r.Context(), p.Company, services.UpdateCompanyCommand{
		APIKey:         req.APIKey,
		PublishableKey: req.PublishableKey,
		SuccessURL:     req.SuccessURL,
		CancelURL:      req.CancelURL,
		Currencies:     req.Currencies,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewCompanyResponse(view, h.companies.WebhookURL(p.Company.Identifier)))
}

func (h *Handlers) HandleListCurrencies(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	currencies, err := h.queries.ListCurrencies(r.Context(), p.Company)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewCurrencyResponses(currencies))
}

func (h *Handlers) HandleGetCurrency(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var code string
	if err := pathParam(r, "code", &code); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	currency, err := h.queries.GetCurrency(r.Context(), p.Company, code)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewCurrencyResponse(currency))
}

func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, err := pageParams(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	users, err := h.queries.ListUsers(r.Context(), p.Company, page)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewUserResponses(users))
}

func (h *Handlers) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var raw string
	if err := pathParam(r, "id", &raw); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	identifier, err := uuid.Parse(raw)
	if err != nil {
		rest.WriteError(w, domain.NewValidationError("id", "must be a UUID"), h.logger)
		return
	}

	user, err := h.queries.GetUser(r.Context(), p.Company, identifier)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewUserResponse(user))
}

func (h *Handlers) HandleAdminListPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, err := pageParams(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	payments, err := h.payments.ListForCompany(r.Context(), p.Company, page)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewPaymentResponses(payments))
}

func (h *Handlers) HandleAdminGetPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var id string
	if err := pathParam(r, "id", &id); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	payment, err := h.payments.GetForCompany(r.Context(), p.Company, id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewPaymentResponse(payment))
}

func (h *Handlers) HandleAdminListSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, err := pageParams(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	sessions, err := h.sessions.ListForCompany(r.Context(), p.Company, page)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewSessionResponses(sessions))
}
