package handlers

import (
	"net/http"

	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest"
)

type CreateSessionRequest struct {
	Mode       string `json:"mode" validate:"omitempty,oneof=setup"`
	SuccessURL string `json:"success_url" validate:"omitempty,url"`
	CancelURL  string `json:"cancel_url" validate:"omitempty,url"`
}

// CreatePaymentRequest takes the amount in minor units of the currency.
type CreatePaymentRequest struct {
	Currency      string `json:"currency" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required"`
	ReturnURL     string `json:"return_url" validate:"omitempty,url"`
}

func (h *Handlers) HandleUserCompany(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewUserCompanyResponse(p.Company))
}

func (h *Handlers) HandleListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	methods, err := h.customers.ListPaymentMethods(r.Context(), p.Company, p.User)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewPaymentMethodResponses(methods))
}

func (h *Handlers) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, err := pageParams(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	sessions, err := h.sessions.List(r.Context(), p.User, page)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewSessionResponses(sessions))
}

// HandleCreateSession starts a hosted setup session; an empty body uses the
// company's redirect URLs.
func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := h.decodeBody(w, r, &req, true); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	session, err := h.sessions.Create(r.Context(), p.Company, p.User, services.CreateSessionCommand{
		Mode:       domain.SessionMode(req.Mode),
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
		Email:      p.Identity.Email,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.NewSessionResponse(session))
}

func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var id string
	if err := pathParam(r, "id", &id); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	session, err := h.sessions.Get(r.Context(), p.User, id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewSessionResponse(session))
}

func (h *Handlers) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	page, err := pageParams(r)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	payments, err := h.payments.List(r.Context(), p.Company, p.User, page)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewPaymentResponses(payments))
}

func (h *Handlers) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req CreatePaymentRequest
	if err := h.decodeBody(w, r, &req, false); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	payment, err := h.payments.Create(r.Context(), p.Company, p.User, services.CreatePaymentCommand{
		Currency:      req.Currency,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		ReturnURL:     req.ReturnURL,
		Email:         p.Identity.Email,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.NewPaymentResponse(payment))
}

func (h *Handlers) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var id string
	if err := pathParam(r, "id", &id); err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	payment, err := h.payments.Get(r.Context(), p.User, id)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.NewPaymentResponse(payment))
}
