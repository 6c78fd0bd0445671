package rest

import (
	"encoding/json"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/shopspring/decimal"
)

// Timestamps are rendered as Unix milliseconds.

type CompanyResponse struct {
	ID             string             `json:"id"`
	Secret         string             `json:"secret"`
	PublishableKey string             `json:"publishable_key"`
	WebhookURL     string             `json:"webhook_url"`
	SuccessURL     string             `json:"success_url"`
	CancelURL      string             `json:"cancel_url"`
	Active         bool               `json:"active"`
	Configured     bool               `json:"configured"`
	Currencies     []CurrencyResponse `json:"currencies"`
	Created        int64              `json:"created"`
	Updated        int64              `json:"updated"`
}

// UserCompanyResponse is what end users may see of their company.
type UserCompanyResponse struct {
	ID             string `json:"id"`
	PublishableKey string `json:"publishable_key"`
}

type CurrencyResponse struct {
	Code         string `json:"code"`
	DisplayCode  string `json:"display_code"`
	Description  string `json:"description"`
	Symbol       string `json:"symbol"`
	Unit         string `json:"unit"`
	Divisibility int    `json:"divisibility"`
	Enabled      bool   `json:"enabled"`
}

type UserResponse struct {
	ID         string  `json:"id"`
	CustomerID *string `json:"customer_id"`
	Created    int64   `json:"created"`
	Updated    int64   `json:"updated"`
}

type SessionResponse struct {
	ID         string          `json:"id"`
	Mode       string          `json:"mode"`
	SuccessURL string          `json:"success_url"`
	CancelURL  string          `json:"cancel_url"`
	Completed  bool            `json:"completed"`
	Data       json.RawMessage `json:"data"`
	Created    int64           `json:"created"`
	Updated    int64           `json:"updated"`
}

type PaymentResponse struct {
	ID            string            `json:"id"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      *CurrencyResponse `json:"currency"`
	PaymentMethod string            `json:"payment_method"`
	ReturnURL     string            `json:"return_url"`
	Status        string            `json:"status"`
	Error         string            `json:"error,omitempty"`
	NextAction    json.RawMessage   `json:"next_action"`
	Collection    string            `json:"collection,omitempty"`
	Transactions  []string          `json:"transactions"`
	Data          json.RawMessage   `json:"data"`
	Created       int64             `json:"created"`
	Updated       int64             `json:"updated"`
}

type PaymentMethodResponse struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

type WebhookResponse struct {
	Message string `json:"message"`
}

func NewCompanyResponse(view *services.CompanyView, webhookURL string) CompanyResponse {
	c := view.Company
	return CompanyResponse{
		ID:             c.Identifier,
		Secret:         c.Secret.String(),
		PublishableKey: c.PublishableKey,
		WebhookURL:     webhookURL,
		SuccessURL:     c.SuccessURL,
		CancelURL:      c.CancelURL,
		Active:         c.Active,
		Configured:     c.Configured(),
		Currencies:     NewCurrencyResponses(view.Currencies),
		Created:        c.CreatedAt.UnixMilli(),
		Updated:        c.UpdatedAt.UnixMilli(),
	}
}

func NewUserCompanyResponse(c *domain.Company) UserCompanyResponse {
	return UserCompanyResponse{
		ID:             c.Identifier,
		PublishableKey: c.PublishableKey,
	}
}

func NewCurrencyResponse(c *domain.Currency) CurrencyResponse {
	return CurrencyResponse{
		Code:         c.Code,
		DisplayCode:  c.DisplayCode,
		Description:  c.Description,
		Symbol:       c.Symbol,
		Unit:         c.Unit,
		Divisibility: c.Divisibility,
		Enabled:      c.Enabled,
	}
}

func NewCurrencyResponses(currencies []*domain.Currency) []CurrencyResponse {
	out := make([]CurrencyResponse, 0, len(currencies))
	for _, c := range currencies {
		out = append(out, NewCurrencyResponse(c))
	}
	return out
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.Identifier.String(),
		CustomerID: u.CustomerID,
		Created:    u.CreatedAt.UnixMilli(),
		Updated:    u.UpdatedAt.UnixMilli(),
	}
}

func NewUserResponses(users []*domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u))
	}
	return out
}

func NewSessionResponse(s *domain.Session) SessionResponse {
	return SessionResponse{
		ID:         s.Identifier,
		Mode:       string(s.Mode),
		SuccessURL: s.SuccessURL,
		CancelURL:  s.CancelURL,
		Completed:  s.Completed,
		Data:       s.Data,
		Created:    s.CreatedAt.UnixMilli(),
		Updated:    s.UpdatedAt.UnixMilli(),
	}
}

func NewSessionResponses(sessions []*domain.Session) []SessionResponse {
	out := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, NewSessionResponse(s))
	}
	return out
}

func NewPaymentResponse(view *services.PaymentView) PaymentResponse {
	p := view.Payment
	resp := PaymentResponse{
		ID:            p.Identifier,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		ReturnURL:     p.ReturnURL,
		Status:        string(p.Status),
		Error:         p.Error,
		NextAction:    p.NextAction,
		Collection:    p.Collection,
		Transactions:  p.Transactions,
		Data:          p.Data,
		Created:       p.CreatedAt.UnixMilli(),
		Updated:       p.UpdatedAt.UnixMilli(),
	}
	if resp.Transactions == nil {
		resp.Transactions = []string{}
	}
	if view.Currency != nil {
		currency := NewCurrencyResponse(view.Currency)
		resp.Currency = &currency
	}
	return resp
}

func NewPaymentResponses(views []*services.PaymentView) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(views))
	for _, v := range views {
		out = append(out, NewPaymentResponse(v))
	}
	return out
}

func NewPaymentMethodResponses(methods []application.PaymentMethod) []PaymentMethodResponse {
	out := make([]PaymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, PaymentMethodResponse{
			ID:       m.ID,
			Type:     m.Type,
			Brand:    m.Brand,
			Last4:    m.Last4,
			ExpMonth: m.ExpMonth,
			ExpYear:  m.ExpYear,
		})
	}
	return out
}
