package services

import (
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
)

// UpdateCompanyCommand carries an admin's partial company update. Nil fields
// are left unchanged.
type UpdateCompanyCommand struct {
	APIKey         *string
	PublishableKey *string
	SuccessURL     *string
	CancelURL      *string
	Currencies     []string
}

type CreateSessionCommand struct {
	Mode       domain.SessionMode
	SuccessURL string
	CancelURL  string
	// Email tags the processor customer when one has to be created.
	Email      string
}

// CreatePaymentCommand takes the amount in minor units of Currency.
type CreatePaymentCommand struct {
	Currency      string
	Amount        int64
	PaymentMethod string
	ReturnURL     string
	Email         string
}
