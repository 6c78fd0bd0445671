package services

import (
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
)

// CompanyView is a company together with its mirrored currencies.
type CompanyView struct {
	Company    *domain.Company
	Currencies []*domain.Currency
}

// PaymentView pairs a payment with the currency it was charged in.
type PaymentView struct {
	Payment  *domain.Payment
	Currency *domain.Currency
}

// WebhookResult is the acknowledgement returned to the processor.
type WebhookResult struct {
	Message string
}
