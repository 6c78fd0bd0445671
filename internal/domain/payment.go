// Package domain holds the tenant, session and payment entities of the bridge
// and the rules that govern their state.
package domain

import (
	"encoding/json"
	"errors"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current state of a payment in its lifecycle
type PaymentStatus string

const (
	StatusProcessing PaymentStatus = "PROCESSING"
	StatusSucceeded  PaymentStatus = "SUCCEEDED"
	StatusFailed     PaymentStatus = "FAILED"
)

type Payment struct {
	ID            int64
	Identifier    string
	UserID        int64
	CurrencyID    int64
	Amount        decimal.Decimal
	PaymentMethod string
	ReturnURL     string
	Status        PaymentStatus
	Error         string

	// Ledger posting produced by a successful transition.
	Collection   string
	Transactions []string

	NextAction json.RawMessage
	Data       json.RawMessage

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPayment(
	identifier string,
	userID int64,
	currencyID int64,
	amount decimal.Decimal,
	paymentMethod string,
	returnURL string,
) (*Payment, error) {
	if identifier == "" {
		return nil, errors.New("payment identifier is required")
	}
	if userID == 0 {
		return nil, errors.New("payment user is required")
	}
	if currencyID == 0 {
		return nil, errors.New("payment currency is required")
	}
	if !amount.IsPositive() {
		return nil, NewInvalidAmountError("amount must be greater than zero")
	}
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Payment{
		Identifier:    identifier,
		UserID:        userID,
		CurrencyID:    currencyID,
		Amount:        amount,
		PaymentMethod: paymentMethod,
		ReturnURL:     returnURL,
		Status:        StatusProcessing,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Succeed moves a processing payment to SUCCEEDED.
func (p *Payment) Succeed() error {
	if err := p.transition(StatusSucceeded); err != nil {
		return err
	}
	p.Error = ""
	return nil
}

// Fail moves a processing payment to FAILED, keeping the processor's reason.
func (p *Payment) Fail(message string) error {
	if err := p.transition(StatusFailed); err != nil {
		return err
	}
	p.Error = message
	return nil
}

// RecordLedgerPosting stores the ledger collection created for this payment.
func (p *Payment) RecordLedgerPosting(collection string, transactions []string) {
	p.Collection = collection
	p.Transactions = slices.Clone(transactions)
	p.UpdatedAt = time.Now()
}

// TransitionTo applies target through the matching transition method.
func (p *Payment) TransitionTo(target PaymentStatus, message string) error {
	switch target {
	case StatusSucceeded:
		return p.Succeed()
	case StatusFailed:
		return p.Fail(message)
	}
	return NewInvalidTransitionError(p.Status, target)
}

func (p *Payment) transition(target PaymentStatus) error {
	if err := p.canTransitionTo(target); err != nil {
		return err
	}
	p.Status = target
	p.NextAction = nil
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Payment) canTransitionTo(target PaymentStatus) error {
	switch p.Status {
	case StatusProcessing:
		return p.allow(target, StatusSucceeded, StatusFailed)
	}
	return NewInvalidTransitionError(p.Status, target)
}

// Helper to check allowed state transitions
func (p *Payment) allow(target PaymentStatus, allowed ...PaymentStatus) error {
	if slices.Contains(allowed, target) {
		return nil
	}
	return NewInvalidTransitionError(p.Status, target)
}

// helper to identify payment statuses that are terminal
func (p *Payment) IsTerminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed:
		return true
	default:
		return false
	}
}
