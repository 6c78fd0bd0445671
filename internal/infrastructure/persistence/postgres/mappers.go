package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/shopspring/decimal"
)

func toDomainCompany(m CompanyModel) *domain.Company {
	return &domain.Company{
		ID:             m.ID,
		Identifier:     m.Identifier,
		AdminID:        m.AdminID,
		Secret:         m.Secret,
		APIKey:         m.APIKey,
		PublishableKey: m.PublishableKey,
		WebhookSecret:  m.WebhookSecret,
		SuccessURL:     m.SuccessURL,
		CancelURL:      m.CancelURL,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func toDomainUser(m UserModel) *domain.User {
	return &domain.User{
		ID:         m.ID,
		Identifier: m.Identifier,
		Token:      m.Token,
		CompanyID:  m.CompanyID,
		CustomerID: m.CustomerID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toDomainCurrency(m CurrencyModel) *domain.Currency {
	return &domain.Currency{
		ID:           m.ID,
		CompanyID:    m.CompanyID,
		Code:         m.Code,
		DisplayCode:  m.DisplayCode,
		Description:  m.Description,
		Symbol:       m.Symbol,
		Unit:         m.Unit,
		Divisibility: m.Divisibility,
		Enabled:      m.Enabled,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func toDomainSession(m SessionModel) *domain.Session {
	return &domain.Session{
		ID:         m.ID,
		Identifier: m.Identifier,
		UserID:     m.UserID,
		Mode:       domain.SessionMode(m.Mode),
		SuccessURL: m.SuccessURL,
		CancelURL:  m.CancelURL,
		Completed:  m.Completed,
		Data:       json.RawMessage(m.Data),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toDomainPayment(m PaymentModel) (*domain.Payment, error) {
	amount, err := decimal.NewFromString(m.Amount)
	if err != nil {
		return nil, fmt.Errorf("parse payment amount %q: %w", m.Amount, err)
	}

	var transactions []string
	if len(m.Transactions) > 0 {
		if err := json.Unmarshal(m.Transactions, &transactions); err != nil {
			return nil, fmt.Errorf("decode payment transactions: %w", err)
		}
	}

	return &domain.Payment{
		ID:            m.ID,
		Identifier:    m.Identifier,
		UserID:        m.UserID,
		CurrencyID:    m.CurrencyID,
		Amount:        amount,
		PaymentMethod: m.PaymentMethod,
		ReturnURL:     m.ReturnURL,
		Status:        domain.PaymentStatus(m.Status),
		Error:         m.Error,
		Collection:    m.Collection,
		Transactions:  transactions,
		NextAction:    nullableJSON(m.NextAction),
		Data:          json.RawMessage(m.Data),
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}

func toPaymentModel(p *domain.Payment) (*PaymentModel, error) {
	transactions := p.Transactions
	if transactions == nil {
		transactions = []string{}
	}
	txJSON, err := json.Marshal(transactions)
	if err != nil {
		return nil, fmt.Errorf("encode payment transactions: %w", err)
	}

	return &PaymentModel{
		ID:            p.ID,
		Identifier:    p.Identifier,
		UserID:        p.UserID,
		CurrencyID:    p.CurrencyID,
		Amount:        p.Amount.String(),
		PaymentMethod: p.PaymentMethod,
		ReturnURL:     p.ReturnURL,
		Status:        string(p.Status),
		Error:         p.Error,
		Collection:    p.Collection,
		Transactions:  txJSON,
		NextAction:    nullableJSON(p.NextAction),
		Data:          objectJSON(p.Data),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}, nil
}

// nullableJSON maps an empty or JSON null document to SQL NULL.
func nullableJSON(raw []byte) []byte {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return raw
}

// objectJSON defaults an empty snapshot to an empty object.
func objectJSON(raw []byte) []byte {
	if len(raw) == 0 {
		return []byte("{}")
	}
	return raw
}
