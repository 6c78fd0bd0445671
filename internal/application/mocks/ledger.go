// Package mocks provides testify mocks for the application ports.
package mocks

import (
	"context"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/stretchr/testify/mock"
)

// MockLedger is a mock implementation of application.Ledger.
type MockLedger struct {
	mock.Mock
}

var _ application.Ledger = (*MockLedger)(nil)

// NewMockLedger creates a MockLedger that asserts its expectations on cleanup.
func NewMockLedger(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockLedger {
	m := &MockLedger{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockLedger) VerifyToken(ctx context.Context, token string) (*application.Identity, error) {
	args := m.Called(ctx, token)
	identity, _ := args.Get(0).(*application.Identity)
	return identity, args.Error(1)
}

func (m *MockLedger) ListCurrencies(ctx context.Context, token string) ([]application.LedgerCurrency, error) {
	args := m.Called(ctx, token)
	currencies, _ := args.Get(0).([]application.LedgerCurrency)
	return currencies, args.Error(1)
}

func (m *MockLedger) ListSubtypes(ctx context.Context, token string) ([]application.LedgerSubtype, error) {
	args := m.Called(ctx, token)
	subtypes, _ := args.Get(0).([]application.LedgerSubtype)
	return subtypes, args.Error(1)
}

func (m *MockLedger) CreateSubtype(ctx context.Context, token string, req application.CreateSubtypeRequest) (*application.LedgerSubtype, error) {
	args := m.Called(ctx, token, req)
	subtype, _ := args.Get(0).(*application.LedgerSubtype)
	return subtype, args.Error(1)
}

func (m *MockLedger) CreateTransactionCollection(ctx context.Context, token string, req application.TransactionCollectionRequest) (*application.TransactionCollection, error) {
	args := m.Called(ctx, token, req)
	collection, _ := args.Get(0).(*application.TransactionCollection)
	return collection, args.Error(1)
}
