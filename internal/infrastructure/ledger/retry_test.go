package ledger_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/mocks"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRetryClient(t *testing.T) (*mocks.MockLedger, application.Ledger) {
	inner := mocks.NewMockLedger(t)
	return inner, ledger.NewRetryLedgerClient(inner, config.RetryConfig{
		BaseDelay:  1,
		MaxRetries: 3,
	})
}

func TestRetryLedgerClient_VerifyToken_Success(t *testing.T) {
	inner, client := newRetryClient(t)
	identity := &application.Identity{ID: "u1", Company: "acme"}

	inner.On("VerifyToken", mock.Anything, "tok").Return(identity, nil).Once()

	got, err := client.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestRetryLedgerClient_VerifyToken_RetriesOn5xx(t *testing.T) {
	inner, client := newRetryClient(t)
	identity := &application.Identity{ID: "u1"}

	inner.On("VerifyToken", mock.Anything, "tok").
		Return(nil, &application.LedgerError{Message: "down", StatusCode: 503}).Twice()
	inner.On("VerifyToken", mock.Anything, "tok").Return(identity, nil).Once()

	got, err := client.VerifyToken(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestRetryLedgerClient_VerifyToken_NoRetryOn4xx(t *testing.T) {
	inner, client := newRetryClient(t)

	inner.On("VerifyToken", mock.Anything, "bad").
		Return(nil, &application.LedgerError{Message: "Invalid token.", StatusCode: 401}).Once()

	_, err := client.VerifyToken(context.Background(), "bad")
	require.Error(t, err)

	ledgerErr, ok := application.IsLedgerError(err)
	require.True(t, ok)
	assert.Equal(t, 401, ledgerErr.StatusCode)
}

func TestRetryLedgerClient_ListCurrencies_MaxRetriesExceeded(t *testing.T) {
	inner, client := newRetryClient(t)

	inner.On("ListCurrencies", mock.Anything, "tok").Return(nil, errors.New("connection reset")).Times(3)

	_, err := client.ListCurrencies(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum retries exceeded")
}

func TestRetryLedgerClient_ListSubtypes_Success(t *testing.T) {
	inner, client := newRetryClient(t)
	subtypes := []application.LedgerSubtype{{ID: "1", Name: "deposit_stripe", TxType: "credit"}}

	inner.On("ListSubtypes", mock.Anything, "tok").Return(subtypes, nil).Once()

	got, err := client.ListSubtypes(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, subtypes, got)
}

func TestRetryLedgerClient_WritesAreNotRetried(t *testing.T) {
	inner, client := newRetryClient(t)
	unavailable := &application.LedgerError{Message: "down", StatusCode: 502}

	inner.On("CreateTransactionCollection", mock.Anything, "tok", mock.Anything).Return(nil, unavailable).Once()
	inner.On("CreateSubtype", mock.Anything, "tok", mock.Anything).Return(nil, unavailable).Once()

	_, err := client.CreateTransactionCollection(context.Background(), "tok", application.TransactionCollectionRequest{})
	assert.ErrorIs(t, err, unavailable)

	_, err = client.CreateSubtype(context.Background(), "tok", application.CreateSubtypeRequest{Name: "deposit_stripe"})
	assert.ErrorIs(t, err, unavailable)
}

func TestRetryLedgerClient_ContextCancelled(t *testing.T) {
	_, client := newRetryClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.VerifyToken(ctx, "tok")
	assert.ErrorIs(t, err, context.Canceled)
}
