package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPayment(t *testing.T) {
	t.Run("creates payment in processing", func(t *testing.T) {
		payment, err := domain.NewPayment("pi_123", 1, 2, decimal.RequireFromString("10.00"), "pm_123", "https://example.com/return")

		require.NoError(t, err)
		assert.Equal(t, "pi_123", payment.Identifier)
		assert.Equal(t, domain.StatusProcessing, payment.Status)
		assert.Equal(t, "pm_123", payment.PaymentMethod)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(10)))
		assert.NotZero(t, payment.CreatedAt)
	})

	t.Run("rejects empty identifier", func(t *testing.T) {
		_, err := domain.NewPayment("", 1, 2, decimal.NewFromInt(1), "pm_123", "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "payment identifier is required")
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := domain.NewPayment("pi_123", 1, 2, decimal.Zero, "pm_123", "")

		assert.ErrorIs(t, err, domain.ErrInvalidAmount)
	})
}

func TestPayment_StateTransitions(t *testing.T) {
	t.Run("PROCESSING -> SUCCEEDED clears next action", func(t *testing.T) {
		payment := createProcessingPayment(t)

		err := payment.Succeed()

		require.NoError(t, err)
		assert.Equal(t, domain.StatusSucceeded, payment.Status)
		assert.Nil(t, payment.NextAction)
		assert.True(t, payment.IsTerminal())
	})

	t.Run("PROCESSING -> FAILED stores the reason", func(t *testing.T) {
		payment := createProcessingPayment(t)

		err := payment.Fail("card_declined")

		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, payment.Status)
		assert.Equal(t, "card_declined", payment.Error)
		assert.Nil(t, payment.NextAction)
	})

	t.Run("TransitionTo dispatches on target", func(t *testing.T) {
		payment := createProcessingPayment(t)

		require.NoError(t, payment.TransitionTo(domain.StatusFailed, "expired_card"))
		assert.Equal(t, "expired_card", payment.Error)
	})

	t.Run("TransitionTo rejects PROCESSING as a target", func(t *testing.T) {
		payment := createProcessingPayment(t)

		err := payment.TransitionTo(domain.StatusProcessing, "")

		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.Equal(t, domain.StatusProcessing, payment.Status)
	})
}

func TestPayment_TerminalStatesAreFinal(t *testing.T) {
	targets := []domain.PaymentStatus{domain.StatusSucceeded, domain.StatusFailed}

	for _, first := range targets {
		for _, second := range targets {
			t.Run(string(first)+" then "+string(second), func(t *testing.T) {
				payment := createProcessingPayment(t)
				require.NoError(t, payment.TransitionTo(first, "first"))

				err := payment.TransitionTo(second, "second")

				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
				assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidTransition))
				assert.Equal(t, first, payment.Status)
			})
		}
	}
}

func TestPayment_RecordLedgerPosting(t *testing.T) {
	payment := createProcessingPayment(t)
	ids := []string{"tx_1", "tx_2"}

	payment.RecordLedgerPosting("col_1", ids)
	ids[0] = "mutated"

	assert.Equal(t, "col_1", payment.Collection)
	assert.Equal(t, []string{"tx_1", "tx_2"}, payment.Transactions)
}

func createProcessingPayment(t *testing.T) *domain.Payment {
	t.Helper()
	payment, err := domain.NewPayment("pi_123", 1, 2, decimal.RequireFromString("10.00"), "pm_123", "")
	require.NoError(t, err)
	payment.NextAction = json.RawMessage(`{"type":"redirect_to_url"}`)
	return payment
}
