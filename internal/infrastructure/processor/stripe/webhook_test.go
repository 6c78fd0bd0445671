package stripe_test

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/processor/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testSecret = "whsec_test"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sign(payload, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestParseEvent(t *testing.T) {
	client := stripe.NewClient(config.ProcessorConfig{ConnTimeout: time.Second}, discardLogger())

	t.Run("payment failed carries the last error", func(t *testing.T) {
		payload := `{"id":"evt_1","object":"event","type":"payment_intent.payment_failed","data":{"object":
			{"id":"pi_123","object":"payment_intent","status":"requires_payment_method",
			"last_payment_error":{"type":"card_error","message":"Your card has insufficient funds."}}}}`

		event, err := client.ParseEvent([]byte(payload), sign(payload, testSecret), testSecret)
		require.NoError(t, err)
		assert.Equal(t, application.EventPaymentIntentPaymentFailed, event.Type)
		assert.Equal(t, "pi_123", event.ObjectID)
		assert.Equal(t, "Your card has insufficient funds.", event.ErrorMessage)
	})

	t.Run("checkout session completed", func(t *testing.T) {
		payload := `{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":
			{"id":"cs_test_1","object":"checkout.session","mode":"setup"}}}`

		event, err := client.ParseEvent([]byte(payload), sign(payload, testSecret), testSecret)
		require.NoError(t, err)
		assert.Equal(t, "cs_test_1", event.ObjectID)
	})

	t.Run("unknown types are parsed", func(t *testing.T) {
		payload := `{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`

		event, err := client.ParseEvent([]byte(payload), sign(payload, testSecret), testSecret)
		require.NoError(t, err)
		assert.Equal(t, "customer.created", event.Type)
	})

	t.Run("wrong secret", func(t *testing.T) {
		payload := `{"id":"evt_4","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`

		_, err := client.ParseEvent([]byte(payload), sign(payload, "whsec_other"), testSecret)
		assert.True(t, errors.Is(err, application.ErrInvalidSignature))
	})

	t.Run("tampered body", func(t *testing.T) {
		payload := `{"id":"evt_5","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1"}}}`
		header := sign(payload, testSecret)

		_, err := client.ParseEvent([]byte(payload+" "), header, testSecret)
		assert.ErrorIs(t, err, application.ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := client.ParseEvent([]byte(`{}`), "", testSecret)
		assert.ErrorIs(t, err, application.ErrInvalidSignature)
	})

	t.Run("signed garbage", func(t *testing.T) {
		payload := `not json`

		_, err := client.ParseEvent([]byte(payload), sign(payload, testSecret), testSecret)
		assert.ErrorIs(t, err, application.ErrInvalidPayload)
	})
}
