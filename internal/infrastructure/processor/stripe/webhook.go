package stripe

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ParseEvent checks the Stripe-Signature header against secret before touching
// the payload. Events with an older API version are accepted; only the object
// id and the failure message are read from them.
func (c *Client) ParseEvent(payload []byte, signature, secret string) (*application.Event, error) {
	if err := webhook.ValidatePayloadWithTolerance(payload, signature, secret, webhook.DefaultTolerance); err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrInvalidSignature, err)
	}

	var event stripego.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", application.ErrInvalidPayload, err)
	}
	if event.Type == "" || event.Data == nil || len(event.Data.Raw) == 0 {
		return nil, fmt.Errorf("%w: event has no type or data", application.ErrInvalidPayload)
	}

	parsed := &application.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch parsed.Type {
	case application.EventCheckoutSessionCompleted:
		var session stripego.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", application.ErrInvalidPayload, err)
		}
		parsed.ObjectID = session.ID
	case application.EventPaymentIntentSucceeded, application.EventPaymentIntentPaymentFailed:
		var intent stripego.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("%w: payment intent: %v", application.ErrInvalidPayload, err)
		}
		parsed.ObjectID = intent.ID
		if intent.LastPaymentError != nil {
			parsed.ErrorMessage = intent.LastPaymentError.Msg
		}
	default:
		var object struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(event.Data.Raw, &object)
		parsed.ObjectID = object.ID
	}

	if parsed.ObjectID == "" && slices.Contains(application.WebhookEvents, parsed.Type) {
		return nil, fmt.Errorf("%w: %s event without object id", application.ErrInvalidPayload, parsed.Type)
	}

	return parsed, nil
}
