package stripe_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/processor/stripe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "sk_test_123"

func newTestClient(t *testing.T, handler http.HandlerFunc) *stripe.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return stripe.NewClient(config.ProcessorConfig{
		APIBaseURL:        srv.URL,
		ConnTimeout:       5 * time.Second,
		MaxNetworkRetries: 0,
	}, discardLogger())
}

func respond(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_CreateCustomer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/customers", r.URL.Path)
		assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "5f0d4c1e-user", r.PostForm.Get("metadata[user]"))
		assert.Equal(t, "jane@shop.test", r.PostForm.Get("email"))

		respond(w, http.StatusOK, `{"id":"cus_123","object":"customer"}`)
	})

	id, err := client.CreateCustomer(context.Background(), testKey, application.CreateCustomerRequest{
		UserIdentifier: "5f0d4c1e-user",
		Email:          "jane@shop.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_123", id)
}

func TestClient_CreateSetupSession(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "setup", r.PostForm.Get("mode"))
		assert.Equal(t, "cus_123", r.PostForm.Get("customer"))
		assert.Equal(t, "card", r.PostForm.Get("payment_method_types[0]"))
		assert.Equal(t, "https://shop.test/done?session_id={CHECKOUT_SESSION_ID}&succeeded=true", r.PostForm.Get("success_url"))
		assert.Equal(t, "https://shop.test/back?x=1&session_id={CHECKOUT_SESSION_ID}&succeeded=false", r.PostForm.Get("cancel_url"))

		respond(w, http.StatusOK, `{"id":"cs_test_1","object":"checkout.session","mode":"setup","url":"https://checkout.stripe.com/c/cs_test_1"}`)
	})

	session, err := client.CreateSetupSession(context.Background(), testKey, application.SetupSessionRequest{
		CustomerID: "cus_123",
		SuccessURL: "https://shop.test/done",
		CancelURL:  "https://shop.test/back?x=1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_test_1", session.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_test_1", session.URL)
	assert.Contains(t, string(session.Raw), `"cs_test_1"`)
}

func TestClient_CreatePaymentIntent_Succeeded(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1000", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, "true", r.PostForm.Get("confirm"))
		assert.Equal(t, "pm_card_visa", r.PostForm.Get("payment_method"))
		assert.Equal(t, "payment-5f0d4c1e", r.Header.Get("Idempotency-Key"))

		respond(w, http.StatusOK, `{"id":"pi_123","object":"payment_intent","status":"requires_action",
			"next_action":{"type":"redirect_to_url","redirect_to_url":{"url":"https://hooks.stripe.com/3ds"}}}`)
	})

	intent, err := client.CreatePaymentIntent(context.Background(), testKey, application.PaymentIntentRequest{
		CustomerID:     "cus_123",
		PaymentMethod:  "pm_card_visa",
		Amount:         1000,
		Currency:       "USD",
		ReturnURL:      "https://shop.test/return",
		IdempotencyKey: "payment-5f0d4c1e",
	})
	require.NoError(t, err)
	assert.Equal(t, "pi_123", intent.ID)
	assert.Equal(t, "requires_action", intent.Status)
	assert.Contains(t, string(intent.NextAction), "redirect_to_url")
}

func TestClient_CreatePaymentIntent_Declined(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusPaymentRequired, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
	})

	_, err := client.CreatePaymentIntent(context.Background(), testKey, application.PaymentIntentRequest{
		CustomerID:    "cus_123",
		PaymentMethod: "pm_card_chargeDeclined",
		Amount:        1000,
		Currency:      "usd",
	})
	require.Error(t, err)

	procErr, ok := application.IsProcessorError(err)
	require.True(t, ok)
	assert.True(t, procErr.Declined)
	assert.Equal(t, "card_declined", procErr.Code)
	assert.Equal(t, "Your card was declined.", procErr.Message)
	assert.Equal(t, http.StatusPaymentRequired, procErr.StatusCode)
}

func TestClient_InvalidKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusUnauthorized, `{"error":{"type":"invalid_request_error","message":"Invalid API Key provided: sk_test_***"}}`)
	})

	_, err := client.ListWebhookEndpoints(context.Background(), testKey)
	require.Error(t, err)

	procErr, ok := application.IsProcessorError(err)
	require.True(t, ok)
	assert.True(t, procErr.IsAuthentication())
	assert.False(t, procErr.Declined)
}

func TestClient_WebhookEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/webhook_endpoints", r.URL.Path)
		switch r.Method {
		case http.MethodGet:
			respond(w, http.StatusOK, `{"object":"list","url":"/v1/webhook_endpoints","has_more":false,"data":[
				{"id":"we_1","object":"webhook_endpoint","url":"https://bridge.test/api/webhook/acme/","enabled_events":["payment_intent.succeeded"]}
			]}`)
		case http.MethodPost:
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "https://bridge.test/api/webhook/beta/", r.PostForm.Get("url"))
			assert.Equal(t, application.EventCheckoutSessionCompleted, r.PostForm.Get("enabled_events[0]"))
			respond(w, http.StatusOK, `{"id":"we_2","object":"webhook_endpoint","url":"https://bridge.test/api/webhook/beta/","secret":"whsec_new"}`)
		}
	})

	endpoints, err := client.ListWebhookEndpoints(context.Background(), testKey)
	require.NoError(t, err)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "https://bridge.test/api/webhook/acme/", endpoints[0].URL)
	assert.Empty(t, endpoints[0].Secret)

	created, err := client.CreateWebhookEndpoint(context.Background(), testKey, application.CreateWebhookEndpointRequest{
		URL:    "https://bridge.test/api/webhook/beta/",
		Events: application.WebhookEvents,
	})
	require.NoError(t, err)
	assert.Equal(t, "we_2", created.ID)
	assert.Equal(t, "whsec_new", created.Secret)
}

func TestClient_PaymentMethods(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/payment_methods/pm_1":
			respond(w, http.StatusOK, `{"id":"pm_1","object":"payment_method","type":"card","customer":"cus_123",
				"card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}`)
		case "/v1/payment_methods":
			assert.Equal(t, "cus_123", r.URL.Query().Get("customer"))
			respond(w, http.StatusOK, `{"object":"list","url":"/v1/payment_methods","has_more":false,"data":[
				{"id":"pm_1","object":"payment_method","type":"card","customer":"cus_123","card":{"brand":"visa","last4":"4242"}}
			]}`)
		default:
			http.NotFound(w, r)
		}
	})

	pm, err := client.GetPaymentMethod(context.Background(), testKey, "pm_1")
	require.NoError(t, err)
	assert.Equal(t, "cus_123", pm.CustomerID)
	assert.Equal(t, "visa", pm.Brand)
	assert.Equal(t, "4242", pm.Last4)
	assert.Equal(t, int64(2030), pm.ExpYear)

	methods, err := client.ListPaymentMethods(context.Background(), testKey, "cus_123")
	require.NoError(t, err)
	require.Len(t, methods, 1)
	assert.Equal(t, "pm_1", methods[0].ID)
}
