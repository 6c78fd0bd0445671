// Package stripe adapts the Stripe SDK to application.Processor.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	stripego "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// Client builds a short-lived SDK client per call from the tenant's key. The
// underlying backends (HTTP client, retries, logger) are shared.
type Client struct {
	backends *stripego.Backends
	logger   *slog.Logger
}

var _ application.Processor = (*Client)(nil)

func NewClient(cfg config.ProcessorConfig, logger *slog.Logger) *Client {
	backendConfig := &stripego.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.ConnTimeout},
		LeveledLogger:     &slogLeveledLogger{logger: logger},
		MaxNetworkRetries: stripego.Int64(cfg.MaxNetworkRetries),
	}
	if cfg.APIBaseURL != "" {
		backendConfig.URL = stripego.String(cfg.APIBaseURL)
	}

	return &Client{
		backends: stripego.NewBackendsWithConfig(backendConfig),
		logger:   logger,
	}
}

func (c *Client) api(apiKey string) *client.API {
	return client.New(apiKey, c.backends)
}

func (c *Client) CreateCustomer(ctx context.Context, apiKey string, req application.CreateCustomerRequest) (string, error) {
	params := &stripego.CustomerParams{}
	params.Context = ctx
	if req.Email != "" {
		params.Email = stripego.String(req.Email)
	}
	params.AddMetadata("user", req.UserIdentifier)

	customer, err := c.api(apiKey).Customers.New(params)
	if err != nil {
		return "", translateError("create customer", err)
	}
	return customer.ID, nil
}

// CreateSetupSession opens a hosted checkout page that saves a card for later use.
func (c *Client) CreateSetupSession(ctx context.Context, apiKey string, req application.SetupSessionRequest) (*application.ProcessorSession, error) {
	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(stripego.CheckoutSessionModeSetup)),
		Customer:           stripego.String(req.CustomerID),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		SuccessURL:         stripego.String(redirectURL(req.SuccessURL, true)),
		CancelURL:          stripego.String(redirectURL(req.CancelURL, false)),
	}
	params.Context = ctx

	session, err := c.api(apiKey).CheckoutSessions.New(params)
	if err != nil {
		return nil, translateError("create checkout session", err)
	}

	raw, err := snapshot(session.LastResponse, session)
	if err != nil {
		return nil, err
	}

	return &application.ProcessorSession{
		ID:  session.ID,
		URL: session.URL,
		Raw: raw,
	}, nil
}

// CreatePaymentIntent creates and confirms an on-session intent in one call.
func (c *Client) CreatePaymentIntent(ctx context.Context, apiKey string, req application.PaymentIntentRequest) (*application.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:        stripego.Int64(req.Amount),
		Currency:      stripego.String(strings.ToLower(req.Currency)),
		Customer:      stripego.String(req.CustomerID),
		PaymentMethod: stripego.String(req.PaymentMethod),
		Confirm:       stripego.Bool(true),
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripego.String(req.ReturnURL)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx

	intent, err := c.api(apiKey).PaymentIntents.New(params)
	if err != nil {
		return nil, translateError("create payment intent", err)
	}
	return toPaymentIntent(intent)
}

func (c *Client) GetPaymentIntent(ctx context.Context, apiKey, intentID string) (*application.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx

	intent, err := c.api(apiKey).PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, translateError("get payment intent", err)
	}
	return toPaymentIntent(intent)
}

func (c *Client) GetPaymentMethod(ctx context.Context, apiKey, methodID string) (*application.PaymentMethod, error) {
	params := &stripego.PaymentMethodParams{}
	params.Context = ctx

	method, err := c.api(apiKey).PaymentMethods.Get(methodID, params)
	if err != nil {
		return nil, translateError("get payment method", err)
	}
	pm := toPaymentMethod(method)
	return &pm, nil
}

func (c *Client) ListPaymentMethods(ctx context.Context, apiKey, customerID string) ([]application.PaymentMethod, error) {
	params := &stripego.PaymentMethodListParams{
		Customer: stripego.String(customerID),
		Type:     stripego.String(string(stripego.PaymentMethodTypeCard)),
	}
	params.Context = ctx

	var methods []application.PaymentMethod
	iter := c.api(apiKey).PaymentMethods.List(params)
	for iter.Next() {
		methods = append(methods, toPaymentMethod(iter.PaymentMethod()))
	}
	if err := iter.Err(); err != nil {
		return nil, translateError("list payment methods", err)
	}
	return methods, nil
}

func (c *Client) ListWebhookEndpoints(ctx context.Context, apiKey string) ([]application.WebhookEndpoint, error) {
	params := &stripego.WebhookEndpointListParams{}
	params.Context = ctx

	var endpoints []application.WebhookEndpoint
	iter := c.api(apiKey).WebhookEndpoints.List(params)
	for iter.Next() {
		endpoints = append(endpoints, toWebhookEndpoint(iter.WebhookEndpoint()))
	}
	if err := iter.Err(); err != nil {
		return nil, translateError("list webhook endpoints", err)
	}
	return endpoints, nil
}

// CreateWebhookEndpoint registers a new endpoint. The signing secret is only
// returned by this call, never by later reads.
func (c *Client) CreateWebhookEndpoint(ctx context.Context, apiKey string, req application.CreateWebhookEndpointRequest) (*application.WebhookEndpoint, error) {
	params := &stripego.WebhookEndpointParams{
		URL:           stripego.String(req.URL),
		EnabledEvents: stripego.StringSlice(req.Events),
	}
	params.Context = ctx

	endpoint, err := c.api(apiKey).WebhookEndpoints.New(params)
	if err != nil {
		return nil, translateError("create webhook endpoint", err)
	}

	c.logger.Info("registered webhook endpoint", "endpoint_id", endpoint.ID, "url", endpoint.URL)
	we := toWebhookEndpoint(endpoint)
	return &we, nil
}

// redirectURL appends the checkout placeholders so the landing page can find the session.
func redirectURL(base string, succeeded bool) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	// The placeholder braces must survive unescaped, so no url.Values here.
	return fmt.Sprintf("%s%ssession_id={CHECKOUT_SESSION_ID}&succeeded=%t", base, sep, succeeded)
}

func toPaymentIntent(intent *stripego.PaymentIntent) (*application.PaymentIntent, error) {
	raw, err := snapshot(intent.LastResponse, intent)
	if err != nil {
		return nil, err
	}

	pi := &application.PaymentIntent{
		ID:     intent.ID,
		Status: string(intent.Status),
		Raw:    raw,
	}
	if intent.LastPaymentError != nil {
		pi.LastError = intent.LastPaymentError.Msg
	}
	if intent.NextAction != nil {
		next, err := json.Marshal(intent.NextAction)
		if err != nil {
			return nil, translateError("encode next action", err)
		}
		pi.NextAction = next
	}
	return pi, nil
}

func toPaymentMethod(method *stripego.PaymentMethod) application.PaymentMethod {
	pm := application.PaymentMethod{
		ID:   method.ID,
		Type: string(method.Type),
	}
	if method.Customer != nil {
		pm.CustomerID = method.Customer.ID
	}
	if method.Card != nil {
		pm.Brand = string(method.Card.Brand)
		pm.Last4 = method.Card.Last4
		pm.ExpMonth = method.Card.ExpMonth
		pm.ExpYear = method.Card.ExpYear
	}
	return pm
}

func toWebhookEndpoint(endpoint *stripego.WebhookEndpoint) application.WebhookEndpoint {
	return application.WebhookEndpoint{
		ID:            endpoint.ID,
		URL:           endpoint.URL,
		Secret:        endpoint.Secret,
		EnabledEvents: endpoint.EnabledEvents,
	}
}

// snapshot prefers the exact bytes the API returned over a re-encoding.
func snapshot(resp *stripego.APIResponse, v any) (json.RawMessage, error) {
	if resp != nil && len(resp.RawJSON) > 0 {
		return json.RawMessage(resp.RawJSON), nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, translateError("encode snapshot", err)
	}
	return raw, nil
}
