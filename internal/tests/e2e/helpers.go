package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/config"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/cache"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/ledger"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/processor/stripe"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/docs"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/handlers"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/middleware"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const (
	CompanyIdentifier = "acme"
	AdminToken        = "e2e-admin-token"
	UserToken         = "e2e-user-token"
	AdminIdentifier   = "6a8f1d52-3c1e-4a9e-8d3b-1f0c2b9e7a11"
	UserIdentifier    = "9b2e4c71-5d3f-4b0a-9e6c-2a1d3f8b6c22"

	APIKey         = "sk_test_e2e"
	PublishableKey = "pk_test_e2e"
	WebhookSecret  = "whsec_e2e"
	CustomerID     = "cus_e2e"
	PaymentMethod  = "pm_card_visa"
	PublicBaseURL  = "https://bridge.test"
)

// FakeLedger serves the subset of the ledger API the bridge talks to and
// records every transaction collection posted to it.
type FakeLedger struct {
	*httptest.Server

	mu          sync.Mutex
	collections []json.RawMessage
	subtypes    []string
}

func NewFakeLedger(t *testing.T) *FakeLedger {
	t.Helper()
	l := &FakeLedger{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/tokens/verify/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Token string `json:"token"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		switch body.Token {
		case AdminToken:
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"status":"success","data":{"id":%q,"email":"admin@acme.test","company":%q,"groups":[{"name":"admin"}],"verification":{"email":true}}}`,
				AdminIdentifier, CompanyIdentifier))
		case UserToken:
			writeJSON(w, http.StatusOK, fmt.Sprintf(`{"status":"success","data":{"id":%q,"email":"user@acme.test","company":%q,"groups":[],"verification":{"email":true}}}`,
				UserIdentifier, CompanyIdentifier))
		default:
			writeJSON(w, http.StatusUnauthorized, `{"status":"error","message":"Invalid token."}`)
		}
	})
	mux.HandleFunc("GET /admin/currencies/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"status":"success","data":{"next":null,"results":[
			{"code":"USD","display_code":"USD","description":"US Dollar","symbol":"$","unit":"cent","divisibility":2}
		]}}`)
	})
	mux.HandleFunc("GET /admin/subtypes/", func(w http.ResponseWriter, r *http.Request) {
		l.mu.Lock()
		defer l.mu.Unlock()
		items := make([]string, 0, len(l.subtypes))
		for i, name := range l.subtypes {
			items = append(items, fmt.Sprintf(`{"id":%d,"name":%q,"tx_type":"credit"}`, i+1, name))
		}
		writeJSON(w, http.StatusOK, `{"status":"success","data":[`+strings.Join(items, ",")+`]}`)
	})
	mux.HandleFunc("POST /admin/subtypes/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)

		l.mu.Lock()
		l.subtypes = append(l.subtypes, body.Name)
		id := len(l.subtypes)
		l.mu.Unlock()

		writeJSON(w, http.StatusCreated, fmt.Sprintf(`{"status":"success","data":{"id":%d,"name":%q,"tx_type":"credit"}}`, id, body.Name))
	})
	mux.HandleFunc("POST /admin/transaction-collections/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Token "+AdminToken {
			writeJSON(w, http.StatusUnauthorized, `{"status":"error","message":"Invalid token."}`)
			return
		}
		body, _ := io.ReadAll(r.Body)

		l.mu.Lock()
		l.collections = append(l.collections, body)
		n := len(l.collections)
		l.mu.Unlock()

		writeJSON(w, http.StatusCreated, fmt.Sprintf(`{"status":"success","data":{"id":"col_%d","transactions":[{"id":"tx_%d"}]}}`, n, n))
	})

	l.Server = httptest.NewServer(mux)
	t.Cleanup(l.Server.Close)
	return l
}

// Collections returns the raw bodies of every posted collection.
func (l *FakeLedger) Collections() []json.RawMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]json.RawMessage(nil), l.collections...)
}

func (l *FakeLedger) Subtypes() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.subtypes...)
}

// FakeStripe answers the Stripe endpoints the bridge calls with canned objects.
type FakeStripe struct {
	*httptest.Server

	mu               sync.Mutex
	customersCreated int
	webhookEndpoints []string
}

func NewFakeStripe(t *testing.T) *FakeStripe {
	t.Helper()
	s := &FakeStripe{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/webhook_endpoints", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		items := make([]string, 0, len(s.webhookEndpoints))
		for i, url := range s.webhookEndpoints {
			items = append(items, fmt.Sprintf(`{"id":"we_%d","object":"webhook_endpoint","url":%q}`, i+1, url))
		}
		writeJSON(w, http.StatusOK, `{"object":"list","url":"/v1/webhook_endpoints","has_more":false,"data":[`+strings.Join(items, ",")+`]}`)
	})
	mux.HandleFunc("POST /v1/webhook_endpoints", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		url := r.PostForm.Get("url")

		s.mu.Lock()
		s.webhookEndpoints = append(s.webhookEndpoints, url)
		id := len(s.webhookEndpoints)
		s.mu.Unlock()

		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":"we_%d","object":"webhook_endpoint","url":%q,"secret":%q}`, id, url, WebhookSecret))
	})
	mux.HandleFunc("POST /v1/customers", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.customersCreated++
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":%q,"object":"customer"}`, CustomerID))
	})
	mux.HandleFunc("GET /v1/payment_methods/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != PaymentMethod {
			writeJSON(w, http.StatusNotFound, `{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such PaymentMethod"}}`)
			return
		}
		writeJSON(w, http.StatusOK, paymentMethodJSON())
	})
	mux.HandleFunc("GET /v1/payment_methods", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"object":"list","url":"/v1/payment_methods","has_more":false,"data":[`+paymentMethodJSON()+`]}`)
	})
	mux.HandleFunc("POST /v1/payment_intents", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("amount") == "999999" {
			writeJSON(w, http.StatusPaymentRequired, `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`)
			return
		}
		writeJSON(w, http.StatusOK, fmt.Sprintf(`{"id":"pi_e2e_%s","object":"payment_intent","status":"processing","amount":%s,"currency":%q}`,
			r.PostForm.Get("amount"), r.PostForm.Get("amount"), r.PostForm.Get("currency")))
	})
	mux.HandleFunc("POST /v1/checkout/sessions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"id":"cs_e2e","object":"checkout.session","mode":"setup","url":"https://checkout.stripe.com/c/cs_e2e"}`)
	})

	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Server.Close)
	return s
}

func (s *FakeStripe) CustomersCreated() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customersCreated
}

func (s *FakeStripe) WebhookEndpoints() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.webhookEndpoints...)
}

func paymentMethodJSON() string {
	return fmt.Sprintf(`{"id":%q,"object":"payment_method","type":"card","customer":%q,"card":{"brand":"visa","last4":"4242","exp_month":12,"exp_year":2030}}`,
		PaymentMethod, CustomerID)
}

// NewServer assembles the bridge the same way the serve command does, against
// the given database and fakes.
func NewServer(t *testing.T, db *postgres.DB, ledgerURL, stripeURL string, logger *slog.Logger) *httptest.Server {
	t.Helper()

	users := postgres.NewUserRepository(db)
	companies := postgres.NewCompanyRepository(db)
	currencies := postgres.NewCurrencyRepository(db)
	sessions := postgres.NewSessionRepository(db)
	payments := postgres.NewPaymentRepository(db)
	tc := postgres.NewTransactionCoordinator(db)

	ledgerClient := ledger.NewRetryLedgerClient(
		ledger.NewLedgerClient(config.LedgerConfig{BaseURL: ledgerURL, ConnTimeout: 5 * time.Second}),
		config.RetryConfig{BaseDelay: 10 * time.Millisecond, MaxRetries: 2},
	)
	processor := stripe.NewClient(config.ProcessorConfig{APIBaseURL: stripeURL, ConnTimeout: 5 * time.Second}, logger)

	authService := services.NewAuthenticationService(ledgerClient, cache.NoopIdentityCache{}, users, companies, time.Minute, logger)
	activationService := services.NewActivationService(authService, ledgerClient, currencies, tc, logger)
	companyService := services.NewCompanyService(currencies, processor, tc, PublicBaseURL, logger)
	customerService := services.NewCustomerService(processor, tc, logger)
	sessionService := services.NewSessionService(sessions, customerService, processor, logger)
	paymentService := services.NewPaymentService(payments, currencies, customerService, processor, ledgerClient, tc, logger)
	webhookService := services.NewWebhookService(companies, payments, paymentService, processor, tc, logger)
	queryService := services.NewQueryService(currencies, users)

	h := handlers.NewHandlers(
		authService,
		activationService,
		webhookService,
		companyService,
		queryService,
		sessionService,
		paymentService,
		customerService,
		logger,
	)

	doc, err := docs.Load(context.Background())
	require.NoError(t, err)
	validateRequests, err := middleware.OpenAPIValidator(doc, logger)
	require.NoError(t, err)

	handler := middleware.Chain(
		h.Routes(map[string]handlers.HealthCheck{"database": db.Ping}),
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Timeout(10*time.Second),
		validateRequests,
	)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// Envelope is the response wrapper every API endpoint writes.
type Envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// TestClient wraps HTTP calls to the bridge
type TestClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewTestClient(baseURL string) *TestClient {
	return &TestClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Do sends body as JSON (or raw bytes when it already is []byte) and decodes the envelope.
func (c *TestClient) Do(t *testing.T, method, path, token string, body any) (int, Envelope) {
	t.Helper()
	return c.send(t, method, path, body, map[string]string{"Authorization": "Token " + token})
}

// Webhook posts a payload signed with secret to the company's webhook endpoint.
func (c *TestClient) Webhook(t *testing.T, company, secret, payload string) (int, Envelope) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return c.send(t, http.MethodPost, "/api/webhook/"+company+"/", signed.Payload,
		map[string]string{"Stripe-Signature": signed.Header})
}

func (c *TestClient) send(t *testing.T, method, path string, body any, headers map[string]string) (int, Envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		encoded, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env), "status %d: %s", resp.StatusCode, raw)
	return resp.StatusCode, env
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
