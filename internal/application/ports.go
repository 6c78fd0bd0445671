package application

import (
	"context"
	"encoding/json"
	"slices"
	"time"
)

// Ledger is the port for the external accounting API. Every call carries the
// credential of the identity it acts for.
type Ledger interface {
	VerifyToken(ctx context.Context, token string) (*Identity, error)
	ListCurrencies(ctx context.Context, token string) ([]LedgerCurrency, error)
	ListSubtypes(ctx context.Context, token string) ([]LedgerSubtype, error)
	CreateSubtype(ctx context.Context, token string, req CreateSubtypeRequest) (*LedgerSubtype, error)
	CreateTransactionCollection(ctx context.Context, token string, req TransactionCollectionRequest) (*TransactionCollection, error)
}

// Processor is the port for the card processor. The tenant's API key is
// passed explicitly on every call; there is no process wide key.
type Processor interface {
	CreateCustomer(ctx context.Context, apiKey string, req CreateCustomerRequest) (string, error)
	CreateSetupSession(ctx context.Context, apiKey string, req SetupSessionRequest) (*ProcessorSession, error)
	CreatePaymentIntent(ctx context.Context, apiKey string, req PaymentIntentRequest) (*PaymentIntent, error)
	GetPaymentIntent(ctx context.Context, apiKey, intentID string) (*PaymentIntent, error)
	GetPaymentMethod(ctx context.Context, apiKey, methodID string) (*PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, apiKey, customerID string) ([]PaymentMethod, error)
	ListWebhookEndpoints(ctx context.Context, apiKey string) ([]WebhookEndpoint, error)
	CreateWebhookEndpoint(ctx context.Context, apiKey string, req CreateWebhookEndpointRequest) (*WebhookEndpoint, error)
	// ParseEvent verifies signature over payload with secret and decodes the event.
	// It returns ErrInvalidSignature or ErrInvalidPayload on failure.
	ParseEvent(payload []byte, signature, secret string) (*Event, error)
}

// IdentityCache memoises verified ledger identities for a short time.
type IdentityCache interface {
	Get(ctx context.Context, token string) (*Identity, bool, error)
	Set(ctx context.Context, token string, identity *Identity, ttl time.Duration) error
	Delete(ctx context.Context, token string) error
}

// Identity is the verified caller as reported by the ledger.
type Identity struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Company       string   `json:"company"`
	Groups        []string `json:"groups"`
	EmailVerified bool     `json:"email_verified"`
}

func (i *Identity) InGroup(name string) bool {
	return slices.Contains(i.Groups, name)
}

type LedgerCurrency struct {
	Code         string
	DisplayCode  string
	Description  string
	Symbol       string
	Unit         string
	Divisibility int
}

type LedgerSubtype struct {
	ID          string
	Name        string
	TxType      string
	Description string
}

type CreateSubtypeRequest struct {
	Name        string
	TxType      string
	Description string
}

type LedgerTransaction struct {
	User     string
	Amount   int64
	Currency string
	Status   string
	Subtype  string
	TxType   string
	Metadata map[string]string
}

type TransactionCollectionRequest struct {
	Transactions []LedgerTransaction
}

type TransactionCollection struct {
	ID           string
	Transactions []string
}

type CreateCustomerRequest struct {
	UserIdentifier string
	Email          string
}

type SetupSessionRequest struct {
	CustomerID string
	SuccessURL string
	CancelURL  string
}

type ProcessorSession struct {
	ID  string
	URL string
	Raw json.RawMessage
}

type PaymentIntentRequest struct {
	CustomerID    string
	PaymentMethod string
	Amount        int64
	Currency      string
	ReturnURL     string
	Metadata      map[string]string

	// IdempotencyKey is sent with every attempt of the same creation.
	IdempotencyKey string
}

type PaymentIntent struct {
	ID         string
	Status     string
	LastError  string
	NextAction json.RawMessage
	Raw        json.RawMessage
}

// Processor intent statuses consumed by the reconciler.
const (
	IntentStatusSucceeded             = "succeeded"
	IntentStatusCanceled              = "canceled"
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
)

type PaymentMethod struct {
	ID         string
	CustomerID string
	Type       string
	Brand      string
	Last4      string
	ExpMonth   int64
	ExpYear    int64
}

type WebhookEndpoint struct {
	ID            string
	URL           string
	Secret        string
	EnabledEvents []string
}

type CreateWebhookEndpointRequest struct {
	URL    string
	Events []string
}

// Event types consumed by the webhook dispatcher.
const (
	EventCheckoutSessionCompleted   = "checkout.session.completed"
	EventPaymentIntentSucceeded     = "payment_intent.succeeded"
	EventPaymentIntentPaymentFailed = "payment_intent.payment_failed"
)

// WebhookEvents is the exact set registered on every company endpoint.
var WebhookEvents = []string{
	EventCheckoutSessionCompleted,
	EventPaymentIntentSucceeded,
	EventPaymentIntentPaymentFailed,
}

// Event is a verified processor event reduced to what the dispatcher routes on.
type Event struct {
	ID       string
	Type     string
	ObjectID string
	// ErrorMessage is the last payment error for payment_failed events.
	ErrorMessage string
}
