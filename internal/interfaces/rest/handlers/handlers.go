package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/DanielPopoola/stripe-bridge/internal/interfaces/rest/middleware"
	"github.com/go-playground/validator"
	"github.com/google/uuid"
)

type Authenticator interface {
	AuthenticateAdmin(ctx context.Context, token string) (*services.Principal, error)
	AuthenticateUser(ctx context.Context, token string) (*services.Principal, error)
}

type ActivationService interface {
	Activate(ctx context.Context, token string) (*services.CompanyView, error)
	Deactivate(ctx context.Context, token string) error
}

type WebhookService interface {
	Handle(ctx context.Context, companyIdentifier string, body []byte, signature string) (*services.WebhookResult, error)
}

type CompanyService interface {
	Get(ctx context.Context, company *domain.Company) (*services.CompanyView, error)
	Update(ctx context.Context, company *domain.Company, cmd services.UpdateCompanyCommand) (*services.CompanyView, error)
	WebhookURL(companyIdentifier string) string
}

type QueryService interface {
	ListCurrencies(ctx context.Context, company *domain.Company) ([]*domain.Currency, error)
	GetCurrency(ctx context.Context, company *domain.Company, code string) (*domain.Currency, error)
	ListUsers(ctx context.Context, company *domain.Company, page postgres.Page) ([]*domain.User, error)
	GetUser(ctx context.Context, company *domain.Company, identifier uuid.UUID) (*domain.User, error)
}

type SessionService interface {
	Create(ctx context.Context, company *domain.Company, user *domain.User, cmd services.CreateSessionCommand) (*domain.Session, error)
	Get(ctx context.Context, user *domain.User, identifier string) (*domain.Session, error)
	List(ctx context.Context, user *domain.User, page postgres.Page) ([]*domain.Session, error)
	ListForCompany(ctx context.Context, company *domain.Company, page postgres.Page) ([]*domain.Session, error)
}

type PaymentService interface {
	Create(ctx context.Context, company *domain.Company, user *domain.User, cmd services.CreatePaymentCommand) (*services.PaymentView, error)
	Get(ctx context.Context, user *domain.User, identifier string) (*services.PaymentView, error)
	List(ctx context.Context, company *domain.Company, user *domain.User, page postgres.Page) ([]*services.PaymentView, error)
	GetForCompany(ctx context.Context, company *domain.Company, identifier string) (*services.PaymentView, error)
	ListForCompany(ctx context.Context, company *domain.Company, page postgres.Page) ([]*services.PaymentView, error)
}

type CustomerService interface {
	ListPaymentMethods(ctx context.Context, company *domain.Company, user *domain.User) ([]application.PaymentMethod, error)
}

type Handlers struct {
	auth       Authenticator
	activation ActivationService
	webhooks   WebhookService
	companies  CompanyService
	queries    QueryService
	sessions   SessionService
	payments   PaymentService
	customers  CustomerService
	validate   *validator.Validate
	logger     *slog.Logger
}

func NewHandlers(
	auth Authenticator,
	activation ActivationService,
	webhooks WebhookService,
	companies CompanyService,
	queries QueryService,
	sessions SessionService,
	payments PaymentService,
	customers CustomerService,
	logger *slog.Logger,
) *Handlers {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handlers{
		auth:       auth,
		activation: activation,
		webhooks:   webhooks,
		companies:  companies,
		queries:    queries,
		sessions:   sessions,
		payments:   payments,
		customers:  customers,
		validate:   validate,
		logger:     logger,
	}
}

// RegisterRoutes mounts the API. Patterns end in {$} so the trailing slash
// does not turn them into subtree matches.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	admin := middleware.Authenticate(h.auth.AuthenticateAdmin, h.logger)
	user := middleware.Authenticate(h.auth.AuthenticateUser, h.logger)

	mux.HandleFunc("POST /api/activate/{$}", h.HandleActivate)
	mux.HandleFunc("POST /api/deactivate/{$}", h.HandleDeactivate)
	mux.HandleFunc("POST /api/webhook/{companyId}/{$}", h.HandleWebhook)

	mux.Handle("GET /api/admin/company/{$}", admin(http.HandlerFunc(h.HandleGetCompany)))
	mux.Handle("PATCH /api/admin/company/{$}", admin(http.HandlerFunc(h.HandleUpdateCompany)))
	mux.Handle("GET /api/admin/currencies/{$}", admin(http.HandlerFunc(h.HandleListCurrencies)))
	mux.Handle("GET /api/admin/currencies/{code}/{$}", admin(http.HandlerFunc(h.HandleGetCurrency)))
	mux.Handle("GET /api/admin/users/{$}", admin(http.HandlerFunc(h.HandleListUsers)))
	mux.Handle("GET /api/admin/users/{id}/{$}", admin(http.HandlerFunc(h.HandleGetUser)))
	mux.Handle("GET /api/admin/payments/{$}", admin(http.HandlerFunc(h.HandleAdminListPayments)))
	mux.Handle("GET /api/admin/payments/{id}/{$}", admin(http.HandlerFunc(h.HandleAdminGetPayment)))
	mux.Handle("GET /api/admin/sessions/{$}", admin(http.HandlerFunc(h.HandleAdminListSessions)))

	mux.Handle("GET /api/user/company/{$}", user(http.HandlerFunc(h.HandleUserCompany)))
	mux.Handle("GET /api/user/payment-methods/{$}", user(http.HandlerFunc(h.HandleListPaymentMethods)))
	mux.Handle("GET /api/user/sessions/{$}", user(http.HandlerFunc(h.HandleListSessions)))
	mux.Handle("POST /api/user/sessions/{$}", user(http.HandlerFunc(h.HandleCreateSession)))
	mux.Handle("GET /api/user/sessions/{id}/{$}", user(http.HandlerFunc(h.HandleGetSession)))
	mux.Handle("GET /api/user/payments/{$}", user(http.HandlerFunc(h.HandleListPayments)))
	mux.Handle("POST /api/user/payments/{$}", user(http.HandlerFunc(h.HandleCreatePayment)))
	mux.Handle("GET /api/user/payments/{id}/{$}", user(http.HandlerFunc(h.HandleGetPayment)))
}

// Routes returns a mux with the API plus the health and docs endpoints.
func (h *Handlers) Routes(checks map[string]HealthCheck) *http.ServeMux {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", Health(checks))
	mux.HandleFunc("GET /docs/openapi.yaml", HandleOpenAPIDocument)
	return mux
}
