package testhelpers

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// Fixture is a configured company with its admin, one end user and USD.
type Fixture struct {
	Company  *domain.Company
	Admin    *domain.User
	User     *domain.User
	Currency *domain.Currency
}

const (
	TestAPIKey         = "sk_test_fixture"
	TestPublishableKey = "pk_test_fixture"
	TestWebhookSecret  = "whsec_fixture"
	TestAdminToken     = "admin-token"
)

// CreateCompanyFixture persists a fully configured company ready to take payments.
func CreateCompanyFixture(t *testing.T, ctx context.Context, db *postgres.DB, identifier string) *Fixture {
	t.Helper()

	users := postgres.NewUserRepository(db)
	companies := postgres.NewCompanyRepository(db)
	currencies := postgres.NewCurrencyRepository(db)

	admin, err := domain.NewUser(uuid.New(), nil)
	require.NoError(t, err)
	admin.SetToken(TestAdminToken)
	require.NoError(t, users.Create(ctx, admin))

	company, err := domain.NewCompany(identifier, admin.ID)
	require.NoError(t, err)
	company.APIKey = TestAPIKey
	company.PublishableKey = TestPublishableKey
	company.WebhookSecret = TestWebhookSecret
	company.SuccessURL = "https://example.com/success"
	company.CancelURL = "https://example.com/cancel"
	require.NoError(t, companies.Create(ctx, company))

	admin.CompanyID = &company.ID
	require.NoError(t, users.Update(ctx, admin))

	user, err := domain.NewUser(uuid.New(), &company.ID)
	require.NoError(t, err)
	user.BindCustomer("cus_" + uuid.NewString()[:8])
	require.NoError(t, users.Create(ctx, user))

	currency, err := domain.NewCurrency(company.ID, "USD", 2)
	require.NoError(t, err)
	currency.Symbol = "$"
	_, err = currencies.CreateIfAbsent(ctx, currency)
	require.NoError(t, err)

	return &Fixture{
		Company:  company,
		Admin:    admin,
		User:     user,
		Currency: currency,
	}
}

// CreateProcessingPayment persists a PROCESSING payment of $10.00 for the fixture user.
func CreateProcessingPayment(t *testing.T, ctx context.Context, db *postgres.DB, f *Fixture, identifier string) *domain.Payment {
	t.Helper()

	payment, err := domain.NewPayment(
		identifier,
		f.User.ID,
		f.Currency.ID,
		decimal.RequireFromString("10.00"),
		"pm_card_visa",
		"https://example.com/return",
	)
	require.NoError(t, err)
	payment.NextAction = json.RawMessage(`{"type":"use_stripe_sdk"}`)
	payment.Data = json.RawMessage(`{"id":"` + identifier + `","object":"payment_intent"}`)

	require.NoError(t, postgres.NewPaymentRepository(db).Create(ctx, payment))
	return payment
}

// CreateSession persists an open setup session for the fixture user.
func CreateSession(t *testing.T, ctx context.Context, db *postgres.DB, f *Fixture, identifier string) *domain.Session {
	t.Helper()

	session, err := domain.NewSession(
		identifier,
		f.User.ID,
		domain.SessionModeSetup,
		f.Company.SuccessURL,
		f.Company.CancelURL,
		json.RawMessage(`{"id":"`+identifier+`"}`),
	)
	require.NoError(t, err)
	require.NoError(t, postgres.NewSessionRepository(db).Create(ctx, session))
	return session
}
