package domain_test

import (
	"testing"

	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompany_Configured(t *testing.T) {
	company, err := domain.NewCompany("acme", 1)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, company.Secret)
	assert.False(t, company.Configured())

	company.APIKey = "sk_test_123"
	company.PublishableKey = "pk_test_123"
	assert.False(t, company.Configured(), "webhook secret still missing")

	company.WebhookSecret = "whsec_123"
	assert.True(t, company.Configured())

	company.Deactivate()
	assert.False(t, company.Configured())

	company.Activate(2)
	assert.True(t, company.Configured())
	assert.Equal(t, int64(2), company.AdminID)
}

func TestUser_Configured(t *testing.T) {
	user, err := domain.NewUser(uuid.New(), nil)
	require.NoError(t, err)
	assert.False(t, user.Configured())

	user.BindCustomer("cus_123")
	assert.True(t, user.Configured())
}

func TestUser_Token(t *testing.T) {
	user, err := domain.NewUser(uuid.New(), nil)
	require.NoError(t, err)

	user.SetToken("secret")
	require.NotNil(t, user.Token)
	assert.Equal(t, "secret", *user.Token)

	user.ClearToken()
	assert.Nil(t, user.Token)
}

func TestNewCurrency(t *testing.T) {
	currency, err := domain.NewCurrency(1, "USD", 2)
	require.NoError(t, err)
	assert.True(t, currency.Enabled)

	_, err = domain.NewCurrency(1, "XBT", 19)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestSession_Complete(t *testing.T) {
	session, err := domain.NewSession("cs_123", 1, domain.SessionModeSetup, "", "", nil)
	require.NoError(t, err)

	require.NoError(t, session.Complete())
	assert.True(t, session.Completed)

	err = session.Complete()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.True(t, session.Completed)
}

func TestNewSession_RejectsUnsupportedMode(t *testing.T) {
	_, err := domain.NewSession("cs_123", 1, domain.SessionMode("payment"), "", "", nil)

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, domain.ValidationFields(err), "mode")
}

func TestFieldErrors(t *testing.T) {
	fields := domain.FieldErrors{}
	assert.NoError(t, fields.Err())

	fields.Add("currencies", "unknown code EUR")
	fields.Add("api_key", "rejected by processor")
	fields.Add("api_key", "ignored second message")

	err := fields.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "api_key: rejected by processor; currencies: unknown code EUR", err.(*domain.DomainError).Message)
	assert.Len(t, domain.ValidationFields(err), 2)
}
