package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/DanielPopoola/stripe-bridge/internal/application/mocks"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services"
	"github.com/DanielPopoola/stripe-bridge/internal/application/services/testhelpers"
	"github.com/DanielPopoola/stripe-bridge/internal/domain"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/cache"
	"github.com/DanielPopoola/stripe-bridge/internal/infrastructure/persistence/postgres"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ActivationServiceTestSuite struct {
	suite.Suite
	testDB     *testhelpers.TestDatabase
	users      *postgres.UserRepository
	companies  *postgres.CompanyRepository
	currencies *postgres.CurrencyRepository
	tc         *postgres.TransactionCoordinator

	mockLedger    *mocks.MockLedger
	mockProcessor *mocks.MockProcessor
	auth          *services.AuthenticationService
	activation    *services.ActivationService
	companySvc    *services.CompanyService
}

func TestActivationServiceSuite(t *testing.T) {
	suite.Run(t, new(ActivationServiceTestSuite))
}

func (suite *ActivationServiceTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.users = postgres.NewUserRepository(suite.testDB.DB)
	suite.companies = postgres.NewCompanyRepository(suite.testDB.DB)
	suite.currencies = postgres.NewCurrencyRepository(suite.testDB.DB)
	suite.tc = postgres.NewTransactionCoordinator(suite.testDB.DB)
}

func (suite *ActivationServiceTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *ActivationServiceTestSuite) SetupTest() {
	logger := testhelpers.DiscardLogger()
	suite.mockLedger = mocks.NewMockLedger(suite.T())
	suite.mockProcessor = mocks.NewMockProcessor(suite.T())

	suite.auth = services.NewAuthenticationService(
		suite.mockLedger,
		cache.NoopIdentityCache{},
		suite.users,
		suite.companies,
		time.Minute,
		logger,
	)
	suite.activation = services.NewActivationService(suite.auth, suite.mockLedger, suite.currencies, suite.tc, logger)
	suite.companySvc = services.NewCompanyService(suite.currencies, suite.mockProcessor, suite.tc, "https://bridge.test", logger)
}

func (suite *ActivationServiceTestSuite) TearDownTest() {
	suite.testDB.CleanTables(suite.T())
}

func adminIdentity(company string) *application.Identity {
	return &application.Identity{
		ID:            uuid.NewString(),
		Email:         "owner@" + company + ".test",
		Company:       company,
		Groups:        []string{domain.AdminGroup},
		EmailVerified: true,
	}
}

func ledgerCurrencies() []application.LedgerCurrency {
	return []application.LedgerCurrency{
		{Code: "USD", DisplayCode: "USD", Description: "US Dollar", Symbol: "$", Unit: "dollar", Divisibility: 2},
		{Code: "BTC", DisplayCode: "BTC", Description: "Bitcoin", Symbol: "B", Unit: "bitcoin", Divisibility: 8},
	}
}

func (suite *ActivationServiceTestSuite) expectActivation(token string, identity *application.Identity, subtypes []application.LedgerSubtype) {
	suite.mockLedger.On("VerifyToken", mock.Anything, token).Return(identity, nil).Once()
	suite.mockLedger.On("ListCurrencies", mock.Anything, token).Return(ledgerCurrencies(), nil).Once()
	suite.mockLedger.On("ListSubtypes", mock.Anything, token).Return(subtypes, nil).Once()
}

// ============================================================================
// ACTIVATION
// ============================================================================

func (suite *ActivationServiceTestSuite) Test_Activate_CreatesCompany() {
	ctx := context.Background()
	t := suite.T()
	identity := adminIdentity("acme")

	suite.expectActivation("tok-1", identity, nil)
	suite.mockLedger.On("CreateSubtype", mock.Anything, "tok-1", application.CreateSubtypeRequest{
		Name:        services.DepositSubtype,
		TxType:      services.DepositTxType,
		Description: services.DepositDescription,
	}).Return(&application.LedgerSubtype{ID: "7", Name: services.DepositSubtype}, nil).Once()

	view, err := suite.activation.Activate(ctx, "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "acme", view.Company.Identifier)
	assert.True(t, view.Company.Active)
	assert.False(t, view.Company.Configured())
	require.Len(t, view.Currencies, 2)
	assert.Equal(t, "BTC", view.Currencies[0].Code)
	assert.Equal(t, 8, view.Currencies[0].Divisibility)

	admin, err := suite.users.FindByIdentifier(ctx, uuid.MustParse(identity.ID))
	require.NoError(t, err)
	require.NotNil(t, admin.Token)
	assert.Equal(t, "tok-1", *admin.Token)
	assert.Equal(t, view.Company.AdminID, admin.ID)
	require.NotNil(t, admin.CompanyID)
	assert.Equal(t, view.Company.ID, *admin.CompanyID)
}

func (suite *ActivationServiceTestSuite) Test_Activate_IsIdempotent() {
	ctx := context.Background()
	t := suite.T()
	identity := adminIdentity("acme")
	existing := []application.LedgerSubtype{{ID: "7", Name: services.DepositSubtype, TxType: services.DepositTxType}}

	suite.expectActivation("tok-1", identity, existing)
	first, err := suite.activation.Activate(ctx, "tok-1")
	require.NoError(t, err)

	// Local edits survive a second activation.
	usd, err := suite.currencies.FindByCode(ctx, first.Company.ID, "USD")
	require.NoError(t, err)
	require.NoError(t, suite.currencies.SetEnabled(ctx, first.Company.ID, []string{"BTC"}))

	suite.expectActivation("tok-1", identity, existing)
	second, err := suite.activation.Activate(ctx, "tok-1")
	require.NoError(t, err)

	assert.Equal(t, first.Company.ID, second.Company.ID)
	assert.Equal(t, first.Company.Secret, second.Company.Secret)
	require.Len(t, second.Currencies, 2)

	reloaded, err := suite.currencies.FindByCode(ctx, first.Company.ID, "USD")
	require.NoError(t, err)
	assert.Equal(t, usd.ID, reloaded.ID)
	assert.False(t, reloaded.Enabled)
}

func (suite *ActivationServiceTestSuite) Test_Activate_NewAdminRevokesPrevious() {
	ctx := context.Background()
	t := suite.T()
	existing := []application.LedgerSubtype{{Name: services.DepositSubtype, TxType: services.DepositTxType}}

	first := adminIdentity("acme")
	suite.expectActivation("tok-first", first, existing)
	_, err := suite.activation.Activate(ctx, "tok-first")
	require.NoError(t, err)

	second := adminIdentity("acme")
	suite.expectActivation("tok-second", second, existing)
	view, err := suite.activation.Activate(ctx, "tok-second")
	require.NoError(t, err)

	previous, err := suite.users.FindByIdentifier(ctx, uuid.MustParse(first.ID))
	require.NoError(t, err)
	assert.Nil(t, previous.Token)

	current, err := suite.users.FindByIdentifier(ctx, uuid.MustParse(second.ID))
	require.NoError(t, err)
	assert.Equal(t, view.Company.AdminID, current.ID)
}

func (suite *ActivationServiceTestSuite) Test_Activate_RequiresAdminGroup() {
	ctx := context.Background()
	t := suite.T()
	identity := adminIdentity("acme")
	identity.Groups = []string{"user"}

	suite.mockLedger.On("VerifyToken", mock.Anything, "tok-user").Return(identity, nil).Once()

	_, err := suite.activation.Activate(ctx, "tok-user")
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeAuthenticationFailed, application.ToErrorCode(err))

	_, err = suite.companies.FindByIdentifier(ctx, "acme")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *ActivationServiceTestSuite) Test_Activate_RejectsUserOfAnotherCompany() {
	ctx := context.Background()
	t := suite.T()
	globex := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "globex")
	existing := []application.LedgerSubtype{{Name: services.DepositSubtype, TxType: services.DepositTxType}}

	identity := adminIdentity("acme")
	identity.ID = globex.User.Identifier.String()
	suite.expectActivation("tok-foreign", identity, existing)

	_, err := suite.activation.Activate(ctx, "tok-foreign")
	require.Error(t, err)
	assert.Equal(t, application.ErrCodeAuthenticationFailed, application.ToErrorCode(err))

	_, err = suite.companies.FindByIdentifier(ctx, "acme")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	user, err := suite.users.FindByID(ctx, globex.User.ID)
	require.NoError(t, err)
	assert.Nil(t, user.Token)
	require.NotNil(t, user.CompanyID)
	assert.Equal(t, globex.Company.ID, *user.CompanyID)
}

func (suite *ActivationServiceTestSuite) Test_Activate_RejectedToken() {
	ctx := context.Background()
	t := suite.T()

	suite.mockLedger.On("VerifyToken", mock.Anything, "bad").
		Return(nil, &application.LedgerError{Message: "Invalid token.", StatusCode: 401}).Once()

	_, err := suite.activation.Activate(ctx, "bad")
	assert.Equal(t, application.ErrCodeAuthenticationFailed, application.ToErrorCode(err))
}

func (suite *ActivationServiceTestSuite) Test_Activate_LedgerDownWritesNothing() {
	ctx := context.Background()
	t := suite.T()
	identity := adminIdentity("acme")

	suite.mockLedger.On("VerifyToken", mock.Anything, "tok-1").Return(identity, nil).Once()
	suite.mockLedger.On("ListCurrencies", mock.Anything, "tok-1").
		Return(nil, &application.LedgerError{Message: "down", StatusCode: 503}).Once()

	_, err := suite.activation.Activate(ctx, "tok-1")
	assert.Equal(t, application.ErrCodeLedgerUnavailable, application.ToErrorCode(err))

	_, err = suite.companies.FindByIdentifier(ctx, "acme")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func (suite *ActivationServiceTestSuite) Test_Deactivate() {
	ctx := context.Background()
	t := suite.T()
	identity := adminIdentity("acme")
	existing := []application.LedgerSubtype{{Name: services.DepositSubtype, TxType: services.DepositTxType}}

	suite.expectActivation("tok-1", identity, existing)
	_, err := suite.activation.Activate(ctx, "tok-1")
	require.NoError(t, err)

	suite.mockLedger.On("VerifyToken", mock.Anything, "tok-1").Return(identity, nil).Once()
	require.NoError(t, suite.activation.Deactivate(ctx, "tok-1"))

	company, err := suite.companies.FindByIdentifier(ctx, "acme")
	require.NoError(t, err)
	assert.False(t, company.Active)

	admin, err := suite.users.FindByID(ctx, company.AdminID)
	require.NoError(t, err)
	assert.Nil(t, admin.Token)
}

func (suite *ActivationServiceTestSuite) Test_Deactivate_UnknownCompany() {
	ctx := context.Background()
	t := suite.T()

	suite.mockLedger.On("VerifyToken", mock.Anything, "tok-1").Return(adminIdentity("ghost"), nil).Once()

	err := suite.activation.Deactivate(ctx, "tok-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ============================================================================
// AUTHENTICATION
// ============================================================================

func (suite *ActivationServiceTestSuite) Test_AuthenticateUser() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")

	identity := &application.Identity{ID: uuid.NewString(), Company: "acme"}
	suite.mockLedger.On("VerifyToken", mock.Anything, "user-tok").Return(identity, nil).Once()

	principal, err := suite.auth.AuthenticateUser(ctx, "user-tok")
	require.NoError(t, err)
	assert.Equal(t, f.Company.ID, principal.Company.ID)
	require.NotNil(t, principal.User.CompanyID)
	assert.Equal(t, f.Company.ID, *principal.User.CompanyID)
}

func (suite *ActivationServiceTestSuite) Test_AuthenticateUser_InactiveCompany() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")
	f.Company.Deactivate()
	require.NoError(t, suite.companies.Update(ctx, f.Company))

	suite.mockLedger.On("VerifyToken", mock.Anything, "user-tok").
		Return(&application.Identity{ID: uuid.NewString(), Company: "acme"}, nil).Once()

	_, err := suite.auth.AuthenticateUser(ctx, "user-tok")
	assert.Equal(t, application.ErrCodeAuthenticationFailed, application.ToErrorCode(err))
}

func (suite *ActivationServiceTestSuite) Test_AuthenticateAdmin_RequiresGroup() {
	ctx := context.Background()
	t := suite.T()
	testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")

	suite.mockLedger.On("VerifyToken", mock.Anything, "user-tok").
		Return(&application.Identity{ID: uuid.NewString(), Company: "acme"}, nil).Once()

	_, err := suite.auth.AuthenticateAdmin(ctx, "user-tok")
	assert.Equal(t, application.ErrCodeAuthenticationFailed, application.ToErrorCode(err))
}

// ============================================================================
// PROCESSOR CONFIGURATION
// ============================================================================

func (suite *ActivationServiceTestSuite) Test_Update_RegistersWebhook() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")
	newKey := "sk_test_rotated"

	suite.mockProcessor.On("ListWebhookEndpoints", mock.Anything, newKey).
		Return([]application.WebhookEndpoint{{ID: "we_other", URL: "https://elsewhere.test/hook"}}, nil).Once()
	suite.mockProcessor.On("CreateWebhookEndpoint", mock.Anything, newKey, application.CreateWebhookEndpointRequest{
		URL:    "https://bridge.test/api/webhook/acme/",
		Events: application.WebhookEvents,
	}).Return(&application.WebhookEndpoint{ID: "we_new", Secret: "whsec_rotated"}, nil).Once()

	view, err := suite.companySvc.Update(ctx, f.Company, services.UpdateCompanyCommand{APIKey: &newKey})
	require.NoError(t, err)
	assert.Equal(t, newKey, view.Company.APIKey)
	assert.Equal(t, "whsec_rotated", view.Company.WebhookSecret)
}

func (suite *ActivationServiceTestSuite) Test_Update_KeepsSecretForExistingEndpoint() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")
	newKey := "sk_test_rotated"

	suite.mockProcessor.On("ListWebhookEndpoints", mock.Anything, newKey).
		Return([]application.WebhookEndpoint{{ID: "we_1", URL: "https://bridge.test/api/webhook/acme/"}}, nil).Once()

	view, err := suite.companySvc.Update(ctx, f.Company, services.UpdateCompanyCommand{APIKey: &newKey})
	require.NoError(t, err)
	assert.Equal(t, testhelpers.TestWebhookSecret, view.Company.WebhookSecret)
	suite.mockProcessor.AssertNotCalled(t, "CreateWebhookEndpoint", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ActivationServiceTestSuite) Test_Update_InvalidCredentials() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")
	badKey := "sk_test_wrong"

	suite.mockProcessor.On("ListWebhookEndpoints", mock.Anything, badKey).
		Return(nil, &application.ProcessorError{Code: "invalid_request_error", StatusCode: 401}).Once()

	_, err := suite.companySvc.Update(ctx, f.Company, services.UpdateCompanyCommand{APIKey: &badKey})
	assert.Equal(t, application.ErrCodeInvalidCredentials, application.ToErrorCode(err))

	company, err := suite.companies.FindByID(ctx, f.Company.ID)
	require.NoError(t, err)
	assert.Equal(t, testhelpers.TestAPIKey, company.APIKey)
}

func (suite *ActivationServiceTestSuite) Test_Update_AggregatesFieldErrors() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")
	badURL := "not a url"
	blank := " "

	_, err := suite.companySvc.Update(ctx, f.Company, services.UpdateCompanyCommand{
		PublishableKey: &blank,
		SuccessURL:     &badURL,
		Currencies:     []string{"USD", "XYZ"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	fields := domain.ValidationFields(err)
	assert.Contains(t, fields, "publishable_key")
	assert.Contains(t, fields, "success_url")
	assert.Contains(t, fields["currencies"], "XYZ")
}

func (suite *ActivationServiceTestSuite) Test_Update_AcceptedCurrencies() {
	ctx := context.Background()
	t := suite.T()
	f := testhelpers.CreateCompanyFixture(t, ctx, suite.testDB.DB, "acme")
	pk := "pk_test_new"

	view, err := suite.companySvc.Update(ctx, f.Company, services.UpdateCompanyCommand{
		PublishableKey: &pk,
		Currencies:     []string{},
	})
	require.NoError(t, err)
	assert.Equal(t, pk, view.Company.PublishableKey)
	require.Len(t, view.Currencies, 1)
	assert.False(t, view.Currencies[0].Enabled)
}
