package mocks

import (
	"context"

	"github.com/DanielPopoola/stripe-bridge/internal/application"
	"github.com/stretchr/testify/mock"
)

// MockProcessor is a mock implementation of application.Processor.
type MockProcessor struct {
	mock.Mock
}

var _ application.Processor = (*MockProcessor)(nil)

// NewMockProcessor creates a MockProcessor that asserts its expectations on cleanup.
func NewMockProcessor(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProcessor {
	m := &MockProcessor{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockProcessor) CreateCustomer(ctx context.Context, apiKey string, req application.CreateCustomerRequest) (string, error) {
	args := m.Called(ctx, apiKey, req)
	return args.String(0), args.Error(1)
}

func (m *MockProcessor) CreateSetupSession(ctx context.Context, apiKey string, req application.SetupSessionRequest) (*application.ProcessorSession, error) {
	args := m.Called(ctx, apiKey, req)
	session, _ := args.Get(0).(*application.ProcessorSession)
	return session, args.Error(1)
}

func (m *MockProcessor) CreatePaymentIntent(ctx context.Context, apiKey string, req application.PaymentIntentRequest) (*application.PaymentIntent, error) {
	args := m.Called(ctx, apiKey, req)
	intent, _ := args.Get(0).(*application.PaymentIntent)
	return intent, args.Error(1)
}

func (m *MockProcessor) GetPaymentIntent(ctx context.Context, apiKey, intentID string) (*application.PaymentIntent, error) {
	args := m.Called(ctx, apiKey, intentID)
	intent, _ := args.Get(0).(*application.PaymentIntent)
	return intent, args.Error(1)
}

func (m *MockProcessor) GetPaymentMethod(ctx context.Context, apiKey, methodID string) (*application.PaymentMethod, error) {
	args := m.Called(ctx, apiKey, methodID)
	method, _ := args.Get(0).(*application.PaymentMethod)
	return method, args.Error(1)
}

func (m *MockProcessor) ListPaymentMethods(ctx context.Context, apiKey, customerID string) ([]application.PaymentMethod, error) {
	args := m.Called(ctx, apiKey, customerID)
	methods, _ := args.Get(0).([]application.PaymentMethod)
	return methods, args.Error(1)
}

func (m *MockProcessor) ListWebhookEndpoints(ctx context.Context, apiKey string) ([]application.WebhookEndpoint, error) {
	args := m.Called(ctx, apiKey)
	endpoints, _ := args.Get(0).([]application.WebhookEndpoint)
	return endpoints, args.Error(1)
}

func (m *MockProcessor) CreateWebhookEndpoint(ctx context.Context, apiKey string, req application.CreateWebhookEndpointRequest) (*application.WebhookEndpoint, error) {
	args := m.Called(ctx, apiKey, req)
	endpoint, _ := args.Get(0).(*application.WebhookEndpoint)
	return endpoint, args.Error(1)
}

func (m *MockProcessor) ParseEvent(payload []byte, signature, secret string) (*application.Event, error) {
	args := m.Called(payload, signature, secret)
	event, _ := args.Get(0).(*application.Event)
	return event, args.Error(1)
}
