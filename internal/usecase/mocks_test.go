package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/provider"
)

// fakeClock pins time for deterministic lifecycle tests.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// MockRecordRepository is a mock implementation of SubscriptionRecordRepository
type MockRecordRepository struct {
	mock.Mock
}

func (m *MockRecordRepository) GetByBusinessID(ctx context.Context, businessID uuid.UUID) (*model.SubscriptionRecord, error) {
	args := m.Called(ctx, businessID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionRecord), args.Error(1)
}

func (m *MockRecordRepository) GetByExternalSubscriptionID(ctx context.Context, externalSubscriptionID string) (*model.SubscriptionRecord, error) {
	args := m.Called(ctx, externalSubscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionRecord), args.Error(1)
}

func (m *MockRecordRepository) GetByExternalCustomerID(ctx context.Context, externalCustomerID string) (*model.SubscriptionRecord, error) {
	args := m.Called(ctx, externalCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubscriptionRecord), args.Error(1)
}

func (m *MockRecordRepository) Create(ctx context.Context, record *model.SubscriptionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) Update(ctx context.Context, record *model.SubscriptionRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockRecordRepository) FindExpiredTrials(ctx context.Context, now time.Time) ([]*model.SubscriptionRecord, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SubscriptionRecord), args.Error(1)
}

// MockBusinessRepository is a mock implementation of BusinessRepository
type MockBusinessRepository struct {
	mock.Mock
}

func (m *MockBusinessRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockBusinessRepository) GetBySlug(ctx context.Context, slug string) (*model.Business, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Business), args.Error(1)
}

func (m *MockBusinessRepository) Create(ctx context.Context, business *model.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) Update(ctx context.Context, business *model.Business) error {
	args := m.Called(ctx, business)
	return args.Error(0)
}

func (m *MockBusinessRepository) MarkClaimed(ctx context.Context, id uuid.UUID, userID uuid.UUID, claimedAt time.Time) error {
	args := m.Called(ctx, id, userID, claimedAt)
	return args.Error(0)
}

// MockCacheInvalidator is a mock implementation of CacheInvalidator
type MockCacheInvalidator struct {
	mock.Mock
}

func (m *MockCacheInvalidator) InvalidateBusiness(ctx context.Context, businessID uuid.UUID, slug string) error {
	args := m.Called(ctx, businessID, slug)
	return args.Error(0)
}

// MockBillingProvider is a mock implementation of BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) CreateCustomer(ctx context.Context, name, email string, metadata map[string]string) (string, error) {
	args := m.Called(ctx, name, email, metadata)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) CreateCheckoutSession(ctx context.Context, params *provider.CheckoutParams) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *MockBillingProvider) GetCheckoutSession(ctx context.Context, sessionID string) (*provider.CheckoutSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.CheckoutSession), args.Error(1)
}

func (m *MockBillingProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) GetSubscription(ctx context.Context, subscriptionID string) (*provider.SubscriptionInfo, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.SubscriptionInfo), args.Error(1)
}

func (m *MockBillingProvider) UpdateSubscriptionPrice(ctx context.Context, subscriptionID, priceID string) error {
	args := m.Called(ctx, subscriptionID, priceID)
	return args.Error(0)
}

func (m *MockBillingProvider) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	args := m.Called(ctx, subscriptionID, atPeriodEnd)
	return args.Error(0)
}

func (m *MockBillingProvider) ResumeSubscription(ctx context.Context, subscriptionID string) error {
	args := m.Called(ctx, subscriptionID)
	return args.Error(0)
}

func (m *MockBillingProvider) EnsurePrice(ctx context.Context, tier, cycle string, amountCents int64) (string, error) {
	args := m.Called(ctx, tier, cycle, amountCents)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) VerifyWebhook(payload []byte, signature string) (*provider.WebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*provider.WebhookEvent), args.Error(1)
}

func (m *MockBillingProvider) GetProviderName() string {
	return "mock"
}

// MockVerificationStore is a mock implementation of VerificationStore
type MockVerificationStore struct {
	mock.Mock
}

func (m *MockVerificationStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockVerificationStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockVerificationStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// MockNotifier is a mock implementation of Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendPhoneCode(ctx context.Context, phone, code string) error {
	args := m.Called(ctx, phone, code)
	return args.Error(0)
}

func (m *MockNotifier) SendEmailToken(ctx context.Context, email, link string) error {
	args := m.Called(ctx, email, link)
	return args.Error(0)
}
