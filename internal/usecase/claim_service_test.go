package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
)

func newTestClaimService(businessRepo *MockBusinessRepository, store *MockVerificationStore, notifier *MockNotifier, clock Clock) *ClaimService {
	return NewClaimService(businessRepo, store, notifier, clock, "https://alphasite.example.com", zap.NewNop())
}

func TestClaimService_RequestPhoneCode(t *testing.T) {
	businessID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stores a 6-digit code and sends it", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)
		notifier := new(MockNotifier)

		businessRepo.On("GetByID", mock.Anything, businessID).
			Return(&model.Business{ID: businessID, Phone: "+15555550100"}, nil)

		var storedCode string
		store.On("Set", mock.Anything, "alphasite:claim:phone:"+businessID.String(), mock.MatchedBy(func(code string) bool {
			storedCode = code
			return len(code) == 6
		}), 15*time.Minute).Return(nil)
		notifier.On("SendPhoneCode", mock.Anything, "+15555550100", mock.MatchedBy(func(code string) bool {
			return code == storedCode
		})).Return(nil)

		service := newTestClaimService(businessRepo, store, notifier, &fakeClock{now: now})
		err := service.RequestPhoneCode(context.Background(), businessID)

		assert.NoError(t, err)
		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("business without a phone number", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)
		notifier := new(MockNotifier)

		businessRepo.On("GetByID", mock.Anything, businessID).
			Return(&model.Business{ID: businessID}, nil)

		service := newTestClaimService(businessRepo, store, notifier, &fakeClock{now: now})
		err := service.RequestPhoneCode(context.Background(), businessID)

		assert.Error(t, err)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown business", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)

		businessRepo.On("GetByID", mock.Anything, businessID).
			Return(nil, domainErrors.ErrBusinessNotFound)

		service := newTestClaimService(businessRepo, new(MockVerificationStore), new(MockNotifier), &fakeClock{now: now})
		err := service.RequestPhoneCode(context.Background(), businessID)

		assert.ErrorIs(t, err, domainErrors.ErrBusinessNotFound)
	})
}

func TestClaimService_VerifyPhoneCode(t *testing.T) {
	businessID := uuid.New()
	userID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	key := "alphasite:claim:phone:" + businessID.String()

	t.Run("correct code claims the business and consumes the code", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)

		store.On("Get", mock.Anything, key).Return("482916", nil)
		store.On("Delete", mock.Anything, key).Return(nil)
		businessRepo.On("MarkClaimed", mock.Anything, businessID, userID, now).Return(nil)

		service := newTestClaimService(businessRepo, store, new(MockNotifier), &fakeClock{now: now})
		err := service.VerifyPhoneCode(context.Background(), businessID, "482916", userID)

		assert.NoError(t, err)
		store.AssertExpectations(t)
		businessRepo.AssertExpectations(t)
	})

	t.Run("wrong code", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)

		store.On("Get", mock.Anything, key).Return("482916", nil)

		service := newTestClaimService(businessRepo, store, new(MockNotifier), &fakeClock{now: now})
		err := service.VerifyPhoneCode(context.Background(), businessID, "000000", userID)

		assert.ErrorIs(t, err, domainErrors.ErrInvalidVerificationCode)
		businessRepo.AssertNotCalled(t, "MarkClaimed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("expired or absent code", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)

		store.On("Get", mock.Anything, key).Return("", nil)

		service := newTestClaimService(businessRepo, store, new(MockNotifier), &fakeClock{now: now})
		err := service.VerifyPhoneCode(context.Background(), businessID, "482916", userID)

		assert.ErrorIs(t, err, domainErrors.ErrInvalidVerificationCode)
	})
}

func TestClaimService_RequestEmailToken(t *testing.T) {
	businessID := uuid.New()
	userID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	key := "alphasite:claim:email:" + businessID.String()

	t.Run("stores token bound to the requesting user and mails the link", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)
		notifier := new(MockNotifier)

		businessRepo.On("GetByID", mock.Anything, businessID).
			Return(&model.Business{ID: businessID, Email: "owner@example.com"}, nil)

		var storedToken string
		store.On("Set", mock.Anything, key, mock.MatchedBy(func(value string) bool {
			token, user, found := strings.Cut(value, ":")
			if !found || len(token) != 64 || user != userID.String() {
				return false
			}
			storedToken = token
			return true
		}), 24*time.Hour).Return(nil)
		notifier.On("SendEmailToken", mock.Anything, "owner@example.com", mock.MatchedBy(func(link string) bool {
			return strings.Contains(link, "business_id="+businessID.String()) &&
				strings.Contains(link, "token="+storedToken)
		})).Return(nil)

		service := newTestClaimService(businessRepo, store, notifier, &fakeClock{now: now})
		err := service.RequestEmailToken(context.Background(), businessID, userID)

		assert.NoError(t, err)
		store.AssertExpectations(t)
		notifier.AssertExpectations(t)
	})

	t.Run("business without an email address", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)

		businessRepo.On("GetByID", mock.Anything, businessID).
			Return(&model.Business{ID: businessID}, nil)

		service := newTestClaimService(businessRepo, store, new(MockNotifier), &fakeClock{now: now})
		err := service.RequestEmailToken(context.Background(), businessID, userID)

		assert.Error(t, err)
		store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestClaimService_VerifyEmailToken(t *testing.T) {
	businessID := uuid.New()
	userID := uuid.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	key := "alphasite:claim:email:" + businessID.String()
	token := strings.Repeat("ab", 32)

	t.Run("valid token claims for the user bound at request time", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)

		store.On("Get", mock.Anything, key).Return(token+":"+userID.String(), nil)
		store.On("Delete", mock.Anything, key).Return(nil)
		businessRepo.On("MarkClaimed", mock.Anything, businessID, userID, now).Return(nil)

		service := newTestClaimService(businessRepo, store, new(MockNotifier), &fakeClock{now: now})
		err := service.VerifyEmailToken(context.Background(), businessID, token)

		assert.NoError(t, err)
		businessRepo.AssertExpectations(t)
	})

	t.Run("wrong token", func(t *testing.T) {
		businessRepo := new(MockBusinessRepository)
		store := new(MockVerificationStore)

		store.On("Get", mock.Anything, key).Return(token+":"+userID.String(), nil)

		service := newTestClaimService(businessRepo, store, new(MockNotifier), &fakeClock{now: now})
		err := service.VerifyEmailToken(context.Background(), businessID, strings.Repeat("cd", 32))

		assert.ErrorIs(t, err, domainErrors.ErrInvalidVerificationCode)
		businessRepo.AssertNotCalled(t, "MarkClaimed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("expired or absent token", func(t *testing.T) {
		store := new(MockVerificationStore)

		store.On("Get", mock.Anything, key).Return("", nil)

		service := newTestClaimService(new(MockBusinessRepository), store, new(MockNotifier), &fakeClock{now: now})
		err := service.VerifyEmailToken(context.Background(), businessID, token)

		assert.ErrorIs(t, err, domainErrors.ErrInvalidVerificationCode)
	})
}
