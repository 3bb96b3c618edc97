package usecase

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	domainRepo "github.com/daynewsmedia/alphasite-billing/internal/domain/repository"
)

const (
	phoneCodeTTL  = 15 * time.Minute
	emailTokenTTL = 24 * time.Hour
)

// VerificationStore keeps claim challenges with TTL and single-use
// semantics.
type VerificationStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the stored value, or empty when absent or expired.
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Notifier delivers claim challenges. Actual SMS/email transport lives
// outside this service.
type Notifier interface {
	SendPhoneCode(ctx context.Context, phone, code string) error
	SendEmailToken(ctx context.Context, email, link string) error
}

// ClaimService authenticates business ownership via a one-time phone code
// or an emailed token. A claimed business gates entry into paid flows.
type ClaimService struct {
	businessRepo domainRepo.BusinessRepository
	store        VerificationStore
	notifier     Notifier
	clock        Clock
	clientURL    string
	logger       *zap.Logger
}

// NewClaimService creates a new claim service instance
func NewClaimService(
	businessRepo domainRepo.BusinessRepository,
	store VerificationStore,
	notifier Notifier,
	clock Clock,
	clientURL string,
	logger *zap.Logger,
) *ClaimService {
	return &ClaimService{
		businessRepo: businessRepo,
		store:        store,
		notifier:     notifier,
		clock:        clock,
		clientURL:    clientURL,
		logger:       logger,
	}
}

// RequestPhoneCode generates a 6-digit code, stores it for 15 minutes and
// sends it to the business's phone number on record.
func (s *ClaimService) RequestPhoneCode(ctx context.Context, businessID uuid.UUID) error {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if business.Phone == "" {
		return fmt.Errorf("business %s has no phone number on record", businessID)
	}

	code, err := generatePhoneCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	if err := s.store.Set(ctx, phoneCodeKey(businessID), code, phoneCodeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.notifier.SendPhoneCode(ctx, business.Phone, code); err != nil {
		s.logger.Error("Failed to send phone verification code",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to send verification code: %w", err)
	}

	s.logger.Info("Phone verification code issued",
		zap.String("business_id", businessID.String()))

	return nil
}

// VerifyPhoneCode checks the submitted code and, on success, consumes it
// and marks the business claimed by the user.
func (s *ClaimService) VerifyPhoneCode(ctx context.Context, businessID uuid.UUID, code string, userID uuid.UUID) error {
	stored, err := s.store.Get(ctx, phoneCodeKey(businessID))
	if err != nil {
		return fmt.Errorf("failed to read verification code: %w", err)
	}
	if stored == "" || subtle.ConstantTimeCompare([]byte(stored), []byte(code)) != 1 {
		s.logger.Warn("Phone verification failed",
			zap.String("business_id", businessID.String()))
		return domainErrors.ErrInvalidVerificationCode
	}

	if err := s.store.Delete(ctx, phoneCodeKey(businessID)); err != nil {
		s.logger.Warn("Failed to delete consumed verification code",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
	}

	return s.claim(ctx, businessID, userID)
}

// RequestEmailToken generates a 64-character token, stores it for 24 hours
// together with the requesting user and emails the verification link.
func (s *ClaimService) RequestEmailToken(ctx context.Context, businessID uuid.UUID, userID uuid.UUID) error {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		return err
	}
	if business.Email == "" {
		return fmt.Errorf("business %s has no email address on record", businessID)
	}

	token, err := generateEmailToken()
	if err != nil {
		return fmt.Errorf("failed to generate verification token: %w", err)
	}

	// The requesting user rides along so the link visit can attribute the
	// claim without a session.
	value := token + ":" + userID.String()
	if err := s.store.Set(ctx, emailTokenKey(businessID), value, emailTokenTTL); err != nil {
		return fmt.Errorf("failed to store verification token: %w", err)
	}

	link := fmt.Sprintf("%s/claim/verify?business_id=%s&token=%s", s.clientURL, businessID, token)
	if err := s.notifier.SendEmailToken(ctx, business.Email, link); err != nil {
		s.logger.Error("Failed to send email verification token",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to send verification token: %w", err)
	}

	s.logger.Info("Email verification token issued",
		zap.String("business_id", businessID.String()))

	return nil
}

// VerifyEmailToken checks the token from the link visit and, on success,
// consumes it and marks the business claimed by the requesting user.
func (s *ClaimService) VerifyEmailToken(ctx context.Context, businessID uuid.UUID, token string) error {
	stored, err := s.store.Get(ctx, emailTokenKey(businessID))
	if err != nil {
		return fmt.Errorf("failed to read verification token: %w", err)
	}

	storedToken, userIDStr, found := strings.Cut(stored, ":")
	if !found || subtle.ConstantTimeCompare([]byte(storedToken), []byte(token)) != 1 {
		s.logger.Warn("Email verification failed",
			zap.String("business_id", businessID.String()))
		return domainErrors.ErrInvalidVerificationCode
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return domainErrors.ErrInvalidVerificationCode
	}

	if err := s.store.Delete(ctx, emailTokenKey(businessID)); err != nil {
		s.logger.Warn("Failed to delete consumed verification token",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
	}

	return s.claim(ctx, businessID, userID)
}

func (s *ClaimService) claim(ctx context.Context, businessID, userID uuid.UUID) error {
	now := s.clock.Now()
	if err := s.businessRepo.MarkClaimed(ctx, businessID, userID, now); err != nil {
		return err
	}

	s.logger.Info("Business claimed",
		zap.String("business_id", businessID.String()),
		zap.String("user_id", userID.String()))

	return nil
}

func phoneCodeKey(businessID uuid.UUID) string {
	return "alphasite:claim:phone:" + businessID.String()
}

func emailTokenKey(businessID uuid.UUID) string {
	return "alphasite:claim:email:" + businessID.String()
}

func generatePhoneCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func generateEmailToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
