package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/daynewsmedia/alphasite-billing/internal/config"
	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
	domainRepo "github.com/daynewsmedia/alphasite-billing/internal/domain/repository"
)

// LifecycleService owns every subscription state transition and the
// derivation of display state. Time enters only through the injected clock.
type LifecycleService struct {
	recordRepo   domainRepo.SubscriptionRecordRepository
	businessRepo domainRepo.BusinessRepository
	cache        CacheInvalidator
	clock        Clock
	trial        config.TrialConfig
	logger       *zap.Logger
}

// NewLifecycleService creates a new lifecycle service instance
func NewLifecycleService(
	recordRepo domainRepo.SubscriptionRecordRepository,
	businessRepo domainRepo.BusinessRepository,
	cache CacheInvalidator,
	clock Clock,
	trial config.TrialConfig,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		recordRepo:   recordRepo,
		businessRepo: businessRepo,
		cache:        cache,
		clock:        clock,
		trial:        trial,
		logger:       logger,
	}
}

// InitializeTrial creates the trial record for a business. When a record
// already exists it is returned unchanged; a business never re-enters the
// trial window through this path.
func (s *LifecycleService) InitializeTrial(ctx context.Context, businessID uuid.UUID) (*model.SubscriptionRecord, error) {
	existing, err := s.recordRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("InitializeTrial called for business with existing record",
			zap.String("business_id", businessID.String()),
			zap.String("tier", string(existing.Tier)))
		return existing, nil
	}

	now := s.clock.Now()
	expires := now.Add(time.Duration(s.trial.Days) * 24 * time.Hour)
	record := &model.SubscriptionRecord{
		BusinessID:        businessID,
		Tier:              model.TierTrial,
		Status:            model.SubscriptionStatusActive,
		TrialStartedAt:    &now,
		TrialExpiresAt:    &expires,
		AutoRenew:         true,
		AIServicesEnabled: append(model.ServiceList{}, s.trial.Services...),
	}

	if err := s.recordRepo.Create(ctx, record); err != nil {
		return nil, err
	}

	s.logger.Info("Trial initialized",
		zap.String("business_id", businessID.String()),
		zap.Time("trial_expires_at", expires))

	return record, nil
}

// EnsureRecord returns the record for a business, creating the trial record
// when none exists. Every flow that needs a record goes through this; no
// handler creates records as a side effect.
func (s *LifecycleService) EnsureRecord(ctx context.Context, businessID uuid.UUID) (*model.SubscriptionRecord, error) {
	record, err := s.recordRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if record != nil {
		return record, nil
	}
	return s.InitializeTrial(ctx, businessID)
}

// ProcessExpiredTrials downgrades every lapsed, unconverted trial and
// returns the number processed. Downgraded records drop out of the scan
// predicate, so re-running is safe.
func (s *LifecycleService) ProcessExpiredTrials(ctx context.Context) (int, error) {
	now := s.clock.Now()
	expired, err := s.recordRepo.FindExpiredTrials(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to scan expired trials: %w", err)
	}

	processed := 0
	for _, record := range expired {
		if err := s.DowngradeToBasic(ctx, record); err != nil {
			s.logger.Error("Failed to downgrade expired trial",
				zap.String("business_id", record.BusinessID.String()),
				zap.Error(err))
			continue
		}
		processed++
	}

	if processed > 0 {
		s.logger.Info("Expired trials processed", zap.Int("count", processed))
	}

	return processed, nil
}

// DowngradeToBasic is the single exit path for losing premium, shared by
// trial expiry, payment failure and cancellation reaching period end.
// Downgrading an already-basic record is a no-op.
func (s *LifecycleService) DowngradeToBasic(ctx context.Context, record *model.SubscriptionRecord) error {
	if record.Tier == model.TierBasic && record.Status == model.SubscriptionStatusExpired {
		s.logger.Debug("Downgrade skipped, record already basic",
			zap.String("business_id", record.BusinessID.String()))
		return nil
	}

	now := s.clock.Now()
	record.Tier = model.TierBasic
	record.Status = model.SubscriptionStatusExpired
	record.DowngradedAt = &now
	record.AIServicesEnabled = nil
	record.AutoRenew = false

	if err := s.recordRepo.Update(ctx, record); err != nil {
		return err
	}

	s.InvalidateCache(ctx, record.BusinessID)

	s.logger.Info("Business downgraded to basic",
		zap.String("business_id", record.BusinessID.String()))

	return nil
}

// ConvertToPaid moves a record onto a paid tier. The trial conversion
// timestamp is set only on the first conversion of a trial; the expiry
// falls back to one month out when the processor gave no period end.
func (s *LifecycleService) ConvertToPaid(ctx context.Context, record *model.SubscriptionRecord, tier model.Tier, externalSubscriptionID string, features []string, periodEnd time.Time) error {
	now := s.clock.Now()

	if record.Tier == model.TierTrial && record.TrialConvertedAt == nil {
		record.TrialConvertedAt = &now
	}
	if periodEnd.IsZero() {
		periodEnd = now.AddDate(0, 1, 0)
	}

	record.Tier = tier
	record.Status = model.SubscriptionStatusActive
	record.SubscriptionStartedAt = &now
	record.SubscriptionExpiresAt = &periodEnd
	record.ExternalSubscriptionID = &externalSubscriptionID
	record.AIServicesEnabled = features
	record.AutoRenew = true

	if err := s.recordRepo.Update(ctx, record); err != nil {
		return err
	}

	s.markBusinessClaimed(ctx, record.BusinessID)
	s.InvalidateCache(ctx, record.BusinessID)

	s.logger.Info("Business converted to paid",
		zap.String("business_id", record.BusinessID.String()),
		zap.String("tier", string(tier)),
		zap.String("external_subscription_id", externalSubscriptionID))

	return nil
}

// ChangeTier updates tier and services on an already-paid record without
// touching trial timestamps, extending the paid period by one cycle.
func (s *LifecycleService) ChangeTier(ctx context.Context, record *model.SubscriptionRecord, newTier model.Tier, features []string) error {
	if record.ExternalSubscriptionID == nil {
		return domainErrors.ErrNoActiveSubscription
	}

	now := s.clock.Now()
	base := now
	if record.SubscriptionExpiresAt != nil && record.SubscriptionExpiresAt.After(now) {
		base = *record.SubscriptionExpiresAt
	}
	expires := base.AddDate(0, 1, 0)

	record.Tier = newTier
	record.Status = model.SubscriptionStatusActive
	record.SubscriptionExpiresAt = &expires
	record.AIServicesEnabled = features

	if err := s.recordRepo.Update(ctx, record); err != nil {
		return err
	}

	s.InvalidateCache(ctx, record.BusinessID)

	s.logger.Info("Subscription tier changed",
		zap.String("business_id", record.BusinessID.String()),
		zap.String("tier", string(newTier)))

	return nil
}

// GetDisplayState derives the entitlement bucket for a business. Absence of
// a record is identical to basic. Recomputed on every read; trial expiry is
// a time-crossing event with no trigger, so this is never cached.
func (s *LifecycleService) GetDisplayState(ctx context.Context, businessID uuid.UUID) (model.DisplayState, error) {
	record, err := s.recordRepo.GetByBusinessID(ctx, businessID)
	if err != nil {
		return model.DisplayStateBasic, err
	}
	return record.DisplayStateAt(s.clock.Now()), nil
}

// GetRecord returns the record for a business without creating one.
func (s *LifecycleService) GetRecord(ctx context.Context, businessID uuid.UUID) (*model.SubscriptionRecord, error) {
	return s.recordRepo.GetByBusinessID(ctx, businessID)
}

// GetTrialDaysRemaining returns whole days left in the trial window, zero
// when the record is not an active trial.
func (s *LifecycleService) GetTrialDaysRemaining(record *model.SubscriptionRecord) int {
	return record.TrialDaysRemainingAt(s.clock.Now())
}

// AddAIService enables one service flag; adding an enabled flag is a no-op.
func (s *LifecycleService) AddAIService(ctx context.Context, record *model.SubscriptionRecord, service string) error {
	if record.AIServicesEnabled.Contains(service) {
		return nil
	}

	record.AIServicesEnabled = append(record.AIServicesEnabled, service)
	if err := s.recordRepo.Update(ctx, record); err != nil {
		return err
	}

	s.InvalidateCache(ctx, record.BusinessID)
	return nil
}

// InvalidateCache drops cached render entries keyed by the business's
// public identifiers. Cache failures are logged, never propagated; a stale
// cache entry must not abort a lifecycle transition.
func (s *LifecycleService) InvalidateCache(ctx context.Context, businessID uuid.UUID) {
	slug := ""
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil && !errors.Is(err, domainErrors.ErrBusinessNotFound) {
		s.logger.Warn("Failed to load business for cache invalidation",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
	}
	if business != nil {
		slug = business.Slug
	}

	if err := s.cache.InvalidateBusiness(ctx, businessID, slug); err != nil {
		s.logger.Warn("Failed to invalidate business cache",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
	}
}

func (s *LifecycleService) markBusinessClaimed(ctx context.Context, businessID uuid.UUID) {
	business, err := s.businessRepo.GetByID(ctx, businessID)
	if err != nil {
		s.logger.Warn("Failed to load business for claim flag",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return
	}
	if business.Claimed {
		return
	}

	business.Claimed = true
	if err := s.businessRepo.Update(ctx, business); err != nil {
		s.logger.Warn("Failed to mark business claimed after conversion",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
	}
}
