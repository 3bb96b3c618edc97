package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
	domainRepo "github.com/daynewsmedia/alphasite-billing/internal/domain/repository"
)

type subscriptionRecordRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewSubscriptionRecordRepository creates a new subscription record repository
func NewSubscriptionRecordRepository(db *gorm.DB, logger *zap.Logger) domainRepo.SubscriptionRecordRepository {
	return &subscriptionRecordRepository{
		db:     db,
		logger: logger,
	}
}

// GetByBusinessID retrieves the record for a business; nil when absent
func (r *subscriptionRecordRepository) GetByBusinessID(ctx context.Context, businessID uuid.UUID) (*model.SubscriptionRecord, error) {
	var record model.SubscriptionRecord

	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription record by business ID",
			zap.String("business_id", businessID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription record: %w", err)
	}

	return &record, nil
}

// GetByExternalSubscriptionID retrieves the record owning a processor subscription id
func (r *subscriptionRecordRepository) GetByExternalSubscriptionID(ctx context.Context, externalSubscriptionID string) (*model.SubscriptionRecord, error) {
	var record model.SubscriptionRecord

	err := r.db.WithContext(ctx).
		Where("external_subscription_id = ?", externalSubscriptionID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription record by external subscription ID",
			zap.String("external_subscription_id", externalSubscriptionID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription record: %w", err)
	}

	return &record, nil
}

// GetByExternalCustomerID retrieves the record owning a processor customer id
func (r *subscriptionRecordRepository) GetByExternalCustomerID(ctx context.Context, externalCustomerID string) (*model.SubscriptionRecord, error) {
	var record model.SubscriptionRecord

	err := r.db.WithContext(ctx).
		Where("external_customer_id = ?", externalCustomerID).
		First(&record).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get subscription record by external customer ID",
			zap.String("external_customer_id", externalCustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get subscription record: %w", err)
	}

	return &record, nil
}

// Create inserts a new subscription record
func (r *subscriptionRecordRepository) Create(ctx context.Context, record *model.SubscriptionRecord) error {
	err := r.db.WithContext(ctx).Create(record).Error
	if err != nil {
		r.logger.Error("Failed to create subscription record",
			zap.String("business_id", record.BusinessID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to create subscription record: %w", err)
	}

	return nil
}

// Update persists the full record state. Transitions are single-row writes,
// so storage-layer atomicity is the row-write granularity.
func (r *subscriptionRecordRepository) Update(ctx context.Context, record *model.SubscriptionRecord) error {
	err := r.db.WithContext(ctx).
		Model(&model.SubscriptionRecord{}).
		Where("id = ?", record.ID).
		Updates(map[string]interface{}{
			"tier":                     record.Tier,
			"status":                   record.Status,
			"trial_started_at":         record.TrialStartedAt,
			"trial_expires_at":         record.TrialExpiresAt,
			"subscription_started_at":  record.SubscriptionStartedAt,
			"subscription_expires_at":  record.SubscriptionExpiresAt,
			"trial_converted_at":       record.TrialConvertedAt,
			"downgraded_at":            record.DowngradedAt,
			"auto_renew":               record.AutoRenew,
			"ai_services_enabled":      record.AIServicesEnabled,
			"external_subscription_id": record.ExternalSubscriptionID,
			"external_customer_id":     record.ExternalCustomerID,
			"last_event_at":            record.LastEventAt,
			"updated_at":               time.Now(),
		}).Error

	if err != nil {
		r.logger.Error("Failed to update subscription record",
			zap.String("business_id", record.BusinessID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update subscription record: %w", err)
	}

	return nil
}

// FindExpiredTrials lists active trials whose window closed before now and
// that never converted. Already-downgraded records no longer match, which
// is what makes the sweep re-runnable.
func (r *subscriptionRecordRepository) FindExpiredTrials(ctx context.Context, now time.Time) ([]*model.SubscriptionRecord, error) {
	var records []*model.SubscriptionRecord

	err := r.db.WithContext(ctx).
		Where("tier = ? AND status = ? AND trial_expires_at < ? AND trial_converted_at IS NULL",
			model.TierTrial, model.SubscriptionStatusActive, now).
		Find(&records).Error

	if err != nil {
		r.logger.Error("Failed to find expired trials", zap.Error(err))
		return nil, fmt.Errorf("failed to find expired trials: %w", err)
	}

	return records, nil
}
