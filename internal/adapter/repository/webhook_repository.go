package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
)

// WebhookRepository persists processor webhook deliveries for dedupe and audit
type WebhookRepository interface {
	// SaveEvent records a delivery. Returns ErrDuplicateEvent when the
	// processor event id was already processed to completion.
	SaveEvent(ctx context.Context, eventID, eventType string, providerCreatedAt time.Time, data json.RawMessage) error
	GetEvent(ctx context.Context, eventID string) (*model.BillingWebhookEvent, error)
	MarkProcessed(ctx context.Context, eventID string) error
	MarkFailed(ctx context.Context, eventID string, processingErr error) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.BillingWebhookEvent, error)
}

type webhookRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewWebhookRepository creates a new webhook repository
func NewWebhookRepository(db *gorm.DB, logger *zap.Logger) WebhookRepository {
	return &webhookRepository{
		db:     db,
		logger: logger,
	}
}

func (r *webhookRepository) SaveEvent(ctx context.Context, eventID, eventType string, providerCreatedAt time.Time, data json.RawMessage) error {
	var payload model.JSONB
	if err := json.Unmarshal(data, &payload); err != nil {
		r.logger.Warn("Failed to parse webhook payload as object",
			zap.String("event_id", eventID),
			zap.Error(err))
		payload = model.JSONB{}
	}

	event := &model.BillingWebhookEvent{
		ProviderEventID:   eventID,
		EventType:         eventType,
		Status:            model.WebhookStatusPending,
		Data:              payload,
		ProviderCreatedAt: &providerCreatedAt,
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(event)

	if result.Error != nil {
		r.logger.Error("Failed to save webhook event",
			zap.String("event_id", eventID),
			zap.Error(result.Error))
		return fmt.Errorf("failed to save webhook event: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		existing, err := r.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status == model.WebhookStatusCompleted {
			return domainErrors.ErrDuplicateEvent
		}
		// Pending or failed deliveries fall through for reprocessing.
	}

	return nil
}

func (r *webhookRepository) GetEvent(ctx context.Context, eventID string) (*model.BillingWebhookEvent, error) {
	var event model.BillingWebhookEvent

	err := r.db.WithContext(ctx).
		Where("provider_event_id = ?", eventID).
		First(&event).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		r.logger.Error("Failed to get webhook event",
			zap.String("event_id", eventID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get webhook event: %w", err)
	}

	return &event, nil
}

func (r *webhookRepository) MarkProcessed(ctx context.Context, eventID string) error {
	now := time.Now()
	err := r.db.WithContext(ctx).
		Model(&model.BillingWebhookEvent{}).
		Where("provider_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":       model.WebhookStatusCompleted,
			"processed_at": &now,
		}).Error

	if err != nil {
		r.logger.Error("Failed to mark webhook event processed",
			zap.String("event_id", eventID),
			zap.Error(err))
		return fmt.Errorf("failed to mark webhook event processed: %w", err)
	}

	return nil
}

func (r *webhookRepository) MarkFailed(ctx context.Context, eventID string, processingErr error) error {
	msg := processingErr.Error()
	err := r.db.WithContext(ctx).
		Model(&model.BillingWebhookEvent{}).
		Where("provider_event_id = ?", eventID).
		Updates(map[string]interface{}{
			"status":              model.WebhookStatusFailed,
			"last_error":          &msg,
			"processing_attempts": gorm.Expr("processing_attempts + 1"),
		}).Error

	if err != nil {
		r.logger.Error("Failed to mark webhook event failed",
			zap.String("event_id", eventID),
			zap.Error(err))
		return fmt.Errorf("failed to mark webhook event failed: %w", err)
	}

	return nil
}

func (r *webhookRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.BillingWebhookEvent, error) {
	var events []*model.BillingWebhookEvent

	err := r.db.WithContext(ctx).
		Where("status IN ?", []model.WebhookStatus{model.WebhookStatusPending, model.WebhookStatusFailed}).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error

	if err != nil {
		r.logger.Error("Failed to get pending webhook events", zap.Error(err))
		return nil, fmt.Errorf("failed to get pending webhook events: %w", err)
	}

	return events, nil
}
