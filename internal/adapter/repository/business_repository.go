package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	domainErrors "github.com/daynewsmedia/alphasite-billing/internal/domain/errors"
	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
	domainRepo "github.com/daynewsmedia/alphasite-billing/internal/domain/repository"
)

type businessRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db *gorm.DB, logger *zap.Logger) domainRepo.BusinessRepository {
	return &businessRepository{
		db:     db,
		logger: logger,
	}
}

func (r *businessRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	var business model.Business

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&business).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrBusinessNotFound
		}
		r.logger.Error("Failed to get business by ID",
			zap.String("business_id", id.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &business, nil
}

func (r *businessRepository) GetBySlug(ctx context.Context, slug string) (*model.Business, error) {
	var business model.Business

	err := r.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&business).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainErrors.ErrBusinessNotFound
		}
		r.logger.Error("Failed to get business by slug",
			zap.String("slug", slug),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	return &business, nil
}

func (r *businessRepository) Create(ctx context.Context, business *model.Business) error {
	err := r.db.WithContext(ctx).Create(business).Error
	if err != nil {
		r.logger.Error("Failed to create business",
			zap.String("slug", business.Slug),
			zap.Error(err))
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

func (r *businessRepository) Update(ctx context.Context, business *model.Business) error {
	err := r.db.WithContext(ctx).Save(business).Error
	if err != nil {
		r.logger.Error("Failed to update business",
			zap.String("business_id", business.ID.String()),
			zap.Error(err))
		return fmt.Errorf("failed to update business: %w", err)
	}

	return nil
}

// MarkClaimed flips claimed/verified and records the claiming user in one
// update.
func (r *businessRepository) MarkClaimed(ctx context.Context, id uuid.UUID, userID uuid.UUID, claimedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&model.Business{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"claimed":            true,
			"verified":           true,
			"claimed_by_user_id": userID,
			"claimed_at":         claimedAt,
			"updated_at":         claimedAt,
		})

	if result.Error != nil {
		r.logger.Error("Failed to mark business claimed",
			zap.String("business_id", id.String()),
			zap.Error(result.Error))
		return fmt.Errorf("failed to mark business claimed: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domainErrors.ErrBusinessNotFound
	}

	return nil
}
