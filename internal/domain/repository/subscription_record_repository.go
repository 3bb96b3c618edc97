package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
)

type SubscriptionRecordRepository interface {
	// GetByBusinessID returns the record for a business, or nil when absent.
	GetByBusinessID(ctx context.Context, businessID uuid.UUID) (*model.SubscriptionRecord, error)
	// GetByExternalSubscriptionID returns the record owning a processor
	// subscription id, or nil when absent.
	GetByExternalSubscriptionID(ctx context.Context, externalSubscriptionID string) (*model.SubscriptionRecord, error)
	// GetByExternalCustomerID returns the record owning a processor customer
	// id, or nil when absent.
	GetByExternalCustomerID(ctx context.Context, externalCustomerID string) (*model.SubscriptionRecord, error)
	Create(ctx context.Context, record *model.SubscriptionRecord) error
	Update(ctx context.Context, record *model.SubscriptionRecord) error
	// FindExpiredTrials returns active trial records whose window closed
	// before now and that never converted.
	FindExpiredTrials(ctx context.Context, now time.Time) ([]*model.SubscriptionRecord, error)
}
