package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/daynewsmedia/alphasite-billing/internal/domain/model"
)

type BusinessRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Business, error)
	GetBySlug(ctx context.Context, slug string) (*model.Business, error)
	Create(ctx context.Context, business *model.Business) error
	Update(ctx context.Context, business *model.Business) error
	// MarkClaimed records the claiming user and flips the claimed/verified
	// flags in one update.
	MarkClaimed(ctx context.Context, id uuid.UUID, userID uuid.UUID, claimedAt time.Time) error
}
