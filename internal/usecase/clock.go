package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Clock supplies the evaluation instant for every time-dependent decision.
// Display state is derived from wall-clock time, so tests inject a fake.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewRealClock returns a Clock backed by time.Now.
func NewRealClock() Clock { return realClock{} }

// CacheInvalidator drops render-cache entries keyed by a business's public
// identifiers when its entitlement changes.
type CacheInvalidator interface {
	InvalidateBusiness(ctx context.Context, businessID uuid.UUID, slug string) error
}
