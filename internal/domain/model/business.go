package model

import (
	"time"

	"github.com/google/uuid"
)

// Business is an AlphaSite listing. Subscription state lives exclusively on
// the SubscriptionRecord; this row carries only identity and claim state.
type Business struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Name            string     `gorm:"not null;size:200" json:"name"`
	Slug            string     `gorm:"uniqueIndex;not null;size:200" json:"slug"`
	Phone           string     `gorm:"size:30" json:"phone"`
	Email           string     `gorm:"size:200" json:"email"`
	Claimed         bool       `gorm:"default:false" json:"claimed"`
	Verified        bool       `gorm:"default:false" json:"verified"`
	ClaimedByUserID *uuid.UUID `gorm:"type:uuid" json:"claimed_by_user_id,omitempty"`
	ClaimedAt       *time.Time `json:"claimed_at,omitempty"`
	CreatedAt       time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Business) TableName() string {
	return "businesses"
}
