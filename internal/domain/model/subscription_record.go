package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Tier represents the named subscription plan of a business.
type Tier string

const (
	TierTrial      Tier = "trial"
	TierBasic      Tier = "basic"
	TierStandard   Tier = "standard"
	TierPremium    Tier = "premium"
	TierEnterprise Tier = "enterprise"
)

// IsPaid reports whether the tier is one of the paid plans.
func (t Tier) IsPaid() bool {
	switch t {
	case TierStandard, TierPremium, TierEnterprise:
		return true
	}
	return false
}

// Scan implements sql.Scanner interface
func (t *Tier) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*t = Tier(v)
	case []byte:
		*t = Tier(v)
	default:
		*t = TierBasic
	}
	return nil
}

// Value implements driver.Valuer interface
func (t Tier) Value() (driver.Value, error) {
	return string(t), nil
}

// SubscriptionStatus represents the status of a subscription record
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Scan implements sql.Scanner interface
func (s *SubscriptionStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = SubscriptionStatus(v)
	case []byte:
		*s = SubscriptionStatus(v)
	default:
		*s = SubscriptionStatusExpired
	}
	return nil
}

// Value implements driver.Valuer interface
func (s SubscriptionStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// DisplayState is the three-bucket entitlement level shown to consumers,
// derived from tier, status and wall-clock time. It is never persisted.
type DisplayState string

const (
	DisplayStateBasic    DisplayState = "basic"
	DisplayStatePremiere DisplayState = "premiere"
	DisplayStatePremium  DisplayState = "premium"
)

// ServiceList is a JSONB set of enabled AI service flags. Membership test
// only; order carries no meaning.
type ServiceList []string

// Value implements driver.Valuer interface
func (l ServiceList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface
func (l *ServiceList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}

	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		*l = nil
		return nil
	}
}

// Contains reports whether service is enabled.
func (l ServiceList) Contains(service string) bool {
	for _, s := range l {
		if s == service {
			return true
		}
	}
	return false
}

// SubscriptionRecord is the single source of truth for a business's
// subscription state. Exactly one row per business; never hard-deleted.
type SubscriptionRecord struct {
	ID                     int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	BusinessID             uuid.UUID          `gorm:"type:uuid;uniqueIndex;not null" json:"business_id"`
	Tier                   Tier               `gorm:"type:subscription_tier;not null;default:'trial'" json:"tier"`
	Status                 SubscriptionStatus `gorm:"type:subscription_status;not null;default:'active'" json:"status"`
	TrialStartedAt         *time.Time         `json:"trial_started_at,omitempty"`
	TrialExpiresAt         *time.Time         `json:"trial_expires_at,omitempty"`
	SubscriptionStartedAt  *time.Time         `json:"subscription_started_at,omitempty"`
	SubscriptionExpiresAt  *time.Time         `json:"subscription_expires_at,omitempty"`
	TrialConvertedAt       *time.Time         `json:"trial_converted_at,omitempty"`
	DowngradedAt           *time.Time         `json:"downgraded_at,omitempty"`
	AutoRenew              bool               `gorm:"default:true" json:"auto_renew"`
	AIServicesEnabled      ServiceList        `gorm:"type:jsonb;default:'[]'" json:"ai_services_enabled"`
	ExternalSubscriptionID *string            `gorm:"uniqueIndex;size:100" json:"external_subscription_id,omitempty"`
	ExternalCustomerID     *string            `gorm:"size:100;index" json:"external_customer_id,omitempty"`
	// LastEventAt is the processor-event high-water-mark. Status updates
	// carrying an older event timestamp are rejected instead of applied.
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
	CreatedAt   time.Time  `gorm:"default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (SubscriptionRecord) TableName() string {
	return "subscription_records"
}

// DisplayStateAt derives the entitlement bucket at the given instant.
// It depends only on tier, status and the trial expiry; expiry is never
// stored as a flag, so crossing the trial boundary needs no mutation.
func (r *SubscriptionRecord) DisplayStateAt(now time.Time) DisplayState {
	if r == nil {
		return DisplayStateBasic
	}
	if r.Tier == TierTrial && r.Status == SubscriptionStatusActive &&
		r.TrialExpiresAt != nil && r.TrialExpiresAt.After(now) {
		return DisplayStatePremiere
	}
	if r.Tier.IsPaid() && r.Status == SubscriptionStatusActive {
		return DisplayStatePremium
	}
	return DisplayStateBasic
}

// TrialDaysRemainingAt returns whole days left in the trial window at the
// given instant, rounding partial days up. Zero when not an active trial.
func (r *SubscriptionRecord) TrialDaysRemainingAt(now time.Time) int {
	if r == nil || r.Tier != TierTrial || r.Status != SubscriptionStatusActive || r.TrialExpiresAt == nil {
		return 0
	}
	remaining := r.TrialExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
