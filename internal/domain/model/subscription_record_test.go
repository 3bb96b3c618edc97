package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDisplayStateAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name     string
		record   *SubscriptionRecord
		expected DisplayState
	}{
		{
			name:     "nil record",
			record:   nil,
			expected: DisplayStateBasic,
		},
		{
			name: "active trial inside window",
			record: &SubscriptionRecord{
				Tier:           TierTrial,
				Status:         SubscriptionStatusActive,
				TrialExpiresAt: &future,
			},
			expected: DisplayStatePremiere,
		},
		{
			name: "active trial past window",
			record: &SubscriptionRecord{
				Tier:           TierTrial,
				Status:         SubscriptionStatusActive,
				TrialExpiresAt: &past,
			},
			expected: DisplayStateBasic,
		},
		{
			name: "trial without expiry",
			record: &SubscriptionRecord{
				Tier:   TierTrial,
				Status: SubscriptionStatusActive,
			},
			expected: DisplayStateBasic,
		},
		{
			name: "active standard",
			record: &SubscriptionRecord{
				Tier:   TierStandard,
				Status: SubscriptionStatusActive,
			},
			expected: DisplayStatePremium,
		},
		{
			name: "active enterprise",
			record: &SubscriptionRecord{
				Tier:   TierEnterprise,
				Status: SubscriptionStatusActive,
			},
			expected: DisplayStatePremium,
		},
		{
			name: "expired premium",
			record: &SubscriptionRecord{
				Tier:   TierPremium,
				Status: SubscriptionStatusExpired,
			},
			expected: DisplayStateBasic,
		},
		{
			name: "past due premium",
			record: &SubscriptionRecord{
				Tier:   TierPremium,
				Status: SubscriptionStatusPastDue,
			},
			expected: DisplayStateBasic,
		},
		{
			name: "basic after downgrade",
			record: &SubscriptionRecord{
				Tier:   TierBasic,
				Status: SubscriptionStatusExpired,
			},
			expected: DisplayStateBasic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.DisplayStateAt(now))
		})
	}
}

func TestTierIsPaid(t *testing.T) {
	assert.False(t, TierTrial.IsPaid())
	assert.False(t, TierBasic.IsPaid())
	assert.True(t, TierStandard.IsPaid())
	assert.True(t, TierPremium.IsPaid())
	assert.True(t, TierEnterprise.IsPaid())
}

func TestTrialDaysRemainingAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	expires := now.Add(90 * 24 * time.Hour)
	record := &SubscriptionRecord{
		Tier:           TierTrial,
		Status:         SubscriptionStatusActive,
		TrialExpiresAt: &expires,
	}

	assert.Equal(t, 90, record.TrialDaysRemainingAt(now))
	assert.Equal(t, 90, record.TrialDaysRemainingAt(now.Add(time.Minute)))
	assert.Equal(t, 1, record.TrialDaysRemainingAt(expires.Add(-time.Minute)))
	assert.Equal(t, 0, record.TrialDaysRemainingAt(expires))
	assert.Equal(t, 0, record.TrialDaysRemainingAt(expires.Add(time.Hour)))
}

func TestServiceListContains(t *testing.T) {
	list := ServiceList{"basic_concierge", "ai_concierge"}

	assert.True(t, list.Contains("ai_concierge"))
	assert.False(t, list.Contains("ai_marketing"))
	assert.False(t, ServiceList(nil).Contains("basic_concierge"))
}
