package service

import (
	"context"
	"time"
)

// LoyaltyEventType names a balance- or status-affecting event.
type LoyaltyEventType string

const (
	// EventPointsEarned follows a successful accrual.
	EventPointsEarned LoyaltyEventType = "points_earned"
	// EventTierUpgraded follows an accrual that moved the profile to a higher tier.
	EventTierUpgraded LoyaltyEventType = "tier_upgraded"
	// EventRewardRedeemed follows a successful redemption.
	EventRewardRedeemed LoyaltyEventType = "reward_redeemed"
	// EventRedemptionVerified follows a staff verification of a code.
	EventRedemptionVerified LoyaltyEventType = "redemption_verified"
)

// LoyaltyEvent is published after the transaction that produced it has committed.
type LoyaltyEvent struct {
	EventID          string           `json:"event_id"`
	RequestID        string           `json:"request_id,omitempty"` // For distributed tracing
	Type             LoyaltyEventType `json:"type"`
	LoyaltyProfileID string           `json:"loyalty_profile_id"`
	UserID           string           `json:"user_id"`
	BusinessID       string           `json:"business_id"`
	Points           int64            `json:"points,omitempty"`
	Balance          int64            `json:"balance"`
	PreviousTier     string           `json:"previous_tier,omitempty"`
	TierLevel        string           `json:"tier_level,omitempty"`
	RedemptionID     string           `json:"redemption_id,omitempty"`
	OccurredAt       time.Time        `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishLoyaltyEvent publishes a loyalty event for downstream consumers
	PublishLoyaltyEvent(ctx context.Context, event *LoyaltyEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
