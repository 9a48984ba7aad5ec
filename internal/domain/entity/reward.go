package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardType describes what a reward grants.
type RewardType string

const (
	// RewardTypeDiscountPercentage grants a percentage off; Value is the percentage.
	RewardTypeDiscountPercentage RewardType = "discount_percentage"
	// RewardTypeDiscountFixed grants a fixed amount off; Value is the amount.
	RewardTypeDiscountFixed RewardType = "discount_fixed"
	// RewardTypeFreeItem grants a free item.
	RewardTypeFreeItem RewardType = "free_item"
	// RewardTypeCustom is anything else the business describes in text.
	RewardTypeCustom RewardType = "custom"
)

// DefaultRewardValidityDays is used when a reward is created without a validity window.
const DefaultRewardValidityDays = 30

// String returns the string representation of the RewardType.
func (t RewardType) String() string {
	return string(t)
}

// IsValid checks if the RewardType is a known value.
func (t RewardType) IsValid() bool {
	switch t {
	case RewardTypeDiscountPercentage, RewardTypeDiscountFixed, RewardTypeFreeItem, RewardTypeCustom:
		return true
	default:
		return false
	}
}

// Reward is a catalog entry owned by a business. Rewards are soft-disabled, never deleted.
type Reward struct {
	ID           uuid.UUID       `json:"id"`
	BusinessID   uuid.UUID       `json:"business_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	PointCost    int64           `json:"point_cost"`
	RewardType   RewardType      `json:"reward_type"`
	Value        decimal.Decimal `json:"value"`
	ValidityDays int             `json:"validity_days"` // Lifetime of a redemption code issued for this reward.
	IsActive     bool            `json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Validity returns how long a redemption of this reward stays usable.
func (r *Reward) Validity() time.Duration {
	return time.Duration(r.ValidityDays) * 24 * time.Hour
}
