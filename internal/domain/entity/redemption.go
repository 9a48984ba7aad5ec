package entity

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionStatus is the lifecycle state of a redemption code.
type RedemptionStatus string

const (
	// RedemptionStatusPending is a claimed reward not yet presented to staff.
	RedemptionStatusPending RedemptionStatus = "pending"
	// RedemptionStatusVerified is a code consumed by the owning business.
	RedemptionStatusVerified RedemptionStatus = "verified"
	// RedemptionStatusExpired is a code presented after its expiry.
	RedemptionStatusExpired RedemptionStatus = "expired"
)

// String returns the string representation of the RedemptionStatus.
func (s RedemptionStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether moving to next is allowed. Only pending codes move, and never back.
func (s RedemptionStatus) CanTransitionTo(next RedemptionStatus) bool {
	return s == RedemptionStatusPending &&
		(next == RedemptionStatusVerified || next == RedemptionStatusExpired)
}

// Redemption is a reward claimed by a profile, identified by a single-use code.
type Redemption struct {
	ID               uuid.UUID        `json:"id"`
	LoyaltyProfileID uuid.UUID        `json:"loyalty_profile_id"`
	RewardID         uuid.UUID        `json:"reward_id"`
	RedemptionCode   string           `json:"redemption_code"`
	PointsSpent      int64            `json:"points_spent"`
	Status           RedemptionStatus `json:"status"`
	RedeemedAt       time.Time        `json:"redeemed_at"`
	ExpiresAt        time.Time        `json:"expires_at"`
	VerifiedAt       *time.Time       `json:"verified_at,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// IsExpiredAt reports whether the code is past its expiry at now. The expiry instant itself is still valid.
func (r *Redemption) IsExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
