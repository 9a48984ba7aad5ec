package entity

import (
	"math"
	"time"

	"loyalty/internal/errors"

	"github.com/google/uuid"
)

// ErrInvariantViolation is returned when a profile's counters disagree with each other.
// It is an internal fault: the surrounding operation must abort without writing.
var ErrInvariantViolation = errors.New("loyalty profile invariant violated")

// ErrPointsOverflow is returned when an accrual would push lifetime points past int64.
var ErrPointsOverflow = errors.New("loyalty points total would overflow")

// LoyaltyProfile holds a user's points standing with a single business.
// There is exactly one profile per (UserID, BusinessID) pair.
type LoyaltyProfile struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"user_id"`
	BusinessID           uuid.UUID  `json:"business_id"`
	CurrentPointsBalance int64      `json:"current_points_balance"` // Spendable points.
	TotalPointsEarned    int64      `json:"total_points_earned"`    // Lifetime accrual; never decreases.
	PointsRedeemed       int64      `json:"points_redeemed"`        // Cumulative points spent.
	TierLevel            TierLevel  `json:"tier_level"`
	LastVisitDate        time.Time  `json:"last_visit_date"`
	LastRewardedAt       *time.Time `json:"last_rewarded_at"` // Gates the visit cooldown; nil until the first accrual.
	Version              int64      `json:"-"`                // Optimistic concurrency guard.
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// NewLoyaltyProfile returns a zeroed bronze profile for the pair.
func NewLoyaltyProfile(userID, businessID uuid.UUID, now time.Time) *LoyaltyProfile {
	return &LoyaltyProfile{
		ID:            uuid.New(),
		UserID:        userID,
		BusinessID:    businessID,
		TierLevel:     TierBronze,
		LastVisitDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// CheckInvariants verifies balance = earned - redeemed, non-negative counters and the derived tier.
func (p *LoyaltyProfile) CheckInvariants() error {
	if p.CurrentPointsBalance < 0 || p.TotalPointsEarned < 0 || p.PointsRedeemed < 0 {
		return errors.Wrapf(ErrInvariantViolation, "negative counter on profile %s", p.ID)
	}
	if p.CurrentPointsBalance != p.TotalPointsEarned-p.PointsRedeemed {
		return errors.Wrapf(ErrInvariantViolation,
			"balance %d != earned %d - redeemed %d on profile %s",
			p.CurrentPointsBalance, p.TotalPointsEarned, p.PointsRedeemed, p.ID)
	}
	if p.TierLevel != ClassifyTier(p.TotalPointsEarned) {
		return errors.Wrapf(ErrInvariantViolation, "tier %s does not match %d lifetime points on profile %s",
			p.TierLevel, p.TotalPointsEarned, p.ID)
	}

	return nil
}

// Credit applies an accrual of earned points at now.
// The profile is left untouched when the lifetime total cannot hold the accrual.
func (p *LoyaltyProfile) Credit(earned int64, now time.Time) error {
	if earned < 0 {
		return errors.Wrapf(ErrInvariantViolation, "negative accrual %d on profile %s", earned, p.ID)
	}
	// Balance never exceeds the lifetime total, so guarding the total covers both.
	if earned > math.MaxInt64-p.TotalPointsEarned {
		return errors.Wrapf(ErrPointsOverflow, "cannot credit %d to %d lifetime points on profile %s",
			earned, p.TotalPointsEarned, p.ID)
	}

	p.TotalPointsEarned += earned
	p.CurrentPointsBalance += earned
	p.TierLevel = ClassifyTier(p.TotalPointsEarned)
	p.LastVisitDate = now
	rewardedAt := now
	p.LastRewardedAt = &rewardedAt
	p.UpdatedAt = now

	return nil
}

// Debit spends cost points at now. Callers check the balance first.
func (p *LoyaltyProfile) Debit(cost int64, now time.Time) {
	p.CurrentPointsBalance -= cost
	p.PointsRedeemed += cost
	p.UpdatedAt = now
}
