package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyRule is a business's accrual configuration. A business has at most one rule set.
type LoyaltyRule struct {
	ID                 uuid.UUID       `json:"id"`
	BusinessID         uuid.UUID       `json:"business_id"`
	IsActive           bool            `json:"is_active"`            // Accrual is disabled entirely when false.
	VisitPoints        int64           `json:"visit_points"`         // Flat points per qualifying visit.
	VisitCooldownHours int             `json:"visit_cooldown_hours"` // Minimum hours between visit-only accruals.
	SpendingBaseAmount decimal.Decimal `json:"spending_base_amount"` // Spend that earns SpendingBasePoints.
	SpendingBasePoints int64           `json:"spending_base_points"`
	FirstVisitBonus    int64           `json:"first_visit_bonus"` // Added once, on the profile's first accrual.
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// DefaultLoyaltyRule returns the configuration a business starts with before it edits its rules.
func DefaultLoyaltyRule(businessID uuid.UUID, now time.Time) *LoyaltyRule {
	return &LoyaltyRule{
		ID:                 uuid.New(),
		BusinessID:         businessID,
		IsActive:           true,
		VisitPoints:        10,
		VisitCooldownHours: 24,
		SpendingBaseAmount: decimal.NewFromInt(1),
		SpendingBasePoints: 1,
		FirstVisitBonus:    0,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Cooldown returns the visit cooldown as a duration.
func (r *LoyaltyRule) Cooldown() time.Duration {
	return time.Duration(r.VisitCooldownHours) * time.Hour
}
