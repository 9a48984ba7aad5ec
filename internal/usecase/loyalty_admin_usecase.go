package usecase

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RulesPatch is a partial rule update; nil fields keep their current value.
type RulesPatch struct {
	IsActive           *bool
	VisitPoints        *int64
	VisitCooldownHours *int
	SpendingBaseAmount *decimal.Decimal
	SpendingBasePoints *int64
	FirstVisitBonus    *int64
}

// RewardDraft describes a new catalog entry. Nil ValidityDays and IsActive take their defaults.
type RewardDraft struct {
	Name         string
	Description  string
	PointCost    int64
	RewardType   entity.RewardType
	Value        decimal.Decimal
	ValidityDays *int
	IsActive     *bool
}

// RewardPatch is a partial reward update; nil fields keep their current value.
type RewardPatch struct {
	Name         *string
	Description  *string
	PointCost    *int64
	RewardType   *entity.RewardType
	Value        *decimal.Decimal
	ValidityDays *int
	IsActive     *bool
}

// LoyaltyAdminUsecase defines the business administration operations
type LoyaltyAdminUsecase interface {
	// FetchRules returns the business's accrual rules
	FetchRules(ctx context.Context, businessID uuid.UUID) (*entity.LoyaltyRule, error)

	// UpdateRules applies a partial update, creating the rule set from defaults when absent
	UpdateRules(ctx context.Context, businessID uuid.UUID, patch RulesPatch) (*entity.LoyaltyRule, error)

	// CreateReward adds a reward to the business's catalog
	CreateReward(ctx context.Context, businessID uuid.UUID, draft RewardDraft) (*entity.Reward, error)

	// UpdateReward applies a partial update to one of the business's rewards
	UpdateReward(ctx context.Context, businessID, rewardID uuid.UUID, patch RewardPatch) (*entity.Reward, error)

	// FetchAllRewards lists the business's catalog including inactive rewards
	FetchAllRewards(ctx context.Context, businessID uuid.UUID) ([]*entity.Reward, error)
}
