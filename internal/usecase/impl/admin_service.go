package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/errors"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// adminService implements the LoyaltyAdminUsecase interface.
type adminService struct {
	txManager repository.TransactionManager
	repos     repository.RepositoryFactory
	logger    *slog.Logger
	now       func() time.Time
}

// AdminServiceParams holds dependencies for AdminService, injected by Fx.
type AdminServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	Repos     repository.RepositoryFactory
	Logger    *slog.Logger
}

// NewAdminService creates a new loyalty administration service instance
func NewAdminService(params AdminServiceParams) usecase.LoyaltyAdminUsecase {
	return &adminService{
		txManager: params.TxManager,
		repos:     params.Repos,
		logger:    params.Logger,
		now:       time.Now,
	}
}

func (srv *adminService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// FetchRules returns the business's accrual rules.
func (srv *adminService) FetchRules(ctx context.Context, businessID uuid.UUID) (*entity.LoyaltyRule, error) {
	rule, err := srv.repos.RuleRepo().FindByBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, repository.ErrRuleNotFound) {
			return nil, errors.Wrap(domainerrors.ErrRulesNotFound, "loyalty rules not found")
		}

		return nil, errors.Wrap(err, "failed to find loyalty rules")
	}

	return rule, nil
}

// UpdateRules applies a partial update, creating the rule set from defaults when absent.
// Profiles are never touched: the new rules apply to subsequent earns only.
func (srv *adminService) UpdateRules(ctx context.Context, businessID uuid.UUID, patch usecase.RulesPatch) (*entity.LoyaltyRule, error) {
	srv.log(ctx).Info("Updating loyalty rules", slog.Any("business_id", businessID))

	var saved *entity.LoyaltyRule

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		now := srv.now()

		rule, err := repoFactory.RuleRepo().FindByBusiness(ctx, businessID)
		if err != nil {
			if !errors.Is(err, repository.ErrRuleNotFound) {
				return errors.Wrap(err, "failed to find loyalty rules")
			}
			rule = entity.DefaultLoyaltyRule(businessID, now)
		}

		applyRulesPatch(rule, patch)
		rule.UpdatedAt = now

		if err := validateRule(rule); err != nil {
			return err
		}

		if err := repoFactory.RuleRepo().Save(ctx, rule); err != nil {
			return errors.Wrap(err, "failed to save loyalty rules")
		}
		saved = rule

		return nil
	})
	if err != nil {
		srv.log(ctx).Error("Failed to update loyalty rules", slog.Any("error", err), slog.Any("business_id", businessID))

		return nil, errors.Wrap(err, "failed to update loyalty rules")
	}

	return saved, nil
}

// CreateReward adds a reward to the business's catalog.
func (srv *adminService) CreateReward(ctx context.Context, businessID uuid.UUID, draft usecase.RewardDraft) (*entity.Reward, error) {
	now := srv.now()
	reward := &entity.Reward{
		ID:           uuid.New(),
		BusinessID:   businessID,
		Name:         strings.TrimSpace(draft.Name),
		Description:  draft.Description,
		PointCost:    draft.PointCost,
		RewardType:   draft.RewardType,
		Value:        draft.Value,
		ValidityDays: entity.DefaultRewardValidityDays,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if draft.ValidityDays != nil {
		reward.ValidityDays = *draft.ValidityDays
	}
	if draft.IsActive != nil {
		reward.IsActive = *draft.IsActive
	}

	if err := validateReward(reward); err != nil {
		return nil, err
	}

	if err := srv.repos.RewardRepo().Create(ctx, reward); err != nil {
		srv.log(ctx).Error("Failed to create reward", slog.Any("error", err), slog.Any("business_id", businessID))

		return nil, errors.Wrap(err, "failed to create reward")
	}

	srv.log(ctx).Info("Reward created", slog.Any("reward_id", reward.ID), slog.Any("business_id", businessID))

	return reward, nil
}

// UpdateReward applies a partial update to one of the business's rewards.
func (srv *adminService) UpdateReward(ctx context.Context, businessID, rewardID uuid.UUID, patch usecase.RewardPatch) (*entity.Reward, error) {
	var updated *entity.Reward

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		reward, err := repoFactory.RewardRepo().FindByID(ctx, rewardID)
		if err != nil {
			if errors.Is(err, repository.ErrRewardNotFound) {
				return errors.Wrap(domainerrors.ErrRewardNotFound, "reward not found")
			}

			return errors.Wrap(err, "failed to find reward")
		}

		// Another business's reward is reported as missing.
		if reward.BusinessID != businessID {
			return errors.Wrap(domainerrors.ErrRewardNotFound, "reward not found")
		}

		applyRewardPatch(reward, patch)
		reward.UpdatedAt = srv.now()

		if err := validateReward(reward); err != nil {
			return err
		}

		if err := repoFactory.RewardRepo().Update(ctx, reward); err != nil {
			return errors.Wrap(err, "failed to update reward")
		}
		updated = reward

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to update reward", slog.Any("error", err), slog.Any("reward_id", rewardID))

		return nil, errors.Wrap(err, "failed to update reward")
	}

	return updated, nil
}

// FetchAllRewards lists the business's catalog including inactive rewards.
func (srv *adminService) FetchAllRewards(ctx context.Context, businessID uuid.UUID) ([]*entity.Reward, error) {
	rewards, err := srv.repos.RewardRepo().FindByBusiness(ctx, businessID, true)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rewards")
	}

	return rewards, nil
}

func applyRulesPatch(rule *entity.LoyaltyRule, patch usecase.RulesPatch) {
	if patch.IsActive != nil {
		rule.IsActive = *patch.IsActive
	}
	if patch.VisitPoints != nil {
		rule.VisitPoints = *patch.VisitPoints
	}
	if patch.VisitCooldownHours != nil {
		rule.VisitCooldownHours = *patch.VisitCooldownHours
	}
	if patch.SpendingBaseAmount != nil {
		rule.SpendingBaseAmount = *patch.SpendingBaseAmount
	}
	if patch.SpendingBasePoints != nil {
		rule.SpendingBasePoints = *patch.SpendingBasePoints
	}
	if patch.FirstVisitBonus != nil {
		rule.FirstVisitBonus = *patch.FirstVisitBonus
	}
}

func applyRewardPatch(reward *entity.Reward, patch usecase.RewardPatch) {
	if patch.Name != nil {
		reward.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		reward.Description = *patch.Description
	}
	if patch.PointCost != nil {
		reward.PointCost = *patch.PointCost
	}
	if patch.RewardType != nil {
		reward.RewardType = *patch.RewardType
	}
	if patch.Value != nil {
		reward.Value = *patch.Value
	}
	if patch.ValidityDays != nil {
		reward.ValidityDays = *patch.ValidityDays
	}
	if patch.IsActive != nil {
		reward.IsActive = *patch.IsActive
	}
}

func validateRule(rule *entity.LoyaltyRule) error {
	switch {
	case rule.VisitPoints < 0:
		return domainerrors.ErrInvalidRules.WithDetails("visit points must not be negative")
	case rule.SpendingBasePoints < 0:
		return domainerrors.ErrInvalidRules.WithDetails("spending base points must not be negative")
	case rule.FirstVisitBonus < 0:
		return domainerrors.ErrInvalidRules.WithDetails("first visit bonus must not be negative")
	case rule.VisitCooldownHours < 0:
		return domainerrors.ErrInvalidRules.WithDetails("visit cooldown must not be negative")
	case rule.SpendingBaseAmount.IsNegative():
		return domainerrors.ErrInvalidRules.WithDetails("spending base amount must not be negative")
	}

	return nil
}

func validateReward(reward *entity.Reward) error {
	switch {
	case reward.Name == "":
		return domainerrors.ErrInvalidReward.WithDetails("name is required")
	case reward.PointCost < 0:
		return domainerrors.ErrInvalidReward.WithDetails("point cost must not be negative")
	case !reward.RewardType.IsValid():
		return domainerrors.ErrInvalidReward.WithDetails("unknown reward type " + reward.RewardType.String())
	case reward.Value.LessThan(decimal.Zero):
		return domainerrors.ErrInvalidReward.WithDetails("value must not be negative")
	case reward.ValidityDays <= 0:
		return domainerrors.ErrInvalidReward.WithDetails("validity days must be positive")
	}

	return nil
}
