package postgres

import (
	"context"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/errors"
	"loyalty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// loyaltyRuleRepository implements the repository.LoyaltyRuleRepository interface.
type loyaltyRuleRepository struct {
	db *gorm.DB
}

// NewLoyaltyRuleRepository is the constructor for loyaltyRuleRepository.
func NewLoyaltyRuleRepository(db *gorm.DB) repository.LoyaltyRuleRepository {
	return &loyaltyRuleRepository{
		db: db,
	}
}

// FindByBusiness retrieves the rule set of a business.
func (repo *loyaltyRuleRepository) FindByBusiness(ctx context.Context, businessID uuid.UUID) (*entity.LoyaltyRule, error) {
	var ruleM model.LoyaltyRuleModel

	if err := repo.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		First(&ruleM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRuleNotFound
		}

		return nil, errors.Wrap(err, "failed to find loyalty rule by business")
	}

	return toLoyaltyRuleDomain(&ruleM), nil
}

// Save upserts the rule set keyed on business_id.
func (repo *loyaltyRuleRepository) Save(ctx context.Context, rule *entity.LoyaltyRule) error {
	ruleM := fromLoyaltyRuleDomain(rule)

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "business_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"is_active",
				"visit_points",
				"visit_cooldown_hours",
				"spending_base_amount",
				"spending_base_points",
				"first_visit_bonus",
				"updated_at",
			}),
		}).
		Create(ruleM).Error; err != nil {
		if violates(err, constraintNotNull) {
			return domainerrors.ErrInvalidRules.WrapMessage("missing required rule information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to save loyalty rule")
	}

	return nil
}

// --- Mapper Functions ---

func toLoyaltyRuleDomain(data *model.LoyaltyRuleModel) *entity.LoyaltyRule {
	if data == nil {
		return nil
	}

	return &entity.LoyaltyRule{
		ID:                 data.ID,
		BusinessID:         data.BusinessID,
		IsActive:           data.IsActive,
		VisitPoints:        data.VisitPoints,
		VisitCooldownHours: data.VisitCooldownHours,
		SpendingBaseAmount: data.SpendingBaseAmount,
		SpendingBasePoints: data.SpendingBasePoints,
		FirstVisitBonus:    data.FirstVisitBonus,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}

func fromLoyaltyRuleDomain(data *entity.LoyaltyRule) *model.LoyaltyRuleModel {
	if data == nil {
		return nil
	}

	return &model.LoyaltyRuleModel{
		ID:                 data.ID,
		BusinessID:         data.BusinessID,
		IsActive:           data.IsActive,
		VisitPoints:        data.VisitPoints,
		VisitCooldownHours: data.VisitCooldownHours,
		SpendingBaseAmount: data.SpendingBaseAmount,
		SpendingBasePoints: data.SpendingBasePoints,
		FirstVisitBonus:    data.FirstVisitBonus,
		CreatedAt:          data.CreatedAt,
		UpdatedAt:          data.UpdatedAt,
	}
}
