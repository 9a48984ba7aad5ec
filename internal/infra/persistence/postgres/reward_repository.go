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
)

// rewardRepository implements the repository.RewardRepository interface.
type rewardRepository struct {
	db *gorm.DB
}

// NewRewardRepository is the constructor for rewardRepository.
func NewRewardRepository(db *gorm.DB) repository.RewardRepository {
	return &rewardRepository{
		db: db,
	}
}

// Create persists a new reward.
func (repo *rewardRepository) Create(ctx context.Context, reward *entity.Reward) error {
	rewardM := fromRewardDomain(reward)

	if err := repo.db.WithContext(ctx).Create(rewardM).Error; err != nil {
		if violates(err, constraintNotNull) {
			return domainerrors.ErrInvalidReward.WrapMessage("missing required reward information")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create reward")
	}

	reward.CreatedAt = rewardM.CreatedAt
	reward.UpdatedAt = rewardM.UpdatedAt

	return nil
}

// Update modifies an existing reward. Every column is written, including zero values.
func (repo *rewardRepository) Update(ctx context.Context, reward *entity.Reward) error {
	result := repo.db.WithContext(ctx).
		Model(&model.RewardModel{}).
		Where("id = ?", reward.ID).
		Updates(map[string]any{
			"name":          reward.Name,
			"description":   reward.Description,
			"point_cost":    reward.PointCost,
			"reward_type":   reward.RewardType.String(),
			"value":         reward.Value,
			"validity_days": reward.ValidityDays,
			"is_active":     reward.IsActive,
			"updated_at":    reward.UpdatedAt,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update reward")
	}

	if result.RowsAffected == 0 {
		return repository.ErrRewardNotFound
	}

	return nil
}

// FindByID retrieves a reward by its unique ID.
func (repo *rewardRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reward, error) {
	var rewardM model.RewardModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&rewardM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRewardNotFound
		}

		return nil, errors.Wrap(err, "failed to find reward by ID")
	}

	return toRewardDomain(&rewardM), nil
}

// FindByBusiness retrieves a business's catalog, cheapest first.
func (repo *rewardRepository) FindByBusiness(ctx context.Context, businessID uuid.UUID, includeInactive bool) ([]*entity.Reward, error) {
	var rewardModels []*model.RewardModel

	query := repo.db.WithContext(ctx).Where("business_id = ?", businessID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.
		Order("point_cost ASC").
		Order("name ASC").
		Find(&rewardModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find rewards by business")
	}

	rewards := make([]*entity.Reward, 0, len(rewardModels))
	for _, rewardM := range rewardModels {
		rewards = append(rewards, toRewardDomain(rewardM))
	}

	return rewards, nil
}

// --- Mapper Functions ---

func toRewardDomain(data *model.RewardModel) *entity.Reward {
	if data == nil {
		return nil
	}

	return &entity.Reward{
		ID:           data.ID,
		BusinessID:   data.BusinessID,
		Name:         data.Name,
		Description:  data.Description,
		PointCost:    data.PointCost,
		RewardType:   entity.RewardType(data.RewardType),
		Value:        data.Value,
		ValidityDays: data.ValidityDays,
		IsActive:     data.IsActive,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}

func fromRewardDomain(data *entity.Reward) *model.RewardModel {
	if data == nil {
		return nil
	}

	return &model.RewardModel{
		ID:           data.ID,
		BusinessID:   data.BusinessID,
		Name:         data.Name,
		Description:  data.Description,
		PointCost:    data.PointCost,
		RewardType:   data.RewardType.String(),
		Value:        data.Value,
		ValidityDays: data.ValidityDays,
		IsActive:     data.IsActive,
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
}
