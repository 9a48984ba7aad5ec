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

// redemptionRepository implements the repository.RedemptionRepository interface.
type redemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository is the constructor for redemptionRepository.
func NewRedemptionRepository(db *gorm.DB) repository.RedemptionRepository {
	return &redemptionRepository{
		db: db,
	}
}

// Create persists a new redemption.
func (repo *redemptionRepository) Create(ctx context.Context, redemption *entity.Redemption) error {
	redemptionM := fromRedemptionDomain(redemption)

	if err := repo.db.WithContext(ctx).Create(redemptionM).Error; err != nil {
		if violates(err, constraintUnique) {
			return repository.ErrDuplicateRedemptionCode
		}
		if violates(err, constraintForeignKey) {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid profile or reward reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create redemption")
	}

	redemption.CreatedAt = redemptionM.CreatedAt
	redemption.UpdatedAt = redemptionM.UpdatedAt

	return nil
}

// FindByID retrieves a redemption by its unique ID.
func (repo *redemptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Redemption, error) {
	var redemptionM model.RedemptionModel

	if err := repo.db.WithContext(ctx).
		Where("id = ?", id).
		First(&redemptionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRedemptionNotFound
		}

		return nil, errors.Wrap(err, "failed to find redemption by ID")
	}

	return toRedemptionDomain(&redemptionM), nil
}

// FindPendingByCodeForUpdate retrieves and row-locks a pending redemption by its code.
func (repo *redemptionRepository) FindPendingByCodeForUpdate(ctx context.Context, code string) (*entity.Redemption, error) {
	var redemptionM model.RedemptionModel

	if err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("redemption_code = ? AND status = ?", code, entity.RedemptionStatusPending.String()).
		First(&redemptionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRedemptionNotFound
		}

		return nil, errors.Wrap(err, "failed to find pending redemption by code")
	}

	return toRedemptionDomain(&redemptionM), nil
}

// CodeExists reports whether a code is already in use by any redemption.
func (repo *redemptionRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64

	if err := repo.db.WithContext(ctx).
		Model(&model.RedemptionModel{}).
		Where("redemption_code = ?", code).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check redemption code")
	}

	return count > 0, nil
}

// FindByProfile retrieves all redemptions of a profile, newest first.
func (repo *redemptionRepository) FindByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.Redemption, error) {
	var redemptionModels []*model.RedemptionModel

	if err := repo.db.WithContext(ctx).
		Where("loyalty_profile_id = ?", profileID).
		Order("redeemed_at DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&redemptionModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find redemptions by profile")
	}

	redemptions := make([]*entity.Redemption, 0, len(redemptionModels))
	for _, redemptionM := range redemptionModels {
		redemptions = append(redemptions, toRedemptionDomain(redemptionM))
	}

	return redemptions, nil
}

// TransitionStatus moves a pending redemption to next. The update only matches a row still pending.
func (repo *redemptionRepository) TransitionStatus(ctx context.Context, redemption *entity.Redemption, next entity.RedemptionStatus) error {
	if !redemption.Status.CanTransitionTo(next) {
		return repository.ErrRedemptionNotPending
	}

	result := repo.db.WithContext(ctx).
		Model(&model.RedemptionModel{}).
		Where("id = ? AND status = ?", redemption.ID, entity.RedemptionStatusPending.String()).
		Updates(map[string]any{
			"status":      next.String(),
			"verified_at": redemption.VerifiedAt,
			"updated_at":  redemption.UpdatedAt,
		})

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update redemption status")
	}

	if result.RowsAffected == 0 {
		return repository.ErrRedemptionNotPending
	}

	redemption.Status = next

	return nil
}

// --- Mapper Functions ---

func toRedemptionDomain(data *model.RedemptionModel) *entity.Redemption {
	if data == nil {
		return nil
	}

	return &entity.Redemption{
		ID:               data.ID,
		LoyaltyProfileID: data.LoyaltyProfileID,
		RewardID:         data.RewardID,
		RedemptionCode:   data.RedemptionCode,
		PointsSpent:      data.PointsSpent,
		Status:           entity.RedemptionStatus(data.Status),
		RedeemedAt:       data.RedeemedAt,
		ExpiresAt:        data.ExpiresAt,
		VerifiedAt:       data.VerifiedAt,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}

func fromRedemptionDomain(data *entity.Redemption) *model.RedemptionModel {
	if data == nil {
		return nil
	}

	return &model.RedemptionModel{
		ID:               data.ID,
		LoyaltyProfileID: data.LoyaltyProfileID,
		RewardID:         data.RewardID,
		RedemptionCode:   data.RedemptionCode,
		PointsSpent:      data.PointsSpent,
		Status:           data.Status.String(),
		RedeemedAt:       data.RedeemedAt,
		ExpiresAt:        data.ExpiresAt,
		VerifiedAt:       data.VerifiedAt,
		CreatedAt:        data.CreatedAt,
		UpdatedAt:        data.UpdatedAt,
	}
}
