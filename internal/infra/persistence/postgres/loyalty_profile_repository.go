// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
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

// loyaltyProfileRepository implements the repository.LoyaltyProfileRepository interface.
type loyaltyProfileRepository struct {
	db *gorm.DB
}

// NewLoyaltyProfileRepository is the constructor for loyaltyProfileRepository.
func NewLoyaltyProfileRepository(db *gorm.DB) repository.LoyaltyProfileRepository {
	return &loyaltyProfileRepository{
		db: db,
	}
}

// GetOrCreate inserts candidate unless a profile for the same (user, business) pair exists,
// then reads back whichever row won.
func (repo *loyaltyProfileRepository) GetOrCreate(ctx context.Context, candidate *entity.LoyaltyProfile) (*entity.LoyaltyProfile, error) {
	profileM := fromLoyaltyProfileDomain(candidate)

	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "business_id"}},
			DoNothing: true,
		}).
		Create(profileM).Error; err != nil {
		if violates(err, constraintNotNull) {
			return nil, domainerrors.ErrValidationFailed.WrapMessage("missing required profile information")
		}

		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to create loyalty profile")
	}

	return repo.FindByUserAndBusiness(ctx, candidate.UserID, candidate.BusinessID)
}

// FindByID retrieves a profile by its unique ID.
func (repo *loyaltyProfileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.LoyaltyProfile, error) {
	return repo.findOne(repo.db.WithContext(ctx).Where("id = ?", id), "failed to find loyalty profile by ID")
}

// FindByIDForUpdate retrieves a profile and holds a row lock on it for the rest of the transaction.
func (repo *loyaltyProfileRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.LoyaltyProfile, error) {
	return repo.findOne(
		repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id),
		"failed to lock loyalty profile",
	)
}

// FindByUserAndBusiness retrieves the profile for a (user, business) pair.
func (repo *loyaltyProfileRepository) FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*entity.LoyaltyProfile, error) {
	return repo.findOne(
		repo.db.WithContext(ctx).Where("user_id = ? AND business_id = ?", userID, businessID),
		"failed to find loyalty profile by user and business",
	)
}

// Update writes the profile's counters guarded by its version.
func (repo *loyaltyProfileRepository) Update(ctx context.Context, profile *entity.LoyaltyProfile) error {
	result := repo.db.WithContext(ctx).
		Model(&model.LoyaltyProfileModel{}).
		Where("id = ? AND version = ?", profile.ID, profile.Version).
		Updates(map[string]any{
			"current_points_balance": profile.CurrentPointsBalance,
			"total_points_earned":    profile.TotalPointsEarned,
			"points_redeemed":        profile.PointsRedeemed,
			"tier_level":             profile.TierLevel.String(),
			"last_visit_date":        profile.LastVisitDate,
			"last_rewarded_at":       profile.LastRewardedAt,
			"version":                profile.Version + 1,
			"updated_at":             profile.UpdatedAt,
		})

	if result.Error != nil {
		if violates(result.Error, constraintCheck) {
			return errors.Wrap(entity.ErrInvariantViolation, result.Error.Error())
		}

		return errors.Wrap(result.Error, "failed to update loyalty profile")
	}

	if result.RowsAffected == 0 {
		return repository.ErrStaleProfile
	}

	profile.Version++

	return nil
}

func (repo *loyaltyProfileRepository) findOne(query *gorm.DB, msg string) (*entity.LoyaltyProfile, error) {
	var profileM model.LoyaltyProfileModel

	if err := query.First(&profileM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrProfileNotFound
		}

		return nil, errors.Wrap(err, msg)
	}

	return toLoyaltyProfileDomain(&profileM), nil
}

// --- Mapper Functions ---

func toLoyaltyProfileDomain(data *model.LoyaltyProfileModel) *entity.LoyaltyProfile {
	if data == nil {
		return nil
	}

	return &entity.LoyaltyProfile{
		ID:                   data.ID,
		UserID:               data.UserID,
		BusinessID:           data.BusinessID,
		CurrentPointsBalance: data.CurrentPointsBalance,
		TotalPointsEarned:    data.TotalPointsEarned,
		PointsRedeemed:       data.PointsRedeemed,
		TierLevel:            entity.TierLevel(data.TierLevel),
		LastVisitDate:        data.LastVisitDate,
		LastRewardedAt:       data.LastRewardedAt,
		Version:              data.Version,
		CreatedAt:            data.CreatedAt,
		UpdatedAt:            data.UpdatedAt,
	}
}

func fromLoyaltyProfileDomain(data *entity.LoyaltyProfile) *model.LoyaltyProfileModel {
	if data == nil {
		return nil
	}

	return &model.LoyaltyProfileModel{
		ID:                   data.ID,
		UserID:               data.UserID,
		BusinessID:           data.BusinessID,
		CurrentPointsBalance: data.CurrentPointsBalance,
		TotalPointsEarned:    data.TotalPointsEarned,
		PointsRedeemed:       data.PointsRedeemed,
		TierLevel:            data.TierLevel.String(),
		LastVisitDate:        data.LastVisitDate,
		LastRewardedAt:       data.LastRewardedAt,
		Version:              data.Version,
		CreatedAt:            data.CreatedAt,
		UpdatedAt:            data.UpdatedAt,
	}
}
