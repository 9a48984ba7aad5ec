package postgres

import (
	"context"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/errors"
	"loyalty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// pointTransactionRepository implements the repository.PointTransactionRepository interface.
type pointTransactionRepository struct {
	db *gorm.DB
}

// NewPointTransactionRepository is the constructor for pointTransactionRepository.
func NewPointTransactionRepository(db *gorm.DB) repository.PointTransactionRepository {
	return &pointTransactionRepository{
		db: db,
	}
}

// Append inserts a ledger row.
func (repo *pointTransactionRepository) Append(ctx context.Context, tx *entity.PointTransaction) error {
	txM := fromPointTransactionDomain(tx)

	if err := repo.db.WithContext(ctx).Create(txM).Error; err != nil {
		if violates(err, constraintForeignKey) {
			return domainerrors.ErrValidationFailed.WrapMessage("invalid loyalty profile reference")
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to append point transaction")
	}

	tx.CreatedAt = txM.CreatedAt

	return nil
}

// ListByProfile retrieves a profile's ledger, newest first.
func (repo *pointTransactionRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.PointTransaction, error) {
	var txModels []*model.PointTransactionModel

	if err := repo.db.WithContext(ctx).
		Where("loyalty_profile_id = ?", profileID).
		Order("created_at DESC, id DESC").
		Find(&txModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list point transactions by profile")
	}

	txs := make([]*entity.PointTransaction, 0, len(txModels))
	for _, txM := range txModels {
		txs = append(txs, toPointTransactionDomain(txM))
	}

	return txs, nil
}

// SumByProfile returns the net of a profile's ledger rows.
func (repo *pointTransactionRepository) SumByProfile(ctx context.Context, profileID uuid.UUID) (int64, error) {
	var sum int64

	if err := repo.db.WithContext(ctx).
		Model(&model.PointTransactionModel{}).
		Where("loyalty_profile_id = ?", profileID).
		Select("COALESCE(SUM(points_amount), 0)").
		Scan(&sum).Error; err != nil {
		return 0, errors.Wrap(err, "failed to sum point transactions by profile")
	}

	return sum, nil
}

// --- Mapper Functions ---

func toPointTransactionDomain(data *model.PointTransactionModel) *entity.PointTransaction {
	if data == nil {
		return nil
	}

	var metadata map[string]any
	if len(data.Metadata) > 0 {
		metadata = map[string]any(data.Metadata)
	}

	return &entity.PointTransaction{
		ID:               data.ID,
		LoyaltyProfileID: data.LoyaltyProfileID,
		TransactionType:  entity.TransactionType(data.TransactionType),
		PointsAmount:     data.PointsAmount,
		Reason:           data.Reason,
		ReferenceID:      data.ReferenceID,
		Metadata:         metadata,
		CreatedAt:        data.CreatedAt,
	}
}

func fromPointTransactionDomain(data *entity.PointTransaction) *model.PointTransactionModel {
	if data == nil {
		return nil
	}

	var metadata datatypes.JSONMap
	if len(data.Metadata) > 0 {
		metadata = datatypes.JSONMap(data.Metadata)
	}

	return &model.PointTransactionModel{
		ID:               data.ID,
		LoyaltyProfileID: data.LoyaltyProfileID,
		TransactionType:  data.TransactionType.String(),
		PointsAmount:     data.PointsAmount,
		Reason:           data.Reason,
		ReferenceID:      data.ReferenceID,
		Metadata:         metadata,
		CreatedAt:        data.CreatedAt,
	}
}
