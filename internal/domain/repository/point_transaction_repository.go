package repository

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// PointTransactionRepository is the append-only points ledger. It exposes no update or delete.
type PointTransactionRepository interface {
	// Append records a new ledger row.
	Append(ctx context.Context, tx *entity.PointTransaction) error

	// ListByProfile retrieves a profile's ledger rows, newest first.
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.PointTransaction, error)

	// SumByProfile returns the sum of PointsAmount over a profile's ledger rows.
	SumByProfile(ctx context.Context, profileID uuid.UUID) (int64, error)
}
