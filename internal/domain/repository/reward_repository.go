package repository

import (
	"context"

	"loyalty/internal/domain/entity"
	"loyalty/internal/errors"

	"github.com/google/uuid"
)

// ErrRewardNotFound is returned when a reward is not found.
var ErrRewardNotFound = errors.New("reward not found")

// RewardRepository defines the reward catalog operations. There is no delete: rewards are soft-disabled.
type RewardRepository interface {
	// Create persists a new reward.
	Create(ctx context.Context, reward *entity.Reward) error

	// Update modifies an existing reward.
	Update(ctx context.Context, reward *entity.Reward) error

	// FindByID retrieves a reward by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reward, error)

	// FindByBusiness retrieves a business's rewards ordered by point cost; inactive ones only when includeInactive.
	FindByBusiness(ctx context.Context, businessID uuid.UUID, includeInactive bool) ([]*entity.Reward, error)
}
