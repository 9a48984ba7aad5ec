package repository

import (
	"context"

	"loyalty/internal/domain/entity"
	"loyalty/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for redemption persistence.
var (
	// ErrRedemptionNotFound is returned when a redemption is not found.
	ErrRedemptionNotFound = errors.New("redemption not found")
	// ErrDuplicateRedemptionCode is returned when a redemption code is already taken.
	ErrDuplicateRedemptionCode = errors.New("redemption code already exists")
	// ErrRedemptionNotPending is returned when a status transition finds the code already consumed.
	ErrRedemptionNotPending = errors.New("redemption is no longer pending")
)

// RedemptionRepository stores claimed rewards and their codes.
type RedemptionRepository interface {
	// Create persists a new redemption.
	Create(ctx context.Context, redemption *entity.Redemption) error

	// FindByID retrieves a redemption by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Redemption, error)

	// FindPendingByCodeForUpdate retrieves a pending redemption by code and locks its row.
	// Verified or expired codes are not found by this lookup.
	FindPendingByCodeForUpdate(ctx context.Context, code string) (*entity.Redemption, error)

	// CodeExists reports whether any redemption, in any status, already uses code.
	CodeExists(ctx context.Context, code string) (bool, error)

	// FindByProfile retrieves a profile's redemptions, newest first.
	FindByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.Redemption, error)

	// TransitionStatus moves a pending redemption to next, also persisting its VerifiedAt and UpdatedAt.
	// Returns ErrRedemptionNotPending when the stored row is no longer pending.
	TransitionStatus(ctx context.Context, redemption *entity.Redemption, next entity.RedemptionStatus) error
}
