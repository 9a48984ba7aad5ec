// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"

	"loyalty/internal/domain/entity"
	"loyalty/internal/errors"

	"github.com/google/uuid"
)

// Domain-specific errors for profile persistence.
var (
	// ErrProfileNotFound is returned when a loyalty profile is not found.
	ErrProfileNotFound = errors.New("loyalty profile not found")
	// ErrStaleProfile is returned when an update's version guard does not match the stored row.
	ErrStaleProfile = errors.New("loyalty profile was modified concurrently")
)

// LoyaltyProfileRepository owns per-(user, business) profile records.
type LoyaltyProfileRepository interface {
	// GetOrCreate returns the profile for the pair, inserting candidate if none exists yet.
	// Concurrent callers for the same pair observe the same single profile.
	GetOrCreate(ctx context.Context, candidate *entity.LoyaltyProfile) (*entity.LoyaltyProfile, error)

	// FindByID retrieves a profile by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.LoyaltyProfile, error)

	// FindByIDForUpdate retrieves a profile and locks its row until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.LoyaltyProfile, error)

	// FindByUserAndBusiness retrieves the profile for a (user, business) pair.
	FindByUserAndBusiness(ctx context.Context, userID, businessID uuid.UUID) (*entity.LoyaltyProfile, error)

	// Update writes the mutable counters of profile when its stored version still equals profile.Version,
	// then advances profile.Version. Returns ErrStaleProfile otherwise.
	Update(ctx context.Context, profile *entity.LoyaltyProfile) error
}
