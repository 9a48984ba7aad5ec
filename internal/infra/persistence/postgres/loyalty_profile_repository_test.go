package postgres_test

import (
	"context"
	"testing"
	"time"

	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/postgres"
	"loyalty/internal/infra/persistence/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestLoyaltyProfileRepository_GetOrCreate(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewLoyaltyProfileRepository(testdb.New(t))

	userID, businessID := uuid.New(), uuid.New()

	first, err := repo.GetOrCreate(ctx, entity.NewLoyaltyProfile(userID, businessID, testNow))
	require.NoError(t, err)
	assert.Equal(t, entity.TierBronze, first.TierLevel)
	assert.Equal(t, int64(0), first.CurrentPointsBalance)
	assert.Nil(t, first.LastRewardedAt)

	// A second candidate for the same pair must resolve to the existing row.
	second, err := repo.GetOrCreate(ctx, entity.NewLoyaltyProfile(userID, businessID, testNow.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	other, err := repo.GetOrCreate(ctx, entity.NewLoyaltyProfile(userID, uuid.New(), testNow))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestLoyaltyProfileRepository_FindNotFound(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewLoyaltyProfileRepository(testdb.New(t))

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	_, err = repo.FindByIDForUpdate(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)

	_, err = repo.FindByUserAndBusiness(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}

func TestLoyaltyProfileRepository_UpdateVersionGuard(t *testing.T) {
	ctx := context.Background()
	repo := postgres.NewLoyaltyProfileRepository(testdb.New(t))

	profile, err := repo.GetOrCreate(ctx, entity.NewLoyaltyProfile(uuid.New(), uuid.New(), testNow))
	require.NoError(t, err)

	stale := *profile

	require.NoError(t, profile.Credit(600, testNow.Add(time.Minute)))
	require.NoError(t, repo.Update(ctx, profile))
	assert.Equal(t, int64(1), profile.Version)

	stored, err := repo.FindByIDForUpdate(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), stored.CurrentPointsBalance)
	assert.Equal(t, int64(600), stored.TotalPointsEarned)
	assert.Equal(t, entity.TierSilver, stored.TierLevel)
	require.NotNil(t, stored.LastRewardedAt)
	assert.True(t, stored.LastRewardedAt.Equal(testNow.Add(time.Minute)))
	require.NoError(t, stored.CheckInvariants())

	require.NoError(t, stale.Credit(10, testNow.Add(2*time.Minute)))
	err = repo.Update(ctx, &stale)
	assert.ErrorIs(t, err, repository.ErrStaleProfile)

	stored, err = repo.FindByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(600), stored.CurrentPointsBalance)
}
