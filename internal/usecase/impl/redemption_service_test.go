package impl

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

func TestLoyaltyService_RedeemThenVerify(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 100, true)
	profile := env.fundProfile(t, userID, businessID, 150)
	env.clock.Advance(time.Minute)
	redeemAt := env.clock.Now()

	redeemed, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{
		LoyaltyProfileID: profile.ID,
		RewardID:         reward.ID,
		UserID:           userID,
	})
	require.NoError(t, err)
	require.True(t, redeemed.Success)

	redemption := redeemed.Redemption
	assert.Regexp(t, codePattern, redemption.RedemptionCode)
	assert.Equal(t, entity.RedemptionStatusPending, redemption.Status)
	assert.Equal(t, int64(100), redemption.PointsSpent)
	assert.True(t, redemption.ExpiresAt.Equal(redeemAt.Add(30*24*time.Hour)))

	stored := env.requireLedgerMatchesBalance(t, profile.ID)
	assert.Equal(t, int64(50), stored.CurrentPointsBalance)
	assert.Equal(t, int64(100), stored.PointsRedeemed)
	assert.Equal(t, int64(150), stored.TotalPointsEarned)

	transactions, err := env.svc.FetchTransactionsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	debit := transactions[0]
	assert.Equal(t, entity.TransactionTypeRedeem, debit.TransactionType)
	assert.Equal(t, int64(-100), debit.PointsAmount)
	assert.Equal(t, "Redeemed: Free Coffee", debit.Reason)
	require.NotNil(t, debit.ReferenceID)
	assert.Equal(t, redemption.ID, *debit.ReferenceID)

	verified, err := env.svc.VerifyRedemption(ctx, redemption.RedemptionCode, businessID)
	require.NoError(t, err)
	require.True(t, verified.Success)
	assert.Equal(t, entity.RedemptionStatusVerified, verified.Redemption.Status)
	require.NotNil(t, verified.Redemption.VerifiedAt)
	assert.Equal(t, reward.ID, verified.Reward.ID)

	again, err := env.svc.VerifyRedemption(ctx, redemption.RedemptionCode, businessID)
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Equal(t, usecase.RejectInvalidCode, again.ErrorCode)
	assert.Equal(t, "invalid or already used code", again.Error)

	assert.Equal(t, []service.LoyaltyEventType{
		service.EventPointsEarned,
		service.EventRewardRedeemed,
		service.EventRedemptionVerified,
	}, env.publisher.eventTypes())
}

func TestLoyaltyService_RedeemRejections(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	profile := env.fundProfile(t, userID, businessID, 50)

	expensive := env.seedReward(t, businessID, 100, true)
	inactive := env.seedReward(t, businessID, 10, false)
	foreign := env.seedReward(t, uuid.New(), 10, true)
	affordable := env.seedReward(t, businessID, 10, true)

	tests := []struct {
		name      string
		req       usecase.RedeemRequest
		wantCode  string
		wantError string
	}{
		{
			name:      "insufficient points",
			req:       usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: expensive.ID},
			wantCode:  usecase.RejectInsufficientPoints,
			wantError: "Insufficient points",
		},
		{
			name:      "inactive reward",
			req:       usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: inactive.ID},
			wantCode:  usecase.RejectRewardUnavailable,
			wantError: "reward is not available",
		},
		{
			name:      "reward of another business",
			req:       usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: foreign.ID},
			wantCode:  usecase.RejectRewardBusinessMismatch,
			wantError: "reward does not belong to this business",
		},
		{
			name:      "unknown reward",
			req:       usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: uuid.New()},
			wantCode:  usecase.RejectRewardNotFound,
			wantError: "reward not found",
		},
		{
			name:      "unknown profile",
			req:       usecase.RedeemRequest{LoyaltyProfileID: uuid.New(), RewardID: affordable.ID},
			wantCode:  usecase.RejectProfileNotFound,
			wantError: "loyalty profile not found",
		},
		{
			name:      "profile of another user",
			req:       usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: affordable.ID, UserID: uuid.New()},
			wantCode:  usecase.RejectProfileNotFound,
			wantError: "loyalty profile not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := env.svc.RedeemReward(ctx, tt.req)
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Nil(t, result.Redemption)
			assert.Equal(t, tt.wantCode, result.ErrorCode)
			assert.Equal(t, tt.wantError, result.Error)
		})
	}

	stored := env.requireLedgerMatchesBalance(t, profile.ID)
	assert.Equal(t, int64(50), stored.CurrentPointsBalance)
	assert.Equal(t, int64(0), stored.PointsRedeemed)

	redemptions, err := env.svc.FetchRedemptionsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Empty(t, redemptions)
}

func TestLoyaltyService_RedeemExactBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 80, true)
	profile := env.fundProfile(t, userID, businessID, 80)

	result, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)
	require.True(t, result.Success)

	stored := env.requireLedgerMatchesBalance(t, profile.ID)
	assert.Equal(t, int64(0), stored.CurrentPointsBalance)

	again, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)
	assert.Equal(t, usecase.RejectInsufficientPoints, again.ErrorCode)
}

func TestLoyaltyService_RedeemRetriesCodeCollision(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 10, true)
	profile := env.fundProfile(t, userID, businessID, 100)
	env.svc.codeGenerator = &sequenceCodeGenerator{codes: []string{"AAAA1111", "AAAA1111", "BBBB2222"}}

	first, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)
	require.True(t, first.Success)
	assert.Equal(t, "AAAA1111", first.Redemption.RedemptionCode)

	second, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)
	require.True(t, second.Success)
	assert.Equal(t, "BBBB2222", second.Redemption.RedemptionCode)

	redemptions, err := env.svc.FetchRedemptionsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Len(t, redemptions, 2)
}

func TestLoyaltyService_RedeemRollsBackWhenNoCodeIsFree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 10, true)
	profile := env.fundProfile(t, userID, businessID, 100)
	env.svc.codeGenerator = &sequenceCodeGenerator{codes: []string{"SAMECODE"}}

	_, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)

	_, err = env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainerrors.ErrCodeGenerationFailed))

	stored := env.requireLedgerMatchesBalance(t, profile.ID)
	assert.Equal(t, int64(90), stored.CurrentPointsBalance)
	assert.Equal(t, int64(10), stored.PointsRedeemed)
}

func TestLoyaltyService_VerifyWrongBusinessKeepsCodePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 10, true)
	profile := env.fundProfile(t, userID, businessID, 10)

	redeemed, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)
	code := redeemed.Redemption.RedemptionCode

	wrong, err := env.svc.VerifyRedemption(ctx, code, uuid.New())
	require.NoError(t, err)
	assert.False(t, wrong.Success)
	assert.Equal(t, usecase.RejectCodeWrongBusiness, wrong.ErrorCode)
	assert.Equal(t, "redemption code is not valid for this business", wrong.Error)

	right, err := env.svc.VerifyRedemption(ctx, "  "+strings.ToLower(code)+" ", businessID)
	require.NoError(t, err)
	assert.True(t, right.Success)
}

func TestLoyaltyService_VerifyExpiry(t *testing.T) {
	tests := []struct {
		name        string
		advance     time.Duration
		wantSuccess bool
		wantStatus  entity.RedemptionStatus
	}{
		{name: "at expiry instant", advance: 30 * 24 * time.Hour, wantSuccess: true, wantStatus: entity.RedemptionStatusVerified},
		{name: "after expiry", advance: 30*24*time.Hour + time.Second, wantSuccess: false, wantStatus: entity.RedemptionStatusExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()
			userID, businessID := uuid.New(), uuid.New()
			env.seedRule(t, businessID, nil)
			reward := env.seedReward(t, businessID, 10, true)
			profile := env.fundProfile(t, userID, businessID, 10)

			redeemed, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
			require.NoError(t, err)

			env.clock.Advance(tt.advance)

			result, err := env.svc.VerifyRedemption(ctx, redeemed.Redemption.RedemptionCode, businessID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, result.Success)
			if !tt.wantSuccess {
				assert.Equal(t, usecase.RejectCodeExpired, result.ErrorCode)
				assert.Equal(t, "reward has expired", result.Error)
			}

			stored, err := env.repos.RedemptionRepo().FindByID(ctx, redeemed.Redemption.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, stored.Status)

			again, err := env.svc.VerifyRedemption(ctx, redeemed.Redemption.RedemptionCode, businessID)
			require.NoError(t, err)
			assert.Equal(t, usecase.RejectInvalidCode, again.ErrorCode)
		})
	}
}

func TestLoyaltyService_VerifyScannedPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 10, true)
	profile := env.fundProfile(t, userID, businessID, 10)

	redeemed, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)

	payload := `{"code":"` + redeemed.Redemption.RedemptionCode + `","type":"redemption"}`
	result, err := env.svc.VerifyRedemption(ctx, payload, businessID)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestLoyaltyService_VerifyUnknownOrBlankCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, code := range []string{"", "   ", "NOPE0000", `{"code":"X","type":"subscription"}`} {
		result, err := env.svc.VerifyRedemption(ctx, code, uuid.New())
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, usecase.RejectInvalidCode, result.ErrorCode)
	}
}

func TestLoyaltyService_GenerateRedemptionQR(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 10, true)
	profile := env.fundProfile(t, userID, businessID, 10)

	redeemed, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)

	png, err := env.svc.GenerateRedemptionQR(ctx, userID, redeemed.Redemption.ID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))

	_, err = env.svc.GenerateRedemptionQR(ctx, uuid.New(), redeemed.Redemption.ID)
	assert.True(t, errors.Is(err, domainerrors.ErrRedemptionNotFound))

	_, err = env.svc.GenerateRedemptionQR(ctx, userID, uuid.New())
	assert.True(t, errors.Is(err, domainerrors.ErrRedemptionNotFound))
}

func TestLoyaltyService_ConcurrentRedeemsSpendBalanceOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 100, true)
	profile := env.fundProfile(t, userID, businessID, 150)

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan *usecase.RedeemResult, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
			if err != nil {
				errs <- err

				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	succeeded := 0
	for result := range results {
		if result.Success {
			succeeded++

			continue
		}
		assert.Equal(t, usecase.RejectInsufficientPoints, result.ErrorCode)
		assert.Equal(t, "Insufficient points", result.Error)
	}
	assert.Equal(t, 1, succeeded)

	stored := env.requireLedgerMatchesBalance(t, profile.ID)
	assert.Equal(t, int64(50), stored.CurrentPointsBalance)
	assert.Equal(t, int64(100), stored.PointsRedeemed)

	redemptions, err := env.svc.FetchRedemptionsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	assert.Len(t, redemptions, 1)
}

func TestLoyaltyService_ConcurrentVerifiesSucceedOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	userID, businessID := uuid.New(), uuid.New()
	env.seedRule(t, businessID, nil)
	reward := env.seedReward(t, businessID, 10, true)
	profile := env.fundProfile(t, userID, businessID, 10)

	redeemed, err := env.svc.RedeemReward(ctx, usecase.RedeemRequest{LoyaltyProfileID: profile.ID, RewardID: reward.ID})
	require.NoError(t, err)
	require.True(t, redeemed.Success)
	code := redeemed.Redemption.RedemptionCode

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan *usecase.VerifyResult, workers)
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.svc.VerifyRedemption(ctx, code, businessID)
			if err != nil {
				errs <- err

				return
			}
			results <- result
		}()
	}
	wg.Wait()
	close(results)
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	succeeded := 0
	for result := range results {
		if result.Success {
			succeeded++

			continue
		}
		assert.Equal(t, usecase.RejectInvalidCode, result.ErrorCode)
	}
	assert.Equal(t, 1, succeeded)

	redemptions, err := env.svc.FetchRedemptionsByProfile(ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, redemptions, 1)
	assert.Equal(t, entity.RedemptionStatusVerified, redemptions[0].Status)
}
