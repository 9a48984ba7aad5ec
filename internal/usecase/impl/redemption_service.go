package impl

import (
	"context"
	"log/slog"
	"strings"

	"loyalty/internal/domain/constants"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
)

// Verification outcomes recorded as metrics.
const (
	verifyOutcomeVerified      = "verified"
	verifyOutcomeExpired       = "expired"
	verifyOutcomeInvalid       = "invalid"
	verifyOutcomeWrongBusiness = "wrong_business"
)

// RedeemReward debits a profile and issues a pending redemption code.
func (srv *loyaltyService) RedeemReward(ctx context.Context, req usecase.RedeemRequest) (*usecase.RedeemResult, error) {
	if req.LoyaltyProfileID == uuid.Nil || req.RewardID == uuid.Nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "loyalty profile and reward are required")
	}

	srv.log(ctx).Debug("Redeeming reward",
		slog.Any("loyalty_profile_id", req.LoyaltyProfileID),
		slog.Any("reward_id", req.RewardID),
	)

	var (
		result  *usecase.RedeemResult
		profile *entity.LoyaltyProfile
	)

	err := srv.withLock(ctx, constants.LockKeyProfilePrefix+req.LoyaltyProfileID.String(), func() error {
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			now := srv.now()

			current, err := repoFactory.ProfileRepo().FindByIDForUpdate(ctx, req.LoyaltyProfileID)
			if err != nil && !errors.Is(err, repository.ErrProfileNotFound) {
				return errors.Wrap(err, "failed to lock loyalty profile")
			}
			if current == nil || (req.UserID != uuid.Nil && current.UserID != req.UserID) {
				result = rejectRedeem(usecase.RejectProfileNotFound, "loyalty profile not found")

				return nil
			}

			reward, err := repoFactory.RewardRepo().FindByID(ctx, req.RewardID)
			if err != nil && !errors.Is(err, repository.ErrRewardNotFound) {
				return errors.Wrap(err, "failed to find reward")
			}

			switch {
			case reward == nil:
				result = rejectRedeem(usecase.RejectRewardNotFound, "reward not found")
			case !reward.IsActive:
				result = rejectRedeem(usecase.RejectRewardUnavailable, "reward is not available")
			case reward.BusinessID != current.BusinessID:
				result = rejectRedeem(usecase.RejectRewardBusinessMismatch, "reward does not belong to this business")
			case current.CurrentPointsBalance < reward.PointCost:
				result = rejectRedeem(usecase.RejectInsufficientPoints, "Insufficient points")
			}
			if result != nil {
				return nil
			}

			current.Debit(reward.PointCost, now)
			if err := current.CheckInvariants(); err != nil {
				return err
			}

			if err := repoFactory.ProfileRepo().Update(ctx, current); err != nil {
				if errors.Is(err, repository.ErrStaleProfile) {
					return errors.Wrap(domainerrors.ErrConcurrentUpdate, err.Error())
				}

				return errors.Wrap(err, "failed to update loyalty profile")
			}

			code, err := srv.issueCode(ctx, repoFactory.RedemptionRepo())
			if err != nil {
				return err
			}

			redemption := &entity.Redemption{
				ID:               uuid.New(),
				LoyaltyProfileID: current.ID,
				RewardID:         reward.ID,
				RedemptionCode:   code,
				PointsSpent:      reward.PointCost,
				Status:           entity.RedemptionStatusPending,
				RedeemedAt:       now,
				ExpiresAt:        now.Add(reward.Validity()),
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if err := repoFactory.RedemptionRepo().Create(ctx, redemption); err != nil {
				return errors.Wrap(err, "failed to create redemption")
			}

			if err := repoFactory.LedgerRepo().Append(ctx, &entity.PointTransaction{
				ID:               uuid.New(),
				LoyaltyProfileID: current.ID,
				TransactionType:  entity.TransactionTypeRedeem,
				PointsAmount:     -reward.PointCost,
				Reason:           "Redeemed: " + reward.Name,
				ReferenceID:      &redemption.ID,
				Metadata: map[string]any{
					"reward_id":   reward.ID.String(),
					"reward_name": reward.Name,
				},
				CreatedAt: now,
			}); err != nil {
				return errors.Wrap(err, "failed to append point transaction")
			}
			if err := reconcileLedger(ctx, repoFactory.LedgerRepo(), current); err != nil {
				return err
			}

			result = &usecase.RedeemResult{Success: true, Redemption: redemption}
			profile = current

			return nil
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to redeem reward", slog.Any("error", err), slog.Any("loyalty_profile_id", req.LoyaltyProfileID))

		return nil, errors.Wrap(err, "failed to redeem reward")
	}

	if !result.Success {
		srv.metrics.RecordRedeemRejected(ctx, result.ErrorCode)
		srv.log(ctx).Info("Redemption rejected", slog.String("code", result.ErrorCode), slog.Any("loyalty_profile_id", req.LoyaltyProfileID))

		return result, nil
	}

	srv.metrics.RecordRedemption(ctx, result.Redemption.PointsSpent)
	srv.log(ctx).Info("Reward redeemed",
		slog.Any("loyalty_profile_id", profile.ID),
		slog.Any("redemption_id", result.Redemption.ID),
		slog.Int64("points", result.Redemption.PointsSpent),
	)

	srv.publish(ctx, &service.LoyaltyEvent{
		Type:         service.EventRewardRedeemed,
		Points:       -result.Redemption.PointsSpent,
		TierLevel:    profile.TierLevel.String(),
		RedemptionID: result.Redemption.ID.String(),
	}, profile)

	return result, nil
}

// VerifyRedemption consumes a pending code on behalf of the business that owns its reward.
// The code may be typed by hand or be the payload scanned from the customer's QR code.
func (srv *loyaltyService) VerifyRedemption(ctx context.Context, input string, businessID uuid.UUID) (*usecase.VerifyResult, error) {
	code, err := srv.qrcodeService.ParseRedemptionQR(input)
	if err == nil {
		code = normalizeCode(code)
	}
	if err != nil || code == "" {
		srv.metrics.RecordVerification(ctx, verifyOutcomeInvalid)

		return rejectVerify(usecase.RejectInvalidCode, "invalid or already used code"), nil
	}

	var (
		result  *usecase.VerifyResult
		outcome string
	)

	err = srv.withLock(ctx, constants.LockKeyRedemptionPrefix+code, func() error {
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			now := srv.now()
			redemptionRepo := repoFactory.RedemptionRepo()

			redemption, err := redemptionRepo.FindPendingByCodeForUpdate(ctx, code)
			if err != nil {
				if errors.Is(err, repository.ErrRedemptionNotFound) {
					result, outcome = rejectVerify(usecase.RejectInvalidCode, "invalid or already used code"), verifyOutcomeInvalid

					return nil
				}

				return errors.Wrap(err, "failed to find redemption")
			}

			reward, err := repoFactory.RewardRepo().FindByID(ctx, redemption.RewardID)
			if err != nil {
				return errors.Wrap(err, "failed to find redeemed reward")
			}
			if reward.BusinessID != businessID {
				result, outcome = rejectVerify(usecase.RejectCodeWrongBusiness, "redemption code is not valid for this business"), verifyOutcomeWrongBusiness

				return nil
			}

			next := entity.RedemptionStatusVerified
			if redemption.IsExpiredAt(now) {
				next = entity.RedemptionStatusExpired
			} else {
				redemption.VerifiedAt = &now
			}
			redemption.UpdatedAt = now

			if err := redemptionRepo.TransitionStatus(ctx, redemption, next); err != nil {
				if errors.IsAny(err, repository.ErrRedemptionNotPending, repository.ErrRedemptionNotFound) {
					result, outcome = rejectVerify(usecase.RejectInvalidCode, "invalid or already used code"), verifyOutcomeInvalid

					return nil
				}

				return errors.Wrap(err, "failed to update redemption status")
			}

			if next == entity.RedemptionStatusExpired {
				result, outcome = rejectVerify(usecase.RejectCodeExpired, "reward has expired"), verifyOutcomeExpired
				result.Redemption = redemption

				return nil
			}

			result = &usecase.VerifyResult{Success: true, Redemption: redemption, Reward: reward}
			outcome = verifyOutcomeVerified

			return nil
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to verify redemption", slog.Any("error", err), slog.Any("business_id", businessID))

		return nil, errors.Wrap(err, "failed to verify redemption")
	}

	srv.metrics.RecordVerification(ctx, outcome)

	if !result.Success {
		srv.log(ctx).Info("Verification rejected", slog.String("code", result.ErrorCode), slog.Any("business_id", businessID))

		return result, nil
	}

	srv.log(ctx).Info("Redemption verified", slog.Any("redemption_id", result.Redemption.ID), slog.Any("business_id", businessID))

	profile, err := srv.repos.ProfileRepo().FindByID(ctx, result.Redemption.LoyaltyProfileID)
	if err != nil {
		srv.log(ctx).Warn("Failed to load profile for verification event", slog.Any("error", err))

		return result, nil
	}

	srv.publish(ctx, &service.LoyaltyEvent{
		Type:         service.EventRedemptionVerified,
		TierLevel:    profile.TierLevel.String(),
		RedemptionID: result.Redemption.ID.String(),
	}, profile)

	return result, nil
}

// GenerateRedemptionQR renders the code of one of userID's redemptions as a PNG QR code.
func (srv *loyaltyService) GenerateRedemptionQR(ctx context.Context, userID, redemptionID uuid.UUID) ([]byte, error) {
	redemption, err := srv.repos.RedemptionRepo().FindByID(ctx, redemptionID)
	if err != nil {
		if errors.Is(err, repository.ErrRedemptionNotFound) {
			return nil, errors.Wrap(domainerrors.ErrRedemptionNotFound, "redemption not found")
		}

		return nil, errors.Wrap(err, "failed to find redemption")
	}

	profile, err := srv.repos.ProfileRepo().FindByID(ctx, redemption.LoyaltyProfileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find loyalty profile")
	}
	if profile.UserID != userID {
		// Another user's redemption is reported as missing rather than forbidden.
		return nil, errors.Wrap(domainerrors.ErrRedemptionNotFound, "redemption not found")
	}

	png, err := srv.qrcodeService.GenerateRedemptionQR(redemption.RedemptionCode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate redemption QR code")
	}

	return png, nil
}

// issueCode draws codes until one is unused, giving up after the configured number of attempts.
func (srv *loyaltyService) issueCode(ctx context.Context, redemptionRepo repository.RedemptionRepository) (string, error) {
	for attempt := 1; attempt <= srv.settings.MaxCodeAttempts; attempt++ {
		code, err := srv.codeGenerator.Generate()
		if err != nil {
			return "", errors.Wrap(err, "failed to generate redemption code")
		}

		exists, err := redemptionRepo.CodeExists(ctx, code)
		if err != nil {
			return "", errors.Wrap(err, "failed to check redemption code")
		}
		if !exists {
			return code, nil
		}

		srv.log(ctx).Warn("Redemption code collision", slog.Int("attempt", attempt))
	}

	return "", errors.Wrapf(domainerrors.ErrCodeGenerationFailed, "no unused code after %d attempts", srv.settings.MaxCodeAttempts)
}

// normalizeCode canonicalizes a code as typed or scanned by staff.
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func rejectRedeem(code, message string) *usecase.RedeemResult {
	return &usecase.RedeemResult{ErrorCode: code, Error: message}
}

func rejectVerify(code, message string) *usecase.VerifyResult {
	return &usecase.VerifyResult{ErrorCode: code, Error: message}
}
