// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"time"

	"loyalty/config"
	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/constants"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/errors"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

// loyaltyService implements the LoyaltyUsecase interface.
type loyaltyService struct {
	txManager     repository.TransactionManager
	repos         repository.RepositoryFactory
	locker        service.Locker
	codeGenerator service.CodeGenerator
	qrcodeService service.QRCodeService
	publisher     service.EventPublisher
	metrics       service.LoyaltyMetrics
	settings      config.LoyaltyConfig
	logger        *slog.Logger
	now           func() time.Time
}

// LoyaltyServiceParams holds dependencies for LoyaltyService, injected by Fx.
type LoyaltyServiceParams struct {
	fx.In

	TxManager     repository.TransactionManager
	Repos         repository.RepositoryFactory
	Locker        service.Locker
	CodeGenerator service.CodeGenerator
	QRCodeService service.QRCodeService
	Publisher     service.EventPublisher
	Metrics       service.LoyaltyMetrics
	Config        *config.Config
	Logger        *slog.Logger
}

// NewLoyaltyService creates a new loyalty service instance
func NewLoyaltyService(params LoyaltyServiceParams) usecase.LoyaltyUsecase {
	return newLoyaltyService(params)
}

func newLoyaltyService(params LoyaltyServiceParams) *loyaltyService {
	return &loyaltyService{
		txManager:     params.TxManager,
		repos:         params.Repos,
		locker:        params.Locker,
		codeGenerator: params.CodeGenerator,
		qrcodeService: params.QRCodeService,
		publisher:     params.Publisher,
		metrics:       params.Metrics,
		settings:      params.Config.Loyalty.WithDefaults(),
		logger:        params.Logger,
		now:           time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *loyaltyService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// FetchProfile returns the caller's profile at a business, creating it on first access.
func (srv *loyaltyService) FetchProfile(ctx context.Context, userID, businessID uuid.UUID) (*entity.LoyaltyProfile, error) {
	if userID == uuid.Nil || businessID == uuid.Nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "user and business are required")
	}

	return srv.getOrCreateProfile(ctx, userID, businessID)
}

// FetchProfileByID returns a profile by ID.
func (srv *loyaltyService) FetchProfileByID(ctx context.Context, profileID uuid.UUID) (*entity.LoyaltyProfile, error) {
	profile, err := srv.repos.ProfileRepo().FindByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrProfileNotFound) {
			return nil, errors.Wrap(domainerrors.ErrProfileNotFound, "loyalty profile not found")
		}

		return nil, errors.Wrap(err, "failed to find loyalty profile")
	}

	return profile, nil
}

// FetchRewardsByBusiness lists a business's active rewards, cheapest first.
func (srv *loyaltyService) FetchRewardsByBusiness(ctx context.Context, businessID uuid.UUID) ([]*entity.Reward, error) {
	rewards, err := srv.repos.RewardRepo().FindByBusiness(ctx, businessID, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list rewards")
	}

	return rewards, nil
}

// FetchTransactionsByProfile lists a profile's ledger, newest first.
func (srv *loyaltyService) FetchTransactionsByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.PointTransaction, error) {
	transactions, err := srv.repos.LedgerRepo().ListByProfile(ctx, profileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list point transactions")
	}

	return transactions, nil
}

// FetchRedemptionsByProfile lists a profile's redemptions, newest first.
func (srv *loyaltyService) FetchRedemptionsByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.Redemption, error) {
	redemptions, err := srv.repos.RedemptionRepo().FindByProfile(ctx, profileID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list redemptions")
	}

	return redemptions, nil
}

// EarnPoints evaluates the business's rules for an action and credits the profile.
func (srv *loyaltyService) EarnPoints(ctx context.Context, req usecase.EarnRequest) (*usecase.EarnResult, error) {
	if req.UserID == uuid.Nil || req.BusinessID == uuid.Nil {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "user and business are required")
	}
	if req.AmountSpent != nil && req.AmountSpent.IsNegative() {
		return nil, errors.Wrap(domainerrors.ErrValidationFailed, "amount spent must not be negative")
	}

	srv.log(ctx).Debug("Earning points",
		slog.Any("user_id", req.UserID),
		slog.Any("business_id", req.BusinessID),
		slog.Bool("is_visit", req.IsVisit),
	)

	profile, err := srv.getOrCreateProfile(ctx, req.UserID, req.BusinessID)
	if err != nil {
		return nil, err
	}

	var (
		result       *usecase.EarnResult
		updated      *entity.LoyaltyProfile
		previousTier entity.TierLevel
	)

	err = srv.withLock(ctx, constants.LockKeyProfilePrefix+profile.ID.String(), func() error {
		return srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
			now := srv.now()

			current, err := repoFactory.ProfileRepo().FindByIDForUpdate(ctx, profile.ID)
			if err != nil {
				return errors.Wrap(err, "failed to lock loyalty profile")
			}

			rule, err := repoFactory.RuleRepo().FindByBusiness(ctx, current.BusinessID)
			if err != nil && !errors.Is(err, repository.ErrRuleNotFound) {
				return errors.Wrap(err, "failed to load loyalty rules")
			}

			outcome, err := evaluateAccrual(rule, current, req, now)
			if err != nil {
				return err
			}

			result = &usecase.EarnResult{
				Success:    !outcome.rejected(),
				ErrorCode:  outcome.rejectCode,
				NewBalance: current.CurrentPointsBalance,
				Message:    outcome.message,
				TierLevel:  current.TierLevel,
			}
			if outcome.rejected() || outcome.points == 0 {
				return nil
			}

			previousTier = current.TierLevel
			if err := current.Credit(outcome.points, now); err != nil {
				if errors.Is(err, entity.ErrPointsOverflow) {
					return errors.Wrap(domainerrors.ErrValidationFailed, err.Error())
				}

				return err
			}
			if err := current.CheckInvariants(); err != nil {
				return err
			}

			if err := repoFactory.ProfileRepo().Update(ctx, current); err != nil {
				if errors.Is(err, repository.ErrStaleProfile) {
					return errors.Wrap(domainerrors.ErrConcurrentUpdate, err.Error())
				}

				return errors.Wrap(err, "failed to update loyalty profile")
			}

			metadata := make(map[string]any, len(outcome.breakdown))
			for component, points := range outcome.breakdown {
				metadata[component] = points
			}

			if err := repoFactory.LedgerRepo().Append(ctx, &entity.PointTransaction{
				ID:               uuid.New(),
				LoyaltyProfileID: current.ID,
				TransactionType:  entity.TransactionTypeEarn,
				PointsAmount:     outcome.points,
				Reason:           outcome.reason,
				Metadata:         metadata,
				CreatedAt:        now,
			}); err != nil {
				return errors.Wrap(err, "failed to append point transaction")
			}
			if err := reconcileLedger(ctx, repoFactory.LedgerRepo(), current); err != nil {
				return err
			}

			result.PointsEarned = outcome.points
			result.NewBalance = current.CurrentPointsBalance
			result.Breakdown = outcome.breakdown
			result.TierLevel = current.TierLevel
			result.TierUpgraded = current.TierLevel.Rank() > previousTier.Rank()
			updated = current

			return nil
		})
	})
	if err != nil {
		srv.log(ctx).Error("Failed to earn points", slog.Any("error", err), slog.Any("loyalty_profile_id", profile.ID))

		return nil, errors.Wrap(err, "failed to earn points")
	}

	if !result.Success {
		srv.metrics.RecordEarnRejected(ctx, result.ErrorCode)
		srv.log(ctx).Info("Earn rejected", slog.String("code", result.ErrorCode), slog.Any("loyalty_profile_id", profile.ID))

		return result, nil
	}

	if updated == nil {
		return result, nil
	}

	srv.metrics.RecordPointsEarned(ctx, result.PointsEarned, result.TierLevel.String())
	srv.log(ctx).Info("Points earned",
		slog.Any("loyalty_profile_id", updated.ID),
		slog.Int64("points", result.PointsEarned),
		slog.Int64("balance", result.NewBalance),
	)

	srv.publish(ctx, &service.LoyaltyEvent{
		Type:      service.EventPointsEarned,
		Points:    result.PointsEarned,
		TierLevel: updated.TierLevel.String(),
	}, updated)

	if result.TierUpgraded {
		srv.publish(ctx, &service.LoyaltyEvent{
			Type:         service.EventTierUpgraded,
			PreviousTier: previousTier.String(),
			TierLevel:    updated.TierLevel.String(),
		}, updated)
	}

	return result, nil
}

// getOrCreateProfile returns the single profile of the pair, inserting a zeroed one on first access.
func (srv *loyaltyService) getOrCreateProfile(ctx context.Context, userID, businessID uuid.UUID) (*entity.LoyaltyProfile, error) {
	profile, err := srv.repos.ProfileRepo().GetOrCreate(ctx, entity.NewLoyaltyProfile(userID, businessID, srv.now()))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get or create loyalty profile")
	}

	return profile, nil
}

// withLock runs fn while holding key. Only the wait for the lock is bounded by the lock timeout.
func (srv *loyaltyService) withLock(ctx context.Context, key string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, srv.settings.LockTimeout)
	defer cancel()

	release, err := srv.locker.Acquire(lockCtx, key)
	if err != nil {
		return errors.Join(domainerrors.ErrLockTimeout, err)
	}
	defer release()

	return fn()
}

// publish fills in the envelope of event from profile and sends it. Failures are logged only:
// the state change has already been committed.
func (srv *loyaltyService) publish(ctx context.Context, event *service.LoyaltyEvent, profile *entity.LoyaltyProfile) {
	event.EventID = uuid.NewString()
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	event.LoyaltyProfileID = profile.ID.String()
	event.UserID = profile.UserID.String()
	event.BusinessID = profile.BusinessID.String()
	event.Balance = profile.CurrentPointsBalance
	event.OccurredAt = srv.now()

	if err := srv.publisher.PublishLoyaltyEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish loyalty event",
			slog.Any("error", err),
			slog.String("type", string(event.Type)),
			slog.String("loyalty_profile_id", event.LoyaltyProfileID),
		)
	}
}

// reconcileLedger checks that a profile's ledger rows sum to its balance inside the writing transaction.
func reconcileLedger(ctx context.Context, ledger repository.PointTransactionRepository, profile *entity.LoyaltyProfile) error {
	sum, err := ledger.SumByProfile(ctx, profile.ID)
	if err != nil {
		return errors.Wrap(err, "failed to sum point transactions")
	}
	if sum != profile.CurrentPointsBalance {
		return errors.Wrapf(entity.ErrInvariantViolation, "ledger sum %d != balance %d on profile %s",
			sum, profile.CurrentPointsBalance, profile.ID)
	}

	return nil
}
