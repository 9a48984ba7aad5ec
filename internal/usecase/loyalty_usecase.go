// Package usecase contains the application-specific business rules.
package usecase

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Rejection codes carried by unsuccessful results. Rejections are expected outcomes, not errors.
const (
	RejectProgramInactive        = "PROGRAM_INACTIVE"
	RejectCooldown               = "VISIT_COOLDOWN"
	RejectProfileNotFound        = "PROFILE_NOT_FOUND"
	RejectRewardNotFound         = "REWARD_NOT_FOUND"
	RejectRewardUnavailable      = "REWARD_UNAVAILABLE"
	RejectRewardBusinessMismatch = "REWARD_BUSINESS_MISMATCH"
	RejectInsufficientPoints     = "INSUFFICIENT_POINTS"
	RejectInvalidCode            = "INVALID_CODE"
	RejectCodeWrongBusiness      = "CODE_WRONG_BUSINESS"
	RejectCodeExpired            = "CODE_EXPIRED"
)

// EarnRequest is a qualifying customer action at a business.
type EarnRequest struct {
	UserID      uuid.UUID
	BusinessID  uuid.UUID
	AmountSpent *decimal.Decimal // nil when the action carried no purchase
	IsVisit     bool
}

// EarnResult reports the outcome of an accrual. Success is false only for rejections.
type EarnResult struct {
	Success      bool             `json:"success"`
	ErrorCode    string           `json:"error_code,omitempty"`
	PointsEarned int64            `json:"points_earned"`
	NewBalance   int64            `json:"new_balance"`
	Message      string           `json:"message"`
	Breakdown    map[string]int64 `json:"breakdown,omitempty"`
	TierLevel    entity.TierLevel `json:"tier_level"`
	TierUpgraded bool             `json:"tier_upgraded"`
}

// RedeemRequest claims a reward for a profile. A non-nil UserID must own the profile.
type RedeemRequest struct {
	LoyaltyProfileID uuid.UUID
	RewardID         uuid.UUID
	UserID           uuid.UUID
}

// RedeemResult carries the issued redemption or the rejection.
type RedeemResult struct {
	Success    bool               `json:"success"`
	Redemption *entity.Redemption `json:"redemption,omitempty"`
	ErrorCode  string             `json:"error_code,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// VerifyResult carries the consumed redemption or the rejection.
type VerifyResult struct {
	Success    bool               `json:"success"`
	Redemption *entity.Redemption `json:"redemption,omitempty"`
	Reward     *entity.Reward     `json:"reward,omitempty"`
	ErrorCode  string             `json:"error_code,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// LoyaltyUsecase defines the customer-facing and staff-facing loyalty operations
type LoyaltyUsecase interface {
	// FetchProfile returns the caller's profile at a business, creating it on first access
	FetchProfile(ctx context.Context, userID, businessID uuid.UUID) (*entity.LoyaltyProfile, error)

	// FetchProfileByID returns a profile by ID
	FetchProfileByID(ctx context.Context, profileID uuid.UUID) (*entity.LoyaltyProfile, error)

	// EarnPoints evaluates the business's rules for an action and credits the profile
	EarnPoints(ctx context.Context, req EarnRequest) (*EarnResult, error)

	// FetchRewardsByBusiness lists a business's active rewards, cheapest first
	FetchRewardsByBusiness(ctx context.Context, businessID uuid.UUID) ([]*entity.Reward, error)

	// RedeemReward debits a profile and issues a pending redemption code
	RedeemReward(ctx context.Context, req RedeemRequest) (*RedeemResult, error)

	// VerifyRedemption consumes a pending code on behalf of the business that owns its reward.
	// code is either the bare code or the payload scanned from its QR code.
	VerifyRedemption(ctx context.Context, code string, businessID uuid.UUID) (*VerifyResult, error)

	// FetchTransactionsByProfile lists a profile's ledger, newest first
	FetchTransactionsByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.PointTransaction, error)

	// FetchRedemptionsByProfile lists a profile's redemptions, newest first
	FetchRedemptionsByProfile(ctx context.Context, profileID uuid.UUID) ([]*entity.Redemption, error)

	// GenerateRedemptionQR renders the code of one of userID's redemptions as a PNG QR code
	GenerateRedemptionQR(ctx context.Context, userID, redemptionID uuid.UUID) ([]byte, error)
}
