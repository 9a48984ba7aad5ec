package handler

import (
	"log/slog"
	"net/http"

	"loyalty/internal/delivery/api/middleware"
	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/errors"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// LoyaltyHandlerParams holds dependencies for LoyaltyHandler, injected by Fx.
type LoyaltyHandlerParams struct {
	fx.In

	LoyaltyUC usecase.LoyaltyUsecase
	Logger    *slog.Logger
}

// LoyaltyHandler serves the customer-facing loyalty endpoints
type LoyaltyHandler struct {
	loyaltyUC usecase.LoyaltyUsecase
	logger    *slog.Logger
}

// NewLoyaltyHandler is the constructor for LoyaltyHandler
func NewLoyaltyHandler(params LoyaltyHandlerParams) *LoyaltyHandler {
	return &LoyaltyHandler{
		loyaltyUC: params.LoyaltyUC,
		logger:    params.Logger,
	}
}

// EarnPointsRequest represents the request body for earning points
type EarnPointsRequest struct {
	IsVisit     bool             `json:"is_visit"`
	AmountSpent *decimal.Decimal `json:"amount_spent,omitempty" validate:"omitempty,decimal_gte0,decimal_lte=1000000000000"`
}

// RedeemRewardRequest represents the request body for redeeming a reward
type RedeemRewardRequest struct {
	LoyaltyProfileID string `json:"loyalty_profile_id" validate:"required,uuid"`
	RewardID         string `json:"reward_id" validate:"required,uuid"`
}

// GetProfile returns the caller's profile at a business, creating it on first access
func (h *LoyaltyHandler) GetProfile(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	businessID, err := uuid.Parse(c.Param("businessId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid business ID")
	}

	profile, err := h.loyaltyUC.FetchProfile(c.Request().Context(), userID, businessID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, profile)
}

// EarnPoints records a visit or purchase by the caller at a business
func (h *LoyaltyHandler) EarnPoints(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	businessID, err := uuid.Parse(c.Param("businessId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid business ID")
	}

	var req EarnPointsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid earn input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	return earnPoints(c, h.loyaltyUC, usecase.EarnRequest{
		UserID:      userID,
		BusinessID:  businessID,
		AmountSpent: req.AmountSpent,
		IsVisit:     req.IsVisit,
	})
}

// ListRewards returns a business's active rewards, cheapest first
func (h *LoyaltyHandler) ListRewards(c echo.Context) error {
	businessID, err := uuid.Parse(c.Param("businessId"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid business ID")
	}

	rewards, err := h.loyaltyUC.FetchRewardsByBusiness(c.Request().Context(), businessID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, rewards)
}

// ListTransactions returns the ledger of one of the caller's profiles, newest first
func (h *LoyaltyHandler) ListTransactions(c echo.Context) error {
	profile, err := h.ownedProfile(c)
	if err != nil || profile == nil {
		return err
	}

	transactions, err := h.loyaltyUC.FetchTransactionsByProfile(c.Request().Context(), profile.ID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, transactions)
}

// ListRedemptions returns the redemptions of one of the caller's profiles, newest first
func (h *LoyaltyHandler) ListRedemptions(c echo.Context) error {
	profile, err := h.ownedProfile(c)
	if err != nil || profile == nil {
		return err
	}

	redemptions, err := h.loyaltyUC.FetchRedemptionsByProfile(c.Request().Context(), profile.ID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, redemptions)
}

// RedeemReward claims a reward with the caller's points
func (h *LoyaltyHandler) RedeemReward(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req RedeemRewardRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid redemption input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	result, err := h.loyaltyUC.RedeemReward(c.Request().Context(), usecase.RedeemRequest{
		LoyaltyProfileID: uuid.MustParse(req.LoyaltyProfileID),
		RewardID:         uuid.MustParse(req.RewardID),
		UserID:           userID,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Outcome(c, http.StatusCreated, result.Success, result)
}

// RedemptionQR returns one of the caller's redemption codes as a PNG QR code
func (h *LoyaltyHandler) RedemptionQR(c echo.Context) error {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	redemptionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid redemption ID")
	}

	png, err := h.loyaltyUC.GenerateRedemptionQR(c.Request().Context(), userID, redemptionID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.PNG(c, png)
}

// ownedProfile loads the profile named by the path and checks the caller owns it.
// A nil profile with a nil error means the response has already been written.
func (h *LoyaltyHandler) ownedProfile(c echo.Context) (*entity.LoyaltyProfile, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return nil, response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	profileID, err := uuid.Parse(c.Param("profileId"))
	if err != nil {
		return nil, response.BadRequest(c, "INVALID_ID", "Invalid loyalty profile ID")
	}

	profile, err := h.loyaltyUC.FetchProfileByID(c.Request().Context(), profileID)
	if err != nil {
		return nil, response.HandleAppError(c, err)
	}

	// Other users' profiles are reported as missing.
	if profile.UserID != userID {
		return nil, response.HandleAppError(c, errors.WithStack(domainerrors.ErrProfileNotFound))
	}

	return profile, nil
}

// earnPoints runs an accrual and renders it. Rejections are returned with 200 and success=false.
func earnPoints(c echo.Context, uc usecase.LoyaltyUsecase, req usecase.EarnRequest) error {
	if !req.IsVisit && req.AmountSpent == nil {
		return response.BadRequest(c, "VALIDATION_ERROR", "either is_visit or amount_spent is required")
	}

	result, err := uc.EarnPoints(c.Request().Context(), req)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Outcome(c, http.StatusOK, result.Success, result)
}
