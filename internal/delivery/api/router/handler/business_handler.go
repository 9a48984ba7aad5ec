package handler

import (
	"log/slog"
	"net/http"

	"loyalty/internal/delivery/api/middleware"
	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

// BusinessHandlerParams holds dependencies for BusinessHandler, injected by Fx.
type BusinessHandlerParams struct {
	fx.In

	LoyaltyUC usecase.LoyaltyUsecase
	AdminUC   usecase.LoyaltyAdminUsecase
	Logger    *slog.Logger
}

// BusinessHandler serves the endpoints used by a business's staff and administrators.
// The authenticated business account's user ID is the business ID.
type BusinessHandler struct {
	loyaltyUC usecase.LoyaltyUsecase
	adminUC   usecase.LoyaltyAdminUsecase
	logger    *slog.Logger
}

// NewBusinessHandler is the constructor for BusinessHandler
func NewBusinessHandler(params BusinessHandlerParams) *BusinessHandler {
	return &BusinessHandler{
		loyaltyUC: params.LoyaltyUC,
		adminUC:   params.AdminUC,
		logger:    params.Logger,
	}
}

// UpdateRulesRequest represents a partial update of the loyalty rules
type UpdateRulesRequest struct {
	IsActive           *bool            `json:"is_active,omitempty"`
	VisitPoints        *int64           `json:"visit_points,omitempty" validate:"omitempty,min=0"`
	VisitCooldownHours *int             `json:"visit_cooldown_hours,omitempty" validate:"omitempty,min=0"`
	SpendingBaseAmount *decimal.Decimal `json:"spending_base_amount,omitempty" validate:"omitempty,decimal_gte0"`
	SpendingBasePoints *int64           `json:"spending_base_points,omitempty" validate:"omitempty,min=0"`
	FirstVisitBonus    *int64           `json:"first_visit_bonus,omitempty" validate:"omitempty,min=0"`
}

// CreateRewardRequest represents the request body for creating a reward
type CreateRewardRequest struct {
	Name         string          `json:"name" validate:"required,max=255"`
	Description  string          `json:"description"`
	PointCost    int64           `json:"point_cost" validate:"min=0"`
	RewardType   string          `json:"reward_type" validate:"required,reward_type"`
	Value        decimal.Decimal `json:"value" validate:"decimal_gte0"`
	ValidityDays *int            `json:"validity_days,omitempty" validate:"omitempty,min=1"`
	IsActive     *bool           `json:"is_active,omitempty"`
}

// UpdateRewardRequest represents a partial update of a reward
type UpdateRewardRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string          `json:"description,omitempty"`
	PointCost    *int64           `json:"point_cost,omitempty" validate:"omitempty,min=0"`
	RewardType   *string          `json:"reward_type,omitempty" validate:"omitempty,reward_type"`
	Value        *decimal.Decimal `json:"value,omitempty" validate:"omitempty,decimal_gte0"`
	ValidityDays *int             `json:"validity_days,omitempty" validate:"omitempty,min=1"`
	IsActive     *bool            `json:"is_active,omitempty"`
}

// VerifyRedemptionRequest carries a code typed by staff or the payload scanned from a QR code
type VerifyRedemptionRequest struct {
	Code string `json:"code" validate:"required,max=512"`
}

// EarnForCustomerRequest records a customer's visit or purchase at the counter
type EarnForCustomerRequest struct {
	UserID      string           `json:"user_id" validate:"required,uuid"`
	IsVisit     bool             `json:"is_visit"`
	AmountSpent *decimal.Decimal `json:"amount_spent,omitempty" validate:"omitempty,decimal_gte0,decimal_lte=1000000000000"`
}

// GetRules returns the business's loyalty rules
func (h *BusinessHandler) GetRules(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	rule, err := h.adminUC.FetchRules(c.Request().Context(), businessID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, rule)
}

// UpdateRules applies a partial update to the business's loyalty rules
func (h *BusinessHandler) UpdateRules(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req UpdateRulesRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid rules input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	rule, err := h.adminUC.UpdateRules(c.Request().Context(), businessID, usecase.RulesPatch{
		IsActive:           req.IsActive,
		VisitPoints:        req.VisitPoints,
		VisitCooldownHours: req.VisitCooldownHours,
		SpendingBaseAmount: req.SpendingBaseAmount,
		SpendingBasePoints: req.SpendingBasePoints,
		FirstVisitBonus:    req.FirstVisitBonus,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, rule)
}

// ListRewards returns the business's full catalog, including inactive rewards
func (h *BusinessHandler) ListRewards(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	rewards, err := h.adminUC.FetchAllRewards(c.Request().Context(), businessID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, rewards)
}

// CreateReward adds a reward to the business's catalog
func (h *BusinessHandler) CreateReward(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req CreateRewardRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reward input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	reward, err := h.adminUC.CreateReward(c.Request().Context(), businessID, usecase.RewardDraft{
		Name:         req.Name,
		Description:  req.Description,
		PointCost:    req.PointCost,
		RewardType:   entity.RewardType(req.RewardType),
		Value:        req.Value,
		ValidityDays: req.ValidityDays,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusCreated, reward)
}

// UpdateReward applies a partial update to one of the business's rewards.
// Setting is_active to false is how a reward is retired.
func (h *BusinessHandler) UpdateReward(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	rewardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return response.BadRequest(c, "INVALID_ID", "Invalid reward ID")
	}

	var req UpdateRewardRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid reward input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	patch := usecase.RewardPatch{
		Name:         req.Name,
		Description:  req.Description,
		PointCost:    req.PointCost,
		Value:        req.Value,
		ValidityDays: req.ValidityDays,
		IsActive:     req.IsActive,
	}
	if req.RewardType != nil {
		rewardType := entity.RewardType(*req.RewardType)
		patch.RewardType = &rewardType
	}

	reward, err := h.adminUC.UpdateReward(c.Request().Context(), businessID, rewardID, patch)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Success(c, http.StatusOK, reward)
}

// VerifyRedemption consumes a customer's redemption code at the counter.
// Rejections are returned with 200 and success=false.
func (h *BusinessHandler) VerifyRedemption(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req VerifyRedemptionRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid verification input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	result, err := h.loyaltyUC.VerifyRedemption(c.Request().Context(), req.Code, businessID)
	if err != nil {
		return response.HandleAppError(c, err)
	}

	return response.Outcome(c, http.StatusOK, result.Success, result)
}

// EarnForCustomer records a customer's visit or purchase on the business's behalf
func (h *BusinessHandler) EarnForCustomer(c echo.Context) error {
	businessID, ok := middleware.GetUserID(c)
	if !ok {
		return response.Unauthorized(c, "INVALID_TOKEN", "Invalid user ID in token")
	}

	var req EarnForCustomerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid earn input")
	}

	if err := c.Validate(&req); err != nil {
		return response.BadRequest(c, "VALIDATION_ERROR", err.Error())
	}

	return earnPoints(c, h.loyaltyUC, usecase.EarnRequest{
		UserID:      uuid.MustParse(req.UserID),
		BusinessID:  businessID,
		AmountSpent: req.AmountSpent,
		IsVisit:     req.IsVisit,
	})
}
