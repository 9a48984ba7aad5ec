// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"loyalty/internal/delivery/api/middleware"
	"loyalty/internal/delivery/api/router/handler"
	"loyalty/internal/domain/entity"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	LoyaltyHandler  *handler.LoyaltyHandler
	BusinessHandler *handler.BusinessHandler
	AuthMiddleware  *middleware.AuthMiddleware
}

// router holds all the handlers that need to be registered.
type router struct {
	loyaltyHandler  *handler.LoyaltyHandler
	businessHandler *handler.BusinessHandler
	authMiddleware  *middleware.AuthMiddleware
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		loyaltyHandler:  params.LoyaltyHandler,
		businessHandler: params.BusinessHandler,
		authMiddleware:  params.AuthMiddleware,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	// Health check endpoint
	e.GET("/health", handler.HealthCheck)

	// API v1 routes
	apiV1 := e.Group("/api/v1")
	apiV1.Use(r.authMiddleware.Authenticate) // All API v1 routes require authentication

	// Customer routes
	loyaltyGroup := apiV1.Group("/loyalty")
	{
		loyaltyGroup.GET("/businesses/:businessId/profile", r.loyaltyHandler.GetProfile)
		loyaltyGroup.POST("/businesses/:businessId/earn", r.loyaltyHandler.EarnPoints)
		loyaltyGroup.GET("/businesses/:businessId/rewards", r.loyaltyHandler.ListRewards)
		loyaltyGroup.GET("/profiles/:profileId/transactions", r.loyaltyHandler.ListTransactions)
		loyaltyGroup.GET("/profiles/:profileId/redemptions", r.loyaltyHandler.ListRedemptions)
		loyaltyGroup.POST("/redemptions", r.loyaltyHandler.RedeemReward)
		loyaltyGroup.GET("/redemptions/:id/qr", r.loyaltyHandler.RedemptionQR)
	}

	// Business routes act on the authenticated business account
	businessGroup := apiV1.Group("/business")
	businessGroup.Use(r.authMiddleware.RequireRole(entity.RoleBusiness))
	{
		businessGroup.GET("/rules", r.businessHandler.GetRules)
		businessGroup.PUT("/rules", r.businessHandler.UpdateRules)
		businessGroup.GET("/rewards", r.businessHandler.ListRewards)
		businessGroup.POST("/rewards", r.businessHandler.CreateReward)
		businessGroup.PUT("/rewards/:id", r.businessHandler.UpdateReward)
		businessGroup.POST("/redemptions/verify", r.businessHandler.VerifyRedemption)
		businessGroup.POST("/earn", r.businessHandler.EarnForCustomer)
	}
}
