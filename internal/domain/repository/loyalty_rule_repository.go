package repository

import (
	"context"

	"loyalty/internal/domain/entity"
	"loyalty/internal/errors"

	"github.com/google/uuid"
)

// ErrRuleNotFound is returned when a business has no loyalty rule set.
var ErrRuleNotFound = errors.New("loyalty rule not found")

// LoyaltyRuleRepository stores one accrual rule set per business.
type LoyaltyRuleRepository interface {
	// FindByBusiness retrieves the rule set of a business.
	FindByBusiness(ctx context.Context, businessID uuid.UUID) (*entity.LoyaltyRule, error)

	// Save inserts the rule set or replaces the existing one for the same business.
	Save(ctx context.Context, rule *entity.LoyaltyRule) error
}
