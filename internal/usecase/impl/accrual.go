package impl

import (
	"fmt"
	"math"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/errors"
	"loyalty/internal/usecase"

	"github.com/shopspring/decimal"
)

// Breakdown keys of an accrual.
const (
	breakdownVisit    = "visitPoints"
	breakdownSpending = "spendingPoints"
	breakdownBonus    = "bonusPoints"
)

// maxPoints is the largest point count a profile can record.
var maxPoints = decimal.NewFromInt(math.MaxInt64)

// maxAmountExponent bounds the power of ten of a spent amount before any arithmetic.
const maxAmountExponent = 64

// accrual is the outcome of evaluating a business's rules against one action.
// Points is zero for both rejections and actions that qualify for nothing.
type accrual struct {
	rejectCode string
	message    string
	points     int64
	breakdown  map[string]int64
	reason     string
}

func (a accrual) rejected() bool {
	return a.rejectCode != ""
}

// evaluateAccrual computes the points for an action. It reads the profile and never mutates it.
// A nil rule means the business has no loyalty program.
func evaluateAccrual(
	rule *entity.LoyaltyRule,
	profile *entity.LoyaltyProfile,
	req usecase.EarnRequest,
	now time.Time,
) (accrual, error) {
	if req.AmountSpent != nil && req.AmountSpent.IsNegative() {
		return accrual{}, errors.Wrap(domainerrors.ErrValidationFailed, "amount spent must not be negative")
	}

	if rule == nil || !rule.IsActive {
		return accrual{
			rejectCode: usecase.RejectProgramInactive,
			message:    "Loyalty program is not active for this business",
		}, nil
	}

	purchase := req.AmountSpent != nil && req.AmountSpent.IsPositive()

	// Purchases are never throttled; a visit-only action is.
	if req.IsVisit && !purchase && profile.LastRewardedAt != nil {
		if remaining := rule.Cooldown() - now.Sub(*profile.LastRewardedAt); remaining > 0 {
			hours := int64(math.Ceil(remaining.Hours()))

			return accrual{
				rejectCode: usecase.RejectCooldown,
				message:    fmt.Sprintf("Please wait %d more hour(s) before earning visit points again", hours),
			}, nil
		}
	}

	result := accrual{breakdown: make(map[string]int64)}

	if req.IsVisit {
		result.points = rule.VisitPoints
		result.breakdown[breakdownVisit] = rule.VisitPoints
	}

	if purchase && rule.SpendingBaseAmount.IsPositive() {
		spending, err := spendingPoints(*req.AmountSpent, rule)
		if err != nil {
			return accrual{}, err
		}
		if result.points, err = addPoints(result.points, spending); err != nil {
			return accrual{}, err
		}
		result.breakdown[breakdownSpending] = spending
	}

	if profile.TotalPointsEarned == 0 && rule.FirstVisitBonus > 0 && (req.IsVisit || purchase) {
		var err error
		if result.points, err = addPoints(result.points, rule.FirstVisitBonus); err != nil {
			return accrual{}, err
		}
		result.breakdown[breakdownBonus] = rule.FirstVisitBonus
	}

	switch {
	case req.IsVisit && purchase:
		result.reason = "Visit + Purchase"
	case req.IsVisit:
		result.reason = "Visit"
	default:
		result.reason = "Purchase"
	}

	if result.points <= 0 {
		result.points = 0
		result.message = "no points earned for this action"

		return result, nil
	}

	result.message = fmt.Sprintf("You earned %d points!", result.points)

	return result, nil
}

// spendingPoints is floor(amount * basePoints / baseAmount), computed without intermediate rounding.
func spendingPoints(amount decimal.Decimal, rule *entity.LoyaltyRule) (int64, error) {
	if exp := amount.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return 0, errors.Wrapf(domainerrors.ErrValidationFailed, "amount spent has an unsupported exponent %d", exp)
	}

	quotient, _ := amount.Mul(decimal.NewFromInt(rule.SpendingBasePoints)).QuoRem(rule.SpendingBaseAmount, 0)
	if quotient.GreaterThan(maxPoints) {
		return 0, errors.Wrapf(domainerrors.ErrValidationFailed, "amount spent %s earns more points than can be recorded", amount)
	}

	return quotient.IntPart(), nil
}

func addPoints(total, points int64) (int64, error) {
	if points > math.MaxInt64-total {
		return 0, errors.Wrap(domainerrors.ErrValidationFailed, "points for this action exceed the recordable maximum")
	}

	return total + points, nil
}
