// Package model holds the GORM table structs backing the loyalty repositories.
package model

// All returns every persistence model, in migration order.
func All() []any {
	return []any{
		&LoyaltyProfileModel{},
		&LoyaltyRuleModel{},
		&RewardModel{},
		&RedemptionModel{},
		&PointTransactionModel{},
	}
}
