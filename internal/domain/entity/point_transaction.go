package entity

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a ledger row.
type TransactionType string

const (
	// TransactionTypeEarn is a positive accrual.
	TransactionTypeEarn TransactionType = "earn"
	// TransactionTypeRedeem is a negative debit for a redemption.
	TransactionTypeRedeem TransactionType = "redeem"
)

// String returns the string representation of the TransactionType.
func (t TransactionType) String() string {
	return string(t)
}

// PointTransaction is an immutable ledger row. The sum of PointsAmount over a profile's rows
// equals the profile's current balance.
type PointTransaction struct {
	ID               uuid.UUID       `json:"id"`
	LoyaltyProfileID uuid.UUID       `json:"loyalty_profile_id"`
	TransactionType  TransactionType `json:"transaction_type"`
	PointsAmount     int64           `json:"points_amount"` // Positive for earn, negative for redeem.
	Reason           string          `json:"reason"`
	ReferenceID      *uuid.UUID      `json:"reference_id,omitempty"`
	Metadata         map[string]any  `json:"metadata,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}
