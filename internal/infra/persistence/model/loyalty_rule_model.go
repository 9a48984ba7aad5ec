package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyRuleModel is the GORM-specific struct for the 'loyalty_rules' table.
// Each business has at most one row.
type LoyaltyRuleModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key"`
	BusinessID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	IsActive           bool            `gorm:"not null"`
	VisitPoints        int64           `gorm:"not null"`
	VisitCooldownHours int             `gorm:"not null"`
	SpendingBaseAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SpendingBasePoints int64           `gorm:"not null"`
	FirstVisitBonus    int64           `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TableName explicitly sets the table name for GORM.
func (LoyaltyRuleModel) TableName() string {
	return "loyalty_rules"
}
