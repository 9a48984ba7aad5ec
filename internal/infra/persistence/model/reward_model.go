package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RewardModel is the GORM-specific struct for the 'rewards' table.
type RewardModel struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	BusinessID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_rewards_business_cost,priority:1"`
	Name         string          `gorm:"type:varchar(255);not null"`
	Description  string          `gorm:"type:text"`
	PointCost    int64           `gorm:"not null;index:idx_rewards_business_cost,priority:2"`
	RewardType   string          `gorm:"type:varchar(32);not null"`
	Value        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ValidityDays int             `gorm:"not null"`
	IsActive     bool            `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName explicitly sets the table name for GORM.
func (RewardModel) TableName() string {
	return "rewards"
}
