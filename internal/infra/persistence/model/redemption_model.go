package model

import (
	"time"

	"github.com/google/uuid"
)

// RedemptionModel is the GORM-specific struct for the 'redemptions' table.
// RedemptionCode is unique across all statuses so a code is never reissued.
type RedemptionModel struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	LoyaltyProfileID uuid.UUID `gorm:"type:uuid;not null;index"`
	RewardID         uuid.UUID `gorm:"type:uuid;not null;index"`
	RedemptionCode   string    `gorm:"type:varchar(32);not null;uniqueIndex"`
	PointsSpent      int64     `gorm:"not null"`
	Status           string    `gorm:"type:varchar(20);not null;default:'pending';index"`
	RedeemedAt       time.Time `gorm:"not null"`
	ExpiresAt        time.Time `gorm:"not null"`
	VerifiedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (RedemptionModel) TableName() string {
	return "redemptions"
}
