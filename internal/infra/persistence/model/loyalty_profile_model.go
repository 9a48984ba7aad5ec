package model

import (
	"time"

	"github.com/google/uuid"
)

// LoyaltyProfileModel is the GORM-specific struct for the 'loyalty_profiles' table.
// It represents a user's points standing with one business.
type LoyaltyProfileModel struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primary_key"`
	UserID               uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_loyalty_profiles_user_business,priority:1"`
	BusinessID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_loyalty_profiles_user_business,priority:2;index"`
	CurrentPointsBalance int64      `gorm:"not null;default:0;check:chk_loyalty_profiles_balance,current_points_balance >= 0"`
	TotalPointsEarned    int64      `gorm:"not null;default:0"`
	PointsRedeemed       int64      `gorm:"not null;default:0"`
	TierLevel            string     `gorm:"type:varchar(20);not null;default:'bronze'"`
	LastVisitDate        time.Time  `gorm:"not null"`
	LastRewardedAt       *time.Time `gorm:"default:null"`
	Version              int64      `gorm:"not null;default:0"`
	CreatedAt            time.Time  `gorm:"not null"`
	UpdatedAt            time.Time  `gorm:"not null"`
}

// TableName explicitly sets the table name for GORM.
func (LoyaltyProfileModel) TableName() string {
	return "loyalty_profiles"
}
