package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PointTransactionModel is the GORM-specific struct for the append-only 'point_transactions' table.
type PointTransactionModel struct {
	ID               uuid.UUID  `gorm:"type:uuid;primary_key"`
	LoyaltyProfileID uuid.UUID  `gorm:"type:uuid;not null;index:idx_point_transactions_profile_created,priority:1"`
	TransactionType  string     `gorm:"type:varchar(20);not null"`
	PointsAmount     int64      `gorm:"not null"`
	Reason           string     `gorm:"type:varchar(255);not null"`
	ReferenceID      *uuid.UUID `gorm:"type:uuid"`
	Metadata         datatypes.JSONMap
	CreatedAt        time.Time `gorm:"index:idx_point_transactions_profile_created,priority:2"`
}

// TableName explicitly sets the table name for GORM.
func (PointTransactionModel) TableName() string {
	return "point_transactions"
}
