package models

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserPoints is the spendable balance; it never goes negative.
type UserPoints struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	UserID    string    `gorm:"size:64;uniqueIndex;not null" json:"user_id"`
	Balance   int64     `gorm:"not null;default:0" json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserPoints) TableName() string {
	return "user_points"
}

// PointTransaction is an append-only ledger line; positive = credit, negative = debit.
type PointTransaction struct {
	ID            snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"id"`
	UserID        string       `gorm:"size:64;not null;index" json:"user_id"`
	Amount        int64        `gorm:"not null" json:"amount"`
	Type          string       `gorm:"size:20;not null;index" json:"type"` // purchase, consumption, bonus, adjustment
	Description   string       `gorm:"size:255" json:"description"`
	ReferenceType string       `gorm:"size:32" json:"reference_type,omitempty"`
	ReferenceID   string       `gorm:"size:255;index" json:"reference_id,omitempty"`
	BalanceAfter  int64        `gorm:"not null" json:"balance_after"`
	CreatedAt     time.Time    `gorm:"index" json:"created_at"`
}

func (PointTransaction) TableName() string {
	return "points_transactions"
}
