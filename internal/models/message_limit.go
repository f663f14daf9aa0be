package models

import "time"

// MessageLimit counts accepted sends for one (user, counterparty, day).
// The row is deleted on reset rather than decremented.
type MessageLimit struct {
	ID             uint      `gorm:"primaryKey" json:"-"`
	UserID         string    `gorm:"size:64;not null;uniqueIndex:ux_message_limits_user_cp_date,priority:1" json:"user_id"`
	CounterpartyID string    `gorm:"size:64;not null;uniqueIndex:ux_message_limits_user_cp_date,priority:2" json:"counterparty_id"`
	LimitDate      string    `gorm:"size:10;not null;uniqueIndex:ux_message_limits_user_cp_date,priority:3" json:"date"`
	MessageCount   int       `gorm:"not null;default:0" json:"count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (MessageLimit) TableName() string {
	return "message_limits"
}
