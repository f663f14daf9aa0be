package models

import "time"

// Counterparty is an AI fortune-teller persona a user chats with.
type Counterparty struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	Name         string    `gorm:"size:64;not null" json:"name"`
	Specialty    string    `gorm:"size:128" json:"specialty"`
	AvatarURL    string    `gorm:"size:512" json:"avatar_url"`
	Greeting     string    `gorm:"type:text" json:"greeting"`
	Instructions string    `gorm:"type:text" json:"-"`
	SortOrder    int       `gorm:"default:0" json:"sort_order"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Counterparty) TableName() string {
	return "counterparties"
}
