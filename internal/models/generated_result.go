package models

import "time"

// GeneratedResult is AI-generated content offered behind a pay-to-reveal gate.
type GeneratedResult struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	OwnerID        string     `gorm:"size:64;not null;index" json:"owner_id"`
	CounterpartyID string     `gorm:"size:64;not null;index" json:"counterparty_id"`
	Topic          string     `gorm:"size:255" json:"topic"`
	Title          string     `gorm:"size:255" json:"title"`
	Preview        string     `gorm:"type:text" json:"preview"`
	FullText       string     `gorm:"type:text" json:"-"`
	Unlocked       bool       `gorm:"not null;default:false" json:"unlocked"`
	ChargedAmount  int64      `gorm:"not null;default:0" json:"charged_amount"`
	UnlockedAt     *time.Time `json:"unlocked_at"`
	CreatedAt      time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (GeneratedResult) TableName() string {
	return "generated_results"
}
