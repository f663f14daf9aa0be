package models

import "time"

// Payment is a checkout session for a point package.
type Payment struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         string     `gorm:"size:64;not null;index" json:"user_id"`
	PackageID      string     `gorm:"size:32;not null" json:"package_id"`
	Points         int64      `gorm:"not null" json:"points"`
	Amount         int64      `gorm:"not null" json:"amount"`
	Currency       string     `gorm:"size:3;default:'jpy'" json:"currency"`
	Provider       string     `gorm:"size:50;not null" json:"provider"`
	ProviderRef    string     `gorm:"size:255;uniqueIndex" json:"provider_ref"`
	Status         string     `gorm:"size:20;not null;index" json:"status"` // PENDING, COMPLETED, EXPIRED
	IdempotencyKey string     `gorm:"size:64;uniqueIndex" json:"-"`
	CheckoutURL    string     `gorm:"size:1024" json:"checkout_url"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
