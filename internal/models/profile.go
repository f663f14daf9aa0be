package models

import "time"

// Profile holds the fortune-telling context a user shares about themselves.
type Profile struct {
	UserID     string     `gorm:"primaryKey;size:64" json:"user_id"`
	Nickname   string     `gorm:"size:64" json:"nickname"`
	BirthDate  *time.Time `json:"birth_date"`
	BirthTime  string     `gorm:"size:5" json:"birth_time"` // HH:MM, optional
	BirthPlace string     `gorm:"size:128" json:"birth_place"`
	Gender     string     `gorm:"size:16" json:"gender"`
	Concern    string     `gorm:"type:text" json:"concern"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}
