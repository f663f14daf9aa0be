package models

import (
	"time"

	"gorm.io/datatypes"
)

// DailyFortune caches one parsed multi-section report per user and day.
type DailyFortune struct {
	ID          uint           `gorm:"primaryKey" json:"-"`
	UserID      string         `gorm:"size:64;not null;uniqueIndex:ux_daily_fortunes_user_date,priority:1" json:"user_id"`
	FortuneDate string         `gorm:"size:10;not null;uniqueIndex:ux_daily_fortunes_user_date,priority:2" json:"date"`
	Sections    datatypes.JSON `json:"sections"`
	RawText     string         `gorm:"type:text" json:"-"`
	CreatedAt   time.Time      `json:"created_at"`
}

func (DailyFortune) TableName() string {
	return "daily_fortunes"
}
