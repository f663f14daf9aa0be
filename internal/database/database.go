package database

import (
	"strings"

	"fortuna/config"
	"fortuna/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// dialector picks the driver from the DSN: postgres:// (managed Postgres),
// sqlite:/file: (local dev and tests), anything else is treated as MySQL.
func dialector(dsn string) gorm.Dialector {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite:"))
	case strings.HasPrefix(dsn, "file:"):
		return sqlite.Open(dsn)
	default:
		return mysql.Open(dsn)
	}
}

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector(cfg.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error), // Only log errors, not every SQL query
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.Counterparty{},
		&models.MessageLimit{},
		&models.UserPoints{},
		&models.PointTransaction{},
		&models.GeneratedResult{},
		&models.ChatMessage{},
		&models.Payment{},
		&models.WebhookEvent{},
		&models.DailyFortune{},
	)
}

// SeedCounterparties upserts the persona catalog so edits to the file are
// picked up on the next boot.
func SeedCounterparties(db *gorm.DB, list []models.Counterparty) error {
	if len(list) == 0 {
		return nil
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "specialty", "avatar_url", "greeting", "instructions", "sort_order", "is_active", "updated_at"}),
	}).Create(&list).Error
}
