package repository

import (
	"context"
	"errors"
	"time"

	"fortuna/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MessageLimitRepository struct {
	db *gorm.DB
}

func NewMessageLimitRepository(db *gorm.DB) *MessageLimitRepository {
	return &MessageLimitRepository{db: db}
}

// Count returns the sends recorded for the day, zero when no row exists.
func (r *MessageLimitRepository) Count(ctx context.Context, userID, counterpartyID, date string) (int, error) {
	var row models.MessageLimit
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND counterparty_id = ? AND limit_date = ?", userID, counterpartyID, date).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.MessageCount, nil
}

// Increment adds one to the day's counter and returns the value this call
// produced. The upsert and the read share a transaction: the upsert holds the
// row lock until commit, so concurrent callers each observe a distinct count.
func (r *MessageLimitRepository) Increment(ctx context.Context, userID, counterpartyID, date string) (int, error) {
	now := time.Now()
	row := models.MessageLimit{
		UserID:         userID,
		CounterpartyID: counterpartyID,
		LimitDate:      date,
		MessageCount:   1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	var count int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "counterparty_id"}, {Name: "limit_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"message_count": gorm.Expr("message_count + 1"),
				"updated_at":    now,
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}
		var stored models.MessageLimit
		err = tx.Select("message_count").
			Where("user_id = ? AND counterparty_id = ? AND limit_date = ?", userID, counterpartyID, date).
			Take(&stored).Error
		count = stored.MessageCount
		return err
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes the day's counter so the next send counts from one.
func (r *MessageLimitRepository) Delete(ctx context.Context, userID, counterpartyID, date string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND counterparty_id = ? AND limit_date = ?", userID, counterpartyID, date).
		Delete(&models.MessageLimit{}).Error
}
