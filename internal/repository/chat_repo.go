package repository

import (
	"context"

	"fortuna/internal/models"

	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(ctx context.Context, m *models.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Recent returns the newest limit messages of a thread in chronological order.
func (r *ChatRepository) Recent(ctx context.Context, userID, counterpartyID string, limit int) ([]models.ChatMessage, error) {
	var list []models.ChatMessage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND counterparty_id = ?", userID, counterpartyID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

// Page lists a thread oldest first, starting after afterID.
func (r *ChatRepository) Page(ctx context.Context, userID, counterpartyID string, afterID uint, limit int) ([]models.ChatMessage, error) {
	var list []models.ChatMessage
	q := r.db.WithContext(ctx).Where("user_id = ? AND counterparty_id = ?", userID, counterpartyID)
	if afterID > 0 {
		q = q.Where("id > ?", afterID)
	}
	err := q.Order("id ASC").Limit(limit).Find(&list).Error
	return list, err
}
