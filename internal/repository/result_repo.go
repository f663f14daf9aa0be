package repository

import (
	"context"
	"time"

	"fortuna/internal/models"

	"gorm.io/gorm"
)

type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Create(ctx context.Context, res *models.GeneratedResult) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// GetOwned loads a result only if ownerID owns it. Results belonging to
// someone else are reported as not found.
func (r *ResultRepository) GetOwned(ctx context.Context, tx *gorm.DB, id, ownerID string) (*models.GeneratedResult, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var res models.GeneratedResult
	err := db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Take(&res).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &res, nil
}

// ClaimUnlock flips the unlock flag from false to true. It reports false
// when another request already flipped it.
func (r *ResultRepository) ClaimUnlock(ctx context.Context, tx *gorm.DB, id, ownerID string, charged int64, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).Model(&models.GeneratedResult{}).
		Where("id = ? AND owner_id = ? AND unlocked = ?", id, ownerID, false).
		Updates(map[string]interface{}{
			"unlocked":       true,
			"charged_amount": charged,
			"unlocked_at":    at,
			"updated_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ResultRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]models.GeneratedResult, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.GeneratedResult{}).Where("owner_id = ?", ownerID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.GeneratedResult
	err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListUnlocked returns the owner's most recently unlocked results with a counterparty.
func (r *ResultRepository) ListUnlocked(ctx context.Context, ownerID, counterpartyID string, limit int) ([]models.GeneratedResult, error) {
	var list []models.GeneratedResult
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND counterparty_id = ? AND unlocked = ?", ownerID, counterpartyID, true).
		Order("unlocked_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
