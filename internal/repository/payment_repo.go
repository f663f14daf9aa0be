package repository

import (
	"context"
	"time"

	"fortuna/internal/domain"
	"fortuna/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) DB() *gorm.DB {
	return r.db
}

func (r *PaymentRepository) Create(ctx context.Context, p *models.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).First(&p, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByProviderRef(ctx context.Context, tx *gorm.DB, ref string) (*models.Payment, error) {
	db := r.db
	if tx != nil {
		db = tx
	}
	var p models.Payment
	err := db.WithContext(ctx).Where("provider_ref = ?", ref).Take(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*models.Payment, error) {
	var p models.Payment
	err := r.db.WithContext(ctx).Where("user_id = ? AND idempotency_key = ?", userID, key).Take(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *PaymentRepository) SetCheckout(ctx context.Context, id uint, providerRef, url string) error {
	return r.db.WithContext(ctx).Model(&models.Payment{}).Where("id = ?", id).
		Updates(map[string]interface{}{"provider_ref": providerRef, "checkout_url": url, "updated_at": time.Now()}).Error
}

// MarkCompleted moves a PENDING payment to COMPLETED. It reports false when
// the payment was already settled.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, tx *gorm.DB, id uint, at time.Time) (bool, error) {
	res := tx.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]interface{}{"status": domain.PaymentStatusCompleted, "completed_at": at, "updated_at": at})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// MarkExpired closes a PENDING payment whose checkout session lapsed.
func (r *PaymentRepository) MarkExpired(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	res := tx.WithContext(ctx).Model(&models.Payment{}).
		Where("id = ? AND status = ?", id, domain.PaymentStatusPending).
		Updates(map[string]interface{}{"status": domain.PaymentStatusExpired, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

type WebhookEventRepository struct {
	db *gorm.DB
}

func NewWebhookEventRepository(db *gorm.DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record inserts the event once. inserted is false for a replay.
func (r *WebhookEventRepository) Record(ctx context.Context, tx *gorm.DB, evt *models.WebhookEvent) (inserted bool, err error) {
	res := tx.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(evt)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WebhookEventRepository) MarkProcessed(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	return tx.WithContext(ctx).Model(&models.WebhookEvent{}).Where("id = ?", id).Update("processed_at", at).Error
}

func (r *WebhookEventRepository) Count(ctx context.Context, provider, eventID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, eventID).Count(&n).Error
	return n, err
}
