package repository

import (
	"context"

	"fortuna/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var p models.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "birth_date", "birth_time", "birth_place", "gender", "concern", "updated_at"}),
	}).Create(p).Error
}

type CounterpartyRepository struct {
	db *gorm.DB
}

func NewCounterpartyRepository(db *gorm.DB) *CounterpartyRepository {
	return &CounterpartyRepository{db: db}
}

func (r *CounterpartyRepository) ListActive(ctx context.Context) ([]models.Counterparty, error) {
	var list []models.Counterparty
	err := r.db.WithContext(ctx).Where("is_active = ?", true).Order("sort_order ASC").Order("id ASC").Find(&list).Error
	return list, err
}

func (r *CounterpartyRepository) GetActive(ctx context.Context, id string) (*models.Counterparty, error) {
	var c models.Counterparty
	if err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).Take(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

type FortuneRepository struct {
	db *gorm.DB
}

func NewFortuneRepository(db *gorm.DB) *FortuneRepository {
	return &FortuneRepository{db: db}
}

func (r *FortuneRepository) Get(ctx context.Context, userID, date string) (*models.DailyFortune, error) {
	var f models.DailyFortune
	if err := r.db.WithContext(ctx).Where("user_id = ? AND fortune_date = ?", userID, date).Take(&f).Error; err != nil {
		return nil, notFound(err)
	}
	return &f, nil
}

// Save stores the day's report; when a concurrent request stored one first,
// that report wins and is returned.
func (r *FortuneRepository) Save(ctx context.Context, f *models.DailyFortune) (*models.DailyFortune, error) {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "fortune_date"}},
		DoNothing: true,
	}).Create(f).Error
	if err != nil {
		return nil, err
	}
	return r.Get(ctx, f.UserID, f.FortuneDate)
}
