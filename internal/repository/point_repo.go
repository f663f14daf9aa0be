package repository

import (
	"context"
	"errors"
	"time"

	"fortuna/internal/domain"
	"fortuna/internal/models"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ConsumeResult reports a debit attempt. A failed attempt carries the
// unchanged balance and one of the domain.ConsumeErr* codes.
type ConsumeResult struct {
	Success    bool   `json:"success"`
	NewBalance int64  `json:"new_balance"`
	ErrorCode  string `json:"error_code,omitempty"`
}

// LedgerEntry describes one balance movement and the ledger line it writes.
type LedgerEntry struct {
	UserID        string
	Amount        int64 // signed: positive credits, negative debits
	Type          string
	ReferenceType string
	ReferenceID   string
	Description   string
}

type PointRepository struct {
	db  *gorm.DB
	ids *snowflake.Node
}

func NewPointRepository(db *gorm.DB, ids *snowflake.Node) *PointRepository {
	return &PointRepository{db: db, ids: ids}
}

// DB exposes the handle services open transactions on.
func (r *PointRepository) DB() *gorm.DB {
	return r.db
}

func (r *PointRepository) conn(ctx context.Context, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return r.db.WithContext(ctx)
}

// EnsureAccount creates the balance row on first sight and grants the
// signup bonus exactly once. created is true only for the call that made the row.
func (r *PointRepository) EnsureAccount(ctx context.Context, userID string, bonus int64) (created bool, err error) {
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
			Create(&models.UserPoints{UserID: userID})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected == 1
		if !created || bonus <= 0 {
			return nil
		}
		_, err := r.apply(ctx, tx, LedgerEntry{
			UserID:        userID,
			Amount:        bonus,
			Type:          domain.PointTxTypeBonus,
			ReferenceType: domain.ReferenceTypeSignup,
			ReferenceID:   userID,
			Description:   "Signup bonus",
		})
		return err
	})
	return created, err
}

// Balance returns the current balance; users without an account have zero.
func (r *PointRepository) Balance(ctx context.Context, tx *gorm.DB, userID string) (int64, error) {
	var row models.UserPoints
	err := r.conn(ctx, tx).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Balance, nil
}

// ConsumePoints debits amount if and only if the balance covers it. The
// check and the debit are one conditional UPDATE, so concurrent consumers
// can never drive the balance negative. tx may be nil to run standalone.
func (r *PointRepository) ConsumePoints(ctx context.Context, tx *gorm.DB, userID string, amount int64, refType, refID, description string) (ConsumeResult, error) {
	if amount <= 0 {
		bal, err := r.Balance(ctx, tx, userID)
		return ConsumeResult{NewBalance: bal, ErrorCode: domain.ConsumeErrInvalidAmount}, err
	}
	bal, err := r.Apply(ctx, tx, LedgerEntry{
		UserID:        userID,
		Amount:        -amount,
		Type:          domain.PointTxTypeConsumption,
		ReferenceType: refType,
		ReferenceID:   refID,
		Description:   description,
	})
	if errors.Is(err, domain.ErrInsufficientPoints) {
		cur, berr := r.Balance(ctx, tx, userID)
		return ConsumeResult{NewBalance: cur, ErrorCode: domain.ConsumeErrInsufficientPoints}, berr
	}
	if err != nil {
		return ConsumeResult{}, err
	}
	return ConsumeResult{Success: true, NewBalance: bal}, nil
}

// Apply moves the balance by entry.Amount and appends the ledger line.
// Negative amounts fail with domain.ErrInsufficientPoints rather than
// overdrawing.
func (r *PointRepository) Apply(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (int64, error) {
	if entry.Amount == 0 {
		return 0, domain.Validationf("amount must be non-zero")
	}
	if tx != nil {
		return r.apply(ctx, tx, entry)
	}
	var bal int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		bal, err = r.apply(ctx, tx, entry)
		return err
	})
	return bal, err
}

func (r *PointRepository) apply(ctx context.Context, tx *gorm.DB, entry LedgerEntry) (int64, error) {
	db := r.conn(ctx, tx)
	now := time.Now()

	if entry.Amount > 0 {
		err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
			Create(&models.UserPoints{UserID: entry.UserID}).Error
		if err != nil {
			return 0, err
		}
	}

	q := db.Model(&models.UserPoints{}).Where("user_id = ?", entry.UserID)
	if entry.Amount < 0 {
		q = q.Where("balance >= ?", -entry.Amount)
	}
	res := q.Updates(map[string]interface{}{
		"balance":    gorm.Expr("balance + ?", entry.Amount),
		"updated_at": now,
	})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, domain.ErrInsufficientPoints
	}

	bal, err := r.Balance(ctx, tx, entry.UserID)
	if err != nil {
		return 0, err
	}
	line := models.PointTransaction{
		ID:            r.ids.Generate(),
		UserID:        entry.UserID,
		Amount:        entry.Amount,
		Type:          entry.Type,
		Description:   entry.Description,
		ReferenceType: entry.ReferenceType,
		ReferenceID:   entry.ReferenceID,
		BalanceAfter:  bal,
		CreatedAt:     now,
	}
	if err := db.Create(&line).Error; err != nil {
		return 0, err
	}
	return bal, nil
}

// ListTransactions pages through a user's ledger, newest first.
func (r *PointRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]models.PointTransaction, int64, error) {
	var total int64
	q := r.db.WithContext(ctx).Model(&models.PointTransaction{}).Where("user_id = ?", userID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []models.PointTransaction
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// CountByReference counts ledger lines pointing at one referenced entity.
func (r *PointRepository) CountByReference(ctx context.Context, refType, refID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.PointTransaction{}).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Count(&n).Error
	return n, err
}
