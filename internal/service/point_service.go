package service

import (
	"context"
	"strings"

	"fortuna/internal/domain"
	"fortuna/internal/models"
	"fortuna/internal/repository"

	"go.uber.org/zap"
)

// PointService is the user-facing side of the ledger.
type PointService struct {
	points      *repository.PointRepository
	signupBonus int64
	log         *zap.Logger
}

func NewPointService(points *repository.PointRepository, signupBonus int64, log *zap.Logger) *PointService {
	return &PointService{points: points, signupBonus: signupBonus, log: log.Named("points")}
}

// Balance opens the account on first sight, granting the signup bonus once.
func (s *PointService) Balance(ctx context.Context, userID string) (int64, error) {
	created, err := s.points.EnsureAccount(ctx, userID, s.signupBonus)
	if err != nil {
		return 0, err
	}
	if created && s.signupBonus > 0 {
		s.log.Info("signup bonus granted", zap.String("user_id", userID), zap.Int64("points", s.signupBonus))
	}
	return s.points.Balance(ctx, nil, userID)
}

func (s *PointService) Transactions(ctx context.Context, userID string, limit, offset int) ([]models.PointTransaction, int64, error) {
	return s.points.ListTransactions(ctx, userID, limit, offset)
}

// Adjust applies an operator correction. Negative amounts never overdraw.
func (s *PointService) Adjust(ctx context.Context, userID string, amount int64, reason, operator string) (int64, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, domain.Validationf("user_id is required")
	}
	if amount == 0 {
		return 0, domain.Validationf("amount must be non-zero")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "Manual adjustment"
	}
	bal, err := s.points.Apply(ctx, nil, repository.LedgerEntry{
		UserID:        userID,
		Amount:        amount,
		Type:          domain.PointTxTypeAdjustment,
		ReferenceType: domain.ReferenceTypeOperator,
		ReferenceID:   operator,
		Description:   reason,
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("points adjusted",
		zap.String("user_id", userID), zap.Int64("amount", amount), zap.String("operator", operator), zap.Int64("balance", bal))
	return bal, nil
}
