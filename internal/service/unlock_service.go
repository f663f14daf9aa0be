package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fortuna/internal/clock"
	"fortuna/internal/domain"
	"fortuna/internal/models"
	"fortuna/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UnlockOutcome is what the caller sees after a (possibly repeated) unlock.
type UnlockOutcome struct {
	ResultID        string `json:"result_id"`
	FullText        string `json:"full_text"`
	ChargedAmount   int64  `json:"charged_amount"`
	NewBalance      int64  `json:"new_balance"`
	AlreadyUnlocked bool   `json:"already_unlocked"`
}

// FollowUper is the best-effort reward fired after a paid unlock.
type FollowUper interface {
	FollowUp(ctx context.Context, userID string, res *models.GeneratedResult) error
}

// UnlockService reveals generated results in exchange for points.
type UnlockService struct {
	db          *gorm.DB
	results     *repository.ResultRepository
	points      *repository.PointRepository
	limits      *LimitService
	suggestions FollowUper
	pub         Publisher
	clock       clock.Clock
	cost        int64
	followUp    time.Duration
	log         *zap.Logger
	background  sync.WaitGroup
}

const (
	limitResetTimeout      = 5 * time.Second
	defaultFollowUpTimeout = 45 * time.Second
)

func NewUnlockService(
	db *gorm.DB,
	results *repository.ResultRepository,
	points *repository.PointRepository,
	limits *LimitService,
	suggestions FollowUper,
	pub Publisher,
	clk clock.Clock,
	cost int64,
	followUpTimeout time.Duration,
	log *zap.Logger,
) *UnlockService {
	if followUpTimeout <= 0 {
		followUpTimeout = defaultFollowUpTimeout
	}
	return &UnlockService{
		db:          db,
		results:     results,
		points:      points,
		limits:      limits,
		suggestions: suggestions,
		pub:         orNop(pub),
		clock:       clk,
		cost:        cost,
		followUp:    followUpTimeout,
		log:         log.Named("unlock"),
	}
}

// Unlock charges the fixed cost once and reveals the full text. Repeat calls
// return the stored text and original charge without debiting again.
//
// The unlock flag is claimed with a compare-and-swap in the same transaction
// as the debit: a concurrent second caller either finds the flag taken and
// reads back, or the whole claim rolls back when the balance is short.
func (s *UnlockService) Unlock(ctx context.Context, userID, resultID string) (*UnlockOutcome, error) {
	res, err := s.results.GetOwned(ctx, nil, resultID, userID)
	if err != nil {
		return nil, err
	}
	if res.Unlocked {
		return s.alreadyUnlocked(ctx, userID, res)
	}

	var (
		claimed    bool
		newBalance int64
		now        = s.clock.Now()
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.results.ClaimUnlock(ctx, tx, res.ID, userID, s.cost, now)
		if err != nil {
			return fmt.Errorf("claim unlock: %w", err)
		}
		if !ok {
			return nil
		}
		claimed = true

		cr, err := s.points.ConsumePoints(ctx, tx, userID, s.cost, domain.ReferenceTypeResult, res.ID, unlockDescription(res))
		if err != nil {
			return fmt.Errorf("consume points: %w", err)
		}
		if !cr.Success {
			if cr.ErrorCode == domain.ConsumeErrInsufficientPoints {
				return domain.ErrInsufficientPoints
			}
			return fmt.Errorf("consume points: %s", cr.ErrorCode)
		}
		newBalance = cr.NewBalance
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !claimed {
		res, err = s.results.GetOwned(ctx, nil, resultID, userID)
		if err != nil {
			return nil, err
		}
		return s.alreadyUnlocked(ctx, userID, res)
	}

	s.log.Info("result unlocked",
		zap.String("user_id", userID), zap.String("result_id", res.ID),
		zap.Int64("charged", s.cost), zap.Int64("balance", newBalance))
	s.pub.PublishToUser(userID, EventBalance, map[string]int64{"balance": newBalance})

	res.Unlocked = true
	res.ChargedAmount = s.cost
	res.UnlockedAt = &now
	s.afterUnlock(ctx, userID, res)

	return &UnlockOutcome{
		ResultID:      res.ID,
		FullText:      res.FullText,
		ChargedAmount: s.cost,
		NewBalance:    newBalance,
	}, nil
}

// afterUnlock runs the reward side effects. The charge has committed, so
// failures are logged and never returned. The limit reset is bounded and
// finishes before the response; the follow-up suggestion runs in the
// background under its own deadline.
func (s *UnlockService) afterUnlock(ctx context.Context, userID string, res *models.GeneratedResult) {
	base := context.WithoutCancel(ctx)

	resetCtx, cancel := context.WithTimeout(base, limitResetTimeout)
	err := s.limits.ResetLimit(resetCtx, userID, res.CounterpartyID)
	cancel()
	if err != nil {
		s.log.Warn("post-unlock limit reset failed", zap.String("user_id", userID), zap.String("result_id", res.ID), zap.Error(err))
	}
	if s.suggestions == nil {
		return
	}

	snapshot := *res
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fctx, cancel := context.WithTimeout(base, s.followUp)
		defer cancel()
		if err := s.suggestions.FollowUp(fctx, userID, &snapshot); err != nil {
			s.log.Warn("post-unlock suggestion failed", zap.String("user_id", userID), zap.String("result_id", snapshot.ID), zap.Error(err))
		}
	}()
}

// Wait blocks until background follow-ups have finished.
func (s *UnlockService) Wait() {
	s.background.Wait()
}

func (s *UnlockService) alreadyUnlocked(ctx context.Context, userID string, res *models.GeneratedResult) (*UnlockOutcome, error) {
	bal, err := s.points.Balance(ctx, nil, userID)
	if err != nil {
		return nil, fmt.Errorf("read balance: %w", err)
	}
	return &UnlockOutcome{
		ResultID:        res.ID,
		FullText:        res.FullText,
		ChargedAmount:   res.ChargedAmount,
		NewBalance:      bal,
		AlreadyUnlocked: true,
	}, nil
}

func unlockDescription(res *models.GeneratedResult) string {
	if res.Title != "" {
		return "Unlock: " + res.Title
	}
	return "Unlock reading"
}
