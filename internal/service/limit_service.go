package service

import (
	"context"
	"fmt"

	"fortuna/internal/clock"
	"fortuna/internal/domain"
	"fortuna/internal/repository"

	"go.uber.org/zap"
)

// LimitService caps sends per (user, counterparty, calendar day).
type LimitService struct {
	repo  *repository.MessageLimitRepository
	clock clock.Clock
	quota int
	log   *zap.Logger
}

func NewLimitService(repo *repository.MessageLimitRepository, clk clock.Clock, quota int, log *zap.Logger) *LimitService {
	return &LimitService{repo: repo, clock: clk, quota: quota, log: log.Named("limits")}
}

func (s *LimitService) Quota() int { return s.quota }

func (s *LimitService) today() string {
	return s.clock.Now().Format(domain.DateLayout)
}

// CheckLimit reports whether another message may be sent today. A failed
// read denies the send and returns the error alongside the blocked status.
func (s *LimitService) CheckLimit(ctx context.Context, userID, counterpartyID string) (domain.LimitStatus, error) {
	count, err := s.repo.Count(ctx, userID, counterpartyID, s.today())
	if err != nil {
		s.log.Error("limit check failed, denying send",
			zap.String("user_id", userID), zap.String("counterparty_id", counterpartyID), zap.Error(err))
		return domain.LimitStatus{
			CanSend:    false,
			DailyLimit: s.quota,
			Message:    "We could not verify your message limit. Please try again shortly.",
		}, fmt.Errorf("check message limit: %w", err)
	}
	return s.status(count), nil
}

// IncrementCount records one accepted send and returns the new count.
func (s *LimitService) IncrementCount(ctx context.Context, userID, counterpartyID string) (int, error) {
	n, err := s.repo.Increment(ctx, userID, counterpartyID, s.today())
	if err != nil {
		return 0, fmt.Errorf("increment message count: %w", err)
	}
	return n, nil
}

// ResetLimit clears today's counter so the next send counts as the first.
func (s *LimitService) ResetLimit(ctx context.Context, userID, counterpartyID string) error {
	if err := s.repo.Delete(ctx, userID, counterpartyID, s.today()); err != nil {
		return fmt.Errorf("reset message limit: %w", err)
	}
	s.log.Info("message limit reset", zap.String("user_id", userID), zap.String("counterparty_id", counterpartyID))
	return nil
}

func (s *LimitService) status(count int) domain.LimitStatus {
	st := domain.LimitStatus{
		CanSend:        count < s.quota,
		RemainingCount: s.quota - count,
		CurrentCount:   count,
		DailyLimit:     s.quota,
	}
	if st.RemainingCount < 0 {
		st.RemainingCount = 0
	}
	if !st.CanSend {
		st.Message = fmt.Sprintf("You have sent all %d messages for today. Unlock a reading to reset your limit, or come back tomorrow.", s.quota)
	}
	return st
}
