package service

import (
	"context"
	"fmt"
	"time"

	"fortuna/internal/domain"
	"fortuna/internal/llm"
	"fortuna/internal/models"
	"fortuna/internal/prompt"
	"fortuna/internal/repository"

	"go.uber.org/zap"
)

// SuggestionService posts the follow-up messages that reward an unlock.
type SuggestionService struct {
	counterparties *repository.CounterpartyRepository
	chats          *repository.ChatRepository
	loader         *ContextLoader
	gen            llm.Generator
	pub            Publisher
	quota          int
	pacing         time.Duration
	log            *zap.Logger
}

func NewSuggestionService(
	counterparties *repository.CounterpartyRepository,
	chats *repository.ChatRepository,
	loader *ContextLoader,
	gen llm.Generator,
	pub Publisher,
	quota int,
	pacing time.Duration,
	log *zap.Logger,
) *SuggestionService {
	return &SuggestionService{
		counterparties: counterparties,
		chats:          chats,
		loader:         loader,
		gen:            gen,
		pub:            orNop(pub),
		quota:          quota,
		pacing:         pacing,
		log:            log.Named("suggestion"),
	}
}

// FollowUp announces the limit reset, then suggests a next question about
// the reading that was just unlocked. The pause between the two inserts is
// display pacing only.
func (s *SuggestionService) FollowUp(ctx context.Context, userID string, res *models.GeneratedResult) error {
	cp, err := s.counterparties.GetActive(ctx, res.CounterpartyID)
	if err != nil {
		return fmt.Errorf("load counterparty: %w", err)
	}

	notice := models.ChatMessage{
		UserID:         userID,
		CounterpartyID: cp.ID,
		Role:           domain.MessageRoleSystem,
		Content:        fmt.Sprintf("Thanks for unlocking! Your message limit with %s has been reset: you can send %d more messages today.", cp.Name, s.quota),
	}
	if err := s.chats.Create(ctx, &notice); err != nil {
		return fmt.Errorf("save notice: %w", err)
	}
	s.pub.PublishToUser(userID, EventChatMessage, notice)

	if s.pacing > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.pacing):
		}
	}

	pc, err := s.loader.load(ctx, userID, cp, true)
	if err != nil {
		return err
	}
	raw, err := s.gen.Generate(ctx, prompt.BuildSuggestionPrompt(cp.Instructions, pc, res.Title))
	if err != nil {
		return err
	}
	text := prompt.Clean(raw)
	if text == "" {
		return fmt.Errorf("%w: empty suggestion", domain.ErrUpstream)
	}
	msg := models.ChatMessage{
		UserID:         userID,
		CounterpartyID: cp.ID,
		Role:           domain.MessageRoleAssistant,
		Content:        text,
		ResultID:       &res.ID,
	}
	if err := s.chats.Create(ctx, &msg); err != nil {
		return fmt.Errorf("save suggestion: %w", err)
	}
	s.pub.PublishToUser(userID, EventChatMessage, msg)
	return nil
}
