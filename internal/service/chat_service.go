package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"fortuna/internal/domain"
	"fortuna/internal/llm"
	"fortuna/internal/models"
	"fortuna/internal/prompt"
	"fortuna/internal/repository"

	"go.uber.org/zap"
)

// SendResult is returned after an accepted message and its reply.
type SendResult struct {
	UserMessage models.ChatMessage   `json:"user_message"`
	Replies     []models.ChatMessage `json:"replies"`
	Limit       domain.LimitStatus   `json:"limit"`
}

type ChatService struct {
	counterparties *repository.CounterpartyRepository
	chats          *repository.ChatRepository
	limits         *LimitService
	loader         *ContextLoader
	gen            llm.Generator
	pub            Publisher
	maxLen         int
	log            *zap.Logger
}

func NewChatService(
	counterparties *repository.CounterpartyRepository,
	chats *repository.ChatRepository,
	limits *LimitService,
	loader *ContextLoader,
	gen llm.Generator,
	pub Publisher,
	maxLen int,
	log *zap.Logger,
) *ChatService {
	return &ChatService{
		counterparties: counterparties,
		chats:          chats,
		limits:         limits,
		loader:         loader,
		gen:            gen,
		pub:            orNop(pub),
		maxLen:         maxLen,
		log:            log.Named("chat"),
	}
}

// SendMessage validates and rate-limits a user message, generates the
// persona's reply and counts the send against today's quota.
func (s *ChatService) SendMessage(ctx context.Context, userID, counterpartyID, text string) (*SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.Validationf("message is empty")
	}
	if utf8.RuneCountInString(text) > s.maxLen {
		return nil, domain.Validationf("message exceeds %d characters", s.maxLen)
	}

	cp, err := s.counterparties.GetActive(ctx, counterpartyID)
	if err != nil {
		return nil, err
	}

	status, err := s.limits.CheckLimit(ctx, userID, counterpartyID)
	if err != nil {
		return nil, err
	}
	if !status.CanSend {
		return nil, &domain.RateLimitError{Status: status}
	}

	pc, err := s.loader.load(ctx, userID, cp, true)
	if err != nil {
		return nil, err
	}

	userMsg := models.ChatMessage{UserID: userID, CounterpartyID: cp.ID, Role: domain.MessageRoleUser, Content: text}
	if err := s.chats.Create(ctx, &userMsg); err != nil {
		return nil, fmt.Errorf("save message: %w", err)
	}

	raw, err := s.gen.Generate(ctx, prompt.BuildChatPrompt(cp.Instructions, pc, text))
	if err != nil {
		return nil, err
	}
	reply := prompt.Clean(raw)
	if reply == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrUpstream)
	}
	replyMsg := models.ChatMessage{UserID: userID, CounterpartyID: cp.ID, Role: domain.MessageRoleAssistant, Content: reply}
	if err := s.chats.Create(ctx, &replyMsg); err != nil {
		return nil, fmt.Errorf("save reply: %w", err)
	}

	count, err := s.limits.IncrementCount(ctx, userID, cp.ID)
	if err != nil {
		// The reply is already stored; the quota is best-effort from here.
		s.log.Warn("message count not incremented",
			zap.String("user_id", userID), zap.String("counterparty_id", cp.ID), zap.Error(err))
		count = status.CurrentCount + 1
	}

	s.pub.PublishToUser(userID, EventChatMessage, userMsg)
	s.pub.PublishToUser(userID, EventChatMessage, replyMsg)

	return &SendResult{
		UserMessage: userMsg,
		Replies:     []models.ChatMessage{replyMsg},
		Limit:       s.limits.status(count),
	}, nil
}

// History lists a thread oldest first, after the given message id.
func (s *ChatService) History(ctx context.Context, userID, counterpartyID string, afterID uint, limit int) ([]models.ChatMessage, error) {
	if _, err := s.counterparties.GetActive(ctx, counterpartyID); err != nil {
		return nil, err
	}
	return s.chats.Page(ctx, userID, counterpartyID, afterID, limit)
}

func (s *ChatService) Counterparties(ctx context.Context) ([]models.Counterparty, error) {
	return s.counterparties.ListActive(ctx)
}

// Limit reports today's quota for a counterparty.
func (s *ChatService) Limit(ctx context.Context, userID, counterpartyID string) (domain.LimitStatus, error) {
	if _, err := s.counterparties.GetActive(ctx, counterpartyID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.LimitStatus{}, err
		}
		return domain.LimitStatus{}, fmt.Errorf("load counterparty: %w", err)
	}
	return s.limits.CheckLimit(ctx, userID, counterpartyID)
}
