package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"fortuna/internal/domain"
	"fortuna/internal/llm"
	"fortuna/internal/models"
	"fortuna/internal/prompt"
	"fortuna/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxTopicLen  = 200
	previewRunes = 120
)

// ResultView exposes the full text only once the result is unlocked.
type ResultView struct {
	*models.GeneratedResult
	FullText string `json:"full_text,omitempty"`
}

func NewResultView(r *models.GeneratedResult) ResultView {
	v := ResultView{GeneratedResult: r}
	if r.Unlocked {
		v.FullText = r.FullText
	}
	return v
}

// ReadingService generates gated readings.
type ReadingService struct {
	counterparties *repository.CounterpartyRepository
	results        *repository.ResultRepository
	chats          *repository.ChatRepository
	loader         *ContextLoader
	gen            llm.Generator
	pub            Publisher
	log            *zap.Logger
}

func NewReadingService(
	counterparties *repository.CounterpartyRepository,
	results *repository.ResultRepository,
	chats *repository.ChatRepository,
	loader *ContextLoader,
	gen llm.Generator,
	pub Publisher,
	log *zap.Logger,
) *ReadingService {
	return &ReadingService{
		counterparties: counterparties,
		results:        results,
		chats:          chats,
		loader:         loader,
		gen:            gen,
		pub:            orNop(pub),
		log:            log.Named("reading"),
	}
}

// CreateReading generates a locked result and posts its teaser into the chat.
func (s *ReadingService) CreateReading(ctx context.Context, userID, counterpartyID, topic string) (ResultView, error) {
	topic = strings.TrimSpace(topic)
	if utf8.RuneCountInString(topic) > maxTopicLen {
		return ResultView{}, domain.Validationf("topic exceeds %d characters", maxTopicLen)
	}
	cp, err := s.counterparties.GetActive(ctx, counterpartyID)
	if err != nil {
		return ResultView{}, err
	}
	pc, err := s.loader.load(ctx, userID, cp, true)
	if err != nil {
		return ResultView{}, err
	}

	raw, err := s.gen.Generate(ctx, prompt.BuildReadingPrompt(cp.Instructions, pc, topic))
	if err != nil {
		return ResultView{}, err
	}
	text := prompt.Clean(raw)
	if text == "" {
		return ResultView{}, fmt.Errorf("%w: empty reading", domain.ErrUpstream)
	}
	reading := prompt.ParseReading(text, previewRunes)

	res := &models.GeneratedResult{
		ID:             uuid.NewString(),
		OwnerID:        userID,
		CounterpartyID: cp.ID,
		Topic:          topic,
		Title:          reading.Title,
		Preview:        reading.Preview,
		FullText:       reading.Detail,
	}
	if err := s.results.Create(ctx, res); err != nil {
		return ResultView{}, fmt.Errorf("save result: %w", err)
	}

	teaser := models.ChatMessage{
		UserID:         userID,
		CounterpartyID: cp.ID,
		Role:           domain.MessageRoleAssistant,
		Content:        strings.TrimSpace(res.Title + "\n" + res.Preview),
		ResultID:       &res.ID,
	}
	if err := s.chats.Create(ctx, &teaser); err != nil {
		// The result itself is saved and listed under /results.
		s.log.Warn("teaser message not saved", zap.String("result_id", res.ID), zap.Error(err))
	} else {
		s.pub.PublishToUser(userID, EventChatMessage, teaser)
	}
	return NewResultView(res), nil
}

func (s *ReadingService) GetResult(ctx context.Context, userID, resultID string) (ResultView, error) {
	res, err := s.results.GetOwned(ctx, nil, resultID, userID)
	if err != nil {
		return ResultView{}, err
	}
	return NewResultView(res), nil
}

func (s *ReadingService) ListResults(ctx context.Context, userID string, limit, offset int) ([]ResultView, int64, error) {
	list, total, err := s.results.ListByOwner(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views := make([]ResultView, len(list))
	for i := range list {
		views[i] = NewResultView(&list[i])
	}
	return views, total, nil
}
