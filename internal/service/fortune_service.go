package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fortuna/internal/clock"
	"fortuna/internal/domain"
	"fortuna/internal/llm"
	"fortuna/internal/models"
	"fortuna/internal/prompt"
	"fortuna/internal/repository"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const dailyInstructions = "You are a warm, concise astrologer writing a personal daily fortune for {{user_name}} on {{today}}."

type DailyReport struct {
	Date     string        `json:"date"`
	Sections prompt.Report `json:"sections"`
}

// FortuneService produces one daily fortune per user and day.
type FortuneService struct {
	fortunes *repository.FortuneRepository
	loader   *ContextLoader
	gen      llm.Generator
	clock    clock.Clock
	log      *zap.Logger
}

func NewFortuneService(fortunes *repository.FortuneRepository, loader *ContextLoader, gen llm.Generator, clk clock.Clock, log *zap.Logger) *FortuneService {
	return &FortuneService{fortunes: fortunes, loader: loader, gen: gen, clock: clk, log: log.Named("fortune")}
}

// Daily returns today's stored report, generating it on first request.
func (s *FortuneService) Daily(ctx context.Context, userID string) (*DailyReport, error) {
	date := s.clock.Now().Format(domain.DateLayout)

	cached, err := s.fortunes.Get(ctx, userID, date)
	if err == nil {
		return decodeReport(cached)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load daily fortune: %w", err)
	}

	pc, err := s.loader.load(ctx, userID, nil, false)
	if err != nil {
		return nil, err
	}
	raw, err := s.gen.Generate(ctx, prompt.BuildDailyFortunePrompt(dailyInstructions, pc))
	if err != nil {
		return nil, err
	}
	text := prompt.Clean(raw)
	report, err := prompt.ParseReport(text)
	if err != nil {
		s.log.Warn("malformed daily fortune", zap.String("user_id", userID), zap.Int("length", len(text)))
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}

	sections, err := json.Marshal(report)
	if err != nil {
		return nil, err
	}
	saved, err := s.fortunes.Save(ctx, &models.DailyFortune{
		UserID:      userID,
		FortuneDate: date,
		Sections:    datatypes.JSON(sections),
		RawText:     text,
	})
	if err != nil {
		return nil, fmt.Errorf("save daily fortune: %w", err)
	}
	return decodeReport(saved)
}

func decodeReport(f *models.DailyFortune) (*DailyReport, error) {
	out := &DailyReport{Date: f.FortuneDate}
	if err := json.Unmarshal(f.Sections, &out.Sections); err != nil {
		return nil, fmt.Errorf("decode daily fortune: %w", err)
	}
	return out, nil
}
