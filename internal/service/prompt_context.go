package service

import (
	"context"
	"errors"
	"fmt"

	"fortuna/internal/clock"
	"fortuna/internal/domain"
	"fortuna/internal/models"
	"fortuna/internal/prompt"
	"fortuna/internal/repository"
)

const unlockedContextLimit = 3

// ContextLoader gathers what the prompt builders need about a user.
type ContextLoader struct {
	profiles     *repository.ProfileRepository
	chats        *repository.ChatRepository
	results      *repository.ResultRepository
	clock        clock.Clock
	historyTurns int
}

func NewContextLoader(
	profiles *repository.ProfileRepository,
	chats *repository.ChatRepository,
	results *repository.ResultRepository,
	clk clock.Clock,
	historyTurns int,
) *ContextLoader {
	return &ContextLoader{profiles: profiles, chats: chats, results: results, clock: clk, historyTurns: historyTurns}
}

func (l *ContextLoader) load(ctx context.Context, userID string, cp *models.Counterparty, withHistory bool) (prompt.Context, error) {
	pc := prompt.Context{Now: l.clock.Now()}
	if cp != nil {
		pc.CounterpartyName = cp.Name
	}

	p, err := l.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		pc.Profile = prompt.Profile{
			Nickname:   p.Nickname,
			BirthDate:  p.BirthDate,
			BirthTime:  p.BirthTime,
			BirthPlace: p.BirthPlace,
			Gender:     p.Gender,
			Concern:    p.Concern,
		}
	case !errors.Is(err, domain.ErrNotFound):
		return pc, fmt.Errorf("load profile: %w", err)
	}

	if cp == nil {
		return pc, nil
	}
	if withHistory {
		msgs, err := l.chats.Recent(ctx, userID, cp.ID, l.historyTurns)
		if err != nil {
			return pc, fmt.Errorf("load history: %w", err)
		}
		turns := make([]prompt.Turn, 0, len(msgs))
		for _, m := range msgs {
			turns = append(turns, prompt.Turn{Role: m.Role, Content: m.Content})
		}
		pc.History = prompt.TruncateHistory(turns, l.historyTurns)
	}

	unlocked, err := l.results.ListUnlocked(ctx, userID, cp.ID, unlockedContextLimit)
	if err != nil {
		return pc, fmt.Errorf("load unlocked results: %w", err)
	}
	for _, r := range unlocked {
		pc.Unlocked = append(pc.Unlocked, prompt.UnlockedResult{Title: r.Title, Text: r.FullText})
	}
	return pc, nil
}
