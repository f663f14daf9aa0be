package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"fortuna/config"
	"fortuna/internal/clock"
	"fortuna/internal/llm"
	"fortuna/internal/models"
	"fortuna/internal/repository"
	"fortuna/internal/testutil"
	"fortuna/pkg/payment"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testUnlockCost = 1000

type recordedEvent struct {
	UserID  string
	Event   string
	Payload interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishToUser(userID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{UserID: userID, Event: event, Payload: payload})
}

func (p *recordingPublisher) count(event string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

// scriptedGenerator answers by prompt kind and counts calls per kind.
type scriptedGenerator struct {
	mu      sync.Mutex
	calls   map[string]int
	replies map[string]string
	errs    map[string]error
	prompts []string
}

func newScriptedGenerator() *scriptedGenerator {
	return &scriptedGenerator{
		calls: map[string]int{},
		replies: map[string]string{
			"chat":       "Assistant: The moon favours honest talks this week.",
			"reading":    "[TITLE]\nThe Turning Wheel\n[PREVIEW]\nA change is already in motion.\n[DETAIL]\nSpring brings an offer you should accept.",
			"suggestion": "Would you like to know how this affects your love life?",
			"daily":      "[OVERALL]\nSteady.\n[LOVE]\nWarm.\n[WORK]\nBusy.\n[MONEY]\nCareful.\n[HEALTH]\nRest.\n[LUCKY]\nBlue.\n[ADVICE]\nBreathe.",
		},
		errs: map[string]error{},
	}
}

func promptKind(p string) string {
	switch {
	case strings.Contains(p, "## Reading topic"):
		return "reading"
	case strings.Contains(p, "## Just unlocked"):
		return "suggestion"
	case strings.Contains(p, "Write today's fortune"):
		return "daily"
	default:
		return "chat"
	}
}

func (g *scriptedGenerator) Generate(ctx context.Context, p string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	kind := promptKind(p)
	g.calls[kind]++
	g.prompts = append(g.prompts, p)
	if err := g.errs[kind]; err != nil {
		return "", err
	}
	return g.replies[kind], nil
}

func (g *scriptedGenerator) callCount(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

type testEnv struct {
	db        *gorm.DB
	clock     *clock.Fixed
	gen       *scriptedGenerator
	pub       *recordingPublisher
	limitRepo *repository.MessageLimitRepository
	points    *repository.PointRepository
	results   *repository.ResultRepository
	chats     *repository.ChatRepository
	payments  *repository.PaymentRepository

	limits    *LimitService
	chat      *ChatService
	unlock    *UnlockService
	readings  *ReadingService
	fortune   *FortuneService
	purchases *PurchaseService
	pointSvc  *PointService
	profiles  *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	log := zap.NewNop()
	env := &testEnv{
		db:    db,
		clock: &clock.Fixed{T: time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)},
		gen:   newScriptedGenerator(),
		pub:   &recordingPublisher{},
	}
	env.limitRepo = repository.NewMessageLimitRepository(db)
	env.points = repository.NewPointRepository(db, testutil.NewNode(t))
	env.results = repository.NewResultRepository(db)
	env.chats = repository.NewChatRepository(db)
	env.payments = repository.NewPaymentRepository(db)
	counterparties := repository.NewCounterpartyRepository(db)
	profiles := repository.NewProfileRepository(db)

	require.NoError(t, db.Create(&models.Counterparty{
		ID: "stella", Name: "Stella", Instructions: "You are {{counterparty_name}}.", IsActive: true,
	}).Error)

	var gen llm.Generator = env.gen
	loader := NewContextLoader(profiles, env.chats, env.results, env.clock, 20)
	env.limits = NewLimitService(env.limitRepo, env.clock, 3, log)
	env.chat = NewChatService(counterparties, env.chats, env.limits, loader, gen, env.pub, 1000, log)
	suggestions := NewSuggestionService(counterparties, env.chats, loader, gen, env.pub, 3, 0, log)
	env.unlock = NewUnlockService(db, env.results, env.points, env.limits, suggestions, env.pub, env.clock, testUnlockCost, time.Second, log)
	// Registered after the database so background follow-ups finish before it closes.
	t.Cleanup(env.unlock.Wait)
	env.readings = NewReadingService(counterparties, env.results, env.chats, loader, gen, env.pub, log)
	env.fortune = NewFortuneService(repository.NewFortuneRepository(db), loader, gen, env.clock, log)
	env.pointSvc = NewPointService(env.points, 0, log)
	env.profiles = NewProfileService(profiles)
	env.purchases = NewPurchaseService(db, env.payments, repository.NewWebhookEventRepository(db), env.points,
		payment.NewStubProvider("whsec"), env.pub, config.PaymentConfig{
			SuccessURL: "http://localhost/success",
			Packages:   []config.PointPackage{{ID: "p1000", Name: "1,000 points", Points: 1000, Amount: 980, Currency: "jpy"}},
		}, log)
	return env
}

func (e *testEnv) fund(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := e.points.Apply(context.Background(), nil, repository.LedgerEntry{UserID: userID, Amount: amount, Type: "purchase"})
	require.NoError(t, err)
}

func (e *testEnv) lockedResult(t *testing.T, userID string) *models.GeneratedResult {
	t.Helper()
	res := &models.GeneratedResult{
		ID:             "res-" + userID,
		OwnerID:        userID,
		CounterpartyID: "stella",
		Title:          "Career",
		Preview:        "A door opens...",
		FullText:       "A door opens in spring.",
	}
	require.NoError(t, e.results.Create(context.Background(), res))
	return res
}
