package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fortuna/config"
	"fortuna/internal/auth"
	"fortuna/internal/clock"
	"fortuna/internal/llm"
	"fortuna/internal/middleware"
	"fortuna/internal/models"
	"fortuna/internal/testutil"
	"fortuna/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

type apiTest struct {
	t      *testing.T
	engine *gin.Engine
	cfg    *config.Config
	db     *gorm.DB
}

func testConfig(t *testing.T) *config.Config {
	hash, err := middleware.HashAdminKey("ops-key")
	require.NoError(t, err)
	return &config.Config{
		Server: config.ServerConfig{Env: "test", RequestsPerMinute: 1000},
		JWT:    config.JWTConfig{AccessSecret: "secret", AccessExpiry: time.Hour, Issuer: "fortuna"},
		Payment: config.PaymentConfig{
			Provider:      "stub",
			WebhookSecret: webhookSecret,
			SuccessURL:    "http://localhost/success",
			Packages:      []config.PointPackage{{ID: "p1000", Name: "1,000 points", Points: 1000, Amount: 980, Currency: "jpy"}},
		},
		Generation: config.GenerationConfig{HistoryTurns: 20},
		Limits:     config.LimitsConfig{DailyMessages: 3, MaxMessageLen: 1000},
		Points:     config.PointsConfig{UnlockCost: 1000},
		Admin:      config.AdminConfig{APIKeyHash: hash},
	}
}

func fakeGenerator() llm.Generator {
	return llm.Func(func(ctx context.Context, p string) (string, error) {
		switch {
		case strings.Contains(p, "## Reading topic"):
			return "[TITLE]\nThe Star\n[PREVIEW]\nHope returns.\n[DETAIL]\nA letter arrives in March.", nil
		case strings.Contains(p, "Write today's fortune"):
			return "[OVERALL]\nCalm.\n[LOVE]\nSweet.\n[WORK]\nFocused.\n[MONEY]\nStable.\n[HEALTH]\nGood.\n[LUCKY]\nGreen.\n[ADVICE]\nSmile.", nil
		default:
			return "The cards are kind today.", nil
		}
	})
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.Counterparty{ID: "stella", Name: "Stella", Instructions: "You are Stella.", IsActive: true}).Error)

	engine, wait := Setup(Deps{
		Config:    cfg,
		DB:        db,
		Generator: fakeGenerator(),
		Payments:  payment.NewStubProvider(webhookSecret),
		IDs:       testutil.NewNode(t),
		Clock:     &clock.Fixed{T: time.Date(2025, 1, 7, 10, 0, 0, 0, time.UTC)},
	})
	t.Cleanup(wait)
	return &apiTest{t: t, engine: engine, cfg: cfg, db: db}
}

func (a *apiTest) token(userID string) string {
	tok, err := auth.GenerateAccessToken(&a.cfg.JWT, userID, "USER")
	require.NoError(a.t, err)
	return tok
}

func (a *apiTest) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+a.token(userID))
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthz(t *testing.T) {
	a := newAPITest(t)
	w := a.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	a := newAPITest(t)
	for _, path := range []string{"/api/v1/counterparties", "/api/v1/me/points", "/api/v1/results"} {
		w := a.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "authentication_required", decode(t, w)["code"])
	}
}

func TestChatQuotaReturns429(t *testing.T) {
	a := newAPITest(t)

	w := a.do(http.MethodGet, "/api/v1/counterparties", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"id":"stella"`)
	assert.NotContains(t, w.Body.String(), "You are Stella")

	for i := 1; i <= 3; i++ {
		w = a.do(http.MethodPost, "/api/v1/counterparties/stella/messages", "u1", gin.H{"content": fmt.Sprintf("question %d", i)})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
	limit := decode(t, w)["limit"].(map[string]interface{})
	assert.Equal(t, false, limit["can_send"])
	assert.EqualValues(t, 0, limit["remaining_count"])

	w = a.do(http.MethodPost, "/api/v1/counterparties/stella/messages", "u1", gin.H{"content": "one more"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	body := decode(t, w)
	assert.Equal(t, "rate_limited", body["code"])
	assert.EqualValues(t, 3, body["limit"].(map[string]interface{})["current_count"])

	// Another persona has its own counter; an unknown one is 404.
	w = a.do(http.MethodGet, "/api/v1/counterparties/stella/limit", "u2", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, decode(t, w)["remaining_count"])
	w = a.do(http.MethodPost, "/api/v1/counterparties/nobody/messages", "u1", gin.H{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodGet, "/api/v1/counterparties/stella/messages", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["messages"], 6)
}

func TestReadingPurchaseAndUnlockFlow(t *testing.T) {
	a := newAPITest(t)

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/v1/counterparties/stella/messages", "u1", gin.H{"content": "hello"}).Code)
	}

	w := a.do(http.MethodPost, "/api/v1/counterparties/stella/readings", "u1", gin.H{"topic": "career"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reading := decode(t, w)
	resultID := reading["id"].(string)
	assert.Equal(t, "The Star", reading["title"])
	assert.Nil(t, reading["full_text"])

	w = a.do(http.MethodPost, "/api/v1/results/"+resultID+"/unlock", "u1", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_points", decode(t, w)["code"])

	// Someone else's result does not exist for this user.
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPost, "/api/v1/results/"+resultID+"/unlock", "u2", nil).Code)

	w = a.do(http.MethodPost, "/api/v1/points/checkout", "u1", gin.H{"package_id": "p1000", "idempotency_key": "k1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ref := decode(t, w)["reference"].(string)

	event, _ := json.Marshal(gin.H{"id": "evt_1", "type": payment.EventCheckoutCompleted, "reference": ref})
	post := func(sig string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment", bytes.NewReader(event))
		req.Header.Set(payment.SignatureHeader, sig)
		rec := httptest.NewRecorder()
		a.engine.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusUnauthorized, post("bad"))
	assert.Equal(t, http.StatusOK, post(payment.Sign(webhookSecret, event)))
	assert.Equal(t, http.StatusOK, post(payment.Sign(webhookSecret, event)))

	w = a.do(http.MethodGet, "/api/v1/me/points", "u1", nil)
	assert.EqualValues(t, 1000, decode(t, w)["balance"])

	w = a.do(http.MethodPost, "/api/v1/results/"+resultID+"/unlock", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	out := decode(t, w)
	assert.Equal(t, "A letter arrives in March.", out["full_text"])
	assert.EqualValues(t, 0, out["new_balance"])

	w = a.do(http.MethodPost, "/api/v1/results/"+resultID+"/unlock", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["already_unlocked"])

	w = a.do(http.MethodGet, "/api/v1/results/"+resultID, "u1", nil)
	assert.Equal(t, "A letter arrives in March.", decode(t, w)["full_text"])

	// The unlock reward reset the chat quota.
	w = a.do(http.MethodGet, "/api/v1/counterparties/stella/limit", "u1", nil)
	assert.EqualValues(t, 3, decode(t, w)["remaining_count"])

	w = a.do(http.MethodGet, "/api/v1/me/points/transactions", "u1", nil)
	assert.EqualValues(t, 2, decode(t, w)["total"])
}

func TestProfileAndDailyFortune(t *testing.T) {
	a := newAPITest(t)

	w := a.do(http.MethodPut, "/api/v1/me/profile", "u1", gin.H{"nickname": "Aoi", "birth_date": "1990-04-12"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = a.do(http.MethodPut, "/api/v1/me/profile", "u1", gin.H{"birth_date": "12/04/1990"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation_failed", decode(t, w)["code"])

	w = a.do(http.MethodGet, "/api/v1/me/profile", "u1", nil)
	assert.Equal(t, "Aoi", decode(t, w)["nickname"])

	w = a.do(http.MethodGet, "/api/v1/fortune/daily", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "2025-01-07", decode(t, w)["date"])
}

func TestAdminRoutes(t *testing.T) {
	a := newAPITest(t)

	w := a.do(http.MethodPost, "/api/v1/admin/points/adjust", "u1", gin.H{"user_id": "u9", "amount": 500})
	assert.Equal(t, http.StatusForbidden, w.Code)

	adjust := func(amount int64) *httptest.ResponseRecorder {
		body, _ := json.Marshal(gin.H{"user_id": "u9", "amount": amount, "reason": "goodwill"})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/points/adjust", bytes.NewReader(body))
		req.Header.Set(middleware.AdminKeyHeader, "ops-key")
		rec := httptest.NewRecorder()
		a.engine.ServeHTTP(rec, req)
		return rec
	}
	w = adjust(500)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.EqualValues(t, 500, decode(t, w)["balance"])

	w = adjust(-800)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "insufficient_points", decode(t, w)["code"])

	body, _ := json.Marshal(gin.H{"user_id": "u9", "counterparty_id": "stella"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/limits/reset", bytes.NewReader(body))
	req.Header.Set(middleware.AdminKeyHeader, "ops-key")
	rec := httptest.NewRecorder()
	a.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
