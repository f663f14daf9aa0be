package router

import (
	"net/http"
	"time"

	"fortuna/config"
	"fortuna/internal/clock"
	"fortuna/internal/handler"
	"fortuna/internal/llm"
	"fortuna/internal/logger"
	"fortuna/internal/middleware"
	"fortuna/internal/repository"
	"fortuna/internal/service"
	"fortuna/internal/ws"
	"fortuna/pkg/payment"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps are the process-level collaborators built in main.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Logger    *zap.Logger
	Generator llm.Generator
	Payments  payment.Provider
	IDs       *snowflake.Node
	Clock     clock.Clock
	Redis     *redis.Client // optional; shares the request throttle across replicas
	Hub       *ws.Hub       // optional; created when nil
}

// Setup builds the engine. The returned wait func blocks until background
// work started by requests (post-unlock follow-ups) has finished.
func Setup(d Deps) (*gin.Engine, func()) {
	cfg := d.Config
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.SystemClock{Location: cfg.Limits.Location()}
	}
	if d.Hub == nil {
		d.Hub = ws.NewHub()
	}
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(logger.MiddlewareConfig{Logger: log.Named("http"), SkipPaths: []string{"/healthz"}}))

	var throttle middleware.Limiter
	if d.Redis != nil {
		throttle = middleware.NewRedisRateLimiter(d.Redis, cfg.Server.RequestsPerMinute, time.Minute)
	} else {
		throttle = middleware.NewInMemoryRateLimiter(cfg.Server.RequestsPerMinute, time.Minute)
	}
	r.Use(middleware.RateLimit(throttle, log))

	// Repositories
	limitRepo := repository.NewMessageLimitRepository(d.DB)
	pointRepo := repository.NewPointRepository(d.DB, d.IDs)
	resultRepo := repository.NewResultRepository(d.DB)
	chatRepo := repository.NewChatRepository(d.DB)
	profileRepo := repository.NewProfileRepository(d.DB)
	counterpartyRepo := repository.NewCounterpartyRepository(d.DB)
	fortuneRepo := repository.NewFortuneRepository(d.DB)
	paymentRepo := repository.NewPaymentRepository(d.DB)
	webhookRepo := repository.NewWebhookEventRepository(d.DB)

	// Services
	loader := service.NewContextLoader(profileRepo, chatRepo, resultRepo, d.Clock, cfg.Generation.HistoryTurns)
	limitSvc := service.NewLimitService(limitRepo, d.Clock, cfg.Limits.DailyMessages, log)
	chatSvc := service.NewChatService(counterpartyRepo, chatRepo, limitSvc, loader, d.Generator, d.Hub, cfg.Limits.MaxMessageLen, log)
	suggestionSvc := service.NewSuggestionService(counterpartyRepo, chatRepo, loader, d.Generator, d.Hub, cfg.Limits.DailyMessages, cfg.Generation.PacingDelay, log)
	unlockSvc := service.NewUnlockService(d.DB, resultRepo, pointRepo, limitSvc, suggestionSvc, d.Hub, d.Clock, cfg.Points.UnlockCost, cfg.Generation.FollowUpTimeout, log)
	readingSvc := service.NewReadingService(counterpartyRepo, resultRepo, chatRepo, loader, d.Generator, d.Hub, log)
	fortuneSvc := service.NewFortuneService(fortuneRepo, loader, d.Generator, d.Clock, log)
	purchaseSvc := service.NewPurchaseService(d.DB, paymentRepo, webhookRepo, pointRepo, d.Payments, d.Hub, cfg.Payment, log)
	pointSvc := service.NewPointService(pointRepo, cfg.Points.SignupBonus, log)
	profileSvc := service.NewProfileService(profileRepo)

	// Handlers
	chatHandler := handler.NewChatHandler(chatSvc)
	readingHandler := handler.NewReadingHandler(readingSvc, unlockSvc)
	meHandler := handler.NewMeHandler(profileSvc, pointSvc)
	pointsHandler := handler.NewPointsHandler(purchaseSvc)
	fortuneHandler := handler.NewFortuneHandler(fortuneSvc)
	webhookHandler := handler.NewPaymentWebhookHandler(purchaseSvc)
	adminHandler := handler.NewAdminHandler(limitSvc, pointSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		counterparties := api.Group("/counterparties")
		counterparties.Use(authMw)
		{
			counterparties.GET("", chatHandler.ListCounterparties)
			counterparties.GET("/:id/limit", chatHandler.GetLimit)
			counterparties.GET("/:id/messages", chatHandler.GetMessages)
			counterparties.POST("/:id/messages", chatHandler.SendMessage)
			counterparties.POST("/:id/readings", readingHandler.Create)
		}

		results := api.Group("/results")
		results.Use(authMw)
		{
			results.GET("", readingHandler.List)
			results.GET("/:id", readingHandler.Get)
			results.POST("/:id/unlock", readingHandler.Unlock)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("/profile", meHandler.GetProfile)
			me.PUT("/profile", meHandler.UpdateProfile)
			me.GET("/points", meHandler.GetPoints)
			me.GET("/points/transactions", meHandler.GetTransactions)
		}

		api.GET("/points/packages", authMw, pointsHandler.Packages)
		api.POST("/points/checkout", authMw, pointsHandler.Checkout)
		api.GET("/fortune/daily", authMw, fortuneHandler.Daily)

		// Signed by the payment provider; no session.
		api.POST("/webhooks/payment", webhookHandler.Handle)

		admin := api.Group("/admin")
		admin.Use(middleware.AdminRequired(&cfg.JWT, &cfg.Admin))
		{
			admin.POST("/limits/reset", adminHandler.ResetLimit)
			admin.POST("/points/adjust", adminHandler.AdjustPoints)
		}

		api.GET("/ws/chat", ws.UpgradeChatWS(&cfg.JWT, d.Hub, log))
	}

	return r, unlockSvc.Wait
}
