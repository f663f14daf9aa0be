package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fortuna/config"
	"fortuna/internal/clock"
	"fortuna/internal/database"
	"fortuna/internal/llm"
	"fortuna/internal/logger"
	"fortuna/internal/persona"
	"fortuna/internal/router"
	"fortuna/internal/ws"
	"fortuna/pkg/payment"

	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	personas, err := persona.LoadFile(cfg.Personas.Path)
	if err != nil {
		log.Fatal("personas", zap.String("path", cfg.Personas.Path), zap.Error(err))
	}
	if err := database.SeedCounterparties(db, personas); err != nil {
		log.Fatal("seed personas", zap.Error(err))
	}
	log.Info("personas loaded", zap.Int("count", len(personas)))

	node, err := snowflake.NewNode(cfg.Snowflake.NodeID)
	if err != nil {
		log.Fatal("snowflake", zap.Error(err))
	}

	var provider payment.Provider
	switch cfg.Payment.Provider {
	case "stripe":
		provider = payment.NewStripeProvider(cfg.Payment.SecretKey, cfg.Payment.WebhookSecret)
	default:
		provider = payment.NewStubProvider(cfg.Payment.WebhookSecret)
		if cfg.Server.Env == "production" {
			log.Warn("stub payment provider in production")
		}
	}
	log.Info("payment provider", zap.String("provider", provider.Name()))

	gen := llm.NewRetrier(llm.NewOpenAIGenerator(cfg.Generation), cfg.Generation.MaxRetries, cfg.Generation.RetryDelay, log)
	log.Info("generation client",
		zap.String("model", cfg.Generation.Model),
		zap.String("api_key", logger.MaskAPIKey(cfg.Generation.APIKey)))

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal("redis url", zap.Error(err))
		}
		rdb = redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn("redis unreachable, request throttle fails open", zap.Error(err))
		}
		cancel()
		defer rdb.Close()
	}

	engine, waitBackground := router.Setup(router.Deps{
		Config:    cfg,
		DB:        db,
		Logger:    log,
		Generator: gen,
		Payments:  provider,
		IDs:       node,
		Clock:     clock.SystemClock{Location: cfg.Limits.Location()},
		Redis:     rdb,
		Hub:       ws.NewHub(),
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown", zap.Error(err))
	}
	waitBackground()
	log.Info("server stopped")
}
