package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"finai/backend/internal/auth"
	"finai/backend/internal/config"
	"finai/backend/internal/crypto"
	"finai/backend/internal/db"
	"finai/backend/internal/handlers"
	"finai/backend/internal/llm"
	"finai/backend/internal/logger"
	"finai/backend/internal/market"
	"finai/backend/internal/middleware"
	"finai/backend/internal/realtime"
	"finai/backend/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer func() { _ = appLogger.Sync() }()

	if err := cfg.Validate(); err != nil {
		appLogger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	store, err := db.New(connectCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		appLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		appLogger.Fatal("failed to migrate database", zap.Error(err))
	}

	authService, err := auth.NewService(cfg.JWTSecret, 24*time.Hour)
	if err != nil {
		appLogger.Fatal("failed to init auth", zap.Error(err))
	}
	hub := realtime.NewHub()

	llmStore := llm.NewStore(store)
	llmRouter := llm.NewRouter(llm.NewFactory(), cfg.Providers(), appLogger.Named("llm")).WithUsage(llmStore)
	if !llmRouter.Configured() {
		appLogger.Warn("no AI provider keys configured, serving offline answers")
	}

	advisorOpts := []llm.AdvisorOption{llm.WithRetryLimits(cfg.LLMMaxRetries, cfg.LLMBaseDelay, cfg.LLMMaxDelay)}
	var queue *llm.Queue
	if cfg.RedisURL != "" {
		queue, err = llm.NewQueue(cfg.RedisURL)
		if err != nil {
			appLogger.Fatal("invalid REDIS_URL", zap.Error(err))
		}
		defer func() { _ = queue.Client().Close() }()
		if err := queue.Client().Ping(ctx).Err(); err != nil {
			appLogger.Warn("redis unreachable, cache and sentiment queue will retry", zap.Error(err))
		}
		advisorOpts = append(advisorOpts, llm.WithCache(llm.NewResponseCache(queue.Client(), cfg.EducationCacheTTL)))
	} else {
		appLogger.Warn("REDIS_URL not set, discussion sentiment scoring disabled")
	}
	advisor := llm.NewAdvisor(llmRouter, appLogger.Named("advisor"), advisorOpts...)

	var scheduler *llm.WorkerScheduler
	if queue != nil {
		scheduler = llm.NewWorkerScheduler(llm.Worker{
			Queue:    queue,
			Analyzer: advisor,
			Sink:     &llm.DiscussionSentimentStore{DB: store},
			Hub:      hub,
			Logger:   appLogger.Named("sentiment"),
		})
		scheduler.Start(ctx, cfg.SentimentWorkers)
	}

	if llmRouter.Configured() {
		monitor := &llm.HealthMonitor{
			Router:   llmRouter,
			Store:    llmStore,
			Interval: cfg.ProviderHealthInterval,
			Logger:   appLogger.Named("llm-health"),
		}
		go monitor.Run(ctx)
	}

	board := market.NewBoard(uint64(time.Now().UnixNano()))
	ticker := &market.Ticker{Board: board, Hub: hub, Interval: cfg.MarketTickInterval, Logger: appLogger.Named("market")}
	go ticker.Run(ctx)

	api := handlers.NewAPI(store, authService, hub, advisor)
	api.Upgrader = realtime.NewUpgrader(cfg.FrontendOrigin)
	api.Queue = queue
	api.Market = board
	api.LLMStore = llmStore
	if cfg.MasterKey != "" {
		sealer, err := crypto.NewSealer(cfg.MasterKey)
		if err != nil {
			appLogger.Fatal("invalid MASTER_KEY", zap.Error(err))
		}
		api.Sealer = sealer
	} else {
		appLogger.Warn("MASTER_KEY not set, chat messages are stored unencrypted")
	}
	api.Logger = appLogger.Named("api")

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	rt := router.New(api, authService, limiter, cfg.FrontendOrigin, appLogger.Named("http"))
	rt.TrustProxy = cfg.TrustProxy

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      rt.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		appLogger.Info("server listening", zap.String("port", cfg.Port), zap.Int("providers", len(llmRouter.Providers())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	appLogger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("shutdown error", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Stop()
	}
}
