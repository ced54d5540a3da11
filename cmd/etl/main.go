package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"adjacent/internal/blob"
	"adjacent/internal/config"
	"adjacent/internal/consumer"
	cronrunner "adjacent/internal/cron"
	"adjacent/internal/dispatch"
	"adjacent/internal/embed"
	"adjacent/internal/extract"
	"adjacent/internal/handler"
	"adjacent/internal/logger"
	"adjacent/internal/queue"
	"adjacent/internal/source"
	"adjacent/internal/source/kalshi"
	"adjacent/internal/source/polymarket"
	"adjacent/internal/store"
)

func main() {
	cfgPath := os.Getenv("ADJ_CONFIG")
	if cfgPath == "" {
		cfgPath = "config/config.yaml"
	}

	envOnly := false
	if envOnlyRaw := os.Getenv("ADJ_ENV_ONLY"); envOnlyRaw != "" {
		envOnly = strings.EqualFold(envOnlyRaw, "true") || envOnlyRaw == "1"
	}

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	logger, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Queue.Addr,
		Password: cfg.Queue.Password,
		DB:       cfg.Queue.DB,
	})
	defer rdb.Close()

	var auditSink source.AuditSink
	if cfg.Audit.Enabled && cfg.Audit.BaseURL != "" {
		auditHTTP := &http.Client{Timeout: cfg.Audit.Timeout}
		auditSink = blob.NewClient(auditHTTP, cfg.Audit.BaseURL, cfg.Audit.Bucket, cfg.Audit.APIKey)
	}

	var adapters []source.Adapter
	if cfg.Kalshi.Enabled {
		kalshiHTTP := &http.Client{Timeout: cfg.Kalshi.Timeout}
		kalshiClient := kalshi.NewClient(kalshiHTTP, cfg.Kalshi.BaseURL, cfg.Kalshi.Email, cfg.Kalshi.Password)
		adapters = append(adapters, kalshi.NewAdapter(kalshiClient, auditSink, cfg.Kalshi.PageLimit, logger))
	}
	if cfg.Polymarket.Enabled {
		polyHTTP := &http.Client{Timeout: cfg.Polymarket.Timeout}
		polyClient := polymarket.NewClient(polyHTTP, cfg.Polymarket.BaseURL)
		adapters = append(adapters, polymarket.NewAdapter(polyClient, auditSink, logger))
	}

	orchestrator := &extract.Orchestrator{Adapters: adapters, Logger: logger}
	dispatcher := &dispatch.Dispatcher{
		Publisher: queue.NewPublisher(rdb, cfg.Queue.Stream),
		BatchSize: cfg.Dispatch.BatchSize,
		Logger:    logger,
	}

	tick := func(ctx context.Context) (int, int) {
		markets := orchestrator.RunTick(ctx)
		batches := dispatcher.Dispatch(ctx, markets)
		return len(markets), batches
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	healthHandler := &handler.HealthHandler{Redis: rdb}
	healthHandler.Register(engine)
	runHandler := &handler.RunHandler{Ticker: handler.TickFunc(tick), Logger: logger}
	runHandler.Register(engine)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Consumer.Enabled {
		storeHTTP := &http.Client{Timeout: cfg.Store.Timeout}
		embedHTTP := &http.Client{Timeout: cfg.Embed.Timeout}
		upserter := &consumer.Upserter{
			Store:    store.NewClient(storeHTTP, cfg.Store.BaseURL, cfg.Store.APIKey, cfg.Store.Table),
			Embedder: embed.NewClient(embedHTTP, cfg.Embed.URL, cfg.Embed.APIKey),
			Logger:   logger,
		}
		queueConsumer := queue.NewConsumer(rdb, queue.ConsumerOptions{
			Stream:  cfg.Queue.Stream,
			Group:   cfg.Queue.Group,
			Name:    cfg.Queue.Consumer,
			Block:   cfg.Queue.Block,
			MinIdle: cfg.Queue.MinIdle,
			Workers: cfg.Consumer.Workers,
		}, upserter.HandleBatch, logger)
		go func() {
			if err := queueConsumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("queue consumer stopped", zap.Error(err))
			}
		}()
	}

	cronRunner := cronrunner.New(logger, ctx)
	if cfg.Cron.Enabled {
		_, err := cronRunner.Add(cfg.Cron.Extract, func(ctx context.Context) {
			markets, batches := tick(ctx)
			logger.Info("cron extraction tick ok",
				zap.Int("markets", markets),
				zap.Int("batches", batches))
		})
		if err != nil {
			logger.Warn("cron register extraction failed", zap.Error(err))
		}
	}
	cronRunner.Start()
	defer cronRunner.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}
