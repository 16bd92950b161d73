package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/cotacao/internal/app"
	"github.com/odyssey-erp/cotacao/internal/observability"
	"github.com/odyssey-erp/cotacao/internal/platform/cache"
	"github.com/odyssey-erp/cotacao/internal/platform/db"
	"github.com/odyssey-erp/cotacao/internal/pricing"
	"github.com/odyssey-erp/cotacao/internal/quotation"
	"github.com/odyssey-erp/cotacao/internal/shared"
	"github.com/odyssey-erp/cotacao/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg).With(slog.String("component", "worker"))

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	// No queue: a warmup must not schedule another warmup.
	service := quotation.NewService(quotation.NewRepository(pool), quotation.ServiceDeps{
		Cache:   quotation.NewCache(redisClient, cfg.ComparisonCacheTTL, metrics),
		Metrics: metrics,
		Logger:  logger,
		Options: pricing.Options{Match: cfg.MatchMode()},
	})

	warmupJob := &jobs.ComparisonWarmupJob{
		Warmer:  service,
		Logger:  logger,
		Metrics: metrics,
		IsNotFound: func(err error) bool {
			return errors.Is(err, quotation.ErrNotFound)
		},
	}
	cleanupJob := &jobs.IdempotencyCleanupJob{
		Store:   shared.NewIdempotencyStore(pool),
		Logger:  logger,
		Metrics: metrics,
	}

	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskComparisonWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "30 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.Int("concurrency", cfg.WorkerConcurrency))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
