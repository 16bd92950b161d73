package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/cotacao/cmd/cotacao/cli"
	"github.com/odyssey-erp/cotacao/internal/app"
	"github.com/odyssey-erp/cotacao/internal/observability"
	"github.com/odyssey-erp/cotacao/internal/platform/cache"
	"github.com/odyssey-erp/cotacao/internal/platform/db"
	"github.com/odyssey-erp/cotacao/internal/pricing"
	"github.com/odyssey-erp/cotacao/internal/quotation"
	quotationhttp "github.com/odyssey-erp/cotacao/internal/quotation/http"
	"github.com/odyssey-erp/cotacao/internal/shared"
	"github.com/odyssey-erp/cotacao/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	if len(os.Args) > 1 {
		if err := runCommand(ctx, cfg, logger, os.Args[1:]); err != nil {
			logger.Error("command failed", slog.String("command", os.Args[1]), slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	if err := serve(ctx, stop, cfg, logger); err != nil {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	switch args[0] {
	case "migrate":
		pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		return db.Migrate(pool)
	case "jobs":
		return runJobs(ctx, cfg, logger, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runJobs(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) error {
	jobsCLI := cli.NewJobsCLI(cfg.RedisAddr)
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs cli close", slog.Any("error", err))
		}
	}()
	if len(args) == 0 || args[0] == "stats" {
		stats, err := jobsCLI.InspectQueue()
		if err != nil {
			return err
		}
		logger.Info("queue stats",
			slog.String("queue", stats.Queue),
			slog.Int("pending", stats.Pending),
			slog.Int("active", stats.Active),
			slog.Int("scheduled", stats.Scheduled),
			slog.Int("retry", stats.Retry))
		return nil
	}
	if args[0] != "trigger" || len(args) < 2 {
		return errors.New("usage: jobs [stats | trigger <warmup|cleanup> [arg]]")
	}
	arg := ""
	if len(args) > 2 {
		arg = args[2]
	}
	info, err := jobsCLI.Trigger(ctx, args[1], arg)
	if err != nil {
		return err
	}
	logger.Info("job enqueued", slog.String("id", info.ID), slog.String("type", info.Type))
	return nil
}

func serve(ctx context.Context, stop context.CancelFunc, cfg *app.Config, logger *slog.Logger) error {
	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := db.Migrate(pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	metrics := observability.NewMetrics()

	var comparisonCache *quotation.Cache
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, comparison cache disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		comparisonCache = quotation.NewCache(redisClient, cfg.ComparisonCacheTTL, metrics)
	}

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := jobs.NewClient(redisOpts)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	deps := quotation.ServiceDeps{
		Audit:       shared.NewAuditLogger(pool),
		Approvals:   shared.NewApprovalRecorder(pool, logger),
		Idempotency: shared.NewIdempotencyStore(pool),
		Queue:       jobClient,
		Metrics:     metrics,
		Logger:      logger,
		Options:     pricing.Options{Match: cfg.MatchMode()},
	}
	if comparisonCache != nil {
		deps.Cache = comparisonCache
	}
	service := quotation.NewService(quotation.NewRepository(pool), deps)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		QuotationHandler: quotationhttp.NewHandler(logger, service),
		JobHandler:       jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("http server listening", slog.String("addr", cfg.AppAddr), slog.String("match", string(cfg.MatchMode())))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
