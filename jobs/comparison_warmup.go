package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// ComparisonWarmer builds and caches a quotation comparison.
type ComparisonWarmer interface {
	WarmComparison(ctx context.Context, quotationID string) error
}

// JobObserver receives job outcomes.
type JobObserver interface {
	JobProcessed(task string, err error)
}

// ComparisonWarmupJob pre-populates the comparison cache after edits.
type ComparisonWarmupJob struct {
	Warmer  ComparisonWarmer
	Logger  *slog.Logger
	Metrics JobObserver
	// IsNotFound reports errors for quotations deleted before the task ran.
	IsNotFound func(error) bool
}

// Handle processes TaskComparisonWarmup tasks.
func (j *ComparisonWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Warmer == nil {
		return errors.New("comparison warmup: handler not configured")
	}
	var payload ComparisonWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.QuotationID == "" {
		return fmt.Errorf("comparison warmup: bad payload: %w", asynq.SkipRetry)
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.JobProcessed(TaskComparisonWarmup, err)
		}
	}()

	logger := j.logger().With(slog.String("cotacao", payload.QuotationID))
	start := time.Now()
	if err := j.Warmer.WarmComparison(ctx, payload.QuotationID); err != nil {
		if j.IsNotFound != nil && j.IsNotFound(err) {
			logger.Info("quotation gone, skipping warmup")
			return nil
		}
		logger.Error("warm comparison", slog.Any("error", err))
		return err
	}
	logger.Debug("comparison warmed", slog.Duration("took", time.Since(start)))
	return nil
}

func (j *ComparisonWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
