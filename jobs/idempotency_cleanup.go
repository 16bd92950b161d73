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

// DefaultKeyRetention is used when a cleanup task carries no retention.
const DefaultKeyRetention = 7 * 24 * time.Hour

// KeyCleaner deletes idempotency keys older than a cutoff.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob purges processed import keys.
type IdempotencyCleanupJob struct {
	Store   KeyCleaner
	Logger  *slog.Logger
	Metrics JobObserver
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency cleanup: bad payload: %w", asynq.SkipRetry)
		}
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultKeyRetention
	}
	defer func() {
		if j.Metrics != nil {
			j.Metrics.JobProcessed(TaskIdempotencyCleanup, err)
		}
	}()
	removed, err := j.Store.Cleanup(ctx, payload.Retention)
	if err != nil {
		return err
	}
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("idempotency keys purged", slog.Int64("removed", removed), slog.Duration("retention", payload.Retention))
	return nil
}
