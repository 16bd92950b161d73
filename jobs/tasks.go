package jobs

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskComparisonWarmup rebuilds the cached comparison of one quotation.
	TaskComparisonWarmup = "cotacao:comparison-warmup"
	// TaskIdempotencyCleanup purges expired import idempotency keys.
	TaskIdempotencyCleanup = "cotacao:idempotency-cleanup"
)

// warmupUniqueFor collapses bursts of edits into one warmup task.
const warmupUniqueFor = 5 * time.Second

// ComparisonWarmupPayload identifies the quotation to warm.
type ComparisonWarmupPayload struct {
	QuotationID string `json:"cotacao_id"`
}

// NewComparisonWarmupTask constructs a warmup task.
func NewComparisonWarmupTask(quotationID string) (*asynq.Task, error) {
	if quotationID == "" {
		return nil, errors.New("jobs: quotation id required")
	}
	data, err := json.Marshal(ComparisonWarmupPayload{QuotationID: quotationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskComparisonWarmup, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// IdempotencyCleanupPayload sets how long processed keys are kept.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}
