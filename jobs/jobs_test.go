package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

var errGone = errors.New("gone")

type stubWarmer struct {
	ids []string
	err error
}

func (s *stubWarmer) WarmComparison(ctx context.Context, id string) error {
	s.ids = append(s.ids, id)
	return s.err
}

type stubObserver struct {
	tasks []string
	errs  []error
}

func (s *stubObserver) JobProcessed(task string, err error) {
	s.tasks = append(s.tasks, task)
	s.errs = append(s.errs, err)
}

func TestComparisonWarmupJobHandlesTask(t *testing.T) {
	warmer := &stubWarmer{}
	obs := &stubObserver{}
	job := &ComparisonWarmupJob{Warmer: warmer, Metrics: obs}

	task, err := NewComparisonWarmupTask("q1")
	require.NoError(t, err)
	require.Equal(t, TaskComparisonWarmup, task.Type())

	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []string{"q1"}, warmer.ids)
	require.Equal(t, []string{TaskComparisonWarmup}, obs.tasks)
	require.NoError(t, obs.errs[0])
}

func TestComparisonWarmupJobSkipsBadPayload(t *testing.T) {
	job := &ComparisonWarmupJob{Warmer: &stubWarmer{}}
	err := job.Handle(context.Background(), asynq.NewTask(TaskComparisonWarmup, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	_, err = NewComparisonWarmupTask("")
	require.Error(t, err)
}

func TestComparisonWarmupJobErrors(t *testing.T) {
	warmer := &stubWarmer{err: errGone}
	obs := &stubObserver{}
	job := &ComparisonWarmupJob{Warmer: warmer, Metrics: obs}
	task, err := NewComparisonWarmupTask("q1")
	require.NoError(t, err)

	require.ErrorIs(t, job.Handle(context.Background(), task), errGone)
	require.ErrorIs(t, obs.errs[0], errGone)

	job.IsNotFound = func(err error) bool { return errors.Is(err, errGone) }
	require.NoError(t, job.Handle(context.Background(), task))
}

type stubCleaner struct {
	got time.Duration
}

func (s *stubCleaner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	s.got = olderThan
	return 3, nil
}

func TestIdempotencyCleanupJob(t *testing.T) {
	store := &stubCleaner{}
	job := &IdempotencyCleanupJob{Store: store}

	task, err := NewIdempotencyCleanupTask(48 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, 48*time.Hour, store.got)

	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskIdempotencyCleanup, nil)))
	require.Equal(t, DefaultKeyRetention, store.got)
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHandler(stubInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 4}}, nil).MountRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Queue   string `json:"queue"`
		Pending int    `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Equal(t, 4, body.Pending)

	r = chi.NewRouter()
	NewHandler(stubInspector{err: errors.New("redis down")}, nil).MountRoutes(r)
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	require.NoError(t, c.EnqueueComparisonWarmup(context.Background(), "q1"))
	require.NoError(t, c.Close())
}
