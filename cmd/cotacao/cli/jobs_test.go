package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/cotacao/jobs"
)

func TestBuildTask(t *testing.T) {
	task, err := BuildTask("warmup", "q-1")
	require.NoError(t, err)
	require.Equal(t, jobs.TaskComparisonWarmup, task.Type())
	var warm jobs.ComparisonWarmupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &warm))
	require.Equal(t, "q-1", warm.QuotationID)

	_, err = BuildTask("warmup", "")
	require.Error(t, err)

	task, err = BuildTask(jobs.TaskIdempotencyCleanup, "24h")
	require.NoError(t, err)
	var cleanup jobs.IdempotencyCleanupPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &cleanup))
	require.Equal(t, 24*time.Hour, cleanup.Retention)

	_, err = BuildTask("cleanup", "soon")
	require.Error(t, err)

	_, err = BuildTask("reindex", "")
	require.Error(t, err)
}

func TestNilCLI(t *testing.T) {
	var c *JobsCLI
	_, err := c.Trigger(context.Background(), "warmup", "q-1")
	require.Error(t, err)
	_, err = c.InspectQueue()
	require.Error(t, err)
}
