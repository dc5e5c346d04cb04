package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cribconcierge/concierge-go/internal/metrics"
)

func TestRecordTimingAggregates(t *testing.T) {
	c := metrics.NewCollector()

	c.RecordTiming(metrics.OpEmbedding, 10*time.Millisecond)
	c.RecordTiming(metrics.OpEmbedding, 30*time.Millisecond)

	snap := c.Snapshot()
	op, ok := snap.Operations[metrics.OpEmbedding]
	require.True(t, ok)
	assert.Equal(t, int64(2), op.Count)
	assert.Equal(t, int64(40), op.TotalTimeMs)
	assert.Equal(t, int64(10), op.MinTimeMs)
	assert.Equal(t, int64(30), op.MaxTimeMs)
	assert.InDelta(t, 20.0, op.AvgTimeMs, 0.01)
}

func TestSnapshotSkipsEmptyOperations(t *testing.T) {
	c := metrics.NewCollector()
	snap := c.Snapshot()
	assert.Empty(t, snap.Operations)
	assert.GreaterOrEqual(t, snap.UptimeSeconds, 0.0)
}

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *metrics.Collector

	c.RecordTiming(metrics.OpGeneration, time.Second)
	timer := metrics.StartTimer(c, metrics.OpGeneration)
	timer.Stop()

	snap := c.Snapshot()
	assert.Empty(t, snap.Operations)
}
