package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorSnapshot(t *testing.T) {
	c := NewCollector()
	c.RecordTiming(OpBuild, 10*time.Millisecond)
	c.RecordTiming(OpBuild, 30*time.Millisecond)
	c.RecordFailure(OpBuild, 20*time.Millisecond)
	c.RecordLLMUsage(OpNarrative, 5*time.Millisecond, 120, 40)

	snap := c.Snapshot()
	require.NotNil(t, snap.Build)
	assert.Equal(t, int64(3), snap.Build.Count)
	assert.Equal(t, int64(1), snap.Build.Failures)
	assert.Equal(t, int64(10), snap.Build.MinTimeMs)
	assert.Equal(t, int64(30), snap.Build.MaxTimeMs)
	assert.InDelta(t, 20.0, snap.Build.AvgTimeMs, 1e-9)
	assert.Nil(t, snap.Build.TotalInputTokens)

	require.NotNil(t, snap.Narrative)
	require.NotNil(t, snap.Narrative.TotalInputTokens)
	assert.Equal(t, int64(120), *snap.Narrative.TotalInputTokens)
	assert.Equal(t, int64(40), *snap.Narrative.TotalOutputTokens)

	assert.Nil(t, snap.Generation)
	assert.Nil(t, snap.DBPublish)
}

func TestRegistryRecordGeneration(t *testing.T) {
	r := NewRegistry()
	r.RecordGeneration("bayesian", "completed", time.Second, 40, 12, 2)
	r.RecordGeneration("bayesian", "failed", time.Second, 0, 0, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.GenerationsTotal.WithLabelValues("bayesian", "completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.GenerationsTotal.WithLabelValues("bayesian", "failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Contradictions))
	assert.Equal(t, 1, testutil.CollectAndCount(r.TreeNodes))
}

func TestDefaultRegistry(t *testing.T) {
	assert.Same(t, DefaultRegistry(), DefaultRegistry())
}
