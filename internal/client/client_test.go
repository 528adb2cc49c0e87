package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raphaelgruber/branchcast/internal/client"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/server"
	"github.com/raphaelgruber/branchcast/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAgainstWorkerServer(t *testing.T) {
	collector := metrics.NewCollector()
	collector.RecordTiming(metrics.OpBuild, 5*time.Millisecond)

	svc := service.NewGenerationService(service.StaticSource{}, service.NewMemoryStore(), nil, service.Options{})
	srv := server.New(svc, collector, metrics.NewRegistry(), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	c := client.New(ts.URL + "/")
	ctx := context.Background()

	require.NoError(t, c.Health(ctx))

	snap, err := c.Stats(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Build)
	assert.Equal(t, int64(1), snap.Build.Count)

	st, err := c.State(ctx, "housing 2030")
	require.NoError(t, err)
	assert.Equal(t, "housing 2030", st.MapID)
	assert.Equal(t, models.StatusIdle, st.Status)

	states, err := c.States(ctx)
	require.NoError(t, err)
	assert.Empty(t, states)
}

func TestClientReportsServerErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	err := client.New(ts.URL).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down for maintenance")
}

func TestNewUsesEnvironment(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	t.Setenv("BRANCHCAST_WORKER_URL", ts.URL)
	assert.NoError(t, client.New("").Health(context.Background()))
}
