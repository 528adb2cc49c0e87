// Package server provides the worker's HTTP surface: health, Prometheus
// metrics, operation stats and per-map generation state.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/service"
)

// StateSource exposes generation state snapshots.
type StateSource interface {
	State(mapID string) service.MapState
	States() []service.MapState
}

// Server serves the worker's HTTP endpoints.
type Server struct {
	states    StateSource
	collector *metrics.Collector
	registry  *metrics.Registry
	logger    *slog.Logger
}

// New creates a server. collector and registry may be nil.
func New(states StateSource, collector *metrics.Collector, registry *metrics.Registry, logger *slog.Logger) *Server {
	if collector == nil {
		collector = metrics.NewCollector()
	}
	if registry == nil {
		registry = metrics.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{states: states, collector: collector, registry: registry, logger: logger}
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /stats", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, s.collector.Snapshot())
	})
	mux.HandleFunc("GET /states", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, s.states.States())
	})
	mux.HandleFunc("GET /states/{mapID}", func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, s.states.State(r.PathValue("mapID")))
	})

	return LoggingMiddleware(s.logger)(mux)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}
