package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the Prometheus metrics for generation runs.
type Registry struct {
	GenerationsTotal   *prometheus.CounterVec
	GenerationDuration *prometheus.HistogramVec
	TreeNodes          prometheus.Histogram
	TreePaths          prometheus.Histogram
	Contradictions     prometheus.Counter
	ActiveGenerations  prometheus.Gauge
	RequestsProcessed  *prometheus.CounterVec
	NarrativeFailures  prometheus.Counter

	registry *prometheus.Registry
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a registry with all metrics initialized.
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	f := promauto.With(r.registry)

	r.GenerationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchcast_generations_total",
			Help: "Total number of generation runs by probability model and status",
		},
		[]string{"model", "status"},
	)
	r.GenerationDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "branchcast_generation_duration_seconds",
			Help:    "Generation pipeline duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
		[]string{"model"},
	)
	r.TreeNodes = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "branchcast_tree_nodes",
		Help:    "Number of nodes per generated tree",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})
	r.TreePaths = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "branchcast_tree_paths",
		Help:    "Number of root-to-outcome paths per generated tree",
		Buckets: []float64{1, 10, 100, 1000, 10000},
	})
	r.Contradictions = f.NewCounter(prometheus.CounterOpts{
		Name: "branchcast_contradictions_total",
		Help: "Total number of probability contradictions detected",
	})
	r.ActiveGenerations = f.NewGauge(prometheus.GaugeOpts{
		Name: "branchcast_active_generations",
		Help: "Number of generation runs in progress",
	})
	r.RequestsProcessed = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "branchcast_requests_processed_total",
			Help: "Queued generation requests handled by the worker, by final status",
		},
		[]string{"status"},
	)
	r.NarrativeFailures = f.NewCounter(prometheus.CounterOpts{
		Name: "branchcast_narrative_failures_total",
		Help: "Narrative calls that failed or were short-circuited",
	})
	return r
}

// RecordGeneration records the outcome of one pipeline run.
func (r *Registry) RecordGeneration(model, status string, duration time.Duration, nodes, paths, contradictions int) {
	r.GenerationsTotal.WithLabelValues(model, status).Inc()
	r.GenerationDuration.WithLabelValues(model).Observe(duration.Seconds())
	if status != "completed" {
		return
	}
	r.TreeNodes.Observe(float64(nodes))
	r.TreePaths.Observe(float64(paths))
	r.Contradictions.Add(float64(contradictions))
}

// GetPrometheusRegistry returns the underlying Prometheus registry.
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
