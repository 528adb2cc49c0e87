// Package service orchestrates generation runs per map.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/raphaelgruber/branchcast/internal/analysis"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/paths"
	"github.com/raphaelgruber/branchcast/internal/tree"
	"github.com/raphaelgruber/branchcast/internal/validation"
)

// SourceStore provides the extract a map is generated from.
type SourceStore interface {
	FetchExtract(ctx context.Context, mapID string) (*models.Extract, error)
}

// VersionStore persists published tree versions.
type VersionStore interface {
	CurrentVersion(ctx context.Context, mapID string) (*models.TreeVersion, error)
	PublishVersion(ctx context.Context, v *models.TreeVersion) error
	SetMapStatus(ctx context.Context, mapID string, status models.GenerationStatus, lastError *string) error
}

// Narrator writes prose summaries for a finished tree.
type Narrator interface {
	Summarize(ctx context.Context, t *models.Tree, ps []models.Path, report *models.AnalysisReport) (map[string]string, error)
}

// Options configures a GenerationService.
type Options struct {
	Builder    tree.Options
	Thresholds paths.Thresholds
	Analysis   analysis.Options
	// Timeout bounds tree construction. Zero means no limit.
	Timeout time.Duration
	Retry   RetryPolicy

	Collector *metrics.Collector
	Registry  *metrics.Registry
	Logger    *slog.Logger
}

// GenerationService runs the generate pipeline and tracks per-map state.
type GenerationService struct {
	source   SourceStore
	versions VersionStore
	narrator Narrator
	opts     Options
	logger   *slog.Logger

	mu      sync.Mutex
	records map[string]*mapRecord
	current map[string]*models.TreeVersion

	wg  sync.WaitGroup
	now func() time.Time
}

// NewGenerationService creates a service. narrator may be nil.
func NewGenerationService(source SourceStore, versions VersionStore, narrator Narrator, opts Options) *GenerationService {
	if opts.Thresholds == (paths.Thresholds{}) {
		opts.Thresholds = paths.DefaultThresholds()
	}
	if opts.Retry == (RetryPolicy{}) {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Collector == nil {
		opts.Collector = metrics.NewCollector()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &GenerationService{
		source:   source,
		versions: versions,
		narrator: narrator,
		opts:     opts,
		logger:   opts.Logger,
		records:  make(map[string]*mapRecord),
		current:  make(map[string]*models.TreeVersion),
		now:      time.Now,
	}
}

// Generate runs the pipeline for a map and waits for the result.
// Cancelling ctx cancels the run.
func (s *GenerationService) Generate(ctx context.Context, mapID string, req models.GenerateRequest) (*models.TreeVersion, error) {
	rec, runCtx, err := s.begin(mapID)
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { s.Cancel(mapID) })
	defer stop()

	s.wg.Add(1)
	defer s.wg.Done()
	return s.execute(runCtx, rec, req)
}

// Start launches the pipeline in the background. It returns
// ErrGenerationInProgress when the map is already generating.
func (s *GenerationService) Start(mapID string, req models.GenerateRequest) error {
	rec, runCtx, err := s.begin(mapID)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.execute(runCtx, rec, req)
	}()
	return nil
}

// Wait blocks until all runs started by this service have finished.
func (s *GenerationService) Wait() {
	s.wg.Wait()
}

// Current returns the latest published version for a map.
func (s *GenerationService) Current(ctx context.Context, mapID string) (*models.TreeVersion, error) {
	s.mu.Lock()
	v, ok := s.current[mapID]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	v, err := s.versions.CurrentVersion(ctx, mapID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if cur, ok := s.current[mapID]; !ok || cur.Version < v.Version {
		s.current[mapID] = v
	}
	s.mu.Unlock()
	return v, nil
}

func (s *GenerationService) execute(ctx context.Context, rec *mapRecord, req models.GenerateRequest) (*models.TreeVersion, error) {
	start := time.Now()
	mapID := rec.mapID()
	req = req.WithDefaults()
	rec.setMaxDepth(req.MaxDepth)

	if reg := s.opts.Registry; reg != nil {
		reg.ActiveGenerations.Inc()
		defer reg.ActiveGenerations.Dec()
	}
	s.setStoreStatus(ctx, mapID, models.StatusGenerating, nil)
	s.logger.Info("generation started", "map", mapID, "model", req.ProbabilityModel,
		"max_depth", req.MaxDepth, "branching_factor", req.BranchingFactor)

	v, err := s.runPipeline(ctx, rec, req)
	elapsed := time.Since(start)
	s.finish(rec, v, err)

	if err != nil {
		s.opts.Collector.RecordFailure(metrics.OpGeneration, elapsed)
		s.recordRegistry(req, models.StatusFailed, elapsed, nil)
		msg := err.Error()
		s.setStoreStatus(context.WithoutCancel(ctx), mapID, models.StatusFailed, &msg)
		s.logger.Warn("generation failed", "map", mapID, "error", err, "duration", elapsed)
		return nil, err
	}

	s.opts.Collector.RecordTiming(metrics.OpGeneration, elapsed)
	s.recordRegistry(req, models.StatusCompleted, elapsed, v)
	s.logger.Info("generation completed", "map", mapID, "version", v.Version,
		"nodes", v.Tree.Metadata.TotalNodes, "paths", v.Tree.Metadata.TotalPaths, "duration", elapsed)
	return v, nil
}

// runPipeline turns a panic in any stage into a failed run so the map
// record is always released.
func (s *GenerationService) runPipeline(ctx context.Context, rec *mapRecord, req models.GenerateRequest) (v *models.TreeVersion, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("generation panicked", "map", rec.mapID(), "panic", r, "stack", string(debug.Stack()))
			v, err = nil, fmt.Errorf("generation panicked: %v", r)
		}
	}()
	return s.pipeline(ctx, rec, req)
}

func (s *GenerationService) pipeline(ctx context.Context, rec *mapRecord, req models.GenerateRequest) (*models.TreeVersion, error) {
	mapID := rec.mapID()
	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}

	var extract *models.Extract
	err := s.retry(ctx, "fetch extract", func() error {
		e, err := s.source.FetchExtract(ctx, mapID)
		if err != nil {
			return err
		}
		extract = e
		return nil
	})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("fetch extract for %q: %w: %w", mapID, models.ErrNoSourceData, err)
		}
		return nil, fmt.Errorf("fetch extract for %q: %w", mapID, err)
	}

	buildCtx := ctx
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	bopts := s.opts.Builder
	bopts.Progress = func(nodes int) {
		rec.setProgress(nodes)
		if s.opts.Builder.Progress != nil {
			s.opts.Builder.Progress(nodes)
		}
	}
	buildStart := time.Now()
	t, err := tree.NewBuilder(bopts, s.logger).Build(buildCtx, extract, req)
	if err != nil {
		s.opts.Collector.RecordFailure(metrics.OpBuild, time.Since(buildStart))
		return nil, err
	}
	s.opts.Collector.RecordTiming(metrics.OpBuild, time.Since(buildStart))

	analysisStart := time.Now()
	ps := paths.Extract(t, s.opts.Thresholds)
	t.Metadata.TotalPaths = len(ps)
	t.Metadata.GeneratedAt = s.now().UTC()
	report := analysis.Analyze(t, ps, s.opts.Analysis)
	s.opts.Collector.RecordTiming(metrics.OpAnalysis, time.Since(analysisStart))

	narratives := s.narrate(ctx, t, ps, report)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generation cancelled: %w", err)
	}

	prev := 0
	err = s.retry(ctx, "current version", func() error {
		cur, err := s.versions.CurrentVersion(ctx, mapID)
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		prev = cur.Version
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read current version: %w", err)
	}

	v := &models.TreeVersion{
		MapID:       mapID,
		Version:     prev + 1,
		Tree:        t,
		Paths:       ps,
		Report:      report,
		Narratives:  narratives,
		GeneratedAt: t.Metadata.GeneratedAt,
	}
	if err := s.retry(ctx, "publish version", func() error {
		return s.versions.PublishVersion(ctx, v)
	}); err != nil {
		return nil, fmt.Errorf("publish version %d: %w", v.Version, err)
	}

	s.mu.Lock()
	s.current[mapID] = v
	s.mu.Unlock()
	return v, nil
}

// narrate is best-effort: failures are logged and never fail the run.
func (s *GenerationService) narrate(ctx context.Context, t *models.Tree, ps []models.Path, report *models.AnalysisReport) map[string]string {
	if s.narrator == nil {
		return nil
	}
	out, err := s.narrator.Summarize(ctx, t, ps, report)
	if err != nil {
		s.logger.Warn("narratives incomplete", "error", err, "written", len(out))
		if reg := s.opts.Registry; reg != nil {
			reg.NarrativeFailures.Inc()
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *GenerationService) setStoreStatus(ctx context.Context, mapID string, status models.GenerationStatus, msg *string) {
	if err := s.versions.SetMapStatus(ctx, mapID, status, msg); err != nil {
		s.logger.Warn("failed to record map status", "map", mapID, "status", status, "error", err)
	}
}

func (s *GenerationService) recordRegistry(req models.GenerateRequest, status models.GenerationStatus, elapsed time.Duration, v *models.TreeVersion) {
	reg := s.opts.Registry
	if reg == nil {
		return
	}
	var nodes, ps, contradictions int
	if v != nil {
		nodes = v.Tree.Metadata.TotalNodes
		ps = v.Tree.Metadata.TotalPaths
		contradictions = len(v.Report.Contradictions)
	}
	reg.RecordGeneration(string(req.ProbabilityModel), string(status), elapsed, nodes, ps, contradictions)
}
