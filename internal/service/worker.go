package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/models"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"golang.org/x/sync/errgroup"
)

// RequestQueue is the persisted queue of generation requests.
type RequestQueue interface {
	PendingRequests(ctx context.Context, limit int) ([]models.QueuedRequest, error)
	UpdateRequestStatus(ctx context.Context, id surrealmodels.RecordID, status models.RequestStatus, version *int, errMsg *string) error
}

// WorkerOptions configures a RequestWorker.
type WorkerOptions struct {
	PollInterval time.Duration
	BatchSize    int
	// Concurrency bounds how many maps are generated at once.
	Concurrency int
	Registry    *metrics.Registry
	Logger      *slog.Logger
}

// RequestWorker drains queued generation requests into a GenerationService.
type RequestWorker struct {
	queue  RequestQueue
	svc    *GenerationService
	opts   WorkerOptions
	logger *slog.Logger
}

// NewRequestWorker creates a worker.
func NewRequestWorker(queue RequestQueue, svc *GenerationService, opts WorkerOptions) *RequestWorker {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 10
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &RequestWorker{queue: queue, svc: svc, opts: opts, logger: opts.Logger}
}

// Run polls until ctx is cancelled. Poll errors are logged and retried on
// the next tick.
func (w *RequestWorker) Run(ctx context.Context) error {
	w.logger.Info("request worker started", "interval", w.opts.PollInterval, "batch", w.opts.BatchSize)
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := w.PollOnce(ctx); err != nil && ctx.Err() == nil {
			w.logger.Warn("poll failed", "error", err)
		}
		select {
		case <-ctx.Done():
			w.logger.Info("request worker stopping")
			w.svc.Wait()
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce processes one batch of pending requests and returns how many
// it handled.
func (w *RequestWorker) PollOnce(ctx context.Context) (int, error) {
	pending, err := w.queue.PendingRequests(ctx, w.opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for _, req := range pending {
		g.Go(func() error {
			w.process(gctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return len(pending), nil
}

func (w *RequestWorker) process(ctx context.Context, qr models.QueuedRequest) {
	log := w.logger.With("request", fmt.Sprintf("%v", qr.ID.ID), "map", qr.MapID)
	if err := w.queue.UpdateRequestStatus(ctx, qr.ID, models.RequestRunning, nil, nil); err != nil {
		log.Warn("failed to claim request", "error", err)
		return
	}

	v, err := w.svc.Generate(ctx, qr.MapID, qr.Request)

	status := models.RequestCompleted
	var version *int
	var msg *string
	switch {
	case err == nil:
		version = &v.Version
	case errors.Is(err, models.ErrGenerationInProgress):
		status = models.RequestRejected
	default:
		status = models.RequestFailed
	}
	if err != nil {
		s := err.Error()
		msg = &s
	}

	if reg := w.opts.Registry; reg != nil {
		reg.RequestsProcessed.WithLabelValues(string(status)).Inc()
	}
	if uerr := w.queue.UpdateRequestStatus(context.WithoutCancel(ctx), qr.ID, status, version, msg); uerr != nil {
		log.Warn("failed to record request status", "status", status, "error", uerr)
		return
	}
	log.Info("request processed", "status", status)
}
