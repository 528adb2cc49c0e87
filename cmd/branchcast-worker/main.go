// Package main provides the branchcast worker: it drains queued generation
// requests and serves health, metrics and generation state over HTTP.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/branchcast/internal/config"
	"github.com/raphaelgruber/branchcast/internal/db"
	"github.com/raphaelgruber/branchcast/internal/llm"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/scoring"
	"github.com/raphaelgruber/branchcast/internal/server"
	"github.com/raphaelgruber/branchcast/internal/service"
	"github.com/raphaelgruber/branchcast/internal/tree"
	"golang.org/x/sync/errgroup"
)

const version = "0.1.0"

func main() {
	wipeDB := flag.Bool("wipe", false, "wipe all data from database on startup (testing only)")
	flag.Parse()

	cfg := config.Load()

	// Dual output: stderr text + file JSON
	logger, cleanup := config.SetupLogger("branchcast-worker", cfg.LogFile, cfg.LogLevel)
	defer cleanup()

	logger.Info("branchcast-worker starting",
		"version", version,
		"surrealdb_url", cfg.SurrealDBURL,
		"llm_provider", cfg.LLMProvider,
		"metrics_addr", cfg.MetricsAddr,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	collector := metrics.NewCollector()
	registry := metrics.DefaultRegistry()

	dbCfg := db.Config{
		URL:       cfg.SurrealDBURL,
		Namespace: cfg.SurrealDBNamespace,
		Database:  cfg.SurrealDBDatabase,
		Username:  cfg.SurrealDBUser,
		Password:  cfg.SurrealDBPass,
		AuthLevel: cfg.SurrealDBAuthLevel,
	}
	dbClient, err := db.NewClient(ctx, dbCfg, logger, collector)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(context.Background()); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	if err := dbClient.InitSchema(ctx); err != nil {
		logger.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}

	if *wipeDB || os.Getenv("BRANCHCAST_WIPE_DB") == "true" {
		wipeCtx, wipeCancel := context.WithTimeout(ctx, 30*time.Second)
		err := dbClient.WipeData(wipeCtx)
		wipeCancel()
		if err != nil {
			logger.Error("failed to wipe database", "error", err)
			os.Exit(1)
		}
	}

	var weights scoring.Weights
	if cfg.WeightsFile != "" {
		if weights, err = scoring.LoadWeights(cfg.WeightsFile); err != nil {
			logger.Error("failed to load scoring weights", "error", err)
			os.Exit(1)
		}
	}

	var narrator service.Narrator
	if cfg.LLMProvider != "" && cfg.LLMProvider != config.ProviderNone {
		model, err := llm.NewModel(ctx, cfg, collector)
		if err != nil {
			logger.Error("failed to create narrative model", "error", err)
			os.Exit(1)
		}
		narrator = llm.NewNarrator(model, llm.NarratorOptions{
			PathLimit: cfg.NarrativeLimit,
			NodeLimit: cfg.NarrativeNodes,
			Timeout:   cfg.NarrativeTimeout,
		}, logger)
	}

	svc := service.NewGenerationService(dbClient, dbClient, narrator, service.Options{
		Builder: tree.Options{
			Weights:     weights,
			MaxNodes:    cfg.MaxNodes,
			Concurrency: cfg.Concurrency,
		},
		Timeout: cfg.GenerationTimeout,
		Retry: service.RetryPolicy{
			MaxAttempts:     cfg.RetryMaxAttempts,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     service.DefaultRetryPolicy().MaxInterval,
		},
		Collector: collector,
		Registry:  registry,
		Logger:    logger,
	})

	worker := service.NewRequestWorker(dbClient, svc, service.WorkerOptions{
		PollInterval: cfg.PollInterval,
		Registry:     registry,
		Logger:       logger,
	})
	httpServer := server.New(svc, collector, registry, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return httpServer.Run(gctx, cfg.MetricsAddr) })

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("branchcast-worker stopped")
}
