// Package cli provides the command-line interface for branchcast.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/branchcast/internal/config"
	"github.com/raphaelgruber/branchcast/internal/db"
	"github.com/raphaelgruber/branchcast/internal/llm"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/raphaelgruber/branchcast/internal/scoring"
	"github.com/raphaelgruber/branchcast/internal/service"
	"github.com/raphaelgruber/branchcast/internal/tree"
	"github.com/spf13/cobra"
)

// offlineAnnotation marks commands that never touch the database.
const offlineAnnotation = "offline"

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config, logger and db client
	cfg      config.Config
	logger   *slog.Logger
	closeLog func() error
	dbClient *db.Client

	// Operation timings for this process
	collector = metrics.NewCollector()
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "branchcast",
	Short: "Branching outcome tree generation and analysis",
	Long: `Branchcast turns observed simulation transitions into a probabilistic
tree of future outcomes, classifies every root-to-leaf path as risk,
opportunity or neutral, and reports drivers, contradictions and
correlations for each published tree version.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		level := cfg.LogLevel
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = config.SetupLogger("branchcast", cfg.LogFile, level)
		slog.SetDefault(logger)

		if !needsDB(cmd) {
			return nil
		}

		ctx := context.Background()
		dbCfg := db.Config{
			URL:       cfg.SurrealDBURL,
			Namespace: cfg.SurrealDBNamespace,
			Database:  cfg.SurrealDBDatabase,
			Username:  cfg.SurrealDBUser,
			Password:  cfg.SurrealDBPass,
			AuthLevel: cfg.SurrealDBAuthLevel,
		}

		var err error
		dbClient, err = db.NewClient(ctx, dbCfg, logger, collector)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}

		if err := dbClient.InitSchema(ctx); err != nil {
			return fmt.Errorf("initialize schema: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if dbClient != nil {
			if err := dbClient.Close(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
			}
		}
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

// needsDB reports whether a command needs a database connection.
func needsDB(cmd *cobra.Command) bool {
	if cmd.Annotations[offlineAnnotation] == "true" {
		return false
	}
	if f := cmd.Flags().Lookup("file"); f != nil && f.Value.String() != "" {
		return false
	}
	return true
}

// newGenerationService wires a generation service from the loaded config.
// With a nil source the database serves extracts and versions.
func newGenerationService(ctx context.Context, source service.SourceStore, versions service.VersionStore) (*service.GenerationService, error) {
	var weights scoring.Weights
	if cfg.WeightsFile != "" {
		w, err := scoring.LoadWeights(cfg.WeightsFile)
		if err != nil {
			return nil, err
		}
		weights = w
	}

	narrator, err := newNarrator(ctx)
	if err != nil {
		return nil, err
	}

	if source == nil {
		source = dbClient
	}
	if versions == nil {
		versions = dbClient
	}

	return service.NewGenerationService(source, versions, narrator, service.Options{
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
		Registry:  metrics.DefaultRegistry(),
		Logger:    logger,
	}), nil
}

// newNarrator returns nil when no LLM provider is configured.
func newNarrator(ctx context.Context) (service.Narrator, error) {
	if cfg.LLMProvider == "" || cfg.LLMProvider == config.ProviderNone {
		return nil, nil
	}
	model, err := llm.NewModel(ctx, cfg, collector)
	if err != nil {
		return nil, fmt.Errorf("init narrative model: %w", err)
	}
	return llm.NewNarrator(model, llm.NarratorOptions{
		PathLimit: cfg.NarrativeLimit,
		NodeLimit: cfg.NarrativeNodes,
		Timeout:   cfg.NarrativeTimeout,
	}, logger), nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(versionsCmd)
	rootCmd.AddCommand(mapsCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
}
