package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/parser"
	"github.com/raphaelgruber/branchcast/internal/service"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	generateFile       string
	generateOut        string
	generateFormat     string
	generateTop        int
	generateNoProgress bool
	generateStats      bool
	generateReq        requestFlags
)

var generateCmd = &cobra.Command{
	Use:   "generate [map-id]",
	Short: "Generate and publish a new tree version",
	Long: `Build an outcome tree from a map's transitions, analyze it and publish it
as the map's next version.

With --file the extract is read from disk and nothing is stored; use --out
to keep the result.

Examples:
  branchcast generate housing-2030
  branchcast generate housing-2030 --depth 4 --model bayesian
  branchcast generate --file ./extract.yaml --model monte_carlo --seed 42 --out tree.json
  branchcast generate housing-2030 --format json > tree.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "generate from an extract file instead of the database")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "write the version to this file (.json or .yaml)")
	generateCmd.Flags().StringVar(&generateFormat, "format", formatText, "output format: text, json, yaml")
	generateCmd.Flags().IntVarP(&generateTop, "top", "n", 10, "paths to list in text output (0 = all)")
	generateCmd.Flags().BoolVar(&generateNoProgress, "no-progress", false, "disable the progress display")
	generateCmd.Flags().BoolVar(&generateStats, "stats", false, "print operation timings afterwards")
	generateReq.bind(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	req := generateReq.request(cmd)

	var mapID string
	var source service.SourceStore
	var versions service.VersionStore
	switch {
	case generateFile != "":
		f, err := parser.LoadExtract(generateFile)
		if err != nil {
			return err
		}
		mapID = f.MapID
		if len(args) == 1 {
			mapID = args[0]
		}
		source = service.StaticSource{mapID: &f.Extract}
		versions = service.NewMemoryStore()
	case len(args) == 1:
		mapID = args[0]
	default:
		return fmt.Errorf("map ID or --file required")
	}

	svc, err := newGenerationService(ctx, source, versions)
	if err != nil {
		return err
	}

	var v *models.TreeVersion
	interactive := !generateNoProgress && generateFormat == formatText && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		if err := svc.Start(mapID, req); err != nil {
			return err
		}
		if err := RunGenerationProgress(svc, mapID); err != nil {
			return err
		}
		if v, err = svc.Current(ctx, mapID); err != nil {
			return err
		}
	} else {
		if v, err = svc.Generate(ctx, mapID, req); err != nil {
			return err
		}
	}

	if generateOut != "" {
		if err := writeVersionFile(generateOut, v); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote version %d to %s\n", v.Version, generateOut)
	}

	if err := writeVersion(os.Stdout, v, generateFormat, generateTop); err != nil {
		return err
	}
	if generateStats {
		fmt.Println()
		printOperationStats(collector.Snapshot())
	}
	return nil
}

func writeVersionFile(path string, v *models.TreeVersion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := parser.WriteVersion(f, v, parser.DetectFormat(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
