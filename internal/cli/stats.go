package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/raphaelgruber/branchcast/internal/client"
	"github.com/raphaelgruber/branchcast/internal/metrics"
	"github.com/spf13/cobra"
)

var statsWorker string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show worker statistics",
	Long: `Show the worker's runtime statistics and the generation state of every
map it has processed since it started.

Examples:
  branchcast stats
  branchcast stats --worker http://worker:9090`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{offlineAnnotation: "true"},
	RunE:        runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsWorker, "worker", "", "worker URL (default $BRANCHCAST_WORKER_URL or http://localhost:9090)")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := client.New(statsWorker)
	snap, err := c.Stats(ctx)
	if err != nil {
		return fmt.Errorf("get worker stats: %w", err)
	}
	printOperationStats(*snap)

	states, err := c.States(ctx)
	if err != nil {
		return fmt.Errorf("get generation states: %w", err)
	}
	if len(states) == 0 {
		return nil
	}

	fmt.Printf("\n%-24s %-12s %-8s %-10s %s\n", "MAP", "STATUS", "VERSION", "PROGRESS", "STARTED")
	fmt.Println("------------------------------------------------------------------------")
	for _, st := range states {
		progress := ""
		if st.MaxDepth > 0 {
			progress = fmt.Sprintf("%d/%d", st.Level, st.MaxDepth)
		}
		fmt.Printf("%-24s %-12s %-8d %-10s %s\n",
			st.MapID, st.Status, st.Version, progress, st.StartedAt.Format("15:04:05"))
		if verbose && st.Error != "" {
			fmt.Printf("  Error: %s\n", st.Error)
		}
	}
	return nil
}

// printOperationStats displays operation timing statistics.
func printOperationStats(s metrics.Snapshot) {
	fmt.Printf("Operation Statistics (in-memory, since start)\n")
	fmt.Printf("═══════════════════════════════════════════════\n")
	fmt.Printf("Uptime: %.1f seconds\n", s.UptimeSeconds)

	ops := []struct {
		name string
		op   *metrics.OperationSnapshot
	}{
		{"Generation", s.Generation},
		{"Tree build", s.Build},
		{"Analysis", s.Analysis},
		{"Narratives", s.Narrative},
		{"DB query", s.DBQuery},
		{"DB publish", s.DBPublish},
	}
	for _, o := range ops {
		if o.op == nil {
			continue
		}
		fmt.Printf("\n%s:\n", o.name)
		printOpStats(o.op)
		printTokenStats(o.op)
	}
}

// printOpStats displays timing statistics for an operation.
func printOpStats(op *metrics.OperationSnapshot) {
	fmt.Printf("  Calls: %d, Failures: %d, Total: %dms\n", op.Count, op.Failures, op.TotalTimeMs)
	fmt.Printf("  Time: avg %.1fms, min %dms, max %dms\n",
		op.AvgTimeMs, op.MinTimeMs, op.MaxTimeMs)
}

// printTokenStats displays token statistics if available.
func printTokenStats(op *metrics.OperationSnapshot) {
	if op.TotalInputTokens == nil || op.TotalOutputTokens == nil {
		return
	}
	fmt.Printf("  Tokens In:  %d total\n", *op.TotalInputTokens)
	fmt.Printf("  Tokens Out: %d total\n", *op.TotalOutputTokens)
}
