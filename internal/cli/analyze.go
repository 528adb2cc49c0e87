package cli

import (
	"fmt"
	"os"

	"github.com/raphaelgruber/branchcast/internal/analysis"
	"github.com/raphaelgruber/branchcast/internal/parser"
	"github.com/raphaelgruber/branchcast/internal/paths"
	"github.com/spf13/cobra"
)

var (
	analyzeFormat      string
	analyzeTop         int
	analyzeTolerance   float64
	analyzeSignificant float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <version-file>",
	Short: "Re-run path extraction and analysis on an exported version",
	Long: `Re-classify the paths of an exported tree version and rebuild its report,
for example with different thresholds. The tree itself is not rebuilt.

Examples:
  branchcast analyze tree.json
  branchcast analyze tree.json --significant 50 --format json`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{offlineAnnotation: "true"},
	RunE:        runAnalyze,
}

func init() {
	def := paths.DefaultThresholds()
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", formatText, "output format: text, json, yaml")
	analyzeCmd.Flags().IntVarP(&analyzeTop, "top", "n", 10, "paths to list in text output (0 = all)")
	analyzeCmd.Flags().Float64Var(&analyzeTolerance, "tolerance", analysis.DefaultTolerance, "probability overflow tolerance for contradictions")
	analyzeCmd.Flags().Float64Var(&analyzeSignificant, "significant", def.Significant, "score above which a path counts as positive or negative")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	v, err := parser.LoadVersion(args[0])
	if err != nil {
		return err
	}

	th := paths.DefaultThresholds()
	th.Significant = analyzeSignificant
	if th.Significant <= th.Negligible {
		return fmt.Errorf("--significant must be above %.0f", th.Negligible)
	}

	v.Paths = paths.Extract(v.Tree, th)
	v.Tree.Metadata.TotalPaths = len(v.Paths)
	v.Report = analysis.Analyze(v.Tree, v.Paths, analysis.Options{Tolerance: analyzeTolerance})

	return writeVersion(os.Stdout, v, analyzeFormat, analyzeTop)
}
