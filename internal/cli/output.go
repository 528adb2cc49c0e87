package cli

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/raphaelgruber/branchcast/internal/llm"
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/parser"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeVersion prints a version in the requested format.
func writeVersion(w io.Writer, v *models.TreeVersion, format string, topN int) error {
	switch format {
	case formatJSON:
		return parser.WriteVersion(w, v, parser.FormatJSON)
	case formatYAML:
		return parser.WriteVersion(w, v, parser.FormatYAML)
	case formatText, "":
		printVersion(w, v, topN)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

func printVersion(w io.Writer, v *models.TreeVersion, topN int) {
	md := v.Tree.Metadata
	fmt.Fprintf(w, "Map %s, version %d\n", v.MapID, v.Version)
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "Model:     %s\n", v.Tree.Config.ProbabilityModel)
	fmt.Fprintf(w, "Nodes:     %d (%d edges, depth %d)\n", md.TotalNodes, md.TotalEdges, md.MaxDepthReached)
	fmt.Fprintf(w, "Paths:     %d\n", md.TotalPaths)
	if !v.GeneratedAt.IsZero() {
		fmt.Fprintf(w, "Generated: %s\n", v.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	printPaths(w, v.Paths, topN)
	if v.Report != nil {
		printReport(w, v.Report)
	}

	if s, ok := v.Narratives[llm.SummaryKey]; ok {
		fmt.Fprintf(w, "\nSummary:\n%s\n", indent(s, "  "))
	}
}

func printPaths(w io.Writer, paths []models.Path, topN int) {
	if len(paths) == 0 {
		return
	}
	sorted := slices.Clone(paths)
	slices.SortStableFunc(sorted, func(a, b models.Path) int {
		return cmp.Compare(b.CumulativeProbability, a.CumulativeProbability)
	})
	if topN > 0 && len(sorted) > topN {
		sorted = sorted[:topN]
	}

	fmt.Fprintf(w, "\nMost likely paths:\n")
	fmt.Fprintf(w, "  %-8s %-9s %6s %6s  %s\n", "PROB", "OUTCOME", "RISK", "OPP", "PATH")
	for _, p := range sorted {
		fmt.Fprintf(w, "  %-8.4f %-9s %6.1f %6.1f  %s\n",
			p.CumulativeProbability, p.OutcomeType, p.RiskScore, p.OpportunityScore, p.Label)
	}
}

func printReport(w io.Writer, r *models.AnalysisReport) {
	fmt.Fprintf(w, "\nOutcome distribution:\n")
	for _, b := range r.OutcomeDistribution {
		if b.Count == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-9s %5d (%5.1f%%)\n", b.OutcomeType, b.Count, b.Fraction*100)
	}

	fmt.Fprintf(w, "\nRisk:        avg %.1f, min %.1f, max %.1f, expected %.1f\n",
		r.Risk.Average, r.Risk.Min, r.Risk.Max, r.ExpectedRisk)
	fmt.Fprintf(w, "Opportunity: avg %.1f, min %.1f, max %.1f, expected %.1f\n",
		r.Opportunity.Average, r.Opportunity.Min, r.Opportunity.Max, r.ExpectedOpportunity)

	if len(r.TopDrivers) > 0 {
		fmt.Fprintf(w, "\nTop drivers:\n")
		for _, d := range r.TopDrivers {
			fmt.Fprintf(w, "  %-20s %8.2f  %-8s %-6s (%d)\n",
				d.Category, d.Contribution, d.Direction, d.Impact, d.Occurrences)
		}
	}

	if len(r.Contradictions) > 0 {
		fmt.Fprintf(w, "\nContradictions (%d):\n", len(r.Contradictions))
		for _, c := range r.Contradictions {
			fmt.Fprintf(w, "  [%s] %s\n", c.Severity, c.Description)
		}
	}

	for _, c := range r.Correlations {
		fmt.Fprintf(w, "\nCorrelation %s/%s: r=%.3f (%s, n=%d)\n",
			c.Variables[0], c.Variables[1], c.Coefficient, c.Strength, c.SampleSize)
	}
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
