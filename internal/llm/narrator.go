package llm

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/sony/gobreaker"
)

// SummaryKey is the narrative map key for the whole-tree summary.
const SummaryKey = "summary"

// Generator produces text from a system and user prompt.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// NarratorOptions tunes a Narrator.
type NarratorOptions struct {
	// PathLimit is how many of the most likely paths get a narrative.
	PathLimit int
	// NodeLimit is how many of the most likely non-root nodes get a narrative.
	NodeLimit int
	// Timeout bounds each provider call.
	Timeout time.Duration
	// FailureThreshold is the consecutive failure count that opens the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// Narrator writes whole-tree, per-path and per-node narratives. Provider
// failures never fail a generation: the affected item is skipped and the
// failure surfaces as models.ErrNarrativeUnavailable alongside whatever
// narratives were written.
type Narrator struct {
	gen     Generator
	opts    NarratorOptions
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewNarrator creates a narrator around a generator.
func NewNarrator(gen Generator, opts NarratorOptions, logger *slog.Logger) *Narrator {
	if opts.PathLimit <= 0 {
		opts.PathLimit = 20
	}
	if opts.NodeLimit <= 0 {
		opts.NodeLimit = 20
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.FailureThreshold == 0 {
		opts.FailureThreshold = 3
	}
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	n := &Narrator{gen: gen, opts: opts, logger: logger}
	n.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "narrator",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: func(err error) bool {
			// Caller cancellation says nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return n
}

const systemPrompt = `You are a risk analyst. You explain simulated future scenarios to decision makers.
- Write two or three plain sentences.
- Mention the most important risk and opportunity drivers.
- Do not invent facts beyond the data given.`

// narrativeItem is one prompt and the key its narrative is stored under.
type narrativeItem struct {
	key    string
	prompt string
}

// Summarize writes a narrative for the whole tree (key SummaryKey), for the
// most likely paths (keyed by path ID) and for the most likely non-root nodes
// (keyed by node ID). A failed item is skipped; the rest are still attempted.
// The returned error joins every failure and wraps models.ErrNarrativeUnavailable.
func (n *Narrator) Summarize(ctx context.Context, t *models.Tree, paths []models.Path, report *models.AnalysisReport) (map[string]string, error) {
	nodes := t.NodeMap()
	items := []narrativeItem{{key: SummaryKey, prompt: reportPrompt(t, report)}}
	for _, p := range topPaths(paths, n.opts.PathLimit) {
		items = append(items, narrativeItem{key: p.ID, prompt: pathPrompt(p, nodes)})
	}
	for _, node := range topNodes(t, n.opts.NodeLimit) {
		items = append(items, narrativeItem{key: node.ID, prompt: nodePrompt(node, nodes)})
	}

	out := make(map[string]string, len(items))
	var errs []error
	skipped := 0
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", models.ErrNarrativeUnavailable, err))
			break
		}
		text, err := n.call(ctx, it.prompt)
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			skipped++
		case err != nil:
			errs = append(errs, fmt.Errorf("%w: %s: %w", models.ErrNarrativeUnavailable, it.key, err))
		default:
			out[it.key] = text
		}
	}
	if skipped > 0 {
		errs = append(errs, fmt.Errorf("%w: %d skipped while circuit breaker %s",
			models.ErrNarrativeUnavailable, skipped, n.breaker.State().String()))
	}
	if len(errs) > 0 {
		n.logger.Warn("narratives incomplete", "written", len(out), "attempted", len(items), "skipped", skipped)
		return out, errors.Join(errs...)
	}
	return out, nil
}

func (n *Narrator) call(ctx context.Context, prompt string) (string, error) {
	res, err := n.breaker.Execute(func() (interface{}, error) {
		cctx, cancel := context.WithTimeout(ctx, n.opts.Timeout)
		defer cancel()
		return n.gen.GenerateWithSystem(cctx, systemPrompt, prompt)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.(string)), nil
}

// topPaths returns the most likely paths, ties in extraction order.
func topPaths(paths []models.Path, limit int) []models.Path {
	sorted := slices.Clone(paths)
	slices.SortStableFunc(sorted, func(a, b models.Path) int {
		return cmp.Compare(b.CumulativeProbability, a.CumulativeProbability)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

// topNodes returns the most likely non-root nodes, ties in tree order.
func topNodes(t *models.Tree, limit int) []*models.Node {
	var sorted []*models.Node
	for _, node := range t.Nodes {
		if !node.IsRoot() {
			sorted = append(sorted, node)
		}
	}
	slices.SortStableFunc(sorted, func(a, b *models.Node) int {
		return cmp.Compare(b.CumulativeProbability, a.CumulativeProbability)
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func reportPrompt(t *models.Tree, r *models.AnalysisReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario tree: %d nodes, %d paths, depth %d.\n",
		t.Metadata.TotalNodes, r.TotalPaths, t.Metadata.MaxDepthReached)
	b.WriteString("Outcome distribution:\n")
	for _, d := range r.OutcomeDistribution {
		fmt.Fprintf(&b, "- %s: %d (%.0f%%)\n", d.OutcomeType, d.Count, d.Fraction*100)
	}
	fmt.Fprintf(&b, "Expected risk %.1f, expected opportunity %.1f.\n", r.ExpectedRisk, r.ExpectedOpportunity)
	if len(r.TopDrivers) > 0 {
		b.WriteString("Top drivers:\n")
		for _, d := range r.TopDrivers {
			fmt.Fprintf(&b, "- %s (%s, %s impact)\n", d.Category, d.Direction, d.Impact)
		}
	}
	if len(r.Contradictions) > 0 {
		fmt.Fprintf(&b, "%d probability contradictions were detected.\n", len(r.Contradictions))
	}
	b.WriteString("\nSummarize the overall outlook.")
	return b.String()
}

func pathPrompt(p models.Path, nodes map[string]*models.Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n", p.Label)
	fmt.Fprintf(&b, "Probability %.3f, classified %s, risk %.1f, opportunity %.1f.\n",
		p.CumulativeProbability, p.OutcomeType, p.RiskScore, p.OpportunityScore)
	var tags []string
	for _, id := range p.NodeIDs {
		if node, ok := nodes[id]; ok {
			tags = append(tags, node.FactorTags()...)
		}
	}
	if len(tags) > 0 {
		fmt.Fprintf(&b, "Factors along the way: %s\n", strings.Join(slices.Compact(tags), ", "))
	}
	b.WriteString("\nDescribe how this scenario unfolds.")
	return b.String()
}

func nodePrompt(node *models.Node, nodes map[string]*models.Node) string {
	var b strings.Builder
	from := "the start"
	if parent, ok := nodes[node.ParentID]; ok {
		from = parent.Label
	}
	fmt.Fprintf(&b, "State: %s, reached from %s at step %d.\n", node.Label, from, node.Depth)
	fmt.Fprintf(&b, "Step probability %.3f, overall probability %.3f, risk %.1f, opportunity %.1f.\n",
		node.EdgeProbability, node.CumulativeProbability, node.RiskScore, node.OpportunityScore)
	if tags := node.FactorTags(); len(tags) > 0 {
		fmt.Fprintf(&b, "Contributing factors: %s\n", strings.Join(tags, ", "))
	}
	b.WriteString("\nDescribe what this state means.")
	return b.String()
}
