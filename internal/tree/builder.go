// Package tree builds probabilistic outcome trees from an extract.
package tree

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"

	"github.com/google/uuid"
	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/raphaelgruber/branchcast/internal/probability"
	"github.com/raphaelgruber/branchcast/internal/scoring"
	"github.com/raphaelgruber/branchcast/internal/validation"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxNodes caps tree size when Options.MaxNodes is unset.
const DefaultMaxNodes = 50000

// nodeNamespace scopes the name-based UUIDs used as node IDs.
var nodeNamespace = uuid.MustParse("6f1c5d3e-2b7a-5c7e-9a51-0d4b8e2f7c10")

// Options tunes a Builder.
type Options struct {
	// Weights are the file-level scoring weights; request weights override them.
	Weights scoring.Weights
	// MaxNodes is the node budget. Exceeding it fails with ErrGenerationTimeout.
	MaxNodes int
	// Concurrency bounds parallel sibling expansion (default GOMAXPROCS).
	Concurrency int
	// Progress is called after each level with the running node count.
	Progress func(nodes int)
}

// Builder expands outcome trees breadth-first.
type Builder struct {
	opts   Options
	logger *slog.Logger
}

// NewBuilder creates a builder. A nil logger uses slog.Default().
func NewBuilder(opts Options, logger *slog.Logger) *Builder {
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{opts: opts, logger: logger}
}

// run holds the read-only state shared by all expansions of one build.
type run struct {
	req    models.GenerateRequest
	model  probability.Model
	scorer scoring.Scorer
	index  candidateIndex
	seed   int64
}

// child is a candidate that survived pruning, ready to become a node.
type child struct {
	node *models.Node
	edge models.Edge
}

// Build generates the tree for one extract and request. The result depends
// only on its inputs: identical extract, request and seed produce identical
// trees. Metadata.GeneratedAt and Metadata.TotalPaths are left for the caller.
func (b *Builder) Build(ctx context.Context, extract *models.Extract, req models.GenerateRequest) (*models.Tree, error) {
	if extract.IsEmpty() {
		return nil, models.ErrNoSourceData
	}
	req = req.WithDefaults()
	if err := validation.ValidateRequest(req); err != nil {
		return nil, err
	}
	if err := validation.ValidateExtract(extract); err != nil {
		return nil, err
	}

	model, err := probability.NewModel(req)
	if err != nil {
		return nil, err
	}

	r := &run{
		req:    req,
		model:  model,
		scorer: scoring.NewScorer(req, b.opts.Weights),
		index:  buildIndex(extract, extract.InitialState()),
	}
	if model.NeedsRand() {
		if req.Seed != nil {
			r.seed = *req.Seed
		} else {
			r.seed = probability.Fingerprint(extract)
		}
	}

	label := extract.InitialState()
	root := &models.Node{
		ID:                    nodeID("root", label),
		Type:                  models.NodeTypeRoot,
		Label:                 label,
		EdgeProbability:       1,
		CumulativeProbability: 1,
		Children:              []string{},
	}

	t := &models.Tree{
		RootID: root.ID,
		Config: req,
		Nodes:  []*models.Node{root},
		Edges:  []models.Edge{},
	}

	frontier := []*models.Node{root}
	for depth := 0; depth < req.MaxDepth && len(frontier) > 0; depth++ {
		if err := ctx.Err(); err != nil {
			return nil, buildError(err)
		}

		expansions := make([][]child, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(b.opts.Concurrency)
		for i, parent := range frontier {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				expansions[i] = r.expand(parent)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, buildError(err)
		}
		if err := ctx.Err(); err != nil {
			return nil, buildError(err)
		}

		var next []*models.Node
		for i, parent := range frontier {
			for _, c := range expansions[i] {
				parent.Children = append(parent.Children, c.node.ID)
				t.Nodes = append(t.Nodes, c.node)
				t.Edges = append(t.Edges, c.edge)
				next = append(next, c.node)
			}
		}
		if len(t.Nodes) > b.opts.MaxNodes {
			return nil, fmt.Errorf("%w: %d nodes exceeds budget of %d", models.ErrGenerationTimeout, len(t.Nodes), b.opts.MaxNodes)
		}

		b.logger.Debug("tree level expanded", "depth", depth+1, "frontier", len(frontier), "added", len(next), "nodes", len(t.Nodes))
		if b.opts.Progress != nil {
			b.opts.Progress(len(t.Nodes))
		}
		frontier = next
	}

	maxDepth := 0
	for _, n := range t.Nodes {
		switch {
		case n.IsRoot():
			n.Type = models.NodeTypeRoot
		case len(n.Children) > 0:
			n.Type = models.NodeTypeBranch
		default:
			n.Type = models.NodeTypeOutcome
		}
		maxDepth = max(maxDepth, n.Depth)
	}
	t.Metadata = models.TreeMetadata{
		TotalNodes:      len(t.Nodes),
		TotalEdges:      len(t.Edges),
		MaxDepthReached: maxDepth,
	}
	return t, nil
}

// expand derives the surviving children of one node. It reads only the
// parent's finalized fields and the run's read-only state.
func (r *run) expand(parent *models.Node) []child {
	cands := r.index[parent.Label]
	if len(cands) == 0 {
		return nil
	}

	estimates := make([]probability.Estimate, len(cands))
	for i, c := range cands {
		ec := probability.EstimateContext{
			Signature:       c.signature,
			Observations:    c.observations,
			BranchingFactor: r.req.BranchingFactor,
		}
		if p, ok := r.req.Priors[c.signature]; ok {
			ec.Prior = &p
		}
		if r.model.NeedsRand() {
			ec.Rand = probability.NewRand(probability.SubSeed(r.seed, parent.ID, c.signature))
		}
		estimates[i] = probability.Estimate{P: r.model.Estimate(ec), Pinned: ec.Prior != nil}
	}
	estimates = probability.Normalize(estimates)

	type ranked struct {
		c *candidate
		p float64
	}
	order := make([]ranked, len(cands))
	for i, c := range cands {
		order[i] = ranked{c: c, p: estimates[i].P}
	}
	// Highest probability first; equal probabilities keep extract order.
	slices.SortStableFunc(order, func(a, b ranked) int {
		return cmp.Compare(b.p, a.p)
	})

	parentScores := scoring.Scores{Risk: parent.RiskScore, Opportunity: parent.OpportunityScore}
	var out []child
	for _, rc := range order {
		if len(out) == r.req.BranchingFactor {
			break
		}
		cum := parent.CumulativeProbability * rc.p
		if cum < r.req.MinProbability {
			continue
		}

		scores, contribs := r.scorer.Score(parentScores, rc.c.factors)
		n := &models.Node{
			ID:                    nodeID(parent.ID, rc.c.signature),
			Depth:                 parent.Depth + 1,
			Label:                 rc.c.to,
			EdgeProbability:       rc.p,
			CumulativeProbability: cum,
			RiskScore:             scores.Risk,
			OpportunityScore:      scores.Opportunity,
			Factors:               contribs,
			ParentID:              parent.ID,
			Children:              []string{},
		}
		out = append(out, child{
			node: n,
			edge: models.Edge{From: parent.ID, To: n.ID, Probability: rc.p, Label: rc.c.trigger},
		})
	}
	return out
}

func nodeID(parentID, signature string) string {
	return uuid.NewSHA1(nodeNamespace, []byte(parentID+"|"+signature)).String()
}

func buildError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrGenerationTimeout, err)
	}
	return fmt.Errorf("build cancelled: %w", err)
}
