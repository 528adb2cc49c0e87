package tree

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boomBust() *models.Extract {
	return &models.Extract{
		MapID: "m1",
		Transitions: []models.Transition{
			{FromLabel: "*", ToLabel: "boom", ObservedFrequency: 0.6, Trigger: "demand",
				Factors: []models.Factor{{Category: "market", Direction: models.DirectionPositive, Severity: 40}}},
			{FromLabel: "*", ToLabel: "bust", ObservedFrequency: 0.4, Trigger: "shock",
				Factors: []models.Factor{{Category: "credit", Direction: models.DirectionNegative, Severity: 50}}},
		},
	}
}

func request(mutate ...func(*models.GenerateRequest)) models.GenerateRequest {
	req := models.DefaultGenerateRequest()
	for _, fn := range mutate {
		fn(&req)
	}
	return req
}

func build(t *testing.T, e *models.Extract, req models.GenerateRequest) *models.Tree {
	t.Helper()
	tr, err := NewBuilder(Options{}, nil).Build(context.Background(), e, req)
	require.NoError(t, err)
	return tr
}

func childLabels(tr *models.Tree, n *models.Node) []string {
	nodes := tr.NodeMap()
	var out []string
	for _, id := range n.Children {
		out = append(out, nodes[id].Label)
	}
	return out
}

func TestBuildRejectsBadInput(t *testing.T) {
	b := NewBuilder(Options{}, nil)

	_, err := b.Build(context.Background(), &models.Extract{}, request())
	assert.True(t, errors.Is(err, models.ErrNoSourceData))

	_, err = b.Build(context.Background(), nil, request())
	assert.True(t, errors.Is(err, models.ErrNoSourceData))

	_, err = b.Build(context.Background(), boomBust(), request(func(r *models.GenerateRequest) { r.MaxDepth = 0 }))
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))

	_, err = b.Build(context.Background(), boomBust(), request(func(r *models.GenerateRequest) { r.MinProbability = 0.9 }))
	assert.True(t, errors.Is(err, models.ErrInvalidConfiguration))
}

func TestBuildTwoTransitions(t *testing.T) {
	tr := build(t, boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 2
		r.BranchingFactor = 2
		r.MinProbability = 0
	}))

	require.Len(t, tr.Nodes, 7)
	assert.Len(t, tr.Edges, 6)
	assert.Len(t, tr.OutcomeNodes(), 4)
	assert.Equal(t, models.TreeMetadata{TotalNodes: 7, TotalEdges: 6, MaxDepthReached: 2}, tr.Metadata)

	root := tr.Root()
	require.NotNil(t, root)
	assert.Equal(t, models.NodeTypeRoot, root.Type)
	assert.Equal(t, "start", root.Label)
	assert.Equal(t, 1.0, root.CumulativeProbability)
	assert.Equal(t, []string{"boom", "bust"}, childLabels(tr, root))

	var cums []float64
	for _, n := range tr.OutcomeNodes() {
		assert.Equal(t, 2, n.Depth)
		cums = append(cums, n.CumulativeProbability)
	}
	require.Len(t, cums, 4)
	assert.InDelta(t, 0.36, cums[0], 1e-9)
	assert.InDelta(t, 0.24, cums[1], 1e-9)
	assert.InDelta(t, 0.24, cums[2], 1e-9)
	assert.InDelta(t, 0.16, cums[3], 1e-9)

	for _, n := range tr.Nodes[1:3] {
		assert.Equal(t, models.NodeTypeBranch, n.Type)
	}
	assert.Equal(t, "demand", tr.Edges[0].Label)
	assert.Equal(t, "shock", tr.Edges[1].Label)
}

func TestBuildPrunesBelowMinProbability(t *testing.T) {
	tr := build(t, boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 2
		r.BranchingFactor = 2
		r.MinProbability = 0.2
	}))

	assert.Len(t, tr.Nodes, 6)
	bust := tr.Nodes[2]
	require.Equal(t, "bust", bust.Label)
	assert.Equal(t, []string{"boom"}, childLabels(tr, bust))
	for _, n := range tr.Nodes {
		assert.GreaterOrEqual(t, n.CumulativeProbability, 0.2)
	}
}

func TestBuildBranchingCapKeepsMostLikely(t *testing.T) {
	tr := build(t, boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 1
		r.BranchingFactor = 1
	}))
	assert.Equal(t, []string{"boom"}, childLabels(tr, tr.Root()))
}

func TestBuildTiesKeepExtractOrder(t *testing.T) {
	e := &models.Extract{Transitions: []models.Transition{
		{ToLabel: "x", ObservedFrequency: 0.5},
		{ToLabel: "y", ObservedFrequency: 0.5},
	}}
	tr := build(t, e, request(func(r *models.GenerateRequest) {
		r.MaxDepth = 1
		r.BranchingFactor = 1
	}))
	assert.Equal(t, []string{"x"}, childLabels(tr, tr.Root()))
}

func TestBuildFollowsLabeledTransitions(t *testing.T) {
	e := &models.Extract{Transitions: []models.Transition{
		{FromLabel: "start", ToLabel: "a", ObservedFrequency: 1},
		{FromLabel: "a", ToLabel: "b", ObservedFrequency: 1},
	}}
	tr := build(t, e, request(func(r *models.GenerateRequest) { r.MaxDepth = 5 }))

	require.Len(t, tr.Nodes, 3)
	assert.Equal(t, []string{"start", "a", "b"}, []string{tr.Nodes[0].Label, tr.Nodes[1].Label, tr.Nodes[2].Label})
	assert.Equal(t, 2, tr.Metadata.MaxDepthReached)
	assert.Equal(t, models.NodeTypeOutcome, tr.Nodes[2].Type)
}

func TestBuildRootWithoutCandidates(t *testing.T) {
	e := &models.Extract{
		Transitions: []models.Transition{{FromLabel: "start", ToLabel: "a", ObservedFrequency: 1}},
		SeedContext: map[string]string{"initial_state": "elsewhere"},
	}
	tr := build(t, e, request())

	require.Len(t, tr.Nodes, 1)
	assert.Equal(t, "elsewhere", tr.Nodes[0].Label)
	assert.Equal(t, models.NodeTypeRoot, tr.Nodes[0].Type)
	assert.Empty(t, tr.Edges)
}

func TestBuildScoresAccumulateWithDecay(t *testing.T) {
	tr := build(t, boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 2
		r.BranchingFactor = 2
		r.MinProbability = 0
	}))
	nodes := tr.NodeMap()
	bust := tr.Nodes[2]
	require.Equal(t, "bust", bust.Label)
	assert.InDelta(t, 50, bust.RiskScore, 1e-9)
	assert.InDelta(t, 0, bust.OpportunityScore, 1e-9)

	bustBust := nodes[bust.Children[1]]
	require.Equal(t, "bust", bustBust.Label)
	assert.InDelta(t, 0.6*50+50, bustBust.RiskScore, 1e-9)

	bustBoom := nodes[bust.Children[0]]
	assert.InDelta(t, 0.6*50, bustBoom.RiskScore, 1e-9)
	assert.InDelta(t, 40, bustBoom.OpportunityScore, 1e-9)
	require.Len(t, bustBoom.Factors, 1)
	assert.Equal(t, "market", bustBoom.Factors[0].Category)
}

func TestBuildKeepsPinnedPriors(t *testing.T) {
	tr := build(t, boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 1
		r.Priors = map[string]float64{"*->boom": 0.9, "*->bust": 0.5}
	}))
	require.Len(t, tr.Edges, 2)
	assert.Equal(t, 0.9, tr.Edges[0].Probability)
	assert.Equal(t, 0.5, tr.Edges[1].Probability)
}

func TestBuildNormalizesFreeEstimates(t *testing.T) {
	e := &models.Extract{Transitions: []models.Transition{
		{ToLabel: "x", ObservedFrequency: 0.9},
		{ToLabel: "y", ObservedFrequency: 0.6},
	}}
	tr := build(t, e, request(func(r *models.GenerateRequest) { r.MaxDepth = 1 }))
	require.Len(t, tr.Edges, 2)
	assert.InDelta(t, 0.6, tr.Edges[0].Probability, 1e-9)
	assert.InDelta(t, 0.4, tr.Edges[1].Probability, 1e-9)
}

func TestBuildIsDeterministic(t *testing.T) {
	seed := int64(42)
	cases := map[string]models.GenerateRequest{
		"weighted average":        request(),
		"bayesian":                request(func(r *models.GenerateRequest) { r.ProbabilityModel = models.ModelBayesian }),
		"monte carlo seeded":      request(func(r *models.GenerateRequest) { r.ProbabilityModel = models.ModelMonteCarlo; r.Seed = &seed }),
		"monte carlo fingerprint": request(func(r *models.GenerateRequest) { r.ProbabilityModel = models.ModelMonteCarlo }),
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			first, err := json.Marshal(build(t, boomBust(), req))
			require.NoError(t, err)
			for range 3 {
				again, err := json.Marshal(buildWith(t, 4, boomBust(), req))
				require.NoError(t, err)
				assert.Equal(t, string(first), string(again))
			}
		})
	}
}

func TestBuildNodeBudget(t *testing.T) {
	b := NewBuilder(Options{MaxNodes: 5}, nil)
	_, err := b.Build(context.Background(), boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 4
		r.MinProbability = 0
	}))
	assert.True(t, errors.Is(err, models.ErrGenerationTimeout))
}

func TestBuildHonorsContext(t *testing.T) {
	b := NewBuilder(Options{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.Build(ctx, boomBust(), request())
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, models.ErrGenerationTimeout))

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	_, err = b.Build(ctx, boomBust(), request())
	assert.True(t, errors.Is(err, models.ErrGenerationTimeout))
}

func TestBuildReportsProgress(t *testing.T) {
	var counts []int
	b := NewBuilder(Options{Concurrency: 1, Progress: func(n int) { counts = append(counts, n) }}, nil)
	_, err := b.Build(context.Background(), boomBust(), request(func(r *models.GenerateRequest) {
		r.MaxDepth = 2
		r.BranchingFactor = 2
		r.MinProbability = 0
	}))
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, counts)
}

func buildWith(t *testing.T, concurrency int, e *models.Extract, req models.GenerateRequest) *models.Tree {
	t.Helper()
	tr, err := NewBuilder(Options{Concurrency: concurrency}, nil).Build(context.Background(), e, req)
	require.NoError(t, err)
	return tr
}
