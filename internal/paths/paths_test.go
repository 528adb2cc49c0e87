package paths

import (
	"testing"

	"github.com/raphaelgruber/branchcast/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultThresholds(t *testing.T) {
	assert.Equal(t, Thresholds{Significant: 60, Negligible: 20, Margin: 15}, DefaultThresholds())
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name      string
		risk, opp float64
		want      models.OutcomeType
	}{
		{"both significant", 70, 75, models.OutcomeMixed},
		{"opportunity dominates", 20, 60, models.OutcomePositive},
		{"risk dominates", 80, 10, models.OutcomeNegative},
		{"both negligible", 10, 12, models.OutcomeUnknown},
		{"balanced middle", 40, 45, models.OutcomeNeutral},
		{"opportunity leads by 17", 30, 47, models.OutcomePositive},
		{"risk leads by 17", 47, 30, models.OutcomeNegative},
		{"both under negligible", 16, 18, models.OutcomeUnknown},
		{"gap at margin is neutral", 30, 45, models.OutcomeNeutral},
		{"gap just over margin", 30, 45.01, models.OutcomePositive},
		{"risk gap just over margin", 45.01, 30, models.OutcomeNegative},
		{"just under negligible", 19.9, 19.9, models.OutcomeUnknown},
		{"at negligible is neutral", 20, 20, models.OutcomeNeutral},
		{"significant is strict", 60, 60, models.OutcomeNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.risk, tt.opp, th))
		})
	}
}

// sampleTree is root → {a → {a1, a2}, b}.
func sampleTree() *models.Tree {
	nodes := []*models.Node{
		{ID: "r", Type: models.NodeTypeRoot, Label: "start", CumulativeProbability: 1, Children: []string{"a", "b"}},
		{ID: "a", Type: models.NodeTypeBranch, Depth: 1, Label: "a", ParentID: "r", CumulativeProbability: 0.6, Children: []string{"a1", "a2"}},
		{ID: "b", Type: models.NodeTypeOutcome, Depth: 1, Label: "b", ParentID: "r", CumulativeProbability: 0.4, RiskScore: 80, OpportunityScore: 5},
		{ID: "a1", Type: models.NodeTypeOutcome, Depth: 2, Label: "a1", ParentID: "a", CumulativeProbability: 0.3, RiskScore: 70, OpportunityScore: 75},
		{ID: "a2", Type: models.NodeTypeOutcome, Depth: 2, Label: "a2", ParentID: "a", CumulativeProbability: 0.3, RiskScore: 20, OpportunityScore: 60},
	}
	return &models.Tree{RootID: "r", Nodes: nodes, Metadata: models.TreeMetadata{MaxDepthReached: 2}}
}

func TestExtract(t *testing.T) {
	got := Extract(sampleTree(), DefaultThresholds())
	require.Len(t, got, 3)

	assert.Equal(t, []string{"r", "a", "a1"}, got[0].NodeIDs)
	assert.Equal(t, []string{"r", "a", "a2"}, got[1].NodeIDs)
	assert.Equal(t, []string{"r", "b"}, got[2].NodeIDs)

	assert.Equal(t, models.OutcomeMixed, got[0].OutcomeType)
	assert.Equal(t, models.OutcomePositive, got[1].OutcomeType)
	assert.Equal(t, models.OutcomeNegative, got[2].OutcomeType)

	assert.Equal(t, "start → a → a1", got[0].Label)
	assert.Equal(t, 0.4, got[2].CumulativeProbability)
	assert.Equal(t, 80.0, got[2].RiskScore)

	seen := map[string]bool{}
	for _, p := range got {
		assert.False(t, seen[p.ID], "duplicate path id %s", p.ID)
		seen[p.ID] = true
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	tr := sampleTree()
	assert.Equal(t, Extract(tr, DefaultThresholds()), Extract(tr, DefaultThresholds()))
}

func TestExtractChildlessRoot(t *testing.T) {
	tr := &models.Tree{RootID: "r", Nodes: []*models.Node{{ID: "r", Type: models.NodeTypeRoot, Label: "start", CumulativeProbability: 1}}}
	got := Extract(tr, DefaultThresholds())
	require.Len(t, got, 1)
	assert.Equal(t, []string{"r"}, got[0].NodeIDs)
	assert.Equal(t, models.OutcomeUnknown, got[0].OutcomeType)
}

func TestExtractNilTree(t *testing.T) {
	assert.Nil(t, Extract(nil, DefaultThresholds()))
	assert.Nil(t, Extract(&models.Tree{}, DefaultThresholds()))
}
