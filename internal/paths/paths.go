// Package paths enumerates and classifies root-to-outcome paths.
package paths

import (
	"strings"

	"github.com/google/uuid"
	"github.com/raphaelgruber/branchcast/internal/models"
)

var pathNamespace = uuid.MustParse("0b9e4d6a-7c2f-5e1b-8d3a-4f6c2e9a1b57")

// Thresholds drive path classification. Scores are on the 0..100 scale.
type Thresholds struct {
	Significant float64 `yaml:"significant"`
	Negligible  float64 `yaml:"negligible"`
	Margin      float64 `yaml:"margin"`
}

// DefaultThresholds returns the stock classification thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{Significant: 60, Negligible: 20, Margin: 15}
}

// Classify maps a terminal node's scores to an outcome type.
func Classify(risk, opportunity float64, th Thresholds) models.OutcomeType {
	switch {
	case risk > th.Significant && opportunity > th.Significant:
		return models.OutcomeMixed
	case opportunity-risk > th.Margin:
		return models.OutcomePositive
	case risk-opportunity > th.Margin:
		return models.OutcomeNegative
	case risk < th.Negligible && opportunity < th.Negligible:
		return models.OutcomeUnknown
	default:
		return models.OutcomeNeutral
	}
}

// Extract walks the tree depth-first in child order and returns one
// classified path per outcome node. A root without children yields a single
// one-node path.
func Extract(t *models.Tree, th Thresholds) []models.Path {
	if t == nil {
		return nil
	}
	root := t.Root()
	if root == nil {
		return nil
	}
	nodes := t.NodeMap()

	var out []models.Path
	var walk func(n *models.Node, trail []*models.Node)
	walk = func(n *models.Node, trail []*models.Node) {
		trail = append(trail, n)
		if len(n.Children) == 0 {
			out = append(out, newPath(trail, th))
			return
		}
		for _, id := range n.Children {
			if c, ok := nodes[id]; ok {
				walk(c, trail)
			}
		}
	}
	walk(root, make([]*models.Node, 0, t.Metadata.MaxDepthReached+1))
	return out
}

func newPath(trail []*models.Node, th Thresholds) models.Path {
	ids := make([]string, len(trail))
	labels := make([]string, len(trail))
	for i, n := range trail {
		ids[i] = n.ID
		labels[i] = n.Label
	}
	end := trail[len(trail)-1]
	return models.Path{
		ID:                    uuid.NewSHA1(pathNamespace, []byte(end.ID)).String(),
		NodeIDs:               ids,
		OutcomeType:           Classify(end.RiskScore, end.OpportunityScore, th),
		CumulativeProbability: end.CumulativeProbability,
		RiskScore:             end.RiskScore,
		OpportunityScore:      end.OpportunityScore,
		Label:                 strings.Join(labels, " → "),
	}
}
