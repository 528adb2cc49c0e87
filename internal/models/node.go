// Package models defines the data structures shared by the outcome tree engine.
package models

// NodeType classifies a node's position in the tree.
type NodeType string

const (
	NodeTypeRoot    NodeType = "root"
	NodeTypeBranch  NodeType = "branch"
	NodeTypeOutcome NodeType = "outcome"
)

// Direction says whether a factor pushes toward opportunity or risk.
type Direction string

const (
	DirectionPositive Direction = "positive" // opportunity
	DirectionNegative Direction = "negative" // risk
)

// FactorContribution is a factor as applied to one node: its category,
// direction and weighted contribution to the node's new score.
type FactorContribution struct {
	Category     string    `json:"category"`
	Direction    Direction `json:"direction"`
	Severity     float64   `json:"severity"`
	Contribution float64   `json:"contribution"`
}

// Node is one possible state in the branching tree.
type Node struct {
	ID    string   `json:"id"`
	Type  NodeType `json:"type"`
	Depth int      `json:"depth"`
	Label string   `json:"label"`

	EdgeProbability       float64 `json:"edge_probability"`
	CumulativeProbability float64 `json:"cumulative_probability"`

	RiskScore        float64 `json:"risk_score"`
	OpportunityScore float64 `json:"opportunity_score"`

	Factors []FactorContribution `json:"factors,omitempty"`

	ParentID string   `json:"parent_id,omitempty"`
	Children []string `json:"children"`
}

// FactorTags returns the node's contributing factor categories in order.
func (n *Node) FactorTags() []string {
	tags := make([]string, 0, len(n.Factors))
	for _, f := range n.Factors {
		tags = append(tags, f.Category)
	}
	return tags
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool {
	return n.ParentID == ""
}

// Edge is a directed, probability-weighted transition between two nodes.
type Edge struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	Probability float64 `json:"probability"`
	Label       string  `json:"label,omitempty"`
}
