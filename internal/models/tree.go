package models

import "time"

// TreeMetadata summarizes a generated tree.
type TreeMetadata struct {
	TotalNodes      int       `json:"total_nodes"`
	TotalEdges      int       `json:"total_edges"`
	TotalPaths      int       `json:"total_paths"`
	MaxDepthReached int       `json:"max_depth_reached"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// Tree is the complete node/edge collection of one generation run.
// Nodes are stored in breadth-first insertion order; Nodes[0] is the root.
type Tree struct {
	RootID   string          `json:"root_id"`
	Config   GenerateRequest `json:"config"`
	Nodes    []*Node         `json:"nodes"`
	Edges    []Edge          `json:"edges"`
	Metadata TreeMetadata    `json:"metadata"`
}

// NodeMap returns a fresh lookup table from node ID to node.
func (t *Tree) NodeMap() map[string]*Node {
	m := make(map[string]*Node, len(t.Nodes))
	for _, n := range t.Nodes {
		m[n.ID] = n
	}
	return m
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	for _, n := range t.Nodes {
		if n.ID == t.RootID {
			return n
		}
	}
	return nil
}

// OutcomeNodes returns the outcome nodes in insertion order.
func (t *Tree) OutcomeNodes() []*Node {
	var out []*Node
	for _, n := range t.Nodes {
		if n.Type == NodeTypeOutcome {
			out = append(out, n)
		}
	}
	return out
}

// ChildEdges groups edges by parent ID, preserving insertion order.
func (t *Tree) ChildEdges() map[string][]Edge {
	m := make(map[string][]Edge)
	for _, e := range t.Edges {
		m[e.From] = append(m[e.From], e)
	}
	return m
}
