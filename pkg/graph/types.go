package graph

import (
	"strings"
)

// Label names the relationship an edge represents.
type Label string

// The only labels an edge can carry.
const (
	LabelPartOf      Label = "part of"
	LabelProvidesAPI Label = "provides API"
	LabelDependsOn   Label = "depends on"
)

// Labels lists every valid label in the order the builder emits them.
var Labels = []Label{LabelPartOf, LabelProvidesAPI, LabelDependsOn}

// Valid reports whether l is one of the three edge labels.
func (l Label) Valid() bool {
	switch l {
	case LabelPartOf, LabelProvidesAPI, LabelDependsOn:
		return true
	}
	return false
}

// Graph is the node/edge description of a system diagram. Both slices are
// in insertion order.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is a diagram vertex. ID is a display identifier and doubles as the
// visible label.
type Node struct {
	ID string `json:"id" bson:"id"`
}

// Kind returns the entity kind encoded in the node id ("component" for
// "component:checkout").
func (n Node) Kind() string {
	kind, _, ok := strings.Cut(n.ID, ":")
	if !ok {
		return ""
	}
	return kind
}

// Edge is a directed, labeled link between two nodes.
type Edge struct {
	From  string `json:"from" bson:"from"`
	To    string `json:"to" bson:"to"`
	Label Label  `json:"label" bson:"label"`
}

// NodeCount returns the number of nodes.
func (g Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of edges.
func (g Graph) EdgeCount() int { return len(g.Edges) }

// HasNode reports whether a node with the given id exists.
func (g Graph) HasNode(id string) bool {
	for _, n := range g.Nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}

// NodeIDs returns the node ids in order.
func (g Graph) NodeIDs() []string {
	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// EdgesFrom returns the edges leaving the node, in order.
func (g Graph) EdgesFrom(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.From == id {
			out = append(out, e)
		}
	}
	return out
}

// LabelCounts returns the number of edges per label. Every label is
// present, zero counts included.
func (g Graph) LabelCounts() map[Label]int {
	counts := make(map[Label]int, len(Labels))
	for _, l := range Labels {
		counts[l] = 0
	}
	for _, e := range g.Edges {
		counts[e.Label]++
	}
	return counts
}

// Stats summarizes a graph.
type Stats struct {
	Nodes   int            `json:"nodes"`
	Edges   int            `json:"edges"`
	ByKind  map[string]int `json:"by_kind"`
	ByLabel map[Label]int  `json:"by_label"`
}

// Stats counts nodes per entity kind and edges per label.
func (g Graph) Stats() Stats {
	s := Stats{
		Nodes:   len(g.Nodes),
		Edges:   len(g.Edges),
		ByKind:  make(map[string]int),
		ByLabel: g.LabelCounts(),
	}
	for _, n := range g.Nodes {
		s.ByKind[n.Kind()]++
	}
	return s
}
