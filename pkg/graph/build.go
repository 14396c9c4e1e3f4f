package graph

import (
	"github.com/matzehuels/systemgraph/pkg/catalog"
)

// NormalizeRef returns the display identifier used as a node id.
// See [catalog.DisplayID].
func NormalizeRef(ref catalog.Ref) string {
	return catalog.DisplayID(ref)
}

// edgeRelations maps the relation kinds drawn for related entities to edge
// labels, in emission order.
var edgeRelations = []struct {
	kind  catalog.RelationKind
	label Label
}{
	{catalog.RelationPartOf, LabelPartOf},
	{catalog.RelationProvidesAPI, LabelProvidesAPI},
	{catalog.RelationDependsOn, LabelDependsOn},
}

// Build assembles the diagram of root from the entities that belong to it.
//
// related must already be filtered to the root system (see
// catalog.SystemFilter); it is processed in order and may contain the root
// itself. Relation kinds other than partOf, providesApi and dependsOn are
// ignored.
func Build(root catalog.Entity, related []catalog.Entity) Graph {
	b := newBuilder()

	rootID := NormalizeRef(root.Ref())
	b.addNode(rootID)

	for _, rel := range root.RelationsOf(catalog.RelationPartOf, catalog.KindDomain) {
		b.addEdge(rootID, NormalizeRef(rel.Target), LabelPartOf)
	}

	for _, e := range related {
		id := NormalizeRef(e.Ref())
		b.addNode(id)
		for _, er := range edgeRelations {
			for _, rel := range e.RelationsOf(er.kind) {
				b.addEdge(id, NormalizeRef(rel.Target), er.label)
			}
		}
	}

	return b.g
}

type builder struct {
	g    Graph
	seen map[string]bool
}

func newBuilder() *builder {
	return &builder{
		g:    Graph{Nodes: []Node{}, Edges: []Edge{}},
		seen: make(map[string]bool),
	}
}

func (b *builder) addNode(id string) {
	if b.seen[id] {
		return
	}
	b.seen[id] = true
	b.g.Nodes = append(b.g.Nodes, Node{ID: id})
}

// addEdge appends the edge and makes sure its target has a node, so
// references to entities outside the fetched set are still drawn.
func (b *builder) addEdge(from, to string, label Label) {
	b.g.Edges = append(b.g.Edges, Edge{From: from, To: to, Label: label})
	b.addNode(to)
}
