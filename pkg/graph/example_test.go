package graph_test

import (
	"fmt"
	"os"

	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/graph"
)

func ExampleBuild() {
	root := catalog.Entity{
		Kind:     catalog.KindSystem,
		Metadata: catalog.Metadata{Name: "payments"},
	}
	checkout := catalog.Entity{
		Kind:     catalog.KindComponent,
		Metadata: catalog.Metadata{Name: "checkout"},
		Relations: []catalog.Relation{
			{Type: catalog.RelationDependsOn, Target: catalog.MustParseRef("component:default/cart")},
		},
	}

	g := graph.Build(root, []catalog.Entity{checkout})
	for _, n := range g.Nodes {
		fmt.Println(n.ID)
	}
	for _, e := range g.Edges {
		fmt.Printf("%s -[%s]-> %s\n", e.From, e.Label, e.To)
	}
	// Output:
	// system:payments
	// component:checkout
	// component:cart
	// component:checkout -[depends on]-> component:cart
}

func ExampleNormalizeRef() {
	fmt.Println(graph.NormalizeRef(catalog.Ref{Kind: "Component", Namespace: "default", Name: "checkout"}))
	fmt.Println(graph.NormalizeRef(catalog.Ref{Kind: "API", Namespace: "team-a", Name: "pay"}))
	// Output:
	// component:checkout
	// api:team-a/pay
}

func ExampleWriteGraph() {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "system:payments"}, {ID: "domain:commerce"}},
		Edges: []graph.Edge{{From: "system:payments", To: "domain:commerce", Label: graph.LabelPartOf}},
	}
	_ = graph.WriteGraph(g, os.Stdout)
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "system:payments"
	//     },
	//     {
	//       "id": "domain:commerce"
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "system:payments",
	//       "to": "domain:commerce",
	//       "label": "part of"
	//     }
	//   ]
	// }
}
