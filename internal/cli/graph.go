package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/systemgraph/pkg/graph"
)

// graphCommand creates the graph command, which prints the graph behind a
// diagram.
func (c *CLI) graphCommand() *cobra.Command {
	var flags renderFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "graph <system>",
		Short: "Print the nodes and edges of a system",
		Long: `Print the graph a diagram is drawn from: one node per entity and one
labeled edge per relation, in build order. Use --json for the exchange
format accepted by the HTTP API.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, closer, err := c.newRunner(cmd.Context(), flags.noCache)
			if err != nil {
				return err
			}
			defer closer()

			g, err := runner.BuildGraph(cmd.Context(), c.options(args[0], flags))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return graph.WriteGraph(g, out)
			}
			writeGraphTables(out, g)
			fmt.Fprintln(out, statsLine(g.NodeCount(), g.EdgeCount()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the graph as JSON")
	cmd.Flags().BoolVar(&flags.refresh, "refresh", false, "skip cached catalog responses")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")

	return cmd
}

// writeGraphTables prints a node table and an edge table.
func writeGraphTables(w io.Writer, g graph.Graph) {
	nodeRows := make([][]string, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodeRows = append(nodeRows, []string{n.Kind(), n.ID, fmt.Sprint(len(g.EdgesFrom(n.ID)))})
	}
	fmt.Fprintln(w, StyleTitle.Render("Nodes"))
	fmt.Fprintln(w, newTable([]string{"Kind", "ID", "Out"}, nodeRows, 0).Render())

	if len(g.Edges) == 0 {
		return
	}
	edgeRows := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		edgeRows = append(edgeRows, []string{e.From, string(e.Label), e.To})
	}
	fmt.Fprintln(w, StyleTitle.Render("Edges"))
	fmt.Fprintln(w, newTable([]string{"From", "Label", "To"}, edgeRows, -1).Render())
	fmt.Fprintln(w, StyleDim.Render(kindSummary(g.Stats())))
}

// kindSummary formats per-kind node counts, e.g. "1 api · 2 component".
func kindSummary(s graph.Stats) string {
	kinds := make([]string, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)

	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", s.ByKind[k], k)
	}
	return strings.Join(parts, " · ")
}
