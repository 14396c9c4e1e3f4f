package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/render"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Direction is the Graphviz rankdir. Empty means top to bottom.
	Direction render.Direction
	// Detailed puts the entity kind and name on separate label lines.
	// When false, only the node ID is shown.
	Detailed bool
}

type nodeStyle struct {
	shape string
	style string
	fill  string
}

var (
	defaultStyle = nodeStyle{shape: "box", style: "rounded,filled", fill: "white"}

	kindStyles = map[string]nodeStyle{
		"system":    {shape: "tab", style: "filled", fill: "#dbe9f6"},
		"domain":    {shape: "folder", style: "filled", fill: "#e8e0f4"},
		"component": {shape: "box", style: "rounded,filled", fill: "white"},
		"api":       {shape: "ellipse", style: "filled", fill: "#e2f2e2"},
		"resource":  {shape: "cylinder", style: "filled", fill: "#fbeed5"},
	}

	edgeStyles = map[graph.Label]string{
		graph.LabelPartOf:      "style=dashed, arrowhead=empty",
		graph.LabelProvidesAPI: "arrowhead=normal",
		graph.LabelDependsOn:   "arrowhead=vee",
	}
)

// ToDOT converts a graph to Graphviz DOT format for node-link visualization.
// The resulting DOT string can be rendered with [RenderSVG].
//
// Nodes and edges are written in graph order, so the output is stable for a
// given graph.
func ToDOT(g graph.Graph, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = render.DefaultDirection
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [fontsize=16, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=12, fontcolor=\"#555555\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := fmt.Sprintf("label=%q", string(e.Label))
		if extra, ok := edgeStyles[e.Label]; ok {
			attrs += ", " + extra
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.From, e.To, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	kind, name, ok := strings.Cut(n.ID, ":")
	if !ok {
		return n.ID
	}
	return "«" + kind + "»\n" + name
}

func fmtAttrs(n graph.Node, label string) []string {
	s, ok := kindStyles[n.Kind()]
	if !ok {
		s = defaultStyle
	}
	return []string{
		fmt.Sprintf("label=%q", label),
		"shape=" + s.shape,
		fmt.Sprintf("style=%q", s.style),
		fmt.Sprintf("fillcolor=%q", s.fill),
	}
}

// RenderSVG lays out a DOT graph with the embedded Graphviz and returns SVG
// ready for display or for [render.Convert].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the diagram scales from a
// zero origin at its natural size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
