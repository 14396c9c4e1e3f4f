// Package render turns system graphs into diagrams.
//
// # Overview
//
// This package holds the pieces shared by every renderer:
//
//   - [Direction]: layout direction of the diagram (TB, BT, LR, RL)
//   - [Format]: output formats (svg, png, pdf, dot, json)
//   - [Renderer]: the interface renderers implement
//   - [Convert]: SVG to PDF or PNG through rsvg-convert
//
// The [nodelink] subpackage is the Graphviz-based implementation.
//
//	r := nodelink.New()
//	svg, err := r.Render(ctx, g, render.FormatSVG, render.Options{Direction: render.LR})
//
// # Format Conversion
//
// [Convert] shells out to rsvg-convert (librsvg). When it is not
// installed they fail with an UNSUPPORTED error, so callers can fall back to
// SVG.
//
// [nodelink]: github.com/matzehuels/systemgraph/pkg/render/nodelink
package render
