// Package nodelink renders system graphs as node-link diagrams.
//
// # Overview
//
// This package produces directed graph visualizations using Graphviz. Each
// catalog entity becomes a node whose shape follows its kind (components are
// rounded boxes, APIs ellipses, resources cylinders, domains and systems
// tabbed folders) and each relation a labeled arrow.
//
// # Usage
//
// Convert a graph to DOT format, then render to SVG:
//
//	dot := nodelink.ToDOT(g, nodelink.Options{Direction: render.LR})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// [Renderer] wraps this behind the render.Renderer interface and adds PDF
// and PNG output through render.Convert.
//
// # Options
//
//   - Direction: Graphviz rankdir (TB by default)
//   - Detailed: node labels show the kind and the name on separate lines
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink
