package nodelink

import (
	"context"

	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/render"
)

// Renderer implements render.Renderer with Graphviz.
type Renderer struct{}

var _ render.Renderer = Renderer{}

// New returns a Graphviz renderer.
func New() Renderer { return Renderer{} }

// Render draws g in the requested format. JSON output is the graph's
// node-link serialization and does not involve Graphviz.
func (Renderer) Render(ctx context.Context, g graph.Graph, format render.Format, opts render.Options) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	opts = opts.WithDefaults()

	if format == render.FormatJSON {
		return graph.MarshalGraph(g)
	}

	dot := ToDOT(g, Options{Direction: opts.Direction, Detailed: opts.Detailed})
	switch format {
	case render.FormatDOT:
		return []byte(dot), nil
	case render.FormatSVG:
		return RenderSVG(ctx, dot)
	case render.FormatPDF, render.FormatPNG:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.Convert(ctx, svg, format, scaleFor(format, opts))
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
}

func scaleFor(format render.Format, opts render.Options) float64 {
	if format == render.FormatPDF {
		return 1
	}
	return opts.Scale
}
