package render

import (
	"context"
	"strings"

	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
)

// Direction is the rank direction of a diagram.
type Direction string

// Layout directions.
const (
	TB Direction = "TB"
	BT Direction = "BT"
	LR Direction = "LR"
	RL Direction = "RL"

	DefaultDirection = TB
)

// ParseDirection parses a direction case-insensitively. An empty string
// yields DefaultDirection.
func ParseDirection(s string) (Direction, error) {
	if strings.TrimSpace(s) == "" {
		return DefaultDirection, nil
	}
	switch d := Direction(strings.ToUpper(strings.TrimSpace(s))); d {
	case TB, BT, LR, RL:
		return d, nil
	}
	return "", errors.New(errors.ErrCodeInvalidDirection, "invalid direction %q (use TB, BT, LR or RL)", s)
}

// Format is a diagram output format.
type Format string

// Output formats.
const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatPDF  Format = "pdf"
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "invalid format %q", s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/vnd.graphviz"
	}
}

// Options configures a render.
type Options struct {
	Direction Direction
	// Detailed splits node labels into kind and name lines.
	Detailed bool
	// Scale is the PNG scale factor. Zero means DefaultScale.
	Scale float64
}

// DefaultScale produces 2x PNGs.
const DefaultScale = 2.0

// WithDefaults returns a copy with unset fields filled in.
func (o Options) WithDefaults() Options {
	if o.Direction == "" {
		o.Direction = DefaultDirection
	}
	if o.Scale <= 0 {
		o.Scale = DefaultScale
	}
	return o
}

// Renderer draws a graph in the requested format.
type Renderer interface {
	Render(ctx context.Context, g graph.Graph, format Format, opts Options) ([]byte, error)
}
