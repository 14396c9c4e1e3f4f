package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

const rsvgConvert = "rsvg-convert"

// Convert turns SVG into PDF or PNG with rsvg-convert, zoomed by scale. The
// process is killed when ctx is cancelled.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func Convert(ctx context.Context, svg []byte, format Format, scale float64) ([]byte, error) {
	if format != FormatPDF && format != FormatPNG {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "cannot convert SVG to %s", format)
	}
	path, err := exec.LookPath(rsvgConvert)
	if err != nil {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s not found; install librsvg to export %s", rsvgConvert, format)
	}
	if scale <= 0 {
		scale = 1
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path,
		"--format", string(format),
		"--zoom", strconv.FormatFloat(scale, 'f', -1, 64),
	)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "convert to %s", format)
		}
		return nil, fmt.Errorf("%s: %w: %s", rsvgConvert, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
