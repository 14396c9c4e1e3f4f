package render

import (
	"context"
	"testing"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{"", TB, false},
		{"tb", TB, false},
		{" LR ", LR, false},
		{"rl", RL, false},
		{"BT", BT, false},
		{"up", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				if !errors.Is(err, errors.ErrCodeInvalidDirection) {
					t.Fatalf("ParseDirection(%q) error = %v, want INVALID_DIRECTION", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDirection(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseDirection(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if got, _ := ParseFormat("SVG"); got != FormatSVG {
		t.Errorf("ParseFormat(SVG) = %q", got)
	}
	if _, err := ParseFormat("gif"); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("ParseFormat(gif) error = %v, want INVALID_FORMAT", err)
	}
}

func TestContentType(t *testing.T) {
	tests := map[Format]string{
		FormatSVG:  "image/svg+xml",
		FormatPNG:  "image/png",
		FormatPDF:  "application/pdf",
		FormatJSON: "application/json",
		FormatDOT:  "text/vnd.graphviz",
	}
	for f, want := range tests {
		if got := f.ContentType(); got != want {
			t.Errorf("%s.ContentType() = %q, want %q", f, got, want)
		}
	}
}

func TestOptionsWithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	if o.Direction != TB || o.Scale != DefaultScale {
		t.Errorf("WithDefaults() = %+v", o)
	}
	o = Options{Direction: LR, Scale: 1}.WithDefaults()
	if o.Direction != LR || o.Scale != 1 {
		t.Errorf("WithDefaults() overrode set fields: %+v", o)
	}
}

func TestConvertRejectsTextFormats(t *testing.T) {
	for _, f := range []Format{FormatSVG, FormatDOT, FormatJSON} {
		_, err := Convert(context.Background(), []byte("<svg/>"), f, 1)
		if !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("Convert(%s) error = %v, want INVALID_FORMAT", f, err)
		}
	}
}

func TestConvertWithoutRsvg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := Convert(context.Background(), []byte("<svg/>"), FormatPDF, 1)
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Fatalf("Convert error = %v, want UNSUPPORTED", err)
	}
}
