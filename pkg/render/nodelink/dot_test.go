package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/render"
)

func paymentsGraph() graph.Graph {
	return graph.Graph{
		Nodes: []graph.Node{
			{ID: "system:payments"},
			{ID: "domain:commerce"},
			{ID: "component:checkout"},
			{ID: "api:checkout-api"},
			{ID: "resource:orders-db"},
		},
		Edges: []graph.Edge{
			{From: "system:payments", To: "domain:commerce", Label: graph.LabelPartOf},
			{From: "component:checkout", To: "api:checkout-api", Label: graph.LabelProvidesAPI},
			{From: "component:checkout", To: "resource:orders-db", Label: graph.LabelDependsOn},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(paymentsGraph(), Options{})

	assert.True(t, strings.HasPrefix(dot, "digraph G {\n"))
	assert.Contains(t, dot, "rankdir=TB;")
	assert.Contains(t, dot, `"component:checkout" [label="component:checkout", shape=box`)
	assert.Contains(t, dot, `"api:checkout-api" [label="api:checkout-api", shape=ellipse`)
	assert.Contains(t, dot, `"resource:orders-db" [label="resource:orders-db", shape=cylinder`)
	assert.Contains(t, dot, `"system:payments" -> "domain:commerce" [label="part of", style=dashed`)
	assert.Contains(t, dot, `"component:checkout" -> "resource:orders-db" [label="depends on"`)
}

func TestToDOTDirection(t *testing.T) {
	for _, d := range []render.Direction{render.TB, render.BT, render.LR, render.RL} {
		assert.Contains(t, ToDOT(paymentsGraph(), Options{Direction: d}), "rankdir="+string(d)+";")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(paymentsGraph(), Options{Detailed: true})
	assert.Contains(t, dot, `label="«component»\ncheckout"`)
}

func TestToDOTNodeOrder(t *testing.T) {
	dot := ToDOT(paymentsGraph(), Options{})
	first := strings.Index(dot, `"system:payments" [`)
	last := strings.Index(dot, `"resource:orders-db" [`)
	require.True(t, first >= 0 && last >= 0)
	assert.Less(t, first, last)
}

func TestToDOTUnknownKind(t *testing.T) {
	g := graph.Graph{Nodes: []graph.Node{{ID: "group:team-payments"}}}
	assert.Contains(t, ToDOT(g, Options{}), `"group:team-payments" [label="group:team-payments", shape=box, style="rounded,filled", fillcolor="white"]`)
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="20pt" viewBox="0.00 0.00 100.50 200.00" xmlns="x"><g/></svg>`)
	out := string(normalizeViewBox(in))
	assert.Contains(t, out, `viewBox="0 0 100.50 200.00" width="100" height="200"`)
	assert.Contains(t, out, "<g/>")

	plain := []byte(`<svg><g/></svg>`)
	assert.Equal(t, plain, normalizeViewBox(plain))
}

func TestRendererTextFormats(t *testing.T) {
	r := New()
	ctx := context.Background()

	dot, err := r.Render(ctx, paymentsGraph(), render.FormatDOT, render.Options{Direction: render.LR})
	require.NoError(t, err)
	assert.Contains(t, string(dot), "rankdir=LR;")

	js, err := r.Render(ctx, paymentsGraph(), render.FormatJSON, render.Options{})
	require.NoError(t, err)
	assert.Contains(t, string(js), `"label": "provides API"`)
}

func TestRendererRejectsUnknownFormat(t *testing.T) {
	_, err := New().Render(context.Background(), paymentsGraph(), render.Format("gif"), render.Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat))
}

func TestRendererCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Render(ctx, paymentsGraph(), render.FormatDOT, render.Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRendererSVG(t *testing.T) {
	svg, err := New().Render(context.Background(), paymentsGraph(), render.FormatSVG, render.Options{})
	require.NoError(t, err)

	out := string(svg)
	assert.Contains(t, out, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)
	assert.Contains(t, out, "component:checkout")
	assert.Contains(t, out, "resource:orders-db")
}

func TestRendererPNGWithoutConverter(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	_, err := New().Render(context.Background(), paymentsGraph(), render.FormatPNG, render.Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeUnsupported), "got %v", err)
}
