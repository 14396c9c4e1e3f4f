package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/systemgraph/pkg/cache"
	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/catalog/file"
	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/render"
)

// memCache is a goroutine-safe in-memory cache.Cache.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ cache.Cache = (*memCache)(nil)

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

// fakeRenderer returns "<format>:<node count>" and counts calls.
type fakeRenderer struct {
	calls atomic.Int32
	fail  render.Format
}

func (f *fakeRenderer) Render(_ context.Context, g graph.Graph, format render.Format, _ render.Options) ([]byte, error) {
	f.calls.Add(1)
	if format == f.fail {
		return nil, errors.New(errors.ErrCodeUnsupported, "%s not available", format)
	}
	return []byte(fmt.Sprintf("%s:%d", format, g.NodeCount())), nil
}

// countingClient wraps a client and counts GetEntities calls.
type countingClient struct {
	catalog.Client
	fetches atomic.Int32
	err     error
}

func (c *countingClient) GetEntities(ctx context.Context, f catalog.Filter) ([]catalog.Entity, error) {
	c.fetches.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.Client.GetEntities(ctx, f)
}

func paymentsCatalog(t *testing.T) catalog.Client {
	t.Helper()
	raw := []catalog.Entity{
		{APIVersion: "backstage.io/v1alpha1", Kind: catalog.KindSystem,
			Metadata: catalog.Metadata{Name: "payments"}, Spec: catalog.Spec{Domain: "commerce"}},
		{APIVersion: "backstage.io/v1alpha1", Kind: catalog.KindComponent,
			Metadata: catalog.Metadata{Name: "checkout"},
			Spec:     catalog.Spec{System: "payments", DependsOn: []string{"component:cart"}, ProvidesAPIs: []string{"checkout-api"}}},
		{APIVersion: "backstage.io/v1alpha1", Kind: catalog.KindAPI,
			Metadata: catalog.Metadata{Name: "checkout-api"}, Spec: catalog.Spec{System: "payments"}},
		{APIVersion: "backstage.io/v1alpha1", Kind: catalog.KindComponent,
			Metadata: catalog.Metadata{Name: "billing"}, Spec: catalog.Spec{System: "invoicing"}},
	}
	stitched, err := catalog.Stitch(raw)
	if err != nil {
		t.Fatalf("Stitch: %v", err)
	}
	return catalog.NewInMemory(stitched)
}

func newTestRunner(t *testing.T, client catalog.Client) (*Runner, *fakeRenderer, *memCache) {
	t.Helper()
	mc := newMemCache()
	r := NewRunner(client, mc, nil, log.New(io.Discard))
	fr := &fakeRenderer{}
	r.Renderer = fr
	return r, fr, mc
}

func TestExecute(t *testing.T) {
	r, fr, _ := newTestRunner(t, paymentsCatalog(t))
	ctx := context.Background()

	res, err := r.Execute(ctx, Options{System: "payments", Formats: []string{"svg", "json"}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	ids := res.Graph.NodeIDs()
	if ids[0] != "system:payments" || ids[1] != "domain:commerce" {
		t.Errorf("node order = %v", ids)
	}
	if !res.Graph.HasNode("component:cart") {
		t.Error("dangling dependency should still be a node")
	}
	if res.Graph.HasNode("component:billing") {
		t.Error("entities of other systems must not be drawn")
	}
	if res.Root != "system:payments" || res.GraphHash == "" {
		t.Errorf("Result root/hash = %q/%q", res.Root, res.GraphHash)
	}
	if got := string(res.Artifacts[render.FormatSVG]); got != fmt.Sprintf("svg:%d", res.Stats.NodeCount) {
		t.Errorf("svg artifact = %q", got)
	}
	if fr.calls.Load() != 2 {
		t.Errorf("renderer calls = %d, want 2", fr.calls.Load())
	}
	if res.CacheInfo.RenderHit {
		t.Error("first run should miss the cache")
	}
	if res.Stats.EntityCount != 2 {
		t.Errorf("EntityCount = %d, want 2", res.Stats.EntityCount)
	}

	res2, err := r.Execute(ctx, Options{System: "payments", Formats: []string{"svg", "json"}})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}
	if !res2.CacheInfo.RenderHit {
		t.Errorf("second run cache info = %+v", res2.CacheInfo)
	}
	if fr.calls.Load() != 2 {
		t.Errorf("second run should not render, calls = %d", fr.calls.Load())
	}
	if res2.GraphHash != res.GraphHash {
		t.Error("an unchanged catalog should hash identically")
	}
}

func TestBuildGraphAlwaysFetches(t *testing.T) {
	client := &countingClient{Client: paymentsCatalog(t)}
	r, _, _ := newTestRunner(t, client)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := r.BuildGraph(ctx, Options{System: "payments"}); err != nil {
			t.Fatal(err)
		}
	}
	if client.fetches.Load() != 2 {
		t.Errorf("fetches = %d, want 2", client.fetches.Load())
	}
}

func writeCatalog(t *testing.T, dir, component string) {
	t.Helper()
	doc := `apiVersion: backstage.io/v1alpha1
kind: System
metadata:
  name: payments
---
apiVersion: backstage.io/v1alpha1
kind: Component
metadata:
  name: ` + component + `
spec:
  system: payments
`
	if err := os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestGraphFollowsCatalog(t *testing.T) {
	ctx := context.Background()
	shared, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	writeCatalog(t, dirA, "alpha")
	writeCatalog(t, dirB, "beta")

	catA, err := file.Load(ctx, dirA)
	if err != nil {
		t.Fatal(err)
	}
	catB, err := file.Load(ctx, dirB)
	if err != nil {
		t.Fatal(err)
	}

	runA := NewRunner(catA, shared, nil, log.New(io.Discard))
	runB := NewRunner(catB, shared, nil, log.New(io.Discard))
	runA.Renderer, runB.Renderer = &fakeRenderer{}, &fakeRenderer{}

	opts := Options{System: "payments", Formats: []string{"dot"}}
	resA, err := runA.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	resB, err := runB.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(resA.Graph.NodeIDs(), []string{"system:payments", "component:alpha"}) {
		t.Errorf("catalog A nodes = %v", resA.Graph.NodeIDs())
	}
	if !slices.Equal(resB.Graph.NodeIDs(), []string{"system:payments", "component:beta"}) {
		t.Errorf("catalog B nodes = %v", resB.Graph.NodeIDs())
	}
	if resA.GraphHash == resB.GraphHash {
		t.Error("different catalogs should not share a graph hash")
	}

	// Editing a descriptor is visible on the next run.
	writeCatalog(t, dirA, "gamma")
	if err := catA.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	resA2, err := runA.Execute(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if !resA2.Graph.HasNode("component:gamma") || resA2.Graph.HasNode("component:alpha") {
		t.Errorf("reloaded catalog nodes = %v", resA2.Graph.NodeIDs())
	}
	if resA2.CacheInfo.RenderHit {
		t.Error("a changed graph must not be served from the artifact cache")
	}
}

func TestFetchErrors(t *testing.T) {
	ctx := context.Background()

	r, _, _ := newTestRunner(t, paymentsCatalog(t))
	if _, err := r.Fetch(ctx, Options{System: "unknown"}); !errors.Is(err, errors.ErrCodeEntityNotFound) {
		t.Errorf("unknown system error = %v, want ENTITY_NOT_FOUND", err)
	}

	failing := &countingClient{Client: paymentsCatalog(t), err: fmt.Errorf("connection refused")}
	r, _, _ = newTestRunner(t, failing)
	_, err := r.Fetch(ctx, Options{System: "payments"})
	if !errors.Is(err, errors.ErrCodeCatalogFetch) {
		t.Errorf("fetch failure error = %v, want CATALOG_FETCH", err)
	}
}

func TestFetchRelated(t *testing.T) {
	r, _, _ := newTestRunner(t, paymentsCatalog(t))
	fetched, err := r.Fetch(context.Background(), Options{System: "system:default/payments"})
	if err != nil {
		t.Fatal(err)
	}
	if fetched.Root.Metadata.Name != "payments" {
		t.Errorf("root = %s", fetched.Root.Metadata.Name)
	}
	var names []string
	for _, e := range fetched.Related {
		names = append(names, e.Metadata.Name)
	}
	if fmt.Sprint(names) != "[checkout checkout-api]" {
		t.Errorf("related = %v", names)
	}
}

func TestRenderPartialCache(t *testing.T) {
	r, fr, _ := newTestRunner(t, paymentsCatalog(t))
	ctx := context.Background()
	g, err := r.BuildGraph(ctx, Options{System: "payments"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Render(ctx, g, Options{Formats: []string{"svg"}}); err != nil {
		t.Fatal(err)
	}
	artifacts, hit, err := r.RenderWithCacheInfo(ctx, g, Options{Formats: []string{"svg", "dot"}})
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("partial cache should not report a full hit")
	}
	if len(artifacts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(artifacts))
	}
	if fr.calls.Load() != 2 {
		t.Errorf("only the missing format should render, calls = %d", fr.calls.Load())
	}

	// different direction is a different artifact
	if _, err := r.Render(ctx, g, Options{Formats: []string{"svg"}, Direction: "LR"}); err != nil {
		t.Fatal(err)
	}
	if fr.calls.Load() != 3 {
		t.Errorf("direction change should re-render, calls = %d", fr.calls.Load())
	}
}

func TestRenderRefresh(t *testing.T) {
	r, fr, _ := newTestRunner(t, paymentsCatalog(t))
	ctx := context.Background()
	g, err := r.BuildGraph(ctx, Options{System: "payments"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := r.Render(ctx, g, Options{Formats: []string{"svg"}}); err != nil {
		t.Fatal(err)
	}
	_, hit, err := r.RenderWithCacheInfo(ctx, g, Options{Formats: []string{"svg"}, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if hit || fr.calls.Load() != 2 {
		t.Errorf("refresh should re-render, hit = %v calls = %d", hit, fr.calls.Load())
	}
}

func TestRenderErrorKeepsCode(t *testing.T) {
	r, fr, _ := newTestRunner(t, paymentsCatalog(t))
	fr.fail = render.FormatPNG
	ctx := context.Background()
	g, _ := r.BuildGraph(ctx, Options{System: "payments"})

	_, err := r.Render(ctx, g, Options{Formats: []string{"svg", "png"}})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Render() error = %v, want UNSUPPORTED", err)
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(catalog.NewInMemory(nil), nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil || r.Renderer == nil {
		t.Errorf("NewRunner() left nil fields: %+v", r)
	}
}
