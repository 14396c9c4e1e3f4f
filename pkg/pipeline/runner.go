package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/systemgraph/pkg/cache"
	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/observability"
	"github.com/matzehuels/systemgraph/pkg/render"
	"github.com/matzehuels/systemgraph/pkg/render/nodelink"
)

// maxParallelRenders bounds concurrent Graphviz/rsvg work per Render call.
const maxParallelRenders = 4

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for its collaborators; it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner with
// different options.
type Runner struct {
	Catalog  catalog.Client
	Renderer render.Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner over a catalog client.
// If keyer is nil, a DefaultKeyer is used.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(client catalog.Client, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Catalog:  client,
		Renderer: nodelink.New(),
		Cache:    c,
		Keyer:    keyer,
		Logger:   logger,
	}
}

// Execute runs the complete fetch → build → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{Root: catalog.DisplayID(opts.root)}

	buildStart := time.Now()
	fetched, g, err := r.build(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Stats.BuildTime = time.Since(buildStart)
	result.Stats.EntityCount = len(fetched.Related)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()

	hash, err := g.Hash()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	result.GraphHash = hash

	r.Logger.Info("built graph",
		"system", result.Root,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"entities", result.Stats.EntityCount,
		"duration", result.Stats.BuildTime)

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, g, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Fetch resolves the root system and the entities that belong to it.
//
// A missing root keeps its ENTITY_NOT_FOUND code; every other catalog
// failure is reported as CATALOG_FETCH. With opts.Refresh the catalog is
// asked to skip cached responses.
func (r *Runner) Fetch(ctx context.Context, opts Options) (*Fetched, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForFetch(); err != nil {
		return nil, err
	}
	if opts.Refresh {
		ctx = catalog.WithRefresh(ctx)
	}

	id := catalog.DisplayID(opts.root)
	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, id)
	start := time.Now()

	fetched, err := r.fetch(ctx, opts.root)

	count := 0
	if fetched != nil {
		count = len(fetched.Related)
	}
	hooks.OnFetchComplete(ctx, id, count, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Debug("fetched entities", "system", id, "count", count)
	return fetched, nil
}

func (r *Runner) fetch(ctx context.Context, ref catalog.Ref) (*Fetched, error) {
	root, err := r.Catalog.GetEntityByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, errors.ErrCodeEntityNotFound) {
			return nil, err
		}
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, err, "fetch %s", catalog.DisplayID(ref))
	}
	if !root.IsKind(catalog.KindSystem) {
		return nil, errors.New(errors.ErrCodeInvalidRef, "%s is not a system", catalog.DisplayID(root.Ref()))
	}

	related, err := r.Catalog.GetEntities(ctx, catalog.SystemFilter(*root))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, err, "fetch entities of %s", catalog.DisplayID(ref))
	}
	return &Fetched{Root: *root, Related: related}, nil
}

// BuildGraph fetches the system and builds its graph. Nothing is cached at
// this stage: every call reflects the catalog as it is now.
func (r *Runner) BuildGraph(ctx context.Context, opts Options) (graph.Graph, error) {
	_, g, err := r.build(ctx, opts)
	return g, err
}

func (r *Runner) build(ctx context.Context, opts Options) (*Fetched, graph.Graph, error) {
	fetched, err := r.Fetch(ctx, opts)
	if err != nil {
		return nil, graph.Graph{}, err
	}

	start := time.Now()
	g := graph.Build(fetched.Root, fetched.Related)
	observability.Pipeline().OnBuildComplete(ctx, catalog.DisplayID(fetched.Root.Ref()), g.NodeCount(), g.EdgeCount(), time.Since(start))
	return fetched, g, nil
}

// RenderWithCacheInfo renders g in every requested format and reports
// whether all artifacts came from cache. Missing formats are rendered
// concurrently. opts.Refresh re-renders every format.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, g graph.Graph, opts Options) (map[render.Format][]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	graphHash, err := g.Hash()
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}

	hooks := observability.Cache()
	artifacts := make(map[render.Format][]byte, len(opts.formats))
	var missing []render.Format
	for _, f := range opts.formats {
		if !opts.Refresh {
			key := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(f))
			if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
				hooks.OnCacheHit(ctx, "artifact")
				artifacts[f] = data
				continue
			}
			hooks.OnCacheMiss(ctx, "artifact")
		}
		missing = append(missing, f)
	}
	if len(missing) == 0 {
		return artifacts, true, nil
	}

	names := make([]string, len(missing))
	for i, f := range missing {
		names[i] = string(f)
	}
	observability.Pipeline().OnRenderStart(ctx, names)
	start := time.Now()

	ro := opts.RenderOptions()
	var mu sync.Mutex
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelRenders)
	for _, f := range missing {
		eg.Go(func() error {
			data, err := r.Renderer.Render(egCtx, g, f, ro)
			if err != nil {
				return errors.Wrap(errors.GetCodeOr(err, errors.ErrCodeInternal), err, "render %s", f)
			}
			mu.Lock()
			artifacts[f] = data
			mu.Unlock()
			return nil
		})
	}
	err = eg.Wait()
	observability.Pipeline().OnRenderComplete(ctx, names, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	for _, f := range missing {
		key := r.Keyer.ArtifactKey(graphHash, opts.ArtifactKeyOpts(f))
		if err := r.Cache.Set(ctx, key, artifacts[f], cache.TTLArtifact); err == nil {
			hooks.OnCacheSet(ctx, "artifact", len(artifacts[f]))
		}
	}
	return artifacts, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, g graph.Graph, opts Options) (map[render.Format][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, g, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
