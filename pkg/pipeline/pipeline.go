// Package pipeline runs the fetch → build → render flow for a system
// diagram.
//
// The CLI, the HTTP server and the interactive viewer all go through a
// [Runner], so caching, logging and error codes behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Fetch: resolve the root system and the entities that belong to it
//     through a catalog.Client
//  2. Build: turn them into a graph.Graph (pure, see graph.Build)
//  3. Render: draw the graph in each requested format
//
// The graph is rebuilt from a fresh fetch on every run. Rendered artifacts
// are cached by graph hash and render options, so an unchanged system is
// never re-rendered while any catalog change produces a new graph hash.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, c, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    System:  "payments",
//	    Formats: []string{"svg", "png"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[render.FormatSVG]
//
// Run individual stages:
//
//	fetched, err := runner.Fetch(ctx, opts)
//	g, err := runner.BuildGraph(ctx, opts)
//	artifacts, err := runner.Render(ctx, g, opts)
package pipeline

import (
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/systemgraph/pkg/cache"
	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/graph"
	"github.com/matzehuels/systemgraph/pkg/render"
)

// systemRefDefaults resolves bare names ("payments") to system refs.
var systemRefDefaults = catalog.RefDefaults{Kind: catalog.KindSystem, Namespace: catalog.DefaultNamespace}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// System is the root reference: "payments", "team-a/payments" or
	// "system:team-a/payments".
	System string `json:"system"`
	// Refresh skips cached catalog responses and cached artifacts. Fresh
	// results are still written back.
	Refresh bool `json:"refresh,omitempty"`

	// Render options
	Formats   []string `json:"formats,omitempty"`
	Direction string   `json:"direction,omitempty"`
	Detailed  bool     `json:"detailed,omitempty"`
	Scale     float64  `json:"scale,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	root      catalog.Ref
	formats   []render.Format
	direction render.Direction
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Root is the display id of the diagrammed system.
	Root string

	// Graph is the built system graph.
	Graph graph.Graph

	// GraphHash is the content hash of the graph.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[render.Format][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	EntityCount int
	NodeCount   int
	EdgeCount   int
	BuildTime   time.Duration
	RenderTime  time.Duration
}

// CacheInfo tracks cache hits. Only rendering is cached.
type CacheInfo struct {
	RenderHit bool // Whether all artifacts came from cache
}

// Fetched is the catalog data a graph is built from.
type Fetched struct {
	Root    catalog.Entity
	Related []catalog.Entity
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateForFetch checks the root reference.
func (o *Options) ValidateForFetch() error {
	if err := errors.ValidateRefString(o.System); err != nil {
		return err
	}
	ref, err := catalog.ParseRef(o.System, systemRefDefaults)
	if err != nil {
		return err
	}
	if !ref.IsKind(catalog.KindSystem) {
		return errors.New(errors.ErrCodeInvalidRef, "%s is not a system", catalog.DisplayID(ref))
	}
	o.root = ref
	o.setLoggerDefault()
	return nil
}

// ValidateForRender parses formats and direction, applying defaults.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()

	formats := make([]render.Format, 0, len(o.Formats))
	for _, s := range o.Formats {
		f, err := render.ParseFormat(s)
		if err != nil {
			return err
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	dir, err := render.ParseDirection(o.Direction)
	if err != nil {
		return err
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must not be negative")
	}
	o.formats = formats
	o.direction = dir
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if err := o.ValidateForFetch(); err != nil {
		return err
	}
	return o.ValidateForRender()
}

// SetRenderDefaults sets default values for rendering.
func (o *Options) SetRenderDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{string(render.FormatSVG)}
	}
	if o.Direction == "" {
		o.Direction = string(render.DefaultDirection)
	}
	o.setLoggerDefault()
}

func (o *Options) setLoggerDefault() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Root returns the parsed root reference. It is zero until ValidateForFetch
// succeeds.
func (o *Options) Root() catalog.Ref { return o.root }

// RenderOptions returns the renderer options. Call ValidateForRender first.
func (o *Options) RenderOptions() render.Options {
	return render.Options{Direction: o.direction, Detailed: o.Detailed, Scale: o.Scale}.WithDefaults()
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format render.Format) cache.ArtifactKeyOpts {
	ro := o.RenderOptions()
	return cache.ArtifactKeyOpts{
		Format:    string(format),
		Direction: string(ro.Direction),
		Detailed:  ro.Detailed,
		Scale:     ro.Scale,
	}
}
