// Package cache stores remote catalog responses and rendered artifacts.
//
// Backends implement [Cache]: [FileCache] for the CLI, [RedisCache] for
// the shared HTTP server and [NullCache] when caching is disabled. Keys come
// from a [Keyer]. Built graphs are never cached; artifacts are addressed by
// the hash of the graph they were drawn from.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTLs.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A TTL of zero means the entry never expires.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Clearer is implemented by caches that can drop all of their entries.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Default TTLs.
const (
	// TTLHTTP bounds how stale a remote catalog response may get.
	TTLHTTP = 15 * time.Minute
	// TTLArtifact applies to rendered diagrams. Artifact keys include the
	// graph hash, so entries never go stale and only expire to save space.
	TTLArtifact = 7 * 24 * time.Hour
)

// Keyer generates cache keys.
type Keyer interface {
	// HTTPKey is the key of a cached remote catalog response.
	HTTPKey(namespace, key string) string
	// ArtifactKey is the key of a diagram rendered from a graph.
	ArtifactKey(graphHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Direction string  `json:"direction"`
	Detailed  bool    `json:"detailed"`
	Scale     float64 `json:"scale"`
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default key scheme.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// HTTPKey returns "http:<namespace>:<key>".
func (DefaultKeyer) HTTPKey(namespace, key string) string {
	return "http:" + namespace + ":" + key
}

// ArtifactKey returns "artifact:<hash>" over the graph hash and options.
func (DefaultKeyer) ArtifactKey(graphHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", graphHash, opts)
}
