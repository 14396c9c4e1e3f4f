// Package backstage reads entities from a Backstage-compatible catalog REST
// API.
//
// The client implements catalog.Client. Responses are cached through a
// cache.Cache, transient failures (connection errors, 5xx, 429) are retried
// with exponential backoff, and HTTP statuses map to coded errors:
// 404 becomes ENTITY_NOT_FOUND, 401/403 UNAUTHORIZED and everything else
// NETWORK_ERROR.
package backstage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/matzehuels/systemgraph/pkg/cache"
	"github.com/matzehuels/systemgraph/pkg/catalog"
	"github.com/matzehuels/systemgraph/pkg/errors"
	"github.com/matzehuels/systemgraph/pkg/httputil"
	"github.com/matzehuels/systemgraph/pkg/observability"
)

const (
	httpTimeout = 10 * time.Second
	cacheNS     = "backstage"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the Backstage backend, e.g. https://backstage.example.com.
	BaseURL string
	// Token is sent as a bearer token when set.
	Token string
	// Cache stores responses. Nil disables caching.
	Cache cache.Cache
	// Keyer builds cache keys. Nil uses the default keyer.
	Keyer cache.Keyer
	// TTL of cached responses. Zero uses cache.TTLHTTP.
	TTL time.Duration
	// Refresh bypasses cached responses (they are still written). A single
	// call can do the same through catalog.WithRefresh.
	Refresh bool
	// HTTPClient overrides the default client with a 10s timeout.
	HTTPClient *http.Client
}

// Client talks to the catalog API.
type Client struct {
	base    *url.URL
	http    *http.Client
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	refresh bool
	headers map[string]string
}

// New validates opts and returns a client.
func New(opts Options) (*Client, error) {
	if err := errors.ValidateURL(opts.BaseURL); err != nil {
		return nil, err
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse backstage url")
	}

	c := &Client{
		base:    base,
		http:    opts.HTTPClient,
		cache:   opts.Cache,
		keyer:   opts.Keyer,
		ttl:     opts.TTL,
		refresh: opts.Refresh,
		headers: map[string]string{"Accept": "application/json"},
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: httpTimeout}
	}
	if c.cache == nil {
		c.cache = cache.NewNullCache()
	}
	if c.keyer == nil {
		c.keyer = cache.NewDefaultKeyer()
	}
	if c.ttl == 0 {
		c.ttl = cache.TTLHTTP
	}
	if opts.Token != "" {
		c.headers["Authorization"] = "Bearer " + opts.Token
	}
	return c, nil
}

// GetEntities queries /api/catalog/entities. Backstage ANDs the conditions
// of one filter parameter and ORs separate parameters, so a filter over
// several kinds and systems becomes one parameter per (kind, system) pair.
func (c *Client) GetEntities(ctx context.Context, filter catalog.Filter) ([]catalog.Entity, error) {
	u := c.endpoint("api", "catalog", "entities")
	if params := filterParams(filter); len(params) > 0 {
		q := url.Values{"filter": params}
		u.RawQuery = q.Encode()
	}

	var entities []catalog.Entity
	if err := c.cached(ctx, u.String(), &entities); err != nil {
		return nil, err
	}
	return dedupe(entities), nil
}

// GetEntityByRef fetches /api/catalog/entities/by-name/{kind}/{namespace}/{name}.
func (c *Client) GetEntityByRef(ctx context.Context, ref catalog.Ref) (*catalog.Entity, error) {
	u := c.endpoint("api", "catalog", "entities", "by-name",
		strings.ToLower(ref.Kind), ref.NamespaceOrDefault(), ref.Name)

	var e catalog.Entity
	if err := c.cached(ctx, u.String(), &e); err != nil {
		if errors.Is(err, errors.ErrCodeNotFound) {
			return nil, catalog.NotFound(ref)
		}
		return nil, err
	}
	return &e, nil
}

func (c *Client) endpoint(segments ...string) *url.URL {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return c.base.JoinPath(escaped...)
}

// cached returns the cached response for rawURL or fetches it with retries
// and stores it.
func (c *Client) cached(ctx context.Context, rawURL string, v any) error {
	key := c.keyer.HTTPKey(cacheNS, rawURL)
	if !c.refresh && !catalog.RefreshRequested(ctx) {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			if err := json.Unmarshal(data, v); err == nil {
				return nil
			}
		}
	}

	var body []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		body, err = c.get(ctx, rawURL)
		return err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrap(errors.ErrCodeCatalogFetch, err, "decode %s", rawURL)
	}
	_ = c.cache.Set(ctx, key, body, c.ttl)
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "GET %s", rawURL)
		}
		return nil, httputil.Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode, rawURL); err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(errors.ErrCodeCatalogFetch, err, "read %s", rawURL)
	}
	return raw, nil
}

func checkStatus(code int, rawURL string) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "GET %s: not found", rawURL)
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return errors.New(errors.ErrCodeUnauthorized, "GET %s: status %d", rawURL, code)
	case httputil.RetryableStatus(code):
		return httputil.Retryable(errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, code)
	}
}

// filterParams expands a filter into Backstage filter parameters.
func filterParams(f catalog.Filter) []string {
	kinds := make([]string, len(f.Kinds))
	for i, k := range f.Kinds {
		kinds[i] = "kind=" + strings.ToLower(k)
	}
	systems := make([]string, len(f.Systems))
	for i, s := range f.Systems {
		systems[i] = "spec.system=" + s
	}

	switch {
	case len(kinds) == 0:
		return systems
	case len(systems) == 0:
		return kinds
	}
	params := make([]string, 0, len(kinds)*len(systems))
	for _, k := range kinds {
		for _, s := range systems {
			params = append(params, fmt.Sprintf("%s,%s", k, s))
		}
	}
	return params
}

// dedupe drops repeated entities, keeping the first occurrence.
func dedupe(entities []catalog.Entity) []catalog.Entity {
	seen := make(map[string]bool, len(entities))
	out := entities[:0]
	for _, e := range entities {
		id := catalog.DisplayID(e.Ref())
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, e)
	}
	return out
}

var _ catalog.Client = (*Client)(nil)
