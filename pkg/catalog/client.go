package catalog

import (
	"context"
	"sync"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

// Client is the catalog collaborator used by the diagram pipeline.
// Implementations must be safe for concurrent use.
type Client interface {
	// GetEntities returns the entities matching filter, in a stable order.
	GetEntities(ctx context.Context, filter Filter) ([]Entity, error)

	// GetEntityByRef returns a single entity. It returns an error with code
	// ENTITY_NOT_FOUND when no entity has that reference.
	GetEntityByRef(ctx context.Context, ref Ref) (*Entity, error)
}

// ListSystems returns every System entity known to c.
func ListSystems(ctx context.Context, c Client) ([]Entity, error) {
	return c.GetEntities(ctx, Filter{Kinds: []string{KindSystem}})
}

type refreshKey struct{}

// WithRefresh marks ctx so that clients holding a response cache fetch from
// the backend instead of serving stored responses.
func WithRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshKey{}, true)
}

// RefreshRequested reports whether ctx was marked by WithRefresh.
func RefreshRequested(ctx context.Context) bool {
	v, _ := ctx.Value(refreshKey{}).(bool)
	return v
}

// NotFound builds the error returned for an unknown reference.
func NotFound(ref Ref) error {
	return errors.New(errors.ErrCodeEntityNotFound, "entity %s not found", ref)
}

// InMemory serves a fixed set of entities. It is the backing store of the
// file catalog and a convenient stand-in for tests.
type InMemory struct {
	mu       sync.RWMutex
	entities []Entity
	byID     map[string]int
}

// NewInMemory returns a client serving entities in the given order. Later
// duplicates of the same reference replace earlier ones in place.
func NewInMemory(entities []Entity) *InMemory {
	c := &InMemory{}
	c.Replace(entities)
	return c
}

// Replace swaps the served entity set.
func (c *InMemory) Replace(entities []Entity) {
	byID := make(map[string]int, len(entities))
	list := make([]Entity, 0, len(entities))
	for _, e := range entities {
		id := DisplayID(e.Ref())
		if i, ok := byID[id]; ok {
			list[i] = e
			continue
		}
		byID[id] = len(list)
		list = append(list, e)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entities = list
	c.byID = byID
}

// GetEntities returns matching entities in load order.
func (c *InMemory) GetEntities(ctx context.Context, filter Filter) ([]Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return filter.Apply(c.entities), nil
}

// GetEntityByRef looks an entity up by reference.
func (c *InMemory) GetEntityByRef(ctx context.Context, ref Ref) (*Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[DisplayID(ref)]
	if !ok {
		return nil, NotFound(ref)
	}
	e := c.entities[i]
	return &e, nil
}

// Len returns the number of entities served.
func (c *InMemory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}

var _ Client = (*InMemory)(nil)
