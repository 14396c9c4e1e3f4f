package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	c := NewInMemory([]Entity{
		{Kind: KindSystem, Metadata: Metadata{Name: "payments"}},
		component("checkout", Spec{System: "payments"}),
		component("cart", Spec{System: "payments"}),
		component("checkout", Spec{System: "payments", Lifecycle: "production"}),
	})

	assert.Equal(t, 3, c.Len(), "duplicate refs collapse")

	got, err := c.GetEntities(ctx, Filter{Kinds: []string{KindComponent}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "checkout", got[0].Metadata.Name)
	assert.Equal(t, "production", got[0].Spec.Lifecycle, "later duplicate wins")

	e, err := c.GetEntityByRef(ctx, MustParseRef("Component:default/CART"))
	require.NoError(t, err)
	assert.Equal(t, "cart", e.Metadata.Name)

	_, err = c.GetEntityByRef(ctx, MustParseRef("component:missing"))
	assert.True(t, errors.Is(err, errors.ErrCodeEntityNotFound))

	systems, err := ListSystems(ctx, c)
	require.NoError(t, err)
	require.Len(t, systems, 1)
	assert.Equal(t, "payments", systems[0].Metadata.Name)
}

func TestInMemoryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewInMemory(nil).GetEntities(ctx, Filter{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRefresh(t *testing.T) {
	ctx := context.Background()
	assert.False(t, RefreshRequested(ctx))
	assert.True(t, RefreshRequested(WithRefresh(ctx)))
}
