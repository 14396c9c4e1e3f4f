package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

func component(name string, spec Spec) Entity {
	return Entity{APIVersion: "backstage.io/v1alpha1", Kind: KindComponent, Metadata: Metadata{Name: name}, Spec: spec}
}

func targets(rels []Relation) []string {
	out := make([]string, len(rels))
	for i, r := range rels {
		out[i] = r.Type.String() + " " + DisplayID(r.Target)
	}
	return out
}

func TestDeriveRelationsComponent(t *testing.T) {
	e := component("checkout", Spec{
		Owner:          "team-payments",
		SubcomponentOf: "storefront",
		ProvidesAPIs:   []string{"checkout-api"},
		ConsumesAPIs:   []string{"api:ops/audit"},
		DependsOn:      []string{"component:cart", "resource:orders-db"},
		System:         "payments",
	})

	rels, err := DeriveRelations(e)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ownedBy group:team-payments",
		"partOf component:storefront",
		"providesApi api:checkout-api",
		"consumesApi api:ops/audit",
		"dependsOn component:cart",
		"dependsOn resource:orders-db",
		"partOf system:payments",
	}, targets(rels))
}

func TestDeriveRelationsInheritsNamespace(t *testing.T) {
	e := Entity{Kind: KindAPI, Metadata: Metadata{Name: "pay", Namespace: "team-a"}, Spec: Spec{System: "payments"}}

	rels, err := DeriveRelations(e)
	require.NoError(t, err)
	require.Len(t, rels, 1)
	assert.Equal(t, "system:team-a/payments", DisplayID(rels[0].Target))
}

func TestDeriveRelationsSystemDomain(t *testing.T) {
	e := Entity{Kind: KindSystem, Metadata: Metadata{Name: "payments"}, Spec: Spec{Domain: "commerce", Owner: "team-a"}}

	rels, err := DeriveRelations(e)
	require.NoError(t, err)
	assert.Equal(t, []string{"ownedBy group:team-a", "partOf domain:commerce"}, targets(rels))
}

func TestDeriveRelationsRequiresKind(t *testing.T) {
	e := component("checkout", Spec{DependsOn: []string{"cart"}})

	_, err := DeriveRelations(e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidEntity))
}

func TestDeriveRelationsUnknownKind(t *testing.T) {
	rels, err := DeriveRelations(Entity{Kind: "Template", Metadata: Metadata{Name: "x"}, Spec: Spec{Owner: "a"}})
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestStitch(t *testing.T) {
	in := []Entity{
		{Kind: KindSystem, Metadata: Metadata{Name: "payments"}, Spec: Spec{Domain: "commerce"}},
		component("checkout", Spec{System: "payments", ProvidesAPIs: []string{"checkout-api"}, DependsOn: []string{"component:cart"}}),
		{Kind: KindAPI, Metadata: Metadata{Name: "checkout-api"}, Spec: Spec{System: "payments"}},
	}

	out, err := Stitch(in)
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, []string{
		"partOf domain:commerce",
		"hasPart component:checkout",
		"hasPart api:checkout-api",
	}, targets(out[0].Relations))
	assert.Equal(t, []string{
		"providesApi api:checkout-api",
		"dependsOn component:cart",
		"partOf system:payments",
	}, targets(out[1].Relations))
	assert.Equal(t, []string{
		"partOf system:payments",
		"apiProvidedBy component:checkout",
	}, targets(out[2].Relations))

	assert.Empty(t, in[0].Relations, "input must not be modified")
}

func TestStitchDeduplicatesDeclaredRelations(t *testing.T) {
	e := component("checkout", Spec{System: "payments"})
	e.Relations = []Relation{{RelationPartOf, MustParseRef("system:default/payments")}}

	out, err := Stitch([]Entity{e})
	require.NoError(t, err)
	assert.Len(t, out[0].Relations, 1)
}

func TestStitchPropagatesErrors(t *testing.T) {
	_, err := Stitch([]Entity{component("checkout", Spec{DependsOn: []string{"cart"}})})
	assert.Error(t, err)
}
