package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemFilter(t *testing.T) {
	root := Entity{Kind: KindSystem, Metadata: Metadata{Name: "payments"}}
	f := SystemFilter(root)

	assert.Equal(t, DiagramKinds, f.Kinds)
	assert.Equal(t, []string{"payments", "default/payments"}, f.Systems)
	assert.Equal(t,
		"kind=component,kind=api,kind=resource,kind=system,kind=domain,spec.system=payments,spec.system=default/payments",
		f.String())
}

func TestFilterMatches(t *testing.T) {
	f := Filter{Kinds: []string{"Component", "API"}, Systems: []string{"payments", "default/payments"}}

	tests := []struct {
		name string
		e    Entity
		want bool
	}{
		{"component in system", component("checkout", Spec{System: "payments"}), true},
		{"namespaced system value", component("checkout", Spec{System: "default/payments"}), true},
		{"case-insensitive", Entity{Kind: "api", Spec: Spec{System: "Payments"}}, true},
		{"other system", component("checkout", Spec{System: "shipping"}), false},
		{"no system", component("checkout", Spec{}), false},
		{"wrong kind", Entity{Kind: KindGroup, Spec: Spec{System: "payments"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Matches(tt.e))
		})
	}
}

func TestEmptyFilterMatchesAll(t *testing.T) {
	assert.True(t, Filter{}.Matches(Entity{Kind: "Anything"}))
}

func TestFilterApplyKeepsOrder(t *testing.T) {
	in := []Entity{
		component("b", Spec{System: "payments"}),
		component("x", Spec{System: "other"}),
		component("a", Spec{System: "payments"}),
	}

	out := Filter{Systems: []string{"payments"}}.Apply(in)
	assert.Equal(t, "b", out[0].Metadata.Name)
	assert.Equal(t, "a", out[1].Metadata.Name)
}
