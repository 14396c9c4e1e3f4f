package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

const paymentsYAML = `
apiVersion: backstage.io/v1alpha1
kind: System
metadata:
  name: payments
  title: Payments
spec:
  owner: team-payments
  domain: commerce
---
apiVersion: backstage.io/v1alpha1
kind: Component
metadata:
  name: checkout
  annotations:
    github.com/project-slug: acme/checkout
spec:
  type: service
  lifecycle: production
  owner: team-payments
  system: payments
  providesApis: [checkout-api]
  dependsOn:
    - component:cart
relations:
  - type: dependsOn
    targetRef: resource:default/orders-db
  - type: relatedTo
    targetRef: component:default/legacy
---
`

func TestParseDescriptors(t *testing.T) {
	entities, err := ParseDescriptors(strings.NewReader(paymentsYAML))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	sys := entities[0]
	assert.Equal(t, KindSystem, sys.Kind)
	assert.Equal(t, "Payments", sys.DisplayName())
	assert.Equal(t, "commerce", sys.Spec.Domain)

	comp := entities[1]
	assert.Equal(t, []string{"checkout-api"}, comp.Spec.ProvidesAPIs)
	assert.Equal(t, "acme/checkout", comp.Metadata.Annotations["github.com/project-slug"])
	require.Len(t, comp.Relations, 2)
	assert.Equal(t, RelationDependsOn, comp.Relations[0].Type)
	assert.Equal(t, "resource:orders-db", DisplayID(comp.Relations[0].Target))
	assert.Equal(t, RelationUnknown, comp.Relations[1].Type)
}

func TestParseDescriptorsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing name":   "apiVersion: v1\nkind: Component\nmetadata: {}\n",
		"bad name":       "apiVersion: v1\nkind: Component\nmetadata:\n  name: -bad-\n",
		"missing kind":   "apiVersion: v1\nmetadata:\n  name: ok\n",
		"bad yaml":       "kind: [unclosed\n",
		"bad target ref": "apiVersion: v1\nkind: Component\nmetadata:\n  name: ok\nrelations:\n  - type: dependsOn\n    targetRef: cart\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDescriptors(strings.NewReader(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrCodeInvalidEntity), err.Error())
		})
	}
}

func TestMarshalDescriptors(t *testing.T) {
	entities, err := ParseDescriptors(strings.NewReader(paymentsYAML))
	require.NoError(t, err)

	data, err := MarshalDescriptors(entities[1:])
	require.NoError(t, err)
	assert.Contains(t, string(data), "targetRef: resource:default/orders-db")
	assert.Contains(t, string(data), "type: dependsOn")
}

func TestValidate(t *testing.T) {
	ok := Entity{APIVersion: "v1", Kind: KindComponent, Metadata: Metadata{Name: "checkout.v2", Namespace: "team-a"}}
	assert.NoError(t, Validate(ok))

	long := ok
	long.Metadata.Name = strings.Repeat("a", 64)
	assert.Error(t, Validate(long))

	badNS := ok
	badNS.Metadata.Namespace = "team a"
	assert.Error(t, Validate(badNS))
}
