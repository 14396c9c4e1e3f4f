package catalog

import (
	"strings"
)

// DiagramKinds are the entity kinds fetched when diagramming a system.
var DiagramKinds = []string{KindComponent, KindAPI, KindResource, KindSystem, KindDomain}

// Filter selects entities by kind and by the value of spec.system.
// An empty field matches everything. Matching is case-insensitive.
type Filter struct {
	Kinds   []string `json:"kind,omitempty"`
	Systems []string `json:"spec.system,omitempty"`
}

// SystemFilter returns the filter that selects the entities belonging to a
// system: every diagram kind whose spec.system names the root either as
// "name" or as "namespace/name".
func SystemFilter(root Entity) Filter {
	return Filter{
		Kinds: DiagramKinds,
		Systems: []string{
			root.Metadata.Name,
			root.Ref().NamespaceOrDefault() + "/" + root.Metadata.Name,
		},
	}
}

// Matches reports whether e satisfies the filter.
func (f Filter) Matches(e Entity) bool {
	if len(f.Kinds) > 0 && !containsFold(f.Kinds, e.Kind) {
		return false
	}
	if len(f.Systems) > 0 && !containsFold(f.Systems, e.Spec.System) {
		return false
	}
	return true
}

// Apply returns the entities that match the filter, in input order.
func (f Filter) Apply(entities []Entity) []Entity {
	var out []Entity
	for _, e := range entities {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// String renders the filter in the catalog query syntax, e.g.
// "kind=component,kind=api,spec.system=payments".
func (f Filter) String() string {
	var parts []string
	for _, k := range f.Kinds {
		parts = append(parts, "kind="+lower(k))
	}
	for _, s := range f.Systems {
		parts = append(parts, "spec.system="+s)
	}
	return strings.Join(parts, ",")
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
