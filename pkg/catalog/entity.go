package catalog

import (
	"strings"
)

// Well-known entity kinds.
const (
	KindComponent = "Component"
	KindAPI       = "API"
	KindResource  = "Resource"
	KindSystem    = "System"
	KindDomain    = "Domain"
	KindGroup     = "Group"
	KindUser      = "User"
	KindLocation  = "Location"
)

// Entity is a catalog record.
type Entity struct {
	APIVersion string     `json:"apiVersion" bson:"apiVersion" yaml:"apiVersion" validate:"required"`
	Kind       string     `json:"kind" bson:"kind" yaml:"kind" validate:"required,alphanum"`
	Metadata   Metadata   `json:"metadata" bson:"metadata" yaml:"metadata"`
	Spec       Spec       `json:"spec,omitempty" bson:"spec,omitempty" yaml:"spec,omitempty"`
	Relations  []Relation `json:"relations,omitempty" bson:"relations,omitempty" yaml:"relations,omitempty"`
}

// Metadata holds the identifying and descriptive fields of an entity.
type Metadata struct {
	Name        string            `json:"name" bson:"name" yaml:"name" validate:"required,entityname"`
	Namespace   string            `json:"namespace,omitempty" bson:"namespace,omitempty" yaml:"namespace,omitempty" validate:"omitempty,entityname"`
	Title       string            `json:"title,omitempty" bson:"title,omitempty" yaml:"title,omitempty"`
	Description string            `json:"description,omitempty" bson:"description,omitempty" yaml:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" bson:"labels,omitempty" yaml:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" bson:"annotations,omitempty" yaml:"annotations,omitempty"`
	Tags        []string          `json:"tags,omitempty" bson:"tags,omitempty" yaml:"tags,omitempty"`
}

// Spec carries the kind-specific fields systemgraph understands. Fields that
// do not apply to an entity's kind are left empty.
type Spec struct {
	Type           string   `json:"type,omitempty" bson:"type,omitempty" yaml:"type,omitempty"`
	Lifecycle      string   `json:"lifecycle,omitempty" bson:"lifecycle,omitempty" yaml:"lifecycle,omitempty"`
	Owner          string   `json:"owner,omitempty" bson:"owner,omitempty" yaml:"owner,omitempty"`
	System         string   `json:"system,omitempty" bson:"system,omitempty" yaml:"system,omitempty"`
	Domain         string   `json:"domain,omitempty" bson:"domain,omitempty" yaml:"domain,omitempty"`
	SubdomainOf    string   `json:"subdomainOf,omitempty" bson:"subdomainOf,omitempty" yaml:"subdomainOf,omitempty"`
	SubcomponentOf string   `json:"subcomponentOf,omitempty" bson:"subcomponentOf,omitempty" yaml:"subcomponentOf,omitempty"`
	ProvidesAPIs   []string `json:"providesApis,omitempty" bson:"providesApis,omitempty" yaml:"providesApis,omitempty"`
	ConsumesAPIs   []string `json:"consumesApis,omitempty" bson:"consumesApis,omitempty" yaml:"consumesApis,omitempty"`
	DependsOn      []string `json:"dependsOn,omitempty" bson:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	DependencyOf   []string `json:"dependencyOf,omitempty" bson:"dependencyOf,omitempty" yaml:"dependencyOf,omitempty"`
}

// Ref returns the entity's reference.
func (e Entity) Ref() Ref {
	return Ref{Kind: e.Kind, Namespace: e.Metadata.Namespace, Name: e.Metadata.Name}
}

// IsKind reports whether the entity has the given kind (case-insensitive).
func (e Entity) IsKind(kind string) bool { return strings.EqualFold(e.Kind, kind) }

// DisplayName returns the title if set, otherwise the name.
func (e Entity) DisplayName() string {
	if e.Metadata.Title != "" {
		return e.Metadata.Title
	}
	return e.Metadata.Name
}

// RelationsOf returns the entity's outbound relations of the given type, in
// declaration order. When targetKinds is non-empty only relations pointing at
// one of those kinds are returned.
func (e Entity) RelationsOf(kind RelationKind, targetKinds ...string) []Relation {
	var out []Relation
	for _, rel := range e.Relations {
		if rel.Type != kind {
			continue
		}
		if len(targetKinds) > 0 && !matchesKind(rel.Target, targetKinds) {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func matchesKind(ref Ref, kinds []string) bool {
	for _, k := range kinds {
		if ref.IsKind(k) {
			return true
		}
	}
	return false
}
