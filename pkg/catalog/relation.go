package catalog

import (
	"strings"
)

// RelationKind enumerates the well-known relation types between entities.
// Kinds outside this set decode to RelationUnknown.
type RelationKind int

const (
	RelationUnknown RelationKind = iota
	RelationOwnedBy
	RelationOwnerOf
	RelationPartOf
	RelationHasPart
	RelationProvidesAPI
	RelationAPIProvidedBy
	RelationConsumesAPI
	RelationAPIConsumedBy
	RelationDependsOn
	RelationDependencyOf
	RelationChildOf
	RelationParentOf
	RelationMemberOf
	RelationHasMember
)

var relationNames = [...]string{
	RelationUnknown:       "unknown",
	RelationOwnedBy:       "ownedBy",
	RelationOwnerOf:       "ownerOf",
	RelationPartOf:        "partOf",
	RelationHasPart:       "hasPart",
	RelationProvidesAPI:   "providesApi",
	RelationAPIProvidedBy: "apiProvidedBy",
	RelationConsumesAPI:   "consumesApi",
	RelationAPIConsumedBy: "apiConsumedBy",
	RelationDependsOn:     "dependsOn",
	RelationDependencyOf:  "dependencyOf",
	RelationChildOf:       "childOf",
	RelationParentOf:      "parentOf",
	RelationMemberOf:      "memberOf",
	RelationHasMember:     "hasMember",
}

var inverseRelations = map[RelationKind]RelationKind{
	RelationOwnedBy:       RelationOwnerOf,
	RelationOwnerOf:       RelationOwnedBy,
	RelationPartOf:        RelationHasPart,
	RelationHasPart:       RelationPartOf,
	RelationProvidesAPI:   RelationAPIProvidedBy,
	RelationAPIProvidedBy: RelationProvidesAPI,
	RelationConsumesAPI:   RelationAPIConsumedBy,
	RelationAPIConsumedBy: RelationConsumesAPI,
	RelationDependsOn:     RelationDependencyOf,
	RelationDependencyOf:  RelationDependsOn,
	RelationChildOf:       RelationParentOf,
	RelationParentOf:      RelationChildOf,
	RelationMemberOf:      RelationHasMember,
	RelationHasMember:     RelationMemberOf,
}

// ParseRelationKind maps a relation type name to its kind. Matching is
// case-insensitive; unknown names return RelationUnknown.
func ParseRelationKind(s string) RelationKind {
	for k, name := range relationNames {
		if k != int(RelationUnknown) && strings.EqualFold(name, s) {
			return RelationKind(k)
		}
	}
	return RelationUnknown
}

// String returns the relation type name as it appears in descriptors.
func (k RelationKind) String() string {
	if k < 0 || int(k) >= len(relationNames) {
		return relationNames[RelationUnknown]
	}
	return relationNames[k]
}

// Inverse returns the relation seen from the target's side
// (partOf <-> hasPart). RelationUnknown has no inverse.
func (k RelationKind) Inverse() (RelationKind, bool) {
	inv, ok := inverseRelations[k]
	return inv, ok
}

// MarshalText implements encoding.TextMarshaler.
func (k RelationKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Unknown names are not
// an error; they decode to RelationUnknown and are ignored downstream.
func (k *RelationKind) UnmarshalText(text []byte) error {
	*k = ParseRelationKind(string(text))
	return nil
}

// Relation is a directed, typed link from an entity to a target entity.
type Relation struct {
	Type   RelationKind `json:"type" bson:"type" yaml:"type"`
	Target Ref          `json:"targetRef" bson:"targetRef" yaml:"targetRef"`
}
