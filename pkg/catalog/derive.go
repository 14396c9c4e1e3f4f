package catalog

import (
	"github.com/matzehuels/systemgraph/pkg/errors"
)

// specLink describes one spec field that implies an outbound relation.
type specLink struct {
	relation    RelationKind
	defaultKind string
	values      func(Spec) []string
}

func one(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}

var (
	ownerLink        = specLink{RelationOwnedBy, KindGroup, func(s Spec) []string { return one(s.Owner) }}
	systemLink       = specLink{RelationPartOf, KindSystem, func(s Spec) []string { return one(s.System) }}
	dependsOnLink    = specLink{RelationDependsOn, "", func(s Spec) []string { return s.DependsOn }}
	dependencyOfLink = specLink{RelationDependencyOf, "", func(s Spec) []string { return s.DependencyOf }}
)

// kindLinks lists, per entity kind, the spec fields that produce relations.
// Order matters: relations are emitted in this order.
var kindLinks = map[string][]specLink{
	"component": {
		ownerLink,
		{RelationPartOf, KindComponent, func(s Spec) []string { return one(s.SubcomponentOf) }},
		{RelationProvidesAPI, KindAPI, func(s Spec) []string { return s.ProvidesAPIs }},
		{RelationConsumesAPI, KindAPI, func(s Spec) []string { return s.ConsumesAPIs }},
		dependsOnLink,
		dependencyOfLink,
		systemLink,
	},
	"api": {
		ownerLink,
		systemLink,
	},
	"resource": {
		ownerLink,
		dependsOnLink,
		dependencyOfLink,
		systemLink,
	},
	"system": {
		ownerLink,
		{RelationPartOf, KindDomain, func(s Spec) []string { return one(s.Domain) }},
	},
	"domain": {
		ownerLink,
		{RelationPartOf, KindDomain, func(s Spec) []string { return one(s.SubdomainOf) }},
	},
}

// DeriveRelations returns the outbound relations implied by the entity's spec
// fields. Short references inherit the entity's namespace and the kind the
// field implies; fields without an implied kind (dependsOn, dependencyOf)
// must carry one.
func DeriveRelations(e Entity) ([]Relation, error) {
	links := kindLinks[lower(e.Kind)]
	if len(links) == 0 {
		return nil, nil
	}

	var out []Relation
	for _, link := range links {
		for _, raw := range link.values(e.Spec) {
			target, err := ParseRef(raw, RefDefaults{
				Kind:      link.defaultKind,
				Namespace: e.Metadata.Namespace,
			})
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidEntity, err,
					"%s: invalid %s reference %q", e.Ref(), link.relation, raw)
			}
			out = append(out, Relation{Type: link.relation, Target: target})
		}
	}
	return out, nil
}

// Stitch completes the relations of an entity set the way a catalog backend
// does. Every entity gets its spec-derived relations merged into any
// relations it already declares, and every relation whose target is part of
// the set is mirrored on the target with the inverse type. Duplicate
// relations are dropped. Input order is preserved and the input slice is not
// modified.
func Stitch(entities []Entity) ([]Entity, error) {
	out := make([]Entity, len(entities))
	index := make(map[string]int, len(entities))
	seen := make([]map[relationKey]bool, len(entities))

	for i, e := range entities {
		out[i] = e
		out[i].Relations = nil
		index[DisplayID(e.Ref())] = i
		seen[i] = make(map[relationKey]bool)
	}

	add := func(i int, rel Relation) {
		key := relationKey{rel.Type, DisplayID(rel.Target)}
		if seen[i][key] {
			return
		}
		seen[i][key] = true
		out[i].Relations = append(out[i].Relations, rel)
	}

	for i, e := range entities {
		derived, err := DeriveRelations(e)
		if err != nil {
			return nil, err
		}
		for _, rel := range append(append([]Relation{}, e.Relations...), derived...) {
			add(i, rel)
		}
	}

	for i := range out {
		source := out[i].Ref()
		for _, rel := range out[i].Relations {
			j, ok := index[DisplayID(rel.Target)]
			if !ok {
				continue
			}
			if inv, ok := rel.Type.Inverse(); ok {
				add(j, Relation{Type: inv, Target: source})
			}
		}
	}
	return out, nil
}

type relationKey struct {
	kind   RelationKind
	target string
}
