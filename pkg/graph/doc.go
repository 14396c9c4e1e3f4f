// Package graph builds the dependency diagram of a catalog system.
//
// # Overview
//
// [Build] turns a root system entity and the entities that belong to it into
// a flat, labeled node/edge graph. Node ids are display identifiers produced
// by [NormalizeRef] ("component:checkout", "api:team-a/pay"), so an entity
// reached through several relations still yields one node.
//
// The builder is a pure function: it performs no I/O, never fails on
// well-formed input and returns the same output for the same input order.
// Fetching the related entities is the caller's job (see pkg/pipeline).
//
// # Algorithm
//
//  1. The root entity's node comes first.
//  2. Every "part of" relation from the root to a domain adds the domain
//     node and a root -> domain edge. The domain does not need to be among
//     the fetched entities.
//  3. Each related entity, in input order, adds its node followed by its
//     outbound edges: "part of", then "provides API", then "depends on".
//     Targets outside the fetched set still get a node, so incomplete
//     catalog data shows up in the diagram instead of disappearing.
//
// Edges are never deduplicated: two entities linked by several relation
// types produce several edges.
//
// # Serialization
//
// Graphs use a simple node-link JSON format:
//
//	{
//	  "nodes": [{"id": "system:payments"}, {"id": "component:checkout"}],
//	  "edges": [{"from": "component:checkout", "to": "system:payments", "label": "part of"}]
//	}
//
// Use [WriteGraph]/[ReadGraph] for streams and [WriteGraphFile]/[ReadGraphFile]
// for files.
package graph
