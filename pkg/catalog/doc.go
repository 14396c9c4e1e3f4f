// Package catalog models software catalog entities and the references and
// relations between them.
//
// # Entities
//
// An [Entity] is a catalog record (Component, API, Resource, System, Domain,
// Group, ...) identified by a [Ref]: kind, namespace and name. Entities are
// usually authored as YAML descriptor files and decoded with
// [ParseDescriptors]:
//
//	apiVersion: backstage.io/v1alpha1
//	kind: Component
//	metadata:
//	  name: checkout
//	spec:
//	  type: service
//	  owner: team-payments
//	  system: payments
//	  providesApis: [checkout-api]
//	  dependsOn: [component:cart]
//
// # Relations
//
// Relations are explicit, directed links tagged with a [RelationKind].
// [DeriveRelations] computes the outbound relations implied by an entity's
// spec fields, and [Stitch] adds the inverse relation to every target that is
// part of the same set, so that a loaded catalog looks the same as one served
// by a catalog backend.
//
// # Display identifiers
//
// [DisplayID] turns a reference into the lowercase, namespace-elided string
// used as a diagram node id: "component:default/Checkout" becomes
// "component:checkout", while "component:team-a/checkout" keeps its
// namespace. Lower-casing always uses a fixed locale.
//
// # Clients
//
// The [Client] interface is the catalog collaborator used by the diagram
// pipeline. [InMemory] serves a fixed entity set; the file, mongo and
// backstage sub-packages provide the other backends.
package catalog
