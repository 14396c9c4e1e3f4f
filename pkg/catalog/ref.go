package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matzehuels/systemgraph/pkg/errors"
)

// DefaultNamespace is the namespace assumed when a reference omits one.
const DefaultNamespace = "default"

// Ref identifies a catalog entity.
//
// The zero value is not a valid reference. Use [ParseRef] to read refs from
// descriptor fields or user input.
type Ref struct {
	Kind      string
	Namespace string // empty means DefaultNamespace
	Name      string
}

// RefDefaults supplies the kind and namespace used when a string reference
// omits them.
type RefDefaults struct {
	Kind      string
	Namespace string
}

// ParseRef parses a reference of the form [kind:][namespace/]name.
//
// Missing parts are taken from defaults. A reference without a kind and no
// default kind is rejected, as are empty parts ("component:" or "default/").
func ParseRef(s string, defaults RefDefaults) (Ref, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Ref{}, errors.New(errors.ErrCodeInvalidRef, "entity ref cannot be empty")
	}

	ref := Ref{Kind: defaults.Kind, Namespace: defaults.Namespace}
	rest := raw

	if i := strings.Index(rest, ":"); i >= 0 {
		ref.Kind = rest[:i]
		rest = rest[i+1:]
		if ref.Kind == "" {
			return Ref{}, errors.New(errors.ErrCodeInvalidRef, "entity ref %q has an empty kind", raw)
		}
	}
	if i := strings.Index(rest, "/"); i >= 0 {
		ref.Namespace = rest[:i]
		rest = rest[i+1:]
		if ref.Namespace == "" {
			return Ref{}, errors.New(errors.ErrCodeInvalidRef, "entity ref %q has an empty namespace", raw)
		}
	}
	ref.Name = rest

	switch {
	case ref.Name == "":
		return Ref{}, errors.New(errors.ErrCodeInvalidRef, "entity ref %q has an empty name", raw)
	case strings.ContainsAny(ref.Name, ":/"), strings.Contains(ref.Kind, "/"):
		return Ref{}, errors.New(errors.ErrCodeInvalidRef, "entity ref %q is malformed", raw)
	case ref.Kind == "":
		return Ref{}, errors.New(errors.ErrCodeInvalidRef, "entity ref %q needs a kind", raw)
	}
	return ref, nil
}

// MustParseRef is like ParseRef with no defaults but panics on error.
// It is meant for tests and static tables.
func MustParseRef(s string) Ref {
	ref, err := ParseRef(s, RefDefaults{})
	if err != nil {
		panic(err)
	}
	return ref
}

// NamespaceOrDefault returns the namespace, or DefaultNamespace when unset.
func (r Ref) NamespaceOrDefault() string {
	if r.Namespace == "" {
		return DefaultNamespace
	}
	return r.Namespace
}

// String returns the canonical "kind:namespace/name" form. Kind and
// namespace are lower-cased; the name keeps its case.
func (r Ref) String() string {
	return lower(r.Kind) + ":" + lower(r.NamespaceOrDefault()) + "/" + r.Name
}

// IsZero reports whether r is the zero reference.
func (r Ref) IsZero() bool { return r == Ref{} }

// Equal reports whether two references identify the same entity.
// References are equal iff their display identifiers match.
func (r Ref) Equal(other Ref) bool { return DisplayID(r) == DisplayID(other) }

// IsKind reports whether the reference points at an entity of the given kind.
func (r Ref) IsKind(kind string) bool { return strings.EqualFold(r.Kind, kind) }

// MarshalText encodes the reference in its canonical string form.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a reference. The kind is required; a missing
// namespace defaults to DefaultNamespace.
func (r *Ref) UnmarshalText(text []byte) error {
	ref, err := ParseRef(string(text), RefDefaults{Namespace: DefaultNamespace})
	if err != nil {
		return err
	}
	*r = ref
	return nil
}

// DisplayID returns the diagram identifier for a reference: the lowercase
// "kind:namespace/name" form with the default namespace elided, so
// "Component:default/Checkout" becomes "component:checkout".
func DisplayID(r Ref) string {
	kind := lower(r.Kind)
	name := lower(r.Name)
	ns := lower(r.NamespaceOrDefault())
	if ns == DefaultNamespace {
		return kind + ":" + name
	}
	return kind + ":" + ns + "/" + name
}

// lower folds s to lower case using a fixed locale. A Caser keeps state
// between calls, so each call builds its own.
func lower(s string) string {
	return cases.Lower(language.AmericanEnglish).String(s)
}
