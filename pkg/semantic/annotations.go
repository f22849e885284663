// Package semantic attaches context-sensitive information to derived parse
// trees. A preorder walk calls Annotate on every annotatable node with the
// scope that is current at that point, runs each node's deferred actions once
// its subtree is done, and Render turns the annotated tree into text.
package semantic

import (
	"maps"
	"slices"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/grammar"
)

// Annotations is the annotation state of one node: the keys it must have
// before rendering and the values recorded so far.
type Annotations struct {
	required []string
	values   map[string]any
	// annotated is set by the walker once Annotate has run.
	annotated bool
}

// NewAnnotations declares the required keys.
func NewAnnotations(required ...string) Annotations {
	return Annotations{required: required, values: make(map[string]any)}
}

// Set records a single-assignment key.
func (a *Annotations) Set(key string, value any) {
	invariant.Precondition(!a.Has(key), "annotation %q is already set", key)
	a.put(key, value)
}

// Replace overwrites key, for the deliberate updates one node makes to another.
func (a *Annotations) Replace(key string, value any) {
	a.put(key, value)
}

func (a *Annotations) put(key string, value any) {
	if a.values == nil {
		a.values = make(map[string]any)
	}
	a.values[key] = value
}

// Get returns the value under key.
func (a *Annotations) Get(key string) (any, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Has reports whether key is present.
func (a *Annotations) Has(key string) bool {
	_, ok := a.values[key]
	return ok
}

// IsAnnotated holds when every required key is present.
func (a *Annotations) IsAnnotated() bool {
	for _, k := range a.required {
		if !a.Has(k) {
			return false
		}
	}
	return true
}

// Required lists the required keys.
func (a *Annotations) Required() []string { return slices.Clone(a.required) }

// clone copies the record for a fresh node; values are shared shallowly.
func (a *Annotations) clone() Annotations {
	return Annotations{required: a.required, values: maps.Clone(a.values)}
}

// Lookup returns the value under key converted to T. A missing key or a value
// of another type is a programming error.
func Lookup[T any](a *Annotations, key string) T {
	v, ok := a.values[key]
	invariant.Precondition(ok, "annotation %q is missing", key)
	t, ok := v.(T)
	invariant.Precondition(ok, "annotation %q holds %T", key, v)
	return t
}

// LookupOr is Lookup with a default for missing keys.
func LookupOr[T any](a *Annotations, key string, def T) T {
	if v, ok := a.values[key].(T); ok {
		return v
	}
	return def
}

// Annotatable is a symbol that carries annotation state. Tokens are
// terminals; semantic nonterminals are expanded by the grammar as usual and
// annotated when the walk reaches them.
//
// Key must not depend on annotations, so otherwise identical symbols still
// share productions.
type Annotatable interface {
	grammar.Symbol
	grammar.Cloner
	State() *Annotations
	Annotate(ctx *Context)
	// Render is called only on annotated leaves.
	Render() string
}

// Base implements State for embedding.
type Base struct {
	ann Annotations
}

// NewBase declares the required keys.
func NewBase(required ...string) Base {
	return Base{ann: NewAnnotations(required...)}
}

// State returns the annotation record.
func (b *Base) State() *Annotations { return &b.ann }

// Fresh is a copy of b with its own annotation map, for Clone
// implementations. Values set at construction carry over.
func (b *Base) Fresh() Base {
	return Base{ann: b.ann.clone()}
}
