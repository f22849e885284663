// Package scope models the lexical scopes of a program under construction.
//
// Scopes form a tree that mirrors block nesting. Lookups merge a scope with
// its ancestors; a binding in a nearer scope shadows a same-named binding
// further out.
package scope

import (
	"errors"
	"fmt"
	"iter"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/types"
)

// ErrNoCandidates reports that a query matched nothing. Callers are expected
// to fall back, typically to a fresh literal.
var ErrNoCandidates = errors.New("no candidates")

// Variable is a declared constant or variable.
type Variable struct {
	Name    string
	Type    *types.Type
	Mutable bool
}

// Function is a callable visible under Name. Static members of types appear
// as "Type.method", operators as their bare spelling.
type Function struct {
	Name   string
	Access types.AccessLevel
	Type   *types.FunctionType
	// Static is set for members contributed by an accessible type.
	Static bool
}

// Scope holds the symbols declared in one lexical region.
type Scope struct {
	// Owner is non-nil for the inside of a type declaration.
	Owner     *types.Type
	Variables []Variable
	Functions []Function

	// Next is where the annotation walk sends the following nodes. It points
	// at the scope itself except while a nested block is being generated.
	Next *Scope

	parent   *Scope
	children []*Scope
}

// New returns a root scope.
func New() *Scope {
	s := &Scope{}
	s.Next = s
	return s
}

// NewChild creates a scope nested in s and owned by owner, which may be nil.
func (s *Scope) NewChild(owner *types.Type) *Scope {
	c := &Scope{Owner: owner, parent: s}
	c.Next = c
	s.children = append(s.children, c)
	return c
}

// Parent is nil for a root scope.
func (s *Scope) Parent() *Scope { return s.parent }

// Children returns the nested scopes in creation order.
func (s *Scope) Children() []*Scope { return append([]*Scope(nil), s.children...) }

// LastChild returns the most recently created child, or nil.
func (s *Scope) LastChild() *Scope {
	if len(s.children) == 0 {
		return nil
	}
	return s.children[len(s.children)-1]
}

// Ancestors yields the strict ancestors of s, nearest first.
func (s *Scope) Ancestors() iter.Seq[*Scope] {
	return func(yield func(*Scope) bool) {
		for p := s.parent; p != nil; p = p.parent {
			if !yield(p) {
				return
			}
		}
	}
}

// Depth is the number of strict ancestors.
func (s *Scope) Depth() int {
	n := 0
	for range s.Ancestors() {
		n++
	}
	return n
}

// Root returns the outermost scope.
func (s *Scope) Root() *Scope {
	r := s
	for p := range s.Ancestors() {
		r = p
	}
	return r
}

// Declare adds a variable. Redeclaring a name is allowed and shadows.
func (s *Scope) Declare(name string, t *types.Type, mutable bool) {
	invariant.NotNil(t, "variable type")
	s.Variables = append(s.Variables, Variable{Name: name, Type: t, Mutable: mutable})
}

// DeclareFunc records a callable. A later declaration with the same name
// replaces the earlier one in place.
func (s *Scope) DeclareFunc(access types.AccessLevel, name string, fn *types.FunctionType) {
	invariant.NotNil(fn, "function type")
	f := Function{Name: name, Access: access, Type: fn}
	for i := range s.Functions {
		if s.Functions[i].Name == name {
			s.Functions[i] = f
			return
		}
	}
	s.Functions = append(s.Functions, f)
}

// VariableFilter narrows AccessibleVariables. Zero fields do not filter.
type VariableFilter struct {
	Name    string
	Type    *types.Type
	Mutable *bool
}

func (f VariableFilter) match(v Variable) bool {
	if f.Name != "" && v.Name != f.Name {
		return false
	}
	if f.Type != nil && !f.Type.Equal(v.Type) {
		return false
	}
	if f.Mutable != nil && *f.Mutable != v.Mutable {
		return false
	}
	return true
}

// AccessibleVariables lists the variables visible from s that match f. Within
// one scope the latest declaration of a name wins; across scopes the nearest.
func (s *Scope) AccessibleVariables(f VariableFilter) []Variable {
	var visible []Variable
	seen := make(map[string]bool)
	for sc := s; sc != nil; sc = sc.parent {
		for i := len(sc.Variables) - 1; i >= 0; i-- {
			v := sc.Variables[i]
			if seen[v.Name] {
				continue
			}
			seen[v.Name] = true
			visible = append(visible, v)
		}
	}
	out := visible[:0]
	for _, v := range visible {
		if f.match(v) {
			out = append(out, v)
		}
	}
	return out
}

// ChooseVariable samples one accessible variable uniformly.
func (s *Scope) ChooseVariable(r *rng.Source, f VariableFilter) (Variable, error) {
	vars := s.AccessibleVariables(f)
	if len(vars) == 0 {
		return Variable{}, fmt.Errorf("choose variable %s: %w", f.describe(), ErrNoCandidates)
	}
	return vars[r.Intn(len(vars))], nil
}

func (f VariableFilter) describe() string {
	d := "{"
	if f.Name != "" {
		d += " name=" + f.Name
	}
	if f.Type != nil {
		d += " type=" + f.Type.FullName()
	}
	if f.Mutable != nil {
		d += fmt.Sprintf(" mutable=%t", *f.Mutable)
	}
	return d + " }"
}

// FunctionFilter narrows AccessibleFunctions. Zero fields do not filter.
type FunctionFilter struct {
	Name    string
	Returns *types.Type
	AtLeast types.AccessLevel
	// DeclaredOnly drops static members of types.
	DeclaredOnly bool
}

func (f FunctionFilter) match(fn Function) bool {
	if f.Name != "" && fn.Name != f.Name {
		return false
	}
	if f.Returns != nil && !f.Returns.Equal(fn.Type.Returns) {
		return false
	}
	if fn.Access < f.AtLeast {
		return false
	}
	return !(f.DeclaredOnly && fn.Static)
}

// AccessibleFunctions lists the functions visible from s, nearest declaration
// of a name first, followed by the static members of every accessible type.
func (s *Scope) AccessibleFunctions(f FunctionFilter) []Function {
	var visible []Function
	seen := make(map[string]bool)
	add := func(fn Function) {
		if seen[fn.Name] {
			return
		}
		seen[fn.Name] = true
		visible = append(visible, fn)
	}
	for sc := s; sc != nil; sc = sc.parent {
		for _, fn := range sc.Functions {
			add(fn)
		}
	}
	for _, t := range s.AccessibleTypes(TypeFilter{IncludeSelf: true}) {
		for _, m := range t.StaticMethods {
			name := m.Name
			if !m.Fn.Syntax.IsOperator() {
				name = t.Name + "." + m.Name
			}
			access := min(m.Fn.Access, t.Access)
			add(Function{Name: name, Access: access, Type: m.Fn, Static: true})
		}
	}

	var out []Function
	for _, fn := range visible {
		if f.match(fn) {
			out = append(out, fn)
		}
	}
	return out
}

// ChooseFunction samples one accessible function uniformly.
func (s *Scope) ChooseFunction(r *rng.Source, f FunctionFilter) (Function, error) {
	fns := s.AccessibleFunctions(f)
	if len(fns) == 0 {
		return Function{}, fmt.Errorf("choose function: %w", ErrNoCandidates)
	}
	return fns[r.Intn(len(fns))], nil
}

// TypeFilter narrows AccessibleTypes.
type TypeFilter struct {
	AtLeast types.AccessLevel
	// IncludeSelf admits the type owning the querying scope, which is
	// otherwise excluded so a type cannot contain itself by value.
	IncludeSelf bool
}

// AccessibleTypes lists the types owning scopes nested anywhere in s, then
// those owning the children of s's ancestors (the siblings at each level of
// nesting). The result has no duplicates.
func (s *Scope) AccessibleTypes(f TypeFilter) []*types.Type {
	var out []*types.Type
	seen := make(map[*types.Type]bool)
	add := func(t *types.Type) {
		if t == nil || seen[t] || t.Access < f.AtLeast {
			return
		}
		if t == s.Owner && !f.IncludeSelf {
			return
		}
		seen[t] = true
		out = append(out, t)
	}

	var descend func(*Scope)
	descend = func(sc *Scope) {
		for _, c := range sc.children {
			add(c.Owner)
			descend(c)
		}
	}
	descend(s)

	for a := range s.Ancestors() {
		add(a.Owner)
		for _, sibling := range a.children {
			add(sibling.Owner)
		}
	}
	return out
}

// SpecializeType binds every open generic slot of t to an independently
// sampled accessible, non-generic type at least as visible as atLeast.
func (s *Scope) SpecializeType(r *rng.Source, t *types.Type, atLeast types.AccessLevel) (*types.Type, error) {
	if t.IsFullySpecialized() {
		return t, nil
	}
	var concrete []*types.Type
	for _, c := range s.AccessibleTypes(TypeFilter{AtLeast: atLeast}) {
		if !c.IsGeneric() && c != t {
			concrete = append(concrete, c)
		}
	}
	if len(concrete) == 0 {
		return nil, fmt.Errorf("specialize %s: %w", t.FullName(), ErrNoCandidates)
	}
	bindings := make(map[string]*types.Type)
	for _, g := range t.Generics {
		if g.Bound == nil {
			bindings[g.Param.Name] = concrete[r.Intn(len(concrete))]
		}
	}
	return t.Specialize(bindings)
}

// ChooseType samples an accessible type and specializes it.
func (s *Scope) ChooseType(r *rng.Source, f TypeFilter) (*types.Type, error) {
	candidates := s.AccessibleTypes(f)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("choose type: %w", ErrNoCandidates)
	}
	return s.SpecializeType(r, candidates[r.Intn(len(candidates))], f.AtLeast)
}
