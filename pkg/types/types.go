package types

import (
	"errors"
	"fmt"
	"strings"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/rng"
)

// Kind classifies a Type.
type Kind int

const (
	// Opaque types have no visible structure, e.g. a generic parameter.
	Opaque Kind = iota
	Struct
	Enum
)

func (k Kind) String() string {
	switch k {
	case Struct:
		return "struct"
	case Enum:
		return "enum"
	}
	return "datatype"
}

// ErrNoValue is returned by NewValue for types that cannot produce a literal.
var ErrNoValue = errors.New("type has no value factory")

// Generic is a generic type parameter slot. Bound is nil until specialized.
type Generic struct {
	Param *Type
	Bound *Type
}

// Method is a named member function.
type Method struct {
	Name string
	Fn   *FunctionType
}

// Case is an enum case with its associated value types, in order.
type Case struct {
	Name       string
	Associated []*Type
}

// Type is a nominal data type.
type Type struct {
	Name     string
	Kind     Kind
	Access   AccessLevel
	Generics []Generic

	StaticMethods []Method
	Cases         []Case

	literal func(r *rng.Source) string
}

// NewStruct returns a struct type whose values come from literal, which may be nil.
func NewStruct(name string, access AccessLevel, literal func(r *rng.Source) string) *Type {
	return &Type{Name: name, Kind: Struct, Access: access, literal: literal}
}

// NewEnum returns an enum type without cases.
func NewEnum(name string, access AccessLevel, params ...*Type) *Type {
	t := &Type{Name: name, Kind: Enum, Access: access}
	for _, p := range params {
		t.Generics = append(t.Generics, Generic{Param: p})
	}
	return t
}

// NewParam returns a generic type parameter.
func NewParam(name string) *Type {
	return &Type{Name: name, Kind: Opaque, Access: Private}
}

// AddCase appends a case. Case names are unique within an enum.
func (t *Type) AddCase(name string, associated ...*Type) {
	invariant.Precondition(t.Kind == Enum, "cannot add case %s to non-enum %s", name, t.Name)
	for _, c := range t.Cases {
		invariant.Precondition(c.Name != name, "enum %s already has case %s", t.Name, name)
	}
	t.Cases = append(t.Cases, Case{Name: name, Associated: associated})
}

// AddStatic registers a static method or operator.
func (t *Type) AddStatic(name string, fn *FunctionType) {
	t.StaticMethods = append(t.StaticMethods, Method{Name: name, Fn: fn})
}

// IsGeneric reports whether t declares generic parameters.
func (t *Type) IsGeneric() bool { return len(t.Generics) > 0 }

// IsFullySpecialized reports whether every generic slot is bound.
func (t *Type) IsFullySpecialized() bool {
	for _, g := range t.Generics {
		if g.Bound == nil {
			return false
		}
	}
	return true
}

// Specialize returns a copy of t with the named parameters bound. Cases and
// methods are shared with t.
func (t *Type) Specialize(bindings map[string]*Type) (*Type, error) {
	out := *t
	out.Generics = make([]Generic, len(t.Generics))
	copy(out.Generics, t.Generics)
	used := 0
	for i, g := range out.Generics {
		if b, ok := bindings[g.Param.Name]; ok {
			out.Generics[i].Bound = b
			used++
		}
	}
	if used != len(bindings) {
		return nil, fmt.Errorf("specialize %s: unknown generic parameter in %v", t.Name, keys(bindings))
	}
	return &out, nil
}

func keys(m map[string]*Type) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// Resolve maps a generic parameter of t to its binding, and anything else to itself.
func (t *Type) Resolve(u *Type) *Type {
	for _, g := range t.Generics {
		if g.Param == u && g.Bound != nil {
			return g.Bound
		}
	}
	return u
}

// FullName is the name including generic arguments, e.g. "Optional<Int>".
// Unbound slots print the parameter name.
func (t *Type) FullName() string {
	if len(t.Generics) == 0 {
		return t.Name
	}
	names := make([]string, len(t.Generics))
	for i, g := range t.Generics {
		if g.Bound != nil {
			names[i] = g.Bound.FullName()
		} else {
			names[i] = g.Param.FullName()
		}
	}
	return t.Name + "<" + strings.Join(names, ", ") + ">"
}

// Equal compares kind, name and generic bindings. Access and members are ignored.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind || t.Name != o.Name || len(t.Generics) != len(o.Generics) {
		return false
	}
	for i := range t.Generics {
		if !t.Generics[i].Bound.Equal(o.Generics[i].Bound) {
			return false
		}
	}
	return true
}

// NewValue returns source text for a fresh value of t. Enums pick a case at
// random and build its associated values recursively.
func (t *Type) NewValue(r *rng.Source) (string, error) {
	if t.literal != nil {
		return t.literal(r), nil
	}
	if t.Kind != Enum {
		return "", fmt.Errorf("%s: %w", t.FullName(), ErrNoValue)
	}
	if !t.IsFullySpecialized() {
		return "", fmt.Errorf("cannot build a value of unspecialized %s", t.FullName())
	}
	if len(t.Cases) == 0 {
		return "", fmt.Errorf("enum %s has no cases: %w", t.FullName(), ErrNoValue)
	}
	c := t.Cases[r.Intn(len(t.Cases))]
	values := make([]string, 0, len(c.Associated))
	for _, a := range c.Associated {
		v, err := t.Resolve(a).NewValue(r)
		if err != nil {
			return "", fmt.Errorf("case %s.%s: %w", t.FullName(), c.Name, err)
		}
		values = append(values, v)
	}
	text := t.FullName() + "." + c.Name
	if len(values) > 0 {
		text += "(" + strings.Join(values, ", ") + ")"
	}
	return text, nil
}

// String is the declaration-style description, e.g. "public enum Optional".
func (t *Type) String() string {
	return t.Access.Modifier() + t.Kind.String() + " " + t.Name
}
