// Package types describes the data types a generated program can use: access
// levels, call syntaxes, nominal types with generic slots, enums and function
// types.
package types

import (
	"fmt"

	"swiftsmith/pkg/rng"
)

// AccessLevel is a totally ordered visibility tag.
type AccessLevel int

const (
	// Local symbols are hidden from every other scope, e.g. a function's locals.
	Local AccessLevel = iota
	// Private symbols are visible to child scopes only.
	Private
	// FilePrivate symbols are visible anywhere in the file.
	FilePrivate
	// Internal symbols are visible anywhere in the module.
	Internal
	// Public symbols are visible to importing modules too.
	Public
)

var accessLevels = []AccessLevel{Local, Private, FilePrivate, Internal, Public}

// accessWeights are the relative odds of each level in RandomAccess.
var accessWeights = []float64{0.0, 0.3, 0.1, 0.2, 0.4}

// RandomAccess picks a level in [atLeast, atMost]. atMost below atLeast means
// no upper bound.
func RandomAccess(r *rng.Source, atLeast, atMost AccessLevel) AccessLevel {
	if atMost < atLeast {
		atMost = Public
	}
	var candidates []AccessLevel
	var weights []float64
	for i, level := range accessLevels {
		if level >= atLeast && level <= atMost {
			candidates = append(candidates, level)
			weights = append(weights, accessWeights[i])
		}
	}
	i, ok := r.Weighted(weights)
	if !ok {
		// only Local was eligible
		return atLeast
	}
	return candidates[i]
}

// String is the Swift spelling; internal is the default and spelled "".
func (a AccessLevel) String() string {
	switch a {
	case Private:
		return "private"
	case FilePrivate:
		return "fileprivate"
	case Internal:
		return ""
	case Public:
		return "public"
	case Local:
		return "local"
	}
	return fmt.Sprintf("AccessLevel(%d)", int(a))
}

// Modifier renders the level as a declaration prefix, with its trailing space.
func (a AccessLevel) Modifier() string {
	if a == Local || a == Internal {
		return ""
	}
	return a.String() + " "
}

// ParseAccess is the inverse of String; "internal" is accepted as well as "".
func ParseAccess(s string) (AccessLevel, error) {
	switch s {
	case "local":
		return Local, nil
	case "private":
		return Private, nil
	case "fileprivate":
		return FilePrivate, nil
	case "", "internal":
		return Internal, nil
	case "public":
		return Public, nil
	}
	return Local, fmt.Errorf("unknown access level %q", s)
}

// CallSyntax is how a function is applied to its arguments.
type CallSyntax int

const (
	Normal CallSyntax = iota
	Prefix
	Infix
	Postfix
)

func (c CallSyntax) String() string {
	switch c {
	case Normal:
		return "normal"
	case Prefix:
		return "prefix"
	case Infix:
		return "infix"
	case Postfix:
		return "postfix"
	}
	return fmt.Sprintf("CallSyntax(%d)", int(c))
}

// IsOperator reports whether calls are written with operator syntax.
func (c CallSyntax) IsOperator() bool { return c != Normal }

// Binding is the mutability keyword of a declaration.
type Binding int

const (
	Let Binding = iota
	Var
)

func (b Binding) String() string {
	if b == Var {
		return "var"
	}
	return "let"
}

// BindingFor maps mutability to its keyword.
func BindingFor(mutable bool) Binding {
	if mutable {
		return Var
	}
	return Let
}
