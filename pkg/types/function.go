package types

import (
	"strings"

	"swiftsmith/internal/invariant"
)

// Argument is one labeled parameter of a function type.
type Argument struct {
	Name string
	Type *Type
}

// FunctionType is the signature of a callable: ordered labeled arguments, a
// return type and the syntax used to call it.
type FunctionType struct {
	Access    AccessLevel
	Arguments []Argument
	Returns   *Type
	Syntax    CallSyntax
}

// NewFunction builds a function type. Operators must have the arity their
// syntax implies.
func NewFunction(access AccessLevel, args []Argument, returns *Type, syntax CallSyntax) *FunctionType {
	invariant.NotNil(returns, "return type")
	switch syntax {
	case Prefix, Postfix:
		invariant.Precondition(len(args) == 1, "expected 1 argument for %s operator, got %d", syntax, len(args))
	case Infix:
		invariant.Precondition(len(args) == 2, "expected 2 arguments for infix operator, got %d", len(args))
	}
	return &FunctionType{Access: access, Arguments: args, Returns: returns, Syntax: syntax}
}

// Signature renders "(a: Int, b: Bool) -> Int".
func (f *FunctionType) Signature() string {
	parts := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		parts[i] = a.Name + ": " + a.Type.FullName()
	}
	return "(" + strings.Join(parts, ", ") + ") -> " + f.Returns.FullName()
}

func (f *FunctionType) String() string { return f.Signature() }
