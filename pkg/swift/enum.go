package swift

import (
	"strings"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

const (
	enumStatements = grammar.Nonterminal("ENUM_STATEMENTS")
	enumStatement  = grammar.Nonterminal("ENUM_STATEMENT")
)

// EnumDeclaration is a complete enum declaration.
type EnumDeclaration struct{ semantic.Base }

// NewEnumDeclaration returns a declaration whose access level its
// AccessModifier chooses.
func NewEnumDeclaration() *EnumDeclaration {
	return &EnumDeclaration{declarationBase(types.Internal, false)}
}

// LockedEnumDeclaration returns a declaration fixed at access.
func LockedEnumDeclaration(access types.AccessLevel) *EnumDeclaration {
	return &EnumDeclaration{declarationBase(access, true)}
}

func (e *EnumDeclaration) Key() string                { return "A:EnumDeclaration" }
func (e *EnumDeclaration) IsNonterminal() bool        { return true }
func (e *EnumDeclaration) String() string             { return "ENUM_DECLARATION" }
func (e *EnumDeclaration) Clone() grammar.Symbol      { return &EnumDeclaration{e.Fresh()} }
func (e *EnumDeclaration) Annotate(*semantic.Context) {}
func (e *EnumDeclaration) Render() string             { return "" }

// EnumName declares the enum type. The nodes after it up to the end of the
// case list are generated inside a scope the new type owns.
type EnumName struct{ semantic.Base }

func NewEnumName() *EnumName { return &EnumName{semantic.NewBase("name", "type")} }

func (n *EnumName) Key() string           { return "A:EnumName" }
func (n *EnumName) IsNonterminal() bool   { return false }
func (n *EnumName) String() string        { return "Enum" }
func (n *EnumName) Clone() grammar.Symbol { return &EnumName{n.Fresh()} }

func (n *EnumName) Annotate(ctx *semantic.Context) {
	name := ctx.Names.TypeName()
	t := types.NewEnum(name, declarationAccess(ctx))
	n.State().Set("name", name)
	n.State().Set("type", t)

	sc := ctx.Scope
	sc.Next = sc.NewChild(t)
	restore := func() { sc.Next = sc }
	if body, ok := ctx.Sibling(hasKey(enumStatements.Key())); ok {
		ctx.DeferOn(body, restore)
		return
	}
	deferOnParent(ctx, restore)
}

// Type is the declared enum once annotated.
func (n *EnumName) Type() *types.Type { return semantic.Lookup[*types.Type](n.State(), "type") }

func (n *EnumName) Render() string { return semantic.Lookup[string](n.State(), "name") }

// EnumCase adds a case, with at most one associated value, to the enum owning
// the current scope.
type EnumCase struct {
	semantic.Base
	associatedValues bool
}

// NewEnumCase returns a case token; associatedValues enables payloads.
func NewEnumCase(associatedValues bool) *EnumCase {
	return &EnumCase{Base: semantic.NewBase("name", "associated"), associatedValues: associatedValues}
}

func (c *EnumCase) Key() string         { return "A:EnumCase" }
func (c *EnumCase) IsNonterminal() bool { return false }
func (c *EnumCase) String() string      { return "Case" }
func (c *EnumCase) Clone() grammar.Symbol {
	return &EnumCase{Base: c.Fresh(), associatedValues: c.associatedValues}
}

func (c *EnumCase) Annotate(ctx *semantic.Context) {
	owner := ctx.Scope.Owner
	invariant.Precondition(owner != nil && owner.Kind == types.Enum, "enum case outside of an enum declaration")
	name := ctx.Names.Identifier()

	// Associated values cannot be less visible than the enum.
	var associated []*types.Type
	if c.associatedValues && ctx.Rand.Between(0, 1) == 1 {
		candidates := ctx.Scope.AccessibleTypes(scope.TypeFilter{AtLeast: owner.Access})
		if len(candidates) > 0 {
			t, err := ctx.Scope.SpecializeType(ctx.Rand, candidates[ctx.Rand.Intn(len(candidates))], owner.Access)
			if err == nil {
				associated = append(associated, t)
			}
		}
	}
	c.State().Set("name", name)
	c.State().Set("associated", associated)
	owner.AddCase(name, associated...)
}

func (c *EnumCase) Render() string {
	name := semantic.Lookup[string](c.State(), "name")
	associated := semantic.Lookup[[]*types.Type](c.State(), "associated")
	if len(associated) == 0 {
		return name
	}
	names := make([]string, len(associated))
	for i, t := range associated {
		names[i] = t.FullName()
	}
	return name + "(" + strings.Join(names, ", ") + ")"
}

func enumGrammar(l *Language) *grammar.Grammar {
	decl := NewEnumDeclaration()
	p := grammar.NewProduction
	return grammar.MustNew(decl,
		p(decl, 1, NewEOL(), NewEOL(), NewAccessModifier(), "enum ", NewEnumName(), ": Hashable {", enumStatements, NewEOL(), "}"),
		p(enumStatements, 0.5, enumStatement, enumStatements).Labeled("enum.cases"),
		p(enumStatements, 0.5, enumStatement).Labeled("enum.last-case"),
		p(enumStatement, 1, NewEOL(), "case ", NewEnumCase(l.AssociatedValues())),
	)
}
