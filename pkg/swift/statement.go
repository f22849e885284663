package swift

import (
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

// Declaration introduces a constant or variable on the left of an
// assignment. The name enters the scope only after the parent's subtree is
// done, so the initial value cannot refer to it.
type Declaration struct {
	semantic.Base
	datatype *types.Type
	mutable  bool
}

// NewDeclaration returns a let (or var, when mutable) declaration of type t;
// nil means the type of the enclosing assignment.
func NewDeclaration(t *types.Type, mutable bool) *Declaration {
	return &Declaration{Base: semantic.NewBase("name", "datatype"), datatype: t, mutable: mutable}
}

func (d *Declaration) Key() string {
	return "A:Declaration<" + types.BindingFor(d.mutable).String() + "," + typeKey(d.datatype) + ">"
}
func (d *Declaration) IsNonterminal() bool { return false }
func (d *Declaration) String() string {
	return "DECLARATION<" + types.BindingFor(d.mutable).String() + ", " + typeKey(d.datatype) + ">"
}
func (d *Declaration) Clone() grammar.Symbol {
	return &Declaration{Base: d.Fresh(), datatype: d.datatype, mutable: d.mutable}
}

func (d *Declaration) Annotate(ctx *semantic.Context) {
	t := resolveType(ctx, d.datatype)
	name := ctx.Names.Identifier()
	d.State().Set("name", name)
	d.State().Set("datatype", t)

	sc := ctx.Scope
	deferOnParent(ctx, func() { sc.Declare(name, t, d.mutable) })
}

func (d *Declaration) Render() string {
	return types.BindingFor(d.mutable).String() + " " + semantic.Lookup[string](d.State(), "name")
}

// Assignment is a declaration with an initial value. Without a fixed type it
// picks an accessible one when annotated; its children infer that type.
type Assignment struct {
	semantic.Base
	datatype *types.Type
}

// NewAssignment returns an assignment of type t, or of a random type when t is nil.
func NewAssignment(t *types.Type) *Assignment {
	return &Assignment{Base: semantic.NewBase("datatype"), datatype: t}
}

func (a *Assignment) Key() string           { return "A:Assignment" }
func (a *Assignment) IsNonterminal() bool   { return true }
func (a *Assignment) String() string        { return "ASSIGNMENT" }
func (a *Assignment) Clone() grammar.Symbol { return &Assignment{Base: a.Fresh(), datatype: a.datatype} }
func (a *Assignment) Render() string        { return "" }

func (a *Assignment) Annotate(ctx *semantic.Context) {
	t := a.datatype
	if t == nil {
		var err error
		if t, err = ctx.Scope.ChooseType(ctx.Rand, scope.TypeFilter{}); err != nil {
			t = Int
		}
	}
	a.State().Set("datatype", t)
}

// Datatype is the chosen type once annotated.
func (a *Assignment) Datatype() *types.Type {
	return semantic.LookupOr(a.State(), "datatype", a.datatype)
}

func statementGrammar(l *Language) *grammar.Grammar {
	assignment := NewAssignment(nil)
	p := grammar.NewProduction
	return grammar.MustNew(assignment,
		p(assignment, 0.5, NewEOL(), NewDeclaration(nil, false), " = ", l.Expression(nil)).Labeled("statement.let"),
		p(assignment, 0.5, NewEOL(), NewDeclaration(nil, true), " = ", l.Expression(nil)).Labeled("statement.var"),
	)
}
