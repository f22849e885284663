package swift

import (
	"errors"
	"strings"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

// constant is implemented by expression atoms that know whether they
// rendered a literal.
type constant interface {
	isConstant() bool
}

func typeKey(t *types.Type) string {
	if t == nil {
		return "_"
	}
	return t.FullName()
}

// resolveType returns t, or the type inferred from the enclosing typed
// nonterminal, or Int when nothing encloses the node.
func resolveType(ctx *semantic.Context, t *types.Type) *types.Type {
	if t != nil {
		return t
	}
	if inferred, ok := ctx.InferType(); ok {
		return inferred
	}
	return Int
}

func newValue(t *types.Type, r *rng.Source) string {
	v, err := t.NewValue(r)
	invariant.ExpectNoError(err, "value of "+t.FullName())
	return v
}

// Value is a fresh literal of its type.
type Value struct {
	semantic.Base
	datatype *types.Type
}

// NewValue returns a literal token of type t, or of the inferred type when t is nil.
func NewValue(t *types.Type) *Value {
	return &Value{Base: semantic.NewBase("value"), datatype: t}
}

// IntLiteral is an Int literal between 0 and 5.
func IntLiteral() *Value { return NewValue(Int) }

// BoolLiteral is true or false.
func BoolLiteral() *Value { return NewValue(Bool) }

func (v *Value) Key() string           { return "A:Value<" + typeKey(v.datatype) + ">" }
func (v *Value) IsNonterminal() bool   { return false }
func (v *Value) String() string        { return typeKey(v.datatype) + "()" }
func (v *Value) Clone() grammar.Symbol { return &Value{Base: v.Fresh(), datatype: v.datatype} }
func (v *Value) isConstant() bool      { return true }

func (v *Value) Annotate(ctx *semantic.Context) {
	v.State().Set("value", newValue(resolveType(ctx, v.datatype), ctx.Rand))
}

func (v *Value) Render() string { return semantic.Lookup[string](v.State(), "value") }

// Variable reads an accessible variable of its type. When none is in scope it
// renders a fresh literal instead.
type Variable struct {
	semantic.Base
	datatype *types.Type
	// mutable restricts the choice to var bindings.
	mutable bool
}

// NewVariable returns a variable reference of type t.
func NewVariable(t *types.Type, mutable bool) *Variable {
	return &Variable{Base: semantic.NewBase("value"), datatype: t, mutable: mutable}
}

func (v *Variable) Key() string {
	return "A:Variable<" + typeKey(v.datatype) + "," + types.BindingFor(v.mutable).String() + ">"
}
func (v *Variable) IsNonterminal() bool { return false }
func (v *Variable) String() string      { return "Variable(" + typeKey(v.datatype) + ")" }
func (v *Variable) Clone() grammar.Symbol {
	return &Variable{Base: v.Fresh(), datatype: v.datatype, mutable: v.mutable}
}

func (v *Variable) Annotate(ctx *semantic.Context) {
	t := resolveType(ctx, v.datatype)
	f := scope.VariableFilter{Type: t}
	if v.mutable {
		f.Mutable = &v.mutable
	}
	chosen, err := ctx.Scope.ChooseVariable(ctx.Rand, f)
	if errors.Is(err, scope.ErrNoCandidates) {
		v.State().Set("value", newValue(t, ctx.Rand))
		v.State().Set("fallback", true)
		return
	}
	invariant.ExpectNoError(err, "choose variable")
	v.State().Set("value", chosen.Name)
}

func (v *Variable) Render() string   { return semantic.Lookup[string](v.State(), "value") }
func (v *Variable) isConstant() bool { return semantic.LookupOr(v.State(), "fallback", false) }

// FunctionCall calls an accessible function returning its type, or a fixed
// function. Arguments are accessible variables or fresh literals.
type FunctionCall struct {
	semantic.Base
	returns *types.Type
	name    string
	fn      *types.FunctionType
}

// NewFunctionCall returns a call to some function returning t.
func NewFunctionCall(t *types.Type) *FunctionCall {
	return &FunctionCall{Base: semantic.NewBase("text"), returns: t}
}

// CallTo returns a call to the named function.
func CallTo(name string, fn *types.FunctionType) *FunctionCall {
	invariant.NotNil(fn, "function type")
	return &FunctionCall{Base: semantic.NewBase("text"), returns: fn.Returns, name: name, fn: fn}
}

func (c *FunctionCall) Key() string {
	if c.fn != nil {
		return "A:FunctionCall<" + c.name + ">"
	}
	return "A:FunctionCall<" + typeKey(c.returns) + ">"
}
func (c *FunctionCall) IsNonterminal() bool { return false }
func (c *FunctionCall) String() string      { return "FunctionCall(" + typeKey(c.returns) + ")" }
func (c *FunctionCall) Clone() grammar.Symbol {
	return &FunctionCall{Base: c.Fresh(), returns: c.returns, name: c.name, fn: c.fn}
}

func (c *FunctionCall) Annotate(ctx *semantic.Context) {
	st := c.State()
	name, fn := c.name, c.fn
	if fn == nil {
		t := resolveType(ctx, c.returns)
		chosen, err := ctx.Scope.ChooseFunction(ctx.Rand, scope.FunctionFilter{Returns: t})
		if errors.Is(err, scope.ErrNoCandidates) {
			st.Set("text", newValue(t, ctx.Rand))
			st.Set("fallback", true)
			return
		}
		invariant.ExpectNoError(err, "choose function")
		name, fn = chosen.Name, chosen.Type
	}
	args := make([]string, len(fn.Arguments))
	for i, a := range fn.Arguments {
		args[i] = argument(ctx, a.Type)
	}
	st.Set("text", formatCall(name, fn, args))
}

func (c *FunctionCall) Render() string   { return semantic.Lookup[string](c.State(), "text") }
func (c *FunctionCall) isConstant() bool { return semantic.LookupOr(c.State(), "fallback", false) }

// argument picks a variable of type t most of the time it can.
func argument(ctx *semantic.Context, t *types.Type) string {
	vars := ctx.Scope.AccessibleVariables(scope.VariableFilter{Type: t})
	if len(vars) > 0 && ctx.Rand.Flipcoin(70) {
		return vars[ctx.Rand.Intn(len(vars))].Name
	}
	return newValue(t, ctx.Rand)
}

func formatCall(name string, fn *types.FunctionType, args []string) string {
	switch fn.Syntax {
	case types.Infix:
		return "(" + args[0] + " " + name + " " + args[1] + ")"
	case types.Prefix:
		return "(" + name + args[0] + ")"
	case types.Postfix:
		return "(" + args[0] + name + ")"
	}
	labeled := make([]string, len(args))
	for i, a := range fn.Arguments {
		labeled[i] = a.Name + ": " + args[i]
	}
	return name + "(" + strings.Join(labeled, ", ") + ")"
}

// Expression is an expression of one type. Its content is a separate tree
// derived and annotated when the expression itself is annotated, kept under
// the "subtree" annotation so metamorphic relations can rewrite it.
type Expression struct {
	semantic.Base
	lang     *Language
	datatype *types.Type
}

// Expression returns an expression token of type t; nil means the type of the
// enclosing typed nonterminal.
func (l *Language) Expression(t *types.Type) *Expression {
	return &Expression{Base: semantic.NewBase("datatype", "subtree"), lang: l, datatype: t}
}

func (e *Expression) Key() string           { return "A:Expression<" + typeKey(e.datatype) + ">" }
func (e *Expression) IsNonterminal() bool   { return false }
func (e *Expression) String() string        { return "Expression<" + typeKey(e.datatype) + ">" }
func (e *Expression) Clone() grammar.Symbol { return &Expression{Base: e.Fresh(), lang: e.lang, datatype: e.datatype} }

func (e *Expression) Annotate(ctx *semantic.Context) {
	t := resolveType(ctx, e.datatype)
	sub, err := language(e.lang).deriveExpression(ctx.Rand, t)
	invariant.ExpectNoError(err, "expression derivation")
	ctx.AnnotateSubtree(sub)
	e.State().Set("datatype", t)
	e.State().Set("subtree", sub)
}

func (e *Expression) Render() string { return semantic.Render(e.Subtree()) }

// Type is the resolved type once annotated.
func (e *Expression) Type() *types.Type {
	return semantic.LookupOr(e.State(), "datatype", e.datatype)
}

// Subtree is the derived content.
func (e *Expression) Subtree() *grammar.Tree {
	return semantic.Lookup[*grammar.Tree](e.State(), "subtree")
}

// SetSubtree swaps the content for an already annotated tree.
func (e *Expression) SetSubtree(tree *grammar.Tree) {
	invariant.NotNil(tree, "subtree")
	e.State().Replace("subtree", tree)
}

// IsConstant reports whether every atom of the content is a literal.
func (e *Expression) IsConstant() bool {
	sub := e.Subtree()
	for id := range sub.Preorder(sub.Root()) {
		if !sub.IsLeaf(id) {
			continue
		}
		switch v := sub.Value(id).(type) {
		case constant:
			if !v.isConstant() {
				return false
			}
		case semantic.Annotatable:
			return false
		}
	}
	return true
}

func exprNonterminal(t *types.Type) grammar.Nonterminal {
	return grammar.Nonterminal("EXPR<" + t.FullName() + ">")
}

// deriveExpression derives the content of an expression of type t. Int and
// Bool use the language grammar; any other type is a variable, a literal or a
// call.
func (l *Language) deriveExpression(r *rng.Source, t *types.Type) (*grammar.Tree, error) {
	if t.Equal(Int) || t.Equal(Bool) {
		return grammar.RandomTree(l.grammar, r, exprNonterminal(t))
	}
	start := exprNonterminal(t)
	g := grammar.MustNew(start,
		grammar.NewProduction(start, 1, NewVariable(t, false)),
		grammar.NewProduction(start, 1, NewValue(t)),
		grammar.NewProduction(start, 0.5, NewFunctionCall(t)),
	)
	return grammar.RandomTree(g, r, start)
}

func expressionGrammar(l *Language) *grammar.Grammar {
	intExpr := exprNonterminal(Int)
	boolExpr := exprNonterminal(Bool)
	p := grammar.NewProduction
	return grammar.MustNew(intExpr,
		p(intExpr, 0.1, IntLiteral(), " + ", intExpr).Labeled("expression.int.literal-sum"),
		p(intExpr, 0.1, NewVariable(Int, false), " + ", intExpr).Labeled("expression.int.variable-sum"),
		p(intExpr, 0.1, IntLiteral(), " * ", intExpr).Labeled("expression.int.literal-product"),
		p(intExpr, 0.1, NewVariable(Int, false), " * ", intExpr).Labeled("expression.int.variable-product"),
		p(intExpr, 0.3, IntLiteral()).Labeled("expression.int.literal"),
		p(intExpr, 0.3, NewVariable(Int, false)).Labeled("expression.int.variable"),
		p(intExpr, 0.1, NewFunctionCall(Int)).Labeled("expression.int.call"),

		p(boolExpr, 0.2, intExpr, " > ", intExpr).Labeled("expression.bool.greater"),
		p(boolExpr, 0.2, intExpr, " == ", intExpr).Labeled("expression.bool.equal"),
		p(boolExpr, 0.4, BoolLiteral()).Labeled("expression.bool.literal"),
		p(boolExpr, 0.1, NewVariable(Bool, false)).Labeled("expression.bool.variable"),
		p(boolExpr, 0.1, NewFunctionCall(Bool)).Labeled("expression.bool.call"),
	)
}
