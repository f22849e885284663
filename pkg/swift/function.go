package swift

import (
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

const (
	functionBlock      = grammar.Nonterminal("FUNC_BLOCK")
	functionStatements = grammar.Nonterminal("FUNC_STATEMENTS")
	functionStatement  = grammar.Nonterminal("FUNC_STATEMENT")
)

// FuncDeclaration is a complete function declaration. Its return type is set
// by the signature so the return expression can infer it.
type FuncDeclaration struct {
	semantic.Base
	datatype *types.Type
}

// NewFuncDeclaration returns a declaration whose access level its
// AccessModifier chooses.
func NewFuncDeclaration() *FuncDeclaration {
	return &FuncDeclaration{Base: declarationBase(types.Internal, false)}
}

// LockedFuncDeclaration returns a declaration fixed at access.
func LockedFuncDeclaration(access types.AccessLevel) *FuncDeclaration {
	return &FuncDeclaration{Base: declarationBase(access, true)}
}

func (f *FuncDeclaration) Key() string         { return "A:FuncDeclaration" }
func (f *FuncDeclaration) IsNonterminal() bool { return true }
func (f *FuncDeclaration) String() string      { return "FUNC_DECLARATION" }
func (f *FuncDeclaration) Clone() grammar.Symbol {
	return &FuncDeclaration{Base: f.Fresh(), datatype: f.datatype}
}
func (f *FuncDeclaration) Annotate(*semantic.Context) {}
func (f *FuncDeclaration) Render() string             { return "" }
func (f *FuncDeclaration) Datatype() *types.Type      { return f.datatype }

// FunctionSignature is the name, arguments and return type of a function
// declaration. The function becomes callable once the whole declaration is
// done, and its arguments are declared in the body scope.
type FunctionSignature struct{ semantic.Base }

func NewFunctionSignature() *FunctionSignature {
	return &FunctionSignature{semantic.NewBase("name", "type")}
}

func (s *FunctionSignature) Key() string           { return "A:FunctionSignature" }
func (s *FunctionSignature) IsNonterminal() bool   { return false }
func (s *FunctionSignature) String() string        { return "FunctionSignature" }
func (s *FunctionSignature) Clone() grammar.Symbol { return &FunctionSignature{s.Fresh()} }

func (s *FunctionSignature) Annotate(ctx *semantic.Context) {
	access := declarationAccess(ctx)
	sc := ctx.Scope
	// A function cannot be more visible than the types in its signature.
	pick := func() *types.Type {
		t, err := sc.ChooseType(ctx.Rand, scope.TypeFilter{AtLeast: access})
		if err != nil {
			return Int
		}
		return t
	}

	name := ctx.Names.Identifier()
	args := make([]types.Argument, ctx.Rand.Between(1, 3))
	for i := range args {
		args[i] = types.Argument{Name: ctx.Names.Identifier(), Type: pick()}
	}
	fn := types.NewFunction(access, args, pick(), types.Normal)
	s.State().Set("name", name)
	s.State().Set("type", fn)

	if p := ctx.Parent(); p != grammar.NoNode {
		if decl, ok := ctx.Tree().Value(p).(*FuncDeclaration); ok {
			decl.datatype = fn.Returns
		}
	}
	deferOnParent(ctx, func() { sc.DeclareFunc(access, name, fn) })

	body, ok := ctx.Sibling(hasKey(functionBlock.Key()))
	if !ok {
		return
	}
	// The body's Block opens the scope the arguments belong to; it is the
	// newest child of sc once the Block has been annotated.
	if kids := ctx.Tree().Children(body); len(kids) > 0 {
		ctx.DeferOn(kids[0], func() {
			inner := sc.LastChild()
			if inner == nil {
				return
			}
			for _, a := range args {
				inner.Declare(a.Name, a.Type, false)
			}
		})
	}
}

// Name is the function name once annotated.
func (s *FunctionSignature) Name() string { return semantic.Lookup[string](s.State(), "name") }

// Type is the function type once annotated.
func (s *FunctionSignature) Type() *types.FunctionType {
	return semantic.Lookup[*types.FunctionType](s.State(), "type")
}

func (s *FunctionSignature) Render() string { return s.Name() + s.Type().Signature() }

func functionGrammar(l *Language) *grammar.Grammar {
	decl := NewFuncDeclaration()
	p := grammar.NewProduction
	return grammar.MustNew(decl,
		p(decl, 1, NewEOL(), NewEOL(), NewAccessModifier(), "func ", NewFunctionSignature(), " {", functionBlock, NewEOL(), "}"),
		p(functionBlock, 1, NewBlock(), functionStatements),
		p(functionStatements, 0.7, functionStatement, functionStatements).Labeled("function.statements"),
		p(functionStatements, 0.3, NewEOL(), "return ", l.Expression(nil)).Labeled("function.return"),
		p(functionStatement, 0.7, NewAssignment(nil)).Labeled("function.assignment"),
		p(functionStatement, 0.3, branchStatement).Labeled("function.branch"),
	)
}
