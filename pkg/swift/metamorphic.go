package swift

import (
	"fmt"
	"slices"
	"strings"

	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/rng"
)

// A Relation rewrites an annotated program tree in place into one that must
// behave identically. It reports false when the tree has nothing it applies to.
type Relation func(tree *grammar.Tree, r *rng.Source) bool

var relations = map[string]Relation{
	"unnecessary-addition":       UnnecessaryAddition,
	"unnecessary-multiplication": UnnecessaryMultiplication,
	"failable-init":              FailableInitializer,
}

// Relations lists the relation names, sorted.
func Relations() []string {
	names := make([]string, 0, len(relations))
	for name := range relations {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// LookupRelation finds a relation by name.
func LookupRelation(name string) (Relation, error) {
	if rel, ok := relations[name]; ok {
		return rel, nil
	}
	if s := grammar.Suggest(name, Relations(), 2); len(s) > 0 {
		return nil, fmt.Errorf("unknown metamorphic relation %q (did you mean %s?)", name, strings.Join(s, ", "))
	}
	return nil, fmt.Errorf("unknown metamorphic relation %q, want one of %s", name, strings.Join(Relations(), ", "))
}

// expressions collects the annotated expressions of tree that match.
func expressions(tree *grammar.Tree, match func(*Expression) bool) []*Expression {
	var out []*Expression
	for id := range tree.Preorder(tree.Root()) {
		e, ok := tree.Value(id).(*Expression)
		if ok && e.State().Has("subtree") && match(e) {
			out = append(out, e)
		}
	}
	return out
}

// UnnecessaryAddition rewrites an Int expression e as (e) + 0.
func UnnecessaryAddition(tree *grammar.Tree, r *rng.Source) bool {
	return wrapInt(tree, r, ") + 0")
}

// UnnecessaryMultiplication rewrites an Int expression e as (e) * 1.
func UnnecessaryMultiplication(tree *grammar.Tree, r *rng.Source) bool {
	return wrapInt(tree, r, ") * 1")
}

func wrapInt(tree *grammar.Tree, r *rng.Source, suffix string) bool {
	candidates := expressions(tree, func(e *Expression) bool { return e.Type().Equal(Int) })
	if len(candidates) == 0 {
		return false
	}
	e := candidates[r.Intn(len(candidates))]
	e.SetSubtree(grammar.Build(exprNonterminal(Int), "(", e.Subtree(), suffix))
	return true
}

// FailableInitializer picks an enum A and a constant expression e of type A,
// gives A the initializer
//
//	init?() { self = e }
//
// and rewrites e as A.init()!.
func FailableInitializer(tree *grammar.Tree, r *rng.Source) bool {
	var decls []grammar.NodeID
	for id := range tree.Preorder(tree.Root()) {
		if _, ok := tree.Value(id).(*EnumDeclaration); ok {
			decls = append(decls, id)
		}
	}
	if len(decls) == 0 {
		return false
	}
	decl := decls[r.Intn(len(decls))]

	nameID, ok := tree.ChildWhere(decl, func(s grammar.Symbol) bool {
		_, ok := s.(*EnumName)
		return ok
	})
	if !ok {
		return false
	}
	body, ok := tree.ChildWhere(decl, hasKey(enumStatements.Key()))
	if !ok {
		return false
	}
	enum := tree.Value(nameID).(*EnumName).Type()

	// Only constants can move into the initializer: variables of the
	// expression's scope are not visible there.
	candidates := expressions(tree, func(e *Expression) bool {
		return e.Type().Equal(enum) && e.IsConstant()
	})
	if len(candidates) == 0 {
		return false
	}
	e := candidates[r.Intn(len(candidates))]

	init := grammar.Terminal("init?() { self = " + e.Render() + " }\n\n\t")
	children := []any{init}
	for _, c := range tree.Children(body) {
		children = append(children, c)
	}
	tree.Replace(body, children...)
	e.SetSubtree(grammar.Build(exprNonterminal(enum), enum.FullName()+".init()!"))
	return true
}
