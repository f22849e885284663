package semantic

import (
	"strings"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/grammar"
)

// Render concatenates the text of every leaf. Annotatable leaves must be
// annotated; an unexpanded nonterminal left in the tree is a derivation bug.
func Render(tree *grammar.Tree) string {
	var b strings.Builder
	for id := range tree.Preorder(tree.Root()) {
		if !tree.IsLeaf(id) {
			continue
		}
		b.WriteString(renderLeaf(tree, id))
	}
	return b.String()
}

func renderLeaf(tree *grammar.Tree, id grammar.NodeID) string {
	v := tree.Value(id)
	invariant.Precondition(!v.IsNonterminal(), "rendering unexpanded nonterminal %s", v)
	if a, ok := v.(Annotatable); ok {
		invariant.Precondition(a.State().IsAnnotated(), "rendering unannotated %s (missing one of %v)", a, a.State().Required())
		return a.Render()
	}
	return v.String()
}
