package grammar

import (
	"fmt"
	"strings"

	"swiftsmith/pkg/rng"
)

// UngenerableError reports a frontier symbol with no production to expand it.
type UngenerableError struct {
	Symbol      Symbol
	Suggestions []string
}

func (e *UngenerableError) Error() string {
	msg := fmt.Sprintf("failed to expand symbol %s: no productions", e.Symbol)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

// RandomTree derives one complete parse tree from g, starting at start or at
// g.Start when start is nil. Any frontier member may be expanded next; the
// production is sampled by weight among those sharing its lhs.
//
// Termination depends on the grammar: every recursive nonterminal needs a
// path to terminals whose probability does not vanish.
func RandomTree(g *Grammar, r *rng.Source, start Symbol) (*Tree, error) {
	if start == nil {
		start = g.Start
	}
	groups := g.Groups()
	tree := NewTree(start)

	for {
		frontier := tree.nodes[tree.Root()].frontier
		if len(frontier) == 0 {
			return tree, nil
		}
		id := frontier[r.Intn(len(frontier))]
		symbol := tree.Value(id)

		grp, ok := groups[symbol.Key()]
		if !ok {
			return nil, &UngenerableError{Symbol: symbol, Suggestions: suggestLHS(g, symbol)}
		}
		i, ok := r.Weighted(grp.Weights)
		if !ok {
			return nil, &UngenerableError{Symbol: symbol}
		}
		tree.Expand(id, grp.Productions[i].RHS)
	}
}

func suggestLHS(g *Grammar, missing Symbol) []string {
	var names []string
	seen := make(map[string]bool)
	for _, p := range g.Productions {
		if name := p.LHS.String(); !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return Suggest(missing.String(), names, 3)
}
