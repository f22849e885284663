package grammar

import (
	"fmt"
	"slices"
)

// SymbolSet is a set of symbols keyed by Symbol.Key.
type SymbolSet map[string]Symbol

func (s SymbolSet) add(sym Symbol) bool {
	if _, ok := s[sym.Key()]; ok {
		return false
	}
	s[sym.Key()] = sym
	return true
}

// Sorted lists the members ordered by key.
func (s SymbolSet) Sorted() []Symbol {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]Symbol, len(keys))
	for i, k := range keys {
		out[i] = s[k]
	}
	return out
}

// Has reports membership.
func (s SymbolSet) Has(sym Symbol) bool {
	_, ok := s[sym.Key()]
	return ok
}

// FirstSets maps each nonterminal key to the terminals that can begin a string
// derived from it. Epsilon is a member when the empty string is derivable.
type FirstSets map[string]SymbolSet

// Of returns the first set of a single symbol.
func (fs FirstSets) Of(sym Symbol) SymbolSet {
	if !sym.IsNonterminal() {
		return SymbolSet{sym.Key(): sym}
	}
	return fs[sym.Key()]
}

// OfSequence returns the first set of a sentential form.
func (fs FirstSets) OfSequence(seq []Symbol) SymbolSet {
	out := SymbolSet{}
	for _, sym := range seq {
		first := fs.Of(sym)
		for k, v := range first {
			if k != Epsilon.Key() {
				out[k] = v
			}
		}
		if !first.Has(Epsilon) {
			return out
		}
	}
	out.add(Epsilon)
	return out
}

// ComputeFirstSets runs the usual fixpoint over g's productions.
func ComputeFirstSets(g *Grammar) FirstSets {
	fs := FirstSets{}
	for _, nt := range g.Nonterminals() {
		fs[nt.Key()] = SymbolSet{}
	}
	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions {
			lhs := fs[p.LHS.Key()]
			for _, sym := range fs.OfSequence(p.RHS) {
				if lhs.add(sym) {
					changed = true
				}
			}
		}
	}
	return fs
}

// FollowSets maps each nonterminal key to the terminals that can appear right
// after it in a sentential form derived from the start symbol. EndMarker
// follows the start symbol.
type FollowSets map[string]SymbolSet

// ComputeFollowSets derives follow sets from g and its first sets.
func ComputeFollowSets(g *Grammar, first FirstSets) FollowSets {
	follow := FollowSets{}
	for _, nt := range g.Nonterminals() {
		follow[nt.Key()] = SymbolSet{}
	}
	follow[g.Start.Key()].add(EndMarker)

	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions {
			for i, sym := range p.RHS {
				if !sym.IsNonterminal() {
					continue
				}
				target := follow[sym.Key()]
				rest := first.OfSequence(p.RHS[i+1:])
				for k, v := range rest {
					if k != Epsilon.Key() && target.add(v) {
						changed = true
					}
				}
				if rest.Has(Epsilon) {
					for _, v := range follow[p.LHS.Key()] {
						if target.add(v) {
							changed = true
						}
					}
				}
			}
		}
	}
	return follow
}

// LL1 is a predictive parser built from an LL(1) grammar. It is an analysis
// tool for grammars; generation never parses.
type LL1 struct {
	start Symbol
	table map[[2]string][]Symbol
}

// NewLL1 builds the parse table, failing when g is not LL(1).
func NewLL1(g *Grammar) (*LL1, error) {
	first := ComputeFirstSets(g)
	follow := ComputeFollowSets(g, first)
	p := &LL1{start: g.Start, table: make(map[[2]string][]Symbol)}

	set := func(lhs Symbol, terminal Symbol, rhs []Symbol) error {
		k := [2]string{lhs.Key(), terminal.Key()}
		if _, ok := p.table[k]; ok {
			return fmt.Errorf("grammar is not LL(1): conflict for %s on %q", lhs, terminal.String())
		}
		p.table[k] = rhs
		return nil
	}

	for _, rule := range g.Productions {
		f := first.OfSequence(rule.RHS)
		for _, terminal := range f.Sorted() {
			if terminal.Key() == Epsilon.Key() {
				continue
			}
			if err := set(rule.LHS, terminal, rule.RHS); err != nil {
				return nil, err
			}
		}
		if f.Has(Epsilon) {
			for _, terminal := range follow[rule.LHS.Key()].Sorted() {
				if err := set(rule.LHS, terminal, rule.RHS); err != nil {
					return nil, err
				}
			}
		}
	}
	return p, nil
}

// Entry returns the rhs predicted for lhs on lookahead terminal.
func (p *LL1) Entry(lhs, terminal Symbol) ([]Symbol, bool) {
	rhs, ok := p.table[[2]string{lhs.Key(), terminal.Key()}]
	return rhs, ok
}

// Size is the number of table entries.
func (p *LL1) Size() int { return len(p.table) }

// Parse reports whether tokens is a sentence of the grammar.
func (p *LL1) Parse(tokens []Symbol) bool {
	input := append(append([]Symbol(nil), tokens...), EndMarker)
	stack := []Symbol{EndMarker, p.start}
	pos := 0

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.IsNonterminal() {
			rhs, ok := p.Entry(top, input[pos])
			if !ok {
				return false
			}
			for i := len(rhs) - 1; i >= 0; i-- {
				stack = append(stack, rhs[i])
			}
			continue
		}
		if top.Key() != input[pos].Key() {
			return false
		}
		pos++
	}
	return pos == len(input)
}
