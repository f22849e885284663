package grammar

import (
	"fmt"
	"math"
	"strings"

	"swiftsmith/internal/invariant"
)

// Production rewrites LHS into the sequence RHS. Weight is the relative
// probability of choosing this production among those sharing its LHS.
type Production struct {
	LHS    Symbol
	RHS    []Symbol
	Weight float64
	// Label names the production in probability configurations. Grammars
	// assign "LHS#n" to unlabeled productions.
	Label string
}

// NewProduction builds a weighted production. Each rhs element is a Symbol or
// a string, which becomes a Terminal.
func NewProduction(lhs Symbol, weight float64, rhs ...any) Production {
	invariant.Precondition(lhs != nil && lhs.IsNonterminal(), "production must have a nonterminal lhs, got %v", lhs)
	invariant.Precondition(weight >= 0, "production weight must be non-negative, got %v", weight)

	p := Production{LHS: lhs, Weight: weight, RHS: make([]Symbol, 0, len(rhs))}
	for _, v := range rhs {
		s, ok := toSymbol(v)
		invariant.Precondition(ok, "production rhs element %v (%T) is not a symbol", v, v)
		p.RHS = append(p.RHS, s)
	}
	return p
}

// Labeled returns a copy of p with the given label.
func (p Production) Labeled(label string) Production {
	p.Label = label
	return p
}

// IsEmpty reports whether p rewrites its LHS to the empty string.
func (p Production) IsEmpty() bool { return len(p.RHS) == 0 }

// Equal compares LHS and RHS by key. Weight and label are ignored.
func (p Production) Equal(o Production) bool {
	if p.LHS.Key() != o.LHS.Key() || len(p.RHS) != len(o.RHS) {
		return false
	}
	for i := range p.RHS {
		if p.RHS[i].Key() != o.RHS[i].Key() {
			return false
		}
	}
	return true
}

func (p Production) String() string {
	var b strings.Builder
	b.WriteString(p.LHS.String())
	b.WriteString(" → ")
	for _, s := range p.RHS {
		b.WriteString(s.String())
	}
	return b.String()
}

// Grammar is a start symbol and an ordered list of productions. The alphabets
// are derived from the productions.
type Grammar struct {
	Start       Symbol
	Productions []Production
}

// New checks that start and every production lhs are nonterminals.
func New(start Symbol, productions ...Production) (*Grammar, error) {
	if start == nil || !start.IsNonterminal() {
		return nil, fmt.Errorf("grammar start symbol must be a nonterminal, got %v", start)
	}
	for i, p := range productions {
		if p.LHS == nil || !p.LHS.IsNonterminal() {
			return nil, fmt.Errorf("production %d: lhs must be a nonterminal, got %v", i, p.LHS)
		}
	}
	g := &Grammar{Start: start, Productions: append([]Production(nil), productions...)}
	g.assignLabels()
	return g, nil
}

// MustNew is New for grammars written in code.
func MustNew(start Symbol, productions ...Production) *Grammar {
	g, err := New(start, productions...)
	invariant.ExpectNoError(err, "grammar construction")
	return g
}

// Compose returns the union of g and others. The start symbol of g wins and
// production order is g's followed by each of others in turn.
func (g *Grammar) Compose(others ...*Grammar) *Grammar {
	out := &Grammar{Start: g.Start, Productions: append([]Production(nil), g.Productions...)}
	for _, o := range others {
		out.Productions = append(out.Productions, o.Productions...)
	}
	out.assignLabels()
	return out
}

func (g *Grammar) assignLabels() {
	seen := make(map[string]int)
	for i := range g.Productions {
		p := &g.Productions[i]
		n := seen[p.LHS.Key()]
		seen[p.LHS.Key()] = n + 1
		if p.Label == "" {
			p.Label = fmt.Sprintf("%s#%d", p.LHS, n)
		}
	}
}

// Nonterminals lists every nonterminal appearing in g, in first-seen order.
func (g *Grammar) Nonterminals() []Symbol {
	return g.alphabet(true)
}

// Terminals lists every terminal appearing in g, in first-seen order.
func (g *Grammar) Terminals() []Symbol {
	return g.alphabet(false)
}

func (g *Grammar) alphabet(nonterminal bool) []Symbol {
	var out []Symbol
	seen := make(map[string]bool)
	add := func(s Symbol) {
		if s.IsNonterminal() == nonterminal && !seen[s.Key()] {
			seen[s.Key()] = true
			out = append(out, s)
		}
	}
	add(g.Start)
	for _, p := range g.Productions {
		add(p.LHS)
		for _, s := range p.RHS {
			add(s)
		}
	}
	return out
}

// Group holds the productions sharing one lhs with their parallel weights.
type Group struct {
	Productions []Production
	Weights     []float64
}

// Groups indexes productions by lhs key.
func (g *Grammar) Groups() map[string]*Group {
	groups := make(map[string]*Group)
	for _, p := range g.Productions {
		grp, ok := groups[p.LHS.Key()]
		if !ok {
			grp = &Group{}
			groups[p.LHS.Key()] = grp
		}
		grp.Productions = append(grp.Productions, p)
		grp.Weights = append(grp.Weights, p.Weight)
	}
	return groups
}

// Weights maps every production label to its weight.
func (g *Grammar) Weights() map[string]float64 {
	out := make(map[string]float64, len(g.Productions))
	for _, p := range g.Productions {
		out[p.Label] = p.Weight
	}
	return out
}

// CheckWeight rejects weights that cannot take part in sampling: negative,
// NaN or infinite ones.
func CheckWeight(label string, weight float64) error {
	if !(weight >= 0) || math.IsInf(weight, 0) {
		return fmt.Errorf("weight for %q must be a non-negative finite number, got %v", label, weight)
	}
	return nil
}

// SetWeight changes the weight of the production with the given label.
func (g *Grammar) SetWeight(label string, weight float64) error {
	if err := CheckWeight(label, weight); err != nil {
		return err
	}
	for i := range g.Productions {
		if g.Productions[i].Label == label {
			g.Productions[i].Weight = weight
			return nil
		}
	}
	labels := make([]string, 0, len(g.Productions))
	for _, p := range g.Productions {
		labels = append(labels, p.Label)
	}
	if s := Suggest(label, labels, 3); len(s) > 0 {
		return fmt.Errorf("no production labeled %q (did you mean %s?)", label, strings.Join(s, ", "))
	}
	return fmt.Errorf("no production labeled %q", label)
}

// CheckGroups fails when some nonterminal has productions but none of them
// can be sampled because their weights sum to zero.
func (g *Grammar) CheckGroups() error {
	groups := g.Groups()
	var dead []string
	for _, p := range g.Productions {
		grp, ok := groups[p.LHS.Key()]
		if !ok {
			continue
		}
		delete(groups, p.LHS.Key())
		total := 0.0
		for _, w := range grp.Weights {
			total += w
		}
		if total == 0 {
			dead = append(dead, p.LHS.String())
		}
	}
	if len(dead) > 0 {
		return fmt.Errorf("every production of %s has weight 0; at least one must be positive", strings.Join(dead, ", "))
	}
	return nil
}

func (g *Grammar) String() string {
	var b strings.Builder
	b.WriteString("CFG:")
	for _, p := range g.Productions {
		b.WriteString("\n\t")
		b.WriteString(p.String())
	}
	return b.String()
}
