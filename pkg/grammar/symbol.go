// Package grammar implements probabilistic context-free grammars, the parse
// trees they derive and the random derivation engine.
package grammar

// Symbol labels a parse tree node and is an element of a grammar's alphabet.
//
// Key identifies the symbol for grammar bookkeeping: two symbols with the same
// key group under the same left-hand side and are interchangeable in a
// production. Annotation state must never influence the key. Nonterminal and
// Terminal own the "N:" and "T:" prefixes; other implementations must use a
// prefix of their own so they never group with a plain symbol.
type Symbol interface {
	Key() string
	IsNonterminal() bool
	String() string
}

// Cloner is implemented by symbols that carry per-node state. Expand clones
// them so every node derived from a production owns a fresh value.
type Cloner interface {
	Clone() Symbol
}

// Nonterminal is a named placeholder. Nonterminals with equal names are equal.
type Nonterminal string

func (n Nonterminal) Key() string         { return "N:" + string(n) }
func (n Nonterminal) IsNonterminal() bool { return true }
func (n Nonterminal) String() string      { return string(n) }

// Terminal is literal program text.
type Terminal string

func (t Terminal) Key() string         { return "T:" + string(t) }
func (t Terminal) IsNonterminal() bool { return false }
func (t Terminal) String() string      { return string(t) }

const (
	// Epsilon stands for the empty string in first sets.
	Epsilon = Terminal("")
	// EndMarker terminates every input accepted by an LL(1) parser.
	EndMarker = Terminal("\x00")
)

func instantiate(s Symbol) Symbol {
	if c, ok := s.(Cloner); ok {
		return c.Clone()
	}
	return s
}

// toSymbol wraps raw text as a Terminal.
func toSymbol(v any) (Symbol, bool) {
	switch s := v.(type) {
	case Symbol:
		return s, s != nil
	case string:
		return Terminal(s), true
	}
	return nil, false
}
