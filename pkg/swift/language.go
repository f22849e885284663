// Package swift generates Swift programs: the tokens and grammars of the
// supported language subset, its standard library, metamorphic relations and
// the pipeline that turns a seed into a compilable module.
package swift

import (
	"fmt"
	"sync"

	"golang.org/x/mod/semver"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/types"
)

// DefaultVersion is the Swift version programs target unless told otherwise.
const DefaultVersion = "v5.10.0"

// associatedValuesSince is the first version that synthesizes Hashable for
// enums with associated values.
const associatedValuesSince = "v4.1.0"

// S is the start symbol of a program.
const S = grammar.Nonterminal("S")

// Language is the grammar of one Swift version. Its weights can be tuned
// before generating; a Language is not safe for concurrent SetWeight calls.
type Language struct {
	version string
	grammar *grammar.Grammar
}

// NewLanguage builds the grammar for version, a semantic version such as
// "v5.9" or "5.9.2".
func NewLanguage(version string) (*Language, error) {
	v, err := canonicalVersion(version)
	if err != nil {
		return nil, err
	}
	l := &Language{version: v}
	l.grammar = programGrammar().Compose(
		branchGrammar(l),
		functionGrammar(l),
		statementGrammar(l),
		enumGrammar(l),
		expressionGrammar(l),
	)
	return l, nil
}

func canonicalVersion(version string) (string, error) {
	v := version
	if len(v) > 0 && v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return "", fmt.Errorf("invalid language version %q: want a semantic version such as 5.9", version)
	}
	return semver.Canonical(v), nil
}

var defaultLanguage = sync.OnceValue(func() *Language {
	l, err := NewLanguage(DefaultVersion)
	invariant.ExpectNoError(err, "default language")
	return l
})

// language returns l, or the shared default when l is nil. The default is
// only read from.
func language(l *Language) *Language {
	if l == nil {
		return defaultLanguage()
	}
	return l
}

// Version is the canonical semantic version.
func (l *Language) Version() string { return l.version }

// AssociatedValues reports whether enums may declare associated values.
func (l *Language) AssociatedValues() bool {
	return semver.Compare(l.version, associatedValuesSince) >= 0
}

// Grammar is the composed program grammar, expressions included.
func (l *Language) Grammar() *grammar.Grammar { return l.grammar }

// Weights maps production labels to weights.
func (l *Language) Weights() map[string]float64 { return l.grammar.Weights() }

// SetWeight changes the weight of one labeled production.
func (l *Language) SetWeight(label string, weight float64) error {
	return l.grammar.SetWeight(label, weight)
}

// programGrammar guarantees at least one public function, which main calls.
func programGrammar() *grammar.Grammar {
	p := grammar.NewProduction
	return grammar.MustNew(S,
		p(S, 0.4, NewFuncDeclaration(), S).Labeled("program.function"),
		p(S, 0.2, NewEnumDeclaration(), S).Labeled("program.enum"),
		p(S, 0.2, LockedFuncDeclaration(types.Public)).Labeled("program.public-function"),
	)
}
