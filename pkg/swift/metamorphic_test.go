package swift

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

func TestUnnecessaryArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		rel    Relation
		suffix string
	}{
		{"addition", UnnecessaryAddition, ") + 0"},
		{"multiplication", UnnecessaryMultiplication, ") * 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := grammar.NewTree(testLanguage(t).Expression(Int))
			annotate(tree, scope.New(), "AA==")
			original := semantic.Render(tree)

			require.True(t, tt.rel(tree, rng.New(0)))
			assert.Equal(t, "("+original+tt.suffix, semantic.Render(tree))
		})
	}
}

func TestUnnecessaryArithmeticNeedsIntExpression(t *testing.T) {
	tree := grammar.NewTree(testLanguage(t).Expression(Bool))
	annotate(tree, scope.New(), "AA==")
	before := semantic.Render(tree)

	assert.False(t, UnnecessaryAddition(tree, rng.New(0)))
	assert.Equal(t, before, semantic.Render(tree))
}

func failableTree(t *testing.T, a *types.Type) *grammar.Tree {
	return grammar.Build(grammar.Nonterminal("STATEMENT"),
		grammar.Build(NewEnumDeclaration(),
			"enum ",
			NewEnumName(),
			" {",
			NewEOL(),
			grammar.Build(enumStatements, "case ", NewEnumCase(true)),
			NewEOL(),
			"}",
		),
		testLanguage(t).Expression(a),
	)
}

func TestFailableInitializer(t *testing.T) {
	a := types.NewEnum("A", types.Internal)
	a.AddCase("b")
	tree := failableTree(t, a)
	annotate(tree, scope.New(), "AA==")
	require.Equal(t, "enum A {\n\tcase b\n}A.b", semantic.Render(tree))

	require.True(t, FailableInitializer(tree, rng.New(0)))
	assert.Equal(t, "enum A {\n\tinit?() { self = A.b }\n\n\tcase b\n}A.init()!", semantic.Render(tree))
}

func TestFailableInitializerSkipsVariables(t *testing.T) {
	a := types.NewEnum("A", types.Internal)
	a.AddCase("b")
	sc := scope.New()
	sc.Declare("v", a, false)

	checked := 0
	for i := 0; i < 40; i++ {
		tree := failableTree(t, a)
		annotate(tree, sc, strconv.Itoa(i))
		text := semantic.Render(tree)
		if text == "enum A {\n\tcase b\n}v" {
			assert.False(t, FailableInitializer(tree, rng.New(0)))
			assert.Equal(t, text, semantic.Render(tree))
			checked++
		}
	}
	assert.Positive(t, checked)
}

func TestFailableInitializerWithoutEnums(t *testing.T) {
	tree := grammar.NewTree(testLanguage(t).Expression(Int))
	annotate(tree, scope.New(), "AA==")
	assert.False(t, FailableInitializer(tree, rng.New(0)))
}

func TestLookupRelation(t *testing.T) {
	for _, name := range Relations() {
		rel, err := LookupRelation(name)
		require.NoError(t, err)
		assert.NotNil(t, rel)
	}
	assert.Equal(t, []string{"failable-init", "unnecessary-addition", "unnecessary-multiplication"}, Relations())

	_, err := LookupRelation("unnecessary-additon")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unnecessary-addition")
}
