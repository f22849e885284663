package grammar

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture mirrors:
//
//	t = (A a t1 (A t2 a t3))   with t1, t2 = A and t3 = B unexpanded
type fixture struct {
	tree           *Tree
	t1, t2, t3, t4 NodeID
}

func newFixture() fixture {
	A, B := Nonterminal("A"), Nonterminal("B")
	t4 := Build(A, A, "a", B)
	tree := Build(A, "a", A, t4)
	root := tree.Children(tree.Root())
	t4id := root[2]
	inner := tree.Children(t4id)
	return fixture{tree: tree, t1: root[1], t2: inner[0], t3: inner[2], t4: t4id}
}

func values(t *Tree, ids []NodeID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.Value(id).String())
	}
	return out
}

func TestIsLeaf(t *testing.T) {
	a := NewTree(Terminal("5"))
	assert.True(t, a.IsLeaf(a.Root()))

	b := Build(Terminal("4"), Terminal("6"))
	assert.False(t, b.IsLeaf(b.Root()))

	empty := Build(Nonterminal("E"))
	assert.False(t, empty.IsLeaf(empty.Root()), "an empty expansion is not a leaf")
	assert.False(t, empty.IsUnexpanded(empty.Root()))
}

func TestTraversalOrders(t *testing.T) {
	tree := Build(Terminal("1"), "2", Build(Terminal("3"), "4"), "5")

	pre := tree.Values(tree.Preorder(tree.Root()))
	post := tree.Values(tree.Postorder(tree.Root()))

	toStrings := func(ss []Symbol) []string {
		out := make([]string, len(ss))
		for i, s := range ss {
			out[i] = s.String()
		}
		return out
	}
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, toStrings(pre))
	assert.Equal(t, []string{"2", "4", "3", "5", "1"}, toStrings(post))

	// sequences are restartable across pure reads
	assert.Equal(t, pre, tree.Values(tree.Preorder(tree.Root())))
}

func TestParentsAndAncestors(t *testing.T) {
	f := newFixture()
	tree := f.tree

	assert.Equal(t, tree.Root(), tree.Parent(f.t1))
	assert.Equal(t, f.t4, tree.Parent(f.t2))
	assert.Equal(t, f.t4, tree.Parent(f.t3))
	assert.Equal(t, NoNode, tree.Parent(tree.Root()))
	assert.Equal(t, []NodeID{f.t4, tree.Root()}, slices.Collect(tree.Ancestors(f.t2)))
}

func TestLeftmostAndRightmostUnexpanded(t *testing.T) {
	f := newFixture()

	left, err := f.tree.LeftmostUnexpanded()
	require.NoError(t, err)
	right, err := f.tree.RightmostUnexpanded()
	require.NoError(t, err)

	assert.Equal(t, f.t1, left)
	assert.Equal(t, f.t3, right)
	assert.Equal(t, []NodeID{f.t1, f.t2, f.t3}, f.tree.Frontier())

	done := NewTree(Terminal("x"))
	_, err = done.LeftmostUnexpanded()
	assert.Error(t, err)
	_, err = done.RightmostUnexpanded()
	assert.Error(t, err)
}

func TestExpandSplicesFrontierIntoAncestors(t *testing.T) {
	f := newFixture()
	tree := f.tree
	C, D := Nonterminal("C"), Nonterminal("D")

	tree.Expand(f.t2, []Symbol{C, Terminal("c"), D})
	children := tree.Children(f.t2)

	want := []NodeID{f.t1, children[0], children[2], f.t3}
	if diff := cmp.Diff(want, tree.Frontier()); diff != "" {
		t.Errorf("root frontier mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"C", "D", "B"}, values(tree, tree.nodes[f.t4].frontier))

	tree.Expand(children[0], nil)
	assert.Equal(t, []NodeID{f.t1, children[2], f.t3}, tree.Frontier())
}

func TestExpandFrontierIsNonterminalsOfRHS(t *testing.T) {
	S, X, Y := Nonterminal("S"), Nonterminal("X"), Nonterminal("Y")
	rhs := []Symbol{Terminal("a"), X, Terminal("b"), Y, X}

	tree := NewTree(S)
	tree.Expand(tree.Root(), rhs)

	assert.Equal(t, []string{"X", "Y", "X"}, values(tree, tree.Frontier()))
	for _, id := range tree.Frontier() {
		assert.True(t, tree.IsUnexpanded(id))
	}
}

func TestExpandTwicePanics(t *testing.T) {
	tree := NewTree(Nonterminal("S"))
	tree.Expand(tree.Root(), []Symbol{Terminal("a")})

	assert.Panics(t, func() { tree.Expand(tree.Root(), []Symbol{Terminal("b")}) })
	assert.Equal(t, "a", tree.String(), "failed expansion must not overwrite")

	terminal := NewTree(Terminal("x"))
	assert.Panics(t, func() { terminal.Expand(terminal.Root(), nil) })
}

type counter struct{ n *int }

func (c counter) Key() string         { return "T:counter" }
func (c counter) IsNonterminal() bool { return false }
func (c counter) String() string      { return "counter" }
func (c counter) Clone() Symbol {
	*c.n++
	return c
}

func TestExpandClonesStatefulSymbols(t *testing.T) {
	n := 0
	tree := NewTree(Nonterminal("S"))
	tree.Expand(tree.Root(), []Symbol{counter{&n}, counter{&n}})
	assert.Equal(t, 2, n)
}

func TestAddChildAndReplaceMaintainFrontier(t *testing.T) {
	A := Nonterminal("A")
	tree := Build(Nonterminal("S"), "x")

	id := tree.AddChild(tree.Root(), A)
	assert.Equal(t, []NodeID{id}, tree.Frontier())

	assert.Panics(t, func() { tree.AddChild(id, "y") }, "unexpanded nonterminals are expanded, not appended to")

	tree.Replace(tree.Root(), "(", id, ") + 0")
	assert.Equal(t, "(A) + 0", tree.String())
	assert.Equal(t, []NodeID{id}, tree.Frontier())

	tree.Expand(id, []Symbol{Terminal("a")})
	assert.Empty(t, tree.Frontier())
	assert.Equal(t, "(a) + 0", tree.String())
}

func TestBuildGraftsSubtrees(t *testing.T) {
	inner := Build(Nonterminal("E"), "1", Nonterminal("F"))
	outer := Build(Nonterminal("S"), "(", inner, ")")

	assert.Equal(t, "(1F)", outer.String())
	assert.Equal(t, []string{"F"}, values(outer, outer.Frontier()))
	assert.Equal(t, "(S ( (E 1 F) ))", outer.Sexpr())

	// grafting copies: the original is untouched
	assert.Equal(t, 3, inner.Len())
}

func TestBuildRejectsNodeIDs(t *testing.T) {
	assert.Panics(t, func() { Build(Nonterminal("S"), "x", NodeID(0)) })
}

func TestChildWhere(t *testing.T) {
	f := newFixture()
	id, ok := f.tree.ChildWhere(f.t4, func(s Symbol) bool { return s == Nonterminal("B") })
	require.True(t, ok)
	assert.Equal(t, f.t3, id)

	_, ok = f.tree.ChildWhere(f.t4, func(s Symbol) bool { return s == Nonterminal("Z") })
	assert.False(t, ok)
}
