package grammar

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"swiftsmith/internal/invariant"
)

// NodeID addresses a node inside its Tree. IDs are stable for the life of the tree.
type NodeID int

// NoNode is the parent of a root.
const NoNode NodeID = -1

type node struct {
	value    Symbol
	parent   NodeID
	children []NodeID
	// expanded distinguishes an empty expansion from a leaf that has not been
	// expanded yet.
	expanded bool
	// frontier lists the unexpanded nonterminal leaves under this node, left to right.
	frontier []NodeID
}

// Tree is a parse tree stored as an arena of nodes. Node 0 is the root.
type Tree struct {
	nodes []node
}

// NewTree returns a single unexpanded leaf.
func NewTree(value Symbol) *Tree {
	invariant.NotNil(value, "tree value")
	t := &Tree{}
	t.newLeaf(value, NoNode)
	return t
}

// Build returns a tree whose root holds value and is expanded to children.
// Each child is a Symbol, a string (wrapped as a Terminal) or a *Tree
// (copied in).
func Build(value Symbol, children ...any) *Tree {
	t := NewTree(value)
	root := t.Root()
	t.nodes[root].expanded = true
	for _, c := range children {
		_, isNode := c.(NodeID)
		invariant.Precondition(!isNode, "Build child %v is a node id; a new tree has no nodes to reparent", c)
		id := t.attach(root, c)
		t.nodes[root].children = append(t.nodes[root].children, id)
	}
	t.refreshFrontier(root)
	return t
}

func (t *Tree) newLeaf(value Symbol, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	n := node{value: value, parent: parent}
	if value.IsNonterminal() {
		n.frontier = []NodeID{id}
	}
	t.nodes = append(t.nodes, n)
	return id
}

// attach creates or moves a child under parent without touching parent's
// child list or any frontier.
func (t *Tree) attach(parent NodeID, child any) NodeID {
	switch c := child.(type) {
	case *Tree:
		return t.graft(parent, c)
	case NodeID:
		t.check(c)
		t.nodes[c].parent = parent
		return c
	}
	s, ok := toSymbol(child)
	invariant.Precondition(ok, "tree child %v (%T) is not a symbol, string, tree or node", child, child)
	return t.newLeaf(s, parent)
}

func (t *Tree) graft(parent NodeID, sub *Tree) NodeID {
	src := slices.Clone(sub.nodes)
	offset := NodeID(len(t.nodes))
	shift := func(ids []NodeID) []NodeID {
		if ids == nil {
			return nil
		}
		out := make([]NodeID, len(ids))
		for i, id := range ids {
			out[i] = id + offset
		}
		return out
	}
	for _, n := range src {
		cp := node{
			value:    n.value,
			parent:   n.parent + offset,
			children: shift(n.children),
			expanded: n.expanded,
			frontier: shift(n.frontier),
		}
		if n.parent == NoNode {
			cp.parent = parent
		}
		t.nodes = append(t.nodes, cp)
	}
	return offset
}

// refreshFrontier recomputes the frontier of id and every ancestor from their children.
func (t *Tree) refreshFrontier(id NodeID) {
	for cur := id; cur != NoNode; cur = t.nodes[cur].parent {
		n := &t.nodes[cur]
		var f []NodeID
		switch {
		case !n.expanded && n.value.IsNonterminal():
			f = []NodeID{cur}
		case n.expanded:
			for _, c := range n.children {
				f = append(f, t.nodes[c].frontier...)
			}
		}
		n.frontier = f
	}
}

func (t *Tree) check(id NodeID) {
	invariant.Precondition(id >= 0 && int(id) < len(t.nodes), "node %d does not belong to this tree", id)
}

// Root is the id of the root node.
func (t *Tree) Root() NodeID { return 0 }

// Len counts the nodes in the arena, including nodes detached by Replace.
func (t *Tree) Len() int { return len(t.nodes) }

// Value returns the symbol held by id.
func (t *Tree) Value(id NodeID) Symbol {
	t.check(id)
	return t.nodes[id].value
}

// Parent returns the parent of id, or NoNode for the root.
func (t *Tree) Parent(id NodeID) NodeID {
	t.check(id)
	return t.nodes[id].parent
}

// Children returns the children of id in order. Leaves have none.
func (t *Tree) Children(id NodeID) []NodeID {
	t.check(id)
	return slices.Clone(t.nodes[id].children)
}

// IsLeaf reports whether id has never been given children.
func (t *Tree) IsLeaf(id NodeID) bool {
	t.check(id)
	return !t.nodes[id].expanded
}

// IsUnexpanded reports whether id is a nonterminal leaf awaiting expansion.
func (t *Tree) IsUnexpanded(id NodeID) bool {
	t.check(id)
	return !t.nodes[id].expanded && t.nodes[id].value.IsNonterminal()
}

// AddChild appends a new rightmost child to id. Unexpanded nonterminals must
// be expanded with Expand instead.
func (t *Tree) AddChild(id NodeID, child any) NodeID {
	t.check(id)
	invariant.Precondition(!t.IsUnexpanded(id), "cannot add a child to unexpanded nonterminal %s; use Expand", t.nodes[id].value)
	c := t.attach(id, child)
	t.nodes[id].expanded = true
	t.nodes[id].children = append(t.nodes[id].children, c)
	t.refreshFrontier(id)
	return c
}

// Expand gives the unexpanded nonterminal id the children rhs and splices
// their frontier into every ancestor in place of id. Symbols implementing
// Cloner are cloned so each node owns its value.
func (t *Tree) Expand(id NodeID, rhs []Symbol) {
	t.check(id)
	invariant.Precondition(t.IsUnexpanded(id), "attempted to expand an already expanded node %s", t.nodes[id].value)

	children := make([]NodeID, 0, len(rhs))
	var frontier []NodeID
	for _, s := range rhs {
		invariant.NotNil(s, "rhs symbol")
		c := t.newLeaf(instantiate(s), id)
		children = append(children, c)
		frontier = append(frontier, t.nodes[c].frontier...)
	}

	n := &t.nodes[id]
	n.children = children
	n.expanded = true
	n.frontier = frontier

	for a := range t.Ancestors(id) {
		af := t.nodes[a].frontier
		i := slices.Index(af, id)
		invariant.Invariant(i >= 0, "node %d missing from frontier of ancestor %d", id, a)
		t.nodes[a].frontier = slices.Replace(af, i, i+1, frontier...)
	}
}

// Replace swaps the children of an already expanded node. Children accept the
// same forms as Build plus NodeIDs of this tree, which are reparented. Former
// children that are not reused become detached.
func (t *Tree) Replace(id NodeID, children ...any) {
	t.check(id)
	invariant.Precondition(t.nodes[id].expanded, "cannot replace the children of leaf %s", t.nodes[id].value)
	ids := make([]NodeID, 0, len(children))
	for _, c := range children {
		ids = append(ids, t.attach(id, c))
	}
	t.nodes[id].children = ids
	t.refreshFrontier(id)
}

// Frontier lists the unexpanded nonterminal leaves of the whole tree.
func (t *Tree) Frontier() []NodeID {
	return slices.Clone(t.nodes[t.Root()].frontier)
}

// LeftmostUnexpanded is the next node to rewrite in a leftmost derivation.
func (t *Tree) LeftmostUnexpanded() (NodeID, error) {
	f := t.nodes[t.Root()].frontier
	if len(f) == 0 {
		return NoNode, fmt.Errorf("derivation is complete: no unexpanded nonterminals")
	}
	return f[0], nil
}

// RightmostUnexpanded is the next node to rewrite in a rightmost derivation.
func (t *Tree) RightmostUnexpanded() (NodeID, error) {
	f := t.nodes[t.Root()].frontier
	if len(f) == 0 {
		return NoNode, fmt.Errorf("derivation is complete: no unexpanded nonterminals")
	}
	return f[len(f)-1], nil
}

// Ancestors yields the strict ancestors of id, nearest first.
func (t *Tree) Ancestors(id NodeID) iter.Seq[NodeID] {
	t.check(id)
	return func(yield func(NodeID) bool) {
		for p := t.nodes[id].parent; p != NoNode; p = t.nodes[p].parent {
			if !yield(p) {
				return
			}
		}
	}
}

// Preorder yields id and its descendants, parents before children.
func (t *Tree) Preorder(id NodeID) iter.Seq[NodeID] {
	t.check(id)
	return func(yield func(NodeID) bool) {
		t.preorder(id, yield)
	}
}

func (t *Tree) preorder(id NodeID, yield func(NodeID) bool) bool {
	if !yield(id) {
		return false
	}
	for _, c := range t.nodes[id].children {
		if !t.preorder(c, yield) {
			return false
		}
	}
	return true
}

// Postorder yields id and its descendants, children before parents.
func (t *Tree) Postorder(id NodeID) iter.Seq[NodeID] {
	t.check(id)
	return func(yield func(NodeID) bool) {
		t.postorder(id, yield)
	}
}

func (t *Tree) postorder(id NodeID, yield func(NodeID) bool) bool {
	for _, c := range t.nodes[id].children {
		if !t.postorder(c, yield) {
			return false
		}
	}
	return yield(id)
}

// Values maps a node sequence to the symbols it holds.
func (t *Tree) Values(seq iter.Seq[NodeID]) []Symbol {
	var out []Symbol
	for id := range seq {
		out = append(out, t.nodes[id].value)
	}
	return out
}

// ChildWhere returns the first child of id whose value satisfies match.
func (t *Tree) ChildWhere(id NodeID, match func(Symbol) bool) (NodeID, bool) {
	t.check(id)
	for _, c := range t.nodes[id].children {
		if match(t.nodes[c].value) {
			return c, true
		}
	}
	return NoNode, false
}

// String concatenates the text of every leaf, left to right.
func (t *Tree) String() string {
	var b strings.Builder
	for id := range t.Preorder(t.Root()) {
		if !t.nodes[id].expanded {
			b.WriteString(t.nodes[id].value.String())
		}
	}
	return b.String()
}

// Sexpr renders the structure of the tree, e.g. "(A a (B b))".
func (t *Tree) Sexpr() string {
	var b strings.Builder
	t.sexpr(&b, t.Root())
	return b.String()
}

func (t *Tree) sexpr(b *strings.Builder, id NodeID) {
	n := t.nodes[id]
	if len(n.children) == 0 {
		b.WriteString(n.value.String())
		return
	}
	b.WriteString("(")
	b.WriteString(n.value.String())
	for _, c := range n.children {
		b.WriteString(" ")
		t.sexpr(b, c)
	}
	b.WriteString(")")
}
