package semantic

import (
	"iter"

	"swiftsmith/internal/invariant"
	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/types"
)

// Namer hands out fresh identifiers for one generated program.
type Namer interface {
	Identifier() string
	TypeName() string
}

// Typed is implemented by semantic nonterminals whose subtree produces a value
// of a known type, so typeless descendants can infer theirs.
type Typed interface {
	Datatype() *types.Type
}

// Walker runs the annotation pass over one tree.
type Walker struct {
	tree     *grammar.Tree
	rand     *rng.Source
	names    Namer
	deferred map[grammar.NodeID][]func()
	finished map[grammar.NodeID]bool
}

// NewWalker prepares a walk of tree.
func NewWalker(tree *grammar.Tree, r *rng.Source, names Namer) *Walker {
	invariant.NotNil(tree, "tree")
	invariant.NotNil(r, "random source")
	invariant.NotNil(names, "namer")
	return &Walker{
		tree:     tree,
		rand:     r,
		names:    names,
		deferred: make(map[grammar.NodeID][]func()),
		finished: make(map[grammar.NodeID]bool),
	}
}

// Annotate walks tree from the root. A nil scope gets a fresh root scope; the
// scope actually used is returned.
func Annotate(tree *grammar.Tree, sc *scope.Scope, r *rng.Source, names Namer) *scope.Scope {
	if sc == nil {
		sc = scope.New()
	}
	NewWalker(tree, r, names).Walk(sc)
	return sc
}

// Walk annotates every node of the tree. Each node receives the current
// target of its parent's scope at the moment it is visited.
func (w *Walker) Walk(sc *scope.Scope) {
	invariant.NotNil(sc, "scope")
	w.walk(w.tree.Root(), sc)
}

func (w *Walker) walk(id grammar.NodeID, sc *scope.Scope) {
	if a, ok := w.tree.Value(id).(Annotatable); ok {
		st := a.State()
		invariant.Precondition(!st.annotated, "node %d (%s) annotated twice", id, a)
		a.Annotate(&Context{Node: id, Scope: sc, Rand: w.rand, Names: w.names, walker: w})
		st.annotated = true
	}
	for _, c := range w.tree.Children(id) {
		w.walk(c, sc.Next)
	}
	w.finish(id)
}

// finish runs the deferred actions of id, most recent first. Actions may
// defer further actions on the same node; those run too.
func (w *Walker) finish(id grammar.NodeID) {
	for {
		queue := w.deferred[id]
		if len(queue) == 0 {
			break
		}
		fn := queue[len(queue)-1]
		w.deferred[id] = queue[:len(queue)-1]
		fn()
	}
	delete(w.deferred, id)
	w.finished[id] = true
}

func (w *Walker) deferOn(id grammar.NodeID, fn func()) {
	invariant.NotNil(fn, "deferred action")
	invariant.Precondition(!w.finished[id], "cannot defer on node %d: its subtree is already annotated", id)
	w.deferred[id] = append(w.deferred[id], fn)
}

// Context is what an Annotate implementation sees of the walk.
type Context struct {
	Node  grammar.NodeID
	Scope *scope.Scope
	Rand  *rng.Source
	Names Namer

	walker *Walker
}

// Tree is the tree being annotated.
func (c *Context) Tree() *grammar.Tree { return c.walker.tree }

// Value is the symbol at the node being annotated.
func (c *Context) Value() grammar.Symbol { return c.walker.tree.Value(c.Node) }

// Expand gives the node, which must be an unexpanded nonterminal, the
// children rhs. The walk descends into them after Annotate returns.
func (c *Context) Expand(rhs ...grammar.Symbol) {
	c.walker.tree.Expand(c.Node, rhs)
}

// Parent is the id of the node's parent, or grammar.NoNode at the root.
func (c *Context) Parent() grammar.NodeID { return c.walker.tree.Parent(c.Node) }

// ParentState returns the annotations of the parent node, or nil when the
// parent is missing or not annotatable.
func (c *Context) ParentState() *Annotations {
	p := c.Parent()
	if p == grammar.NoNode {
		return nil
	}
	if a, ok := c.walker.tree.Value(p).(Annotatable); ok {
		return a.State()
	}
	return nil
}

// Defer schedules fn to run once this node's subtree has been annotated.
func (c *Context) Defer(fn func()) { c.walker.deferOn(c.Node, fn) }

// DeferOn schedules fn on another node that has not finished yet, usually an
// ancestor or a later sibling.
func (c *Context) DeferOn(id grammar.NodeID, fn func()) { c.walker.deferOn(id, fn) }

// Sibling finds the first child of the parent whose value matches.
func (c *Context) Sibling(match func(grammar.Symbol) bool) (grammar.NodeID, bool) {
	p := c.Parent()
	if p == grammar.NoNode {
		return grammar.NoNode, false
	}
	return c.walker.tree.ChildWhere(p, match)
}

// Ancestors yields the values of the strict ancestors, nearest first.
func (c *Context) Ancestors() iter.Seq[grammar.Symbol] {
	t := c.walker.tree
	return func(yield func(grammar.Symbol) bool) {
		for id := range t.Ancestors(c.Node) {
			if !yield(t.Value(id)) {
				return
			}
		}
	}
}

// InferType returns the type of the nearest ancestor that implements Typed
// with a non-nil type.
func (c *Context) InferType() (*types.Type, bool) {
	for v := range c.Ancestors() {
		if typed, ok := v.(Typed); ok {
			if t := typed.Datatype(); t != nil {
				return t, true
			}
		}
	}
	return nil, false
}

// AnnotateSubtree walks a separate tree with this node's scope, random source
// and names.
func (c *Context) AnnotateSubtree(tree *grammar.Tree) {
	NewWalker(tree, c.Rand, c.Names).Walk(c.Scope)
}
