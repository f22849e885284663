package swift

import (
	"strings"

	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/semantic"
)

// deferOnParent runs fn once the parent's subtree is done, or after the
// node's own subtree at the root.
func deferOnParent(ctx *semantic.Context, fn func()) {
	if p := ctx.Parent(); p != grammar.NoNode {
		ctx.DeferOn(p, fn)
		return
	}
	ctx.Defer(fn)
}

func hasKey(key string) func(grammar.Symbol) bool {
	return func(s grammar.Symbol) bool { return s.Key() == key }
}

// Block opens a nested scope for the nodes after it. The enclosing scope
// becomes current again once the parent's subtree is done.
type Block struct{ semantic.Base }

func NewBlock() *Block { return &Block{} }

func (b *Block) Key() string           { return "A:Block" }
func (b *Block) IsNonterminal() bool   { return false }
func (b *Block) String() string        { return "Block" }
func (b *Block) Clone() grammar.Symbol { return &Block{b.Fresh()} }
func (b *Block) Render() string        { return "" }

func (b *Block) Annotate(ctx *semantic.Context) {
	sc := ctx.Scope
	sc.Next = sc.NewChild(nil)
	deferOnParent(ctx, func() { sc.Next = sc })
}

// EOL is a newline indented by one tab per enclosing scope.
type EOL struct{ semantic.Base }

func NewEOL() *EOL { return &EOL{semantic.NewBase("indent")} }

func (e *EOL) Key() string           { return "A:EOL" }
func (e *EOL) IsNonterminal() bool   { return false }
func (e *EOL) String() string        { return `\n` }
func (e *EOL) Clone() grammar.Symbol { return &EOL{e.Fresh()} }

func (e *EOL) Annotate(ctx *semantic.Context) {
	e.State().Set("indent", ctx.Scope.Depth())
}

func (e *EOL) Render() string {
	return "\n" + strings.Repeat("\t", semantic.Lookup[int](e.State(), "indent"))
}
