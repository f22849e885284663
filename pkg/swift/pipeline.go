package swift

import (
	"fmt"
	"log/slog"
	"strings"

	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/scope"
	"swiftsmith/pkg/semantic"
	"swiftsmith/pkg/types"
)

// Program is the result of one generation.
type Program struct {
	Seed string
	// A is the generated module.
	A string
	// B is A rewritten by the metamorphic relation, or empty without one.
	B string
	// Rewritten is false when the relation found nothing to rewrite, in
	// which case B differs from A only in its header.
	Rewritten bool
}

// programGenerator follows the flow initialize -> derive -> annotate ->
// generate main -> output, once per seed.
type programGenerator struct {
	opts  Options
	log   *slog.Logger
	r     *rng.Source
	lang  *Language
	names *Names
	root  *scope.Scope
	tree  *grammar.Tree
	main  string
}

func newProgramGenerator(opts Options, logger *slog.Logger) *programGenerator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &programGenerator{opts: opts, log: logger.With("seed", opts.Seed)}
}

func (g *programGenerator) initialize() error {
	lang, err := g.opts.Language()
	if err != nil {
		return err
	}
	g.lang = lang
	g.r = rng.FromString(g.opts.Seed)
	g.names = NewNames()
	g.root = scope.New()
	ImportStandardLibrary(g.root)
	return nil
}

func (g *programGenerator) derive() error {
	tree, err := grammar.RandomTree(g.lang.Grammar(), g.r, nil)
	if err != nil {
		return fmt.Errorf("derive program: %w", err)
	}
	g.tree = tree
	g.log.Debug("derived parse tree", "nodes", tree.Len())
	return nil
}

func (g *programGenerator) annotate() {
	semantic.Annotate(g.tree, g.root, g.r, g.names)
	g.log.Debug("annotated parse tree",
		"functions", len(g.root.Functions),
		"types", len(g.root.AccessibleTypes(scope.TypeFilter{})))
}

// generateMain calls a random public function from a public main that takes
// one Int argument. main lives in its own scope under the root, so it sees
// every declaration of the program.
func (g *programGenerator) generateMain() error {
	fns := g.root.AccessibleFunctions(scope.FunctionFilter{AtLeast: types.Public, DeclaredOnly: true})
	if len(fns) == 0 {
		return fmt.Errorf("generate main: no public function to call")
	}
	f := fns[g.r.Intn(len(fns))]

	sc := g.root.NewChild(nil)
	arg := g.names.Identifier()
	sc.Declare(arg, Int, false)
	body := grammar.NewTree(CallTo(f.Name, f.Type))
	semantic.Annotate(body, sc, g.r, g.names)

	g.main = fmt.Sprintf("\n\npublic func main(_ %s: Int) -> %s {\n    return %s\n}\n",
		arg, f.Type.Returns.FullName(), semantic.Render(body))
	g.log.Debug("generated main", "calls", f.Name)
	return nil
}

func (g *programGenerator) outputHeader(b *strings.Builder, variant string) {
	if g.opts.NoHeader {
		return
	}
	b.WriteString("// This is a RANDOMLY GENERATED PROGRAM.\n")
	b.WriteString("//\n")
	b.WriteString("// Generator: swiftsmith\n")
	b.WriteString("// Swift:     " + strings.TrimPrefix(g.lang.Version(), "v") + "\n")
	b.WriteString("// Seed:      " + g.opts.Seed + "\n")
	if variant != "" {
		b.WriteString("// Variant:   " + variant + "\n")
	}
}

func (g *programGenerator) output(variant string) string {
	var b strings.Builder
	g.outputHeader(&b, variant)
	b.WriteString(semantic.Render(g.tree))
	if !g.opts.NoMain {
		b.WriteString(g.main)
	}
	return b.String()
}

func (g *programGenerator) run() (Program, error) {
	if err := g.initialize(); err != nil {
		return Program{}, err
	}
	if err := g.derive(); err != nil {
		return Program{}, err
	}
	g.annotate()
	if !g.opts.NoMain {
		if err := g.generateMain(); err != nil {
			return Program{}, err
		}
	}

	p := Program{Seed: g.opts.Seed}
	if g.opts.MetamorphicRelation == "" {
		p.A = g.output("")
		return p, nil
	}
	rel, err := LookupRelation(g.opts.MetamorphicRelation)
	if err != nil {
		return Program{}, err
	}
	p.A = g.output("A")
	p.Rewritten = rel(g.tree, g.r)
	if !p.Rewritten {
		g.log.Info("metamorphic relation did not apply", "relation", g.opts.MetamorphicRelation)
	}
	p.B = g.output("B " + g.opts.MetamorphicRelation)
	return p, nil
}

// Generate produces a Swift module from opts. The same options always
// produce the same program. logger may be nil.
func Generate(opts Options, logger *slog.Logger) (Program, error) {
	if err := opts.Validate(); err != nil {
		return Program{}, err
	}
	return newProgramGenerator(opts, logger).run()
}
