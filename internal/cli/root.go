package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/swift"
)

const (
	appName    = "swiftsmith"
	appVersion = "0.1.0"
)

type negBoolBinding struct {
	target *bool
	neg    *bool
}

func addBoolPair(cmd *cobra.Command, bindings *[]negBoolBinding, target *bool, name string, usage string) {
	neg := new(bool)
	cmd.Flags().BoolVar(target, name, *target, usage)
	cmd.Flags().BoolVar(neg, "no-"+name, false, "disable "+name)
	*bindings = append(*bindings, negBoolBinding{target: target, neg: neg})
}

func applyNegBindings(bindings []negBoolBinding) {
	for _, b := range bindings {
		if *b.neg {
			*b.target = false
		}
	}
}

// generationFlags are shared by every command that builds a grammar.
type generationFlags struct {
	weights map[string]string
}

func bindGenerationFlags(fs *pflag.FlagSet, opts *swift.Options) *generationFlags {
	gf := &generationFlags{}
	fs.StringVar(&opts.LanguageVersion, "language-version", opts.LanguageVersion, "targeted Swift version")
	fs.StringVar(&opts.ProbabilityConfiguration, "probability-configuration", opts.ProbabilityConfiguration, "JSON file of production weights")
	fs.StringToStringVar(&gf.weights, "probability", nil, "production weight as label=weight, applied after the configuration file")
	_ = fs.SetAnnotation("probability-configuration", cobra.BashCompFilenameExt, []string{"json"})
	return gf
}

// apply parses the --probability values into opts.
func (gf *generationFlags) apply(opts *swift.Options) error {
	if len(gf.weights) == 0 {
		return nil
	}
	opts.Probabilities = make(map[string]float64, len(gf.weights))
	for label, text := range gf.weights {
		w, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("invalid weight for %q: %w", label, err)
		}
		opts.Probabilities[label] = w
	}
	return nil
}

func bindRelationFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "relation", "", "metamorphic relation producing variant B ("+strings.Join(swift.Relations(), ", ")+")")
	_ = cmd.RegisterFlagCompletionFunc("relation", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return swift.Relations(), cobra.ShellCompDirectiveNoFileComp
	})
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: want debug, info, warn or error", level)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func NewRootCmd() *cobra.Command {
	opts := swift.Defaults()
	seedSet := false
	outputPath := ""
	showVersion := false
	withMain := true
	withHeader := true
	logLevel := "warn"
	negBindings := make([]negBoolBinding, 0, 2)

	cmd := &cobra.Command{
		Use:           appName + " [seed]",
		Short:         "Random Swift program generator for compiler fuzzing",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	gf := bindGenerationFlags(cmd.Flags(), &opts)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, appVersion)
			return err
		}
		logger, err := newLogger(cmd.ErrOrStderr(), logLevel)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if seedSet && args[0] != opts.Seed {
				return fmt.Errorf("options conflict: seed given both as argument and as --seed")
			}
			opts.Seed = args[0]
			seedSet = true
		}
		if !seedSet {
			seed, err := rng.NewSeed()
			if err != nil {
				return err
			}
			opts.Seed = seed
		}
		opts.NoMain = !withMain
		opts.NoHeader = !withHeader
		if err := gf.apply(&opts); err != nil {
			return err
		}

		program, err := swift.Generate(opts, logger)
		if err != nil {
			return err
		}
		return writeProgram(cmd.OutOrStdout(), outputPath, program)
	}

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", logLevel, "log level: debug, info, warn or error")
	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print version")
	cmd.Flags().StringVarP(&opts.Seed, "seed", "s", "", "seed for deterministic generation (random when unset)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the program to <output>.swift, or <output>A.swift and <output>B.swift with --relation")
	bindRelationFlag(cmd, &opts.MetamorphicRelation)
	addBoolPair(cmd, &negBindings, &withMain, "main", "generate a public main calling a generated function")
	addBoolPair(cmd, &negBindings, &withHeader, "header", "start the program with a comment naming its seed")

	_ = cmd.MarkFlagFilename("output", "swift")

	cmd.PreRun = func(cmd *cobra.Command, args []string) {
		seedSet = cmd.Flags().Changed("seed")
		applyNegBindings(negBindings)
	}

	cmd.AddCommand(newFuzzCmd(&logLevel), newGrammarCmd())
	return cmd
}

// writeProgram prints to w without an output path; otherwise it writes one
// file per variant.
func writeProgram(w io.Writer, outputPath string, p swift.Program) error {
	if outputPath == "" {
		if _, err := io.WriteString(w, p.A); err != nil {
			return err
		}
		if p.B == "" {
			return nil
		}
		_, err := io.WriteString(w, "\n"+p.B)
		return err
	}
	base := strings.TrimSuffix(outputPath, ".swift")
	if p.B == "" {
		return os.WriteFile(base+".swift", []byte(p.A), 0o644)
	}
	if err := os.WriteFile(base+"A.swift", []byte(p.A), 0o644); err != nil {
		return err
	}
	return os.WriteFile(base+"B.swift", []byte(p.B), 0o644)
}
