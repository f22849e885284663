package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"swiftsmith/pkg/grammar"
	"swiftsmith/pkg/swift"
)

func newGrammarCmd() *cobra.Command {
	opts := swift.Defaults()
	cmd := &cobra.Command{
		Use:   "grammar",
		Short: "Inspect the program grammar",
	}
	gf := bindGenerationFlags(cmd.PersistentFlags(), &opts)

	language := func() (*swift.Language, error) {
		o := opts
		if err := gf.apply(&o); err != nil {
			return nil, err
		}
		return o.Language()
	}

	outputPath := ""
	weightsCmd := &cobra.Command{
		Use:   "weights",
		Short: "Dump the production weights as a probability configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := language()
			if err != nil {
				return err
			}
			if outputPath == "" {
				return swift.WriteProbabilities(cmd.OutOrStdout(), l.Weights())
			}
			f, err := os.Create(outputPath)
			if err != nil {
				return err
			}
			if err := swift.WriteProbabilities(f, l.Weights()); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
	weightsCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to file instead of stdout")
	_ = weightsCmd.MarkFlagFilename("output", "json")

	printCmd := &cobra.Command{
		Use:   "print",
		Short: "Print every production",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := language()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), l.Grammar())
			return err
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Report alphabet sizes and whether the grammar is LL(1)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := language()
			if err != nil {
				return err
			}
			g := l.Grammar()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "productions:  %d\n", len(g.Productions))
			fmt.Fprintf(w, "nonterminals: %d\n", len(g.Nonterminals()))
			fmt.Fprintf(w, "terminals:    %d\n", len(g.Terminals()))
			if p, err := grammar.NewLL1(g); err != nil {
				fmt.Fprintf(w, "LL(1):        no (%v)\n", err)
			} else {
				fmt.Fprintf(w, "LL(1):        yes (%d table entries)\n", p.Size())
			}
			return nil
		},
	}

	cmd.AddCommand(weightsCmd, printCmd, checkCmd)
	return cmd
}
