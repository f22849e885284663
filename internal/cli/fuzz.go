package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"swiftsmith/internal/fuzz"
	"swiftsmith/pkg/swift"
)

func newFuzzCmd(logLevel *string) *cobra.Command {
	cfg := fuzz.Config{Options: swift.Defaults()}
	compiler := "swiftc -typecheck"

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Generate and compile programs until interrupted",
		Long: "Runs trials in parallel. Each trial generates a program from a fresh random seed,\n" +
			"compiles it and archives it under --crash-dir when the compiler fails or crashes.",
		Args: cobra.NoArgs,
	}
	gf := bindGenerationFlags(cmd.Flags(), &cfg.Options)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cmd.ErrOrStderr(), *logLevel)
		if err != nil {
			return err
		}
		if err := gf.apply(&cfg.Options); err != nil {
			return err
		}
		cfg.Command = strings.Fields(compiler)
		r, err := fuzz.NewRunner(cfg, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if cfg.Trials == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "Running trials ad infinitum. Press ctrl+C to quit.")
		}
		runErr := r.Run(ctx)

		s := r.Stats()
		_, err = fmt.Fprintf(cmd.OutOrStdout(),
			"trials: %d\tok: %d\tfailures: %d\tcrashes: %d\ttimeouts: %d\tgenerator errors: %d\n",
			s.Trials, s.OK, s.Failures, s.Crashes, s.Timeouts, s.GeneratorErrors)
		if runErr != nil {
			return runErr
		}
		return err
	}

	cmd.Flags().IntVarP(&cfg.Workers, "workers", "j", 0, "concurrent trials (default: number of CPUs)")
	cmd.Flags().IntVar(&cfg.Dirs, "dirs", 0, "working directories shared by the workers (default: --workers)")
	cmd.Flags().IntVarP(&cfg.Trials, "trials", "n", 0, "stop after this many trials (0: until interrupted)")
	cmd.Flags().StringVar(&cfg.WorkDir, "work-dir", ".", "directory holding the generated<N> working directories")
	cmd.Flags().StringVar(&cfg.CrashDir, "crash-dir", "crashes", "directory for archived bug candidates (empty: log only)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", time.Minute, "compile time limit per program")
	cmd.Flags().StringVar(&compiler, "compiler", compiler, "compiler command; the program file is appended")
	bindRelationFlag(cmd, &cfg.Options.MetamorphicRelation)
	_ = cmd.MarkFlagDirname("work-dir")
	_ = cmd.MarkFlagDirname("crash-dir")

	cmd.AddCommand(newFuzzShowCmd())
	return cmd
}

func newFuzzShowCmd() *cobra.Command {
	showPrograms := false
	cmd := &cobra.Command{
		Use:   "show RECORD...",
		Short: "Print archived bug candidates",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			for _, path := range args {
				rec, err := fuzz.ReadRecord(path)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\n", path)
				fmt.Fprintf(w, "  seed:      %s\n", rec.Seed)
				if rec.Relation != "" {
					fmt.Fprintf(w, "  relation:  %s\n", rec.Relation)
				}
				fmt.Fprintf(w, "  outcome:   %s\n", rec.Outcome)
				fmt.Fprintf(w, "  exit code: %d\n", rec.ExitCode)
				if rec.Stderr != "" {
					fmt.Fprintf(w, "  stderr:\n%s\n", indent(rec.Stderr, "    "))
				}
				if showPrograms {
					for i, p := range rec.Programs {
						fmt.Fprintf(w, "  program %c:\n%s\n", 'A'+i, indent(p, "    "))
					}
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showPrograms, "programs", false, "print the archived programs")
	return cmd
}

func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
