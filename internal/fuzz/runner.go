// Package fuzz runs generate-then-compile trials in parallel and archives
// the programs that make the compiler fail or crash.
package fuzz

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"swiftsmith/pkg/rng"
	"swiftsmith/pkg/swift"
)

// Outcome classifies one trial.
type Outcome string

const (
	OK Outcome = "ok"
	// Failure is a compiler that exited non-zero without crashing.
	Failure Outcome = "failure"
	Crash   Outcome = "crash"
	Timeout Outcome = "timeout"
	// GeneratorError is a seed the generator itself could not handle.
	GeneratorError Outcome = "generator-error"
)

// crashMarkers appear on stderr when the Swift frontend dies on an
// assertion or signal but the driver still exits normally.
var crashMarkers = [][]byte{
	[]byte("Stack dump:"),
	[]byte("failed due to signal"),
	[]byte("PLEASE submit a bug report"),
}

type Config struct {
	// Workers is the number of concurrent trials. Defaults to the CPU count.
	Workers int
	// Dirs is the number of working directories shared by the workers.
	// Defaults to Workers.
	Dirs int
	// Trials stops the run after that many trials; 0 runs until the
	// context is cancelled.
	Trials int

	WorkDir  string
	CrashDir string

	// Command is the compiler invocation. The program file is appended as
	// the last argument and the command runs inside the working directory.
	Command []string
	Timeout time.Duration

	// Options is the generation template; its seed is replaced per trial.
	Options swift.Options
	Seeds   func() (string, error)
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Dirs <= 0 {
		c.Dirs = c.Workers
	}
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.Timeout <= 0 {
		c.Timeout = time.Minute
	}
	if c.Seeds == nil {
		c.Seeds = rng.NewSeed
	}
	return c
}

func (c Config) validate() error {
	if len(c.Command) == 0 || c.Command[0] == "" {
		return fmt.Errorf("fuzz: compiler command must not be empty")
	}
	if c.Trials < 0 {
		return fmt.Errorf("fuzz: trials must be non-negative, got %d", c.Trials)
	}
	opts := c.Options
	opts.Seed = "AA=="
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("fuzz: %w", err)
	}
	return nil
}

// Stats counts finished trials. It is safe for concurrent use.
type Stats struct {
	trials          atomic.Int64
	ok              atomic.Int64
	failures        atomic.Int64
	crashes         atomic.Int64
	timeouts        atomic.Int64
	generatorErrors atomic.Int64
}

type Summary struct {
	Trials          int64
	OK              int64
	Failures        int64
	Crashes         int64
	Timeouts        int64
	GeneratorErrors int64
}

func (s *Stats) count(o Outcome) int64 {
	switch o {
	case OK:
		s.ok.Add(1)
	case Failure:
		s.failures.Add(1)
	case Crash:
		s.crashes.Add(1)
	case Timeout:
		s.timeouts.Add(1)
	case GeneratorError:
		s.generatorErrors.Add(1)
	}
	return s.trials.Add(1)
}

func (s *Stats) Summary() Summary {
	return Summary{
		Trials:          s.trials.Load(),
		OK:              s.ok.Load(),
		Failures:        s.failures.Load(),
		Crashes:         s.crashes.Load(),
		Timeouts:        s.timeouts.Load(),
		GeneratorErrors: s.generatorErrors.Load(),
	}
}

type Runner struct {
	cfg   Config
	log   *slog.Logger
	pool  dirPool
	stats Stats
}

func NewRunner(cfg Config, logger *slog.Logger) (*Runner, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{cfg: cfg, log: logger, pool: newDirPool(cfg.Dirs)}, nil
}

func (r *Runner) Stats() Summary { return r.stats.Summary() }

// Run feeds seeds to the workers until the trial budget is spent or ctx is
// cancelled. Cancellation drains the in-flight trials and is not an error;
// failing to start the compiler or to write files is.
func (r *Runner) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once   sync.Once
		runErr error
	)
	fail := func(err error) {
		once.Do(func() {
			runErr = err
			cancel()
		})
	}

	seeds := make(chan string)
	go func() {
		defer close(seeds)
		for i := 0; r.cfg.Trials == 0 || i < r.cfg.Trials; i++ {
			seed, err := r.cfg.Seeds()
			if err != nil {
				fail(fmt.Errorf("draw seed: %w", err))
				return
			}
			select {
			case seeds <- seed:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for range r.cfg.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range seeds {
				if err := r.trial(ctx, seed); err != nil {
					fail(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	s := r.stats.Summary()
	r.log.Info("fuzzing stopped",
		"trials", s.Trials, "ok", s.OK, "failures", s.Failures,
		"crashes", s.Crashes, "timeouts", s.Timeouts, "generator_errors", s.GeneratorErrors)
	return runErr
}

func (r *Runner) trial(ctx context.Context, seed string) error {
	opts := r.cfg.Options
	opts.Seed = seed
	program, err := generate(opts, r.log)
	if err != nil {
		return r.finish(seed, &Record{
			Seed:     seed,
			Relation: opts.MetamorphicRelation,
			Outcome:  GeneratorError,
			Stderr:   err.Error(),
		})
	}

	token, err := r.pool.acquire(ctx)
	if err != nil {
		return nil
	}
	defer r.pool.release(token)

	dir := filepath.Join(r.cfg.WorkDir, fmt.Sprintf("generated%d", token))
	files, err := writeProgram(dir, program)
	if err != nil {
		return err
	}

	rec := &Record{Seed: seed, Relation: opts.MetamorphicRelation, Outcome: OK}
	for _, f := range files {
		outcome, code, stderr, err := r.compile(ctx, dir, f)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}
		if outcome != OK {
			rec.Outcome, rec.ExitCode, rec.Stderr = outcome, code, stderr
			break
		}
	}
	if rec.Outcome != OK {
		rec.Programs = []string{program.A}
		if program.B != "" {
			rec.Programs = append(rec.Programs, program.B)
		}
	}
	return r.finish(seed, rec)
}

func (r *Runner) finish(seed string, rec *Record) error {
	n := r.stats.count(rec.Outcome)
	if rec.Outcome == OK {
		r.log.Debug("trial passed", "counter", n, "seed", seed)
		return nil
	}
	log := r.log.With("counter", n, "seed", seed, "outcome", rec.Outcome)
	if r.cfg.CrashDir == "" {
		log.Warn("bug candidate", "stderr", rec.Stderr)
		return nil
	}
	path, err := WriteRecord(r.cfg.CrashDir, rec)
	if err != nil {
		return fmt.Errorf("archive seed %s: %w", seed, err)
	}
	log.Warn("bug candidate", "record", path, "stderr", rec.Stderr)
	return nil
}

// generate turns a generator panic into an error so one bad seed does not
// take the whole run down.
func generate(opts swift.Options, logger *slog.Logger) (p swift.Program, err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("generator panic: %v", v)
		}
	}()
	return swift.Generate(opts, logger)
}

// writeProgram writes one file per variant, since A and B declare the
// same names and cannot share a compilation.
func writeProgram(dir string, p swift.Program) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	variants := map[string]string{"Generated.swift": p.A}
	if p.B != "" {
		variants = map[string]string{"GeneratedA.swift": p.A, "GeneratedB.swift": p.B}
	}
	files := make([]string, 0, len(variants))
	for name, text := range variants {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
			return nil, err
		}
		files = append(files, name)
	}
	slices.Sort(files)
	return files, nil
}

const waitDelay = 2 * time.Second

func (r *Runner) compile(ctx context.Context, dir, file string) (Outcome, int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	args := append(slices.Clone(r.cfg.Command[1:]), file)
	cmd := exec.CommandContext(ctx, r.cfg.Command[0], args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	killGroup(cmd)
	// Stop waiting on stderr once the process is gone even if a stray
	// descendant still holds the pipe.
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	outcome, code, err := classify(err, stderr.Bytes(), ctx.Err())
	return outcome, code, stderr.String(), err
}

func classify(runErr error, stderr []byte, ctxErr error) (Outcome, int, error) {
	if runErr == nil {
		return OK, 0, nil
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return Timeout, -1, nil
	}
	// The compiler exited cleanly but its stderr stayed open.
	if errors.Is(runErr, exec.ErrWaitDelay) {
		return OK, 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return "", 0, fmt.Errorf("run compiler: %w", runErr)
	}
	code := exitErr.ExitCode()
	// -1 means the process was killed by a signal
	if code < 0 {
		return Crash, code, nil
	}
	for _, m := range crashMarkers {
		if bytes.Contains(stderr, m) {
			return Crash, code, nil
		}
	}
	return Failure, code, nil
}
