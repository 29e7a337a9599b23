// Package loop drives the generate, compile, test and feedback cycle.
package loop

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/animus-coder/autosolve/internal/extract"
	"github.com/animus-coder/autosolve/internal/feedback"
	"github.com/animus-coder/autosolve/internal/logging"
	"github.com/animus-coder/autosolve/internal/observability"
	"github.com/animus-coder/autosolve/internal/outcome"
	"github.com/animus-coder/autosolve/internal/session"
	"github.com/animus-coder/autosolve/internal/toolchain"
)

// ErrAttemptsExhausted is returned when the attempt cap is reached without
// every fixture passing.
var ErrAttemptsExhausted = errors.New("attempt limit reached")

// OverrideFunc lets an operator replace the prompt about to be sent. It
// returns the prompt to use, which may be proposed unchanged.
type OverrideFunc func(ctx context.Context, attempt int, proposed string) (string, error)

// NoOverride keeps every proposed prompt. It is used for headless runs.
func NoOverride(_ context.Context, _ int, proposed string) (string, error) {
	return proposed, nil
}

// Generator produces a model reply and persists it to the solution file.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Compiler builds the solution file.
type Compiler interface {
	Compile(ctx context.Context) (toolchain.CompileOutcome, error)
	BinaryPath() string
}

// Tester runs the built program against the fixtures.
type Tester interface {
	Run(ctx context.Context, binary string) (outcome.Outcome, error)
}

// Observer is told about progress for operator display.
type Observer interface {
	Attempt(n int)
	CompileFailed(diagnostics string)
	CompileSucceeded()
	Result(summary string, passed bool)
}

// Deps are the collaborators of a Loop.
type Deps struct {
	Generator    Generator
	Compiler     Compiler
	Tester       Tester
	Composer     feedback.Composer
	SolutionPath string
	// Model labels backend failures in metrics.
	Model        string
}

// Result summarizes a finished run.
type Result struct {
	RunID    string
	Attempts int
	Passed   bool
	// Last is the outcome of the final completed attempt, nil if none completed.
	Last outcome.Outcome
}

// Loop owns the attempt counter. A Loop is single-use and not safe for
// concurrent use.
type Loop struct {
	deps          Deps
	maxAttempts   int
	overrideEvery int
	override      OverrideFunc
	observer      Observer
	metrics       *observability.Metrics
	logger        *zap.Logger

	runID    string
	attempts int
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxAttempts caps the number of attempts; zero means unlimited.
func WithMaxAttempts(n int) Option {
	return func(l *Loop) { l.maxAttempts = n }
}

// WithOverride offers fn the prompt on every attempt divisible by every.
// A zero interval or nil fn disables the override.
func WithOverride(every int, fn OverrideFunc) Option {
	return func(l *Loop) {
		l.overrideEvery = every
		l.override = fn
	}
}

// WithObserver reports progress to o.
func WithObserver(o Observer) Option {
	return func(l *Loop) { l.observer = o }
}

// WithMetrics records attempts and stage timings.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Loop) { l.metrics = m }
}

// WithLogger sets the logger; every line carries the run id.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New builds a loop. The override defaults to every fifth attempt with
// NoOverride.
func New(deps Deps, opts ...Option) *Loop {
	l := &Loop{
		deps:          deps,
		overrideEvery: 5,
		override:      NoOverride,
		runID:         uuid.NewString(),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.override == nil {
		l.overrideEvery = 0
	}
	if l.observer == nil {
		l.observer = nopObserver{}
	}
	l.logger = logging.OrNop(l.logger).With(zap.String("run_id", l.runID))
	return l
}

// Attempts reports how many attempts have been started.
func (l *Loop) Attempts() int {
	return l.attempts
}

// Run iterates until every fixture passes, the attempt cap is hit or ctx is
// canceled. Failed attempts are turned into the next prompt; only failures
// of the working files, the toolchain or the fixture store are returned as
// errors.
func (l *Loop) Run(ctx context.Context, problem string) (Result, error) {
	res := Result{RunID: l.runID}
	prompt := l.deps.Composer.Initial(problem)
	l.logger.Info("solve started", zap.Int("max_attempts", l.maxAttempts))

	for {
		if err := ctx.Err(); err != nil {
			return l.finish(res, "interrupted"), err
		}
		if l.maxAttempts > 0 && l.attempts >= l.maxAttempts {
			return l.finish(res, "exhausted"), ErrAttemptsExhausted
		}

		l.attempts++
		res.Attempts = l.attempts
		logger := l.logger.With(zap.Int("attempt", l.attempts))
		l.observer.Attempt(l.attempts)

		if l.overrideEvery > 0 && l.attempts%l.overrideEvery == 0 {
			next, err := l.override(ctx, l.attempts, prompt)
			switch {
			case ctx.Err() != nil:
				return l.finish(res, "interrupted"), ctx.Err()
			case err != nil:
				logger.Warn("prompt override failed; keeping proposed prompt", zap.Error(err))
			case next != prompt:
				logger.Info("operator replaced prompt")
				prompt = next
			}
		}

		out, err := l.attempt(ctx, prompt, logger)
		if err != nil {
			if ctx.Err() != nil {
				return l.finish(res, "interrupted"), ctx.Err()
			}
			return l.finish(res, "failed"), err
		}
		res.Last = out
		l.metrics.RecordAttempt(out.Kind())

		next, done := l.deps.Composer.Compose(out)
		if done {
			res.Passed = true
			logger.Info("all fixtures passed", zap.String("detail", fmt.Sprint(out)))
			return l.finish(res, "solved"), nil
		}
		logger.Info("attempt failed", zap.String("outcome", out.Kind()), zap.String("detail", fmt.Sprint(out)))
		prompt = next
	}
}

func (l *Loop) attempt(ctx context.Context, prompt string, logger *zap.Logger) (outcome.Outcome, error) {
	if err := l.generate(ctx, prompt, logger); err != nil {
		return nil, err
	}

	start := time.Now()
	co, err := l.deps.Compiler.Compile(ctx)
	l.metrics.ObserveStage("compile", time.Since(start))
	if err != nil {
		return nil, err
	}
	if co.TimedOut {
		l.observer.Result("compilation timed out", false)
		return outcome.TimedOut{Stage: outcome.StageCompile}, nil
	}
	if !co.Success {
		diag, err := readOptional(co.DiagnosticsPath)
		if err != nil {
			return nil, fmt.Errorf("read diagnostics: %w", err)
		}
		l.observer.CompileFailed(diag)
		return outcome.CompileFailed{Diagnostics: diag, ExitCode: co.ExitCode}, nil
	}
	l.observer.CompileSucceeded()

	start = time.Now()
	out, err := l.deps.Tester.Run(ctx, l.deps.Compiler.BinaryPath())
	l.metrics.ObserveStage("test", time.Since(start))
	if err != nil {
		return nil, err
	}
	if outcome.Passed(out) {
		l.observer.Result("Correct", true)
	} else {
		l.observer.Result(fmt.Sprint(out), false)
	}
	return out, nil
}

// generate asks the model for a solution and rewrites the solution file with
// the code block extracted from the reply. Backend failures are absorbed:
// whatever arrived is cleaned and compiled like any other reply.
func (l *Loop) generate(ctx context.Context, prompt string, logger *zap.Logger) error {
	start := time.Now()
	text, err := l.deps.Generator.Generate(ctx, prompt)
	l.metrics.ObserveStage("generate", time.Since(start))
	l.metrics.RecordGenerated(len(text))
	if err != nil {
		if ctx.Err() != nil || !errors.Is(err, session.ErrBackend) {
			return err
		}
		l.metrics.RecordBackendError(l.deps.Model)
		logger.Warn("generation failed", zap.Error(err), zap.Int("bytes", len(text)))
	}

	raw, err := readOptional(l.deps.SolutionPath)
	if err != nil {
		return fmt.Errorf("read solution: %w", err)
	}
	if n := extract.Count(raw); n < 2 {
		logger.Warn("reply has no complete code block", zap.Int("fences", n))
	}
	if err := os.WriteFile(l.deps.SolutionPath, []byte(extract.Clean(raw)), 0o644); err != nil {
		return fmt.Errorf("write solution: %w", err)
	}
	return nil
}

func (l *Loop) finish(res Result, result string) Result {
	l.metrics.RecordRun(result)
	l.logger.Info("solve finished",
		zap.String("result", result),
		zap.Int("attempts", res.Attempts),
	)
	return res
}

func readOptional(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type nopObserver struct{}

func (nopObserver) Attempt(int)          {}
func (nopObserver) CompileFailed(string) {}
func (nopObserver) CompileSucceeded()    {}
func (nopObserver) Result(string, bool)  {}
