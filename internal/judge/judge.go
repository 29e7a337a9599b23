// Package judge runs the compiled program against the fixtures.
package judge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/logging"
	"github.com/animus-coder/autosolve/internal/outcome"
	"github.com/animus-coder/autosolve/internal/toolchain"
)

// Verdict is the per-case result shown to the operator.
type Verdict string

const (
	VerdictPassed   Verdict = "PASSED"
	VerdictFailed   Verdict = "FAILED"
	VerdictCrashed  Verdict = "CRASHED"
	VerdictTimedOut Verdict = "TIMED OUT"
)

// Reporter receives a verdict for every case that was executed.
type Reporter interface {
	Report(c Case, v Verdict)
}

// Runner executes fixtures one at a time and stops at the first failure.
type Runner struct {
	fixtures   config.FixturesConfig
	actualPath string
	term       *toolchain.Terminal
	reporter   Reporter
	logger     *zap.Logger
}

// NewRunner builds a runner; runTimeout bounds each case (zero = none).
func NewRunner(fixtures config.FixturesConfig, ws config.WorkspaceConfig, runTimeout time.Duration, reporter Reporter, logger *zap.Logger) *Runner {
	return &Runner{
		fixtures:   fixtures,
		actualPath: ws.ActualOutputPath(),
		term:       &toolchain.Terminal{Timeout: runTimeout},
		reporter:   reporter,
		logger:     logging.OrNop(logger),
	}
}

// Run executes binary against every case in order and returns TestFailed,
// RunCrashed, TimedOut or AllPassed. Cases after the first failure are not run.
// Errors are reserved for unreadable fixtures or a binary that cannot start.
func (r *Runner) Run(ctx context.Context, binary string) (outcome.Outcome, error) {
	cases, err := Discover(r.fixtures.Dir, r.fixtures.InputExt, r.fixtures.OutputExt)
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		r.logger.Warn("no fixtures found; nothing to check", zap.String("dir", r.fixtures.Dir))
	}

	exe, err := toolchain.Executable(binary)
	if err != nil {
		return nil, fmt.Errorf("resolve binary: %w", err)
	}

	for _, c := range cases {
		res, err := r.term.Run(ctx, toolchain.Command{
			Name:       exe,
			StdinPath:  c.InputPath,
			StdoutPath: r.actualPath,
		})
		if err != nil {
			return nil, fmt.Errorf("run %s: %w", c.File, err)
		}

		if res.TimedOut {
			r.report(c, VerdictTimedOut)
			return outcome.TimedOut{Stage: outcome.StageRun, Case: c.Name}, nil
		}
		if res.ExitCode != 0 {
			r.report(c, VerdictCrashed)
			r.logger.Info("program exited with nonzero status",
				zap.String("case", c.File), zap.Int("exit_code", res.ExitCode))
			return outcome.RunCrashed{Case: c.Name, ExitCode: res.ExitCode}, nil
		}

		actual, err := os.ReadFile(r.actualPath)
		if err != nil {
			return nil, fmt.Errorf("read actual output: %w", err)
		}
		expected, err := readExpected(c.ExpectedPath)
		if err != nil {
			return nil, err
		}

		if !Equal(string(actual), expected) {
			r.report(c, VerdictFailed)
			d := UnifiedDiff(c.Name, string(actual), expected)
			r.logDiff(c, d)
			return outcome.TestFailed{
				Case:     c.Name,
				Actual:   string(actual),
				Expected: expected,
				Diff:     d,
			}, nil
		}
		r.report(c, VerdictPassed)
	}

	return outcome.AllPassed{Cases: len(cases)}, nil
}

func (r *Runner) report(c Case, v Verdict) {
	if r.reporter != nil {
		r.reporter.Report(c, v)
	}
}

func (r *Runner) logDiff(c Case, unified string) {
	added, changed, deleted, err := DiffStat(unified)
	if err != nil {
		r.logger.Debug("could not parse output diff", zap.String("case", c.File), zap.Error(err))
		return
	}
	r.logger.Info("output mismatch",
		zap.String("case", c.File),
		zap.Int("lines_added", added),
		zap.Int("lines_changed", changed),
		zap.Int("lines_deleted", deleted),
	)
}

// readExpected treats a missing expected file as empty output.
func readExpected(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read expected output: %w", err)
	}
	return string(data), nil
}
