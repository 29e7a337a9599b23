package toolchain

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/logging"
)

// CompileOutcome is the result of one compiler invocation.
type CompileOutcome struct {
	Success         bool
	ExitCode        int
	TimedOut        bool
	DiagnosticsPath string
	Duration        time.Duration
}

// Builder turns the solution file into an executable.
type Builder struct {
	compiler        string
	args            []string
	sourcePath      string
	binaryPath      string
	diagnosticsPath string
	term            *Terminal
	logger          *zap.Logger
}

// NewBuilder prepares a builder from toolchain and workspace settings.
func NewBuilder(tc config.ToolchainConfig, ws config.WorkspaceConfig, timeout time.Duration, logger *zap.Logger) *Builder {
	return &Builder{
		compiler:        tc.Compiler,
		args:            tc.CompileArgs,
		sourcePath:      ws.SolutionPath(),
		binaryPath:      ws.BinaryPath(),
		diagnosticsPath: ws.DiagnosticsPath(),
		term:            &Terminal{Timeout: timeout},
		logger:          logging.OrNop(logger),
	}
}

// BinaryPath is where a successful build leaves the executable.
func (b *Builder) BinaryPath() string {
	return b.binaryPath
}

// Compile runs the compiler once with stderr redirected to the diagnostics
// file, overwriting earlier diagnostics. Exit status zero means success.
func (b *Builder) Compile(ctx context.Context) (CompileOutcome, error) {
	args := ExpandArgs(b.args, b.sourcePath, b.binaryPath)
	res, err := b.term.Run(ctx, Command{
		Name:       b.compiler,
		Args:       args,
		StderrPath: b.diagnosticsPath,
	})
	if err != nil {
		return CompileOutcome{}, fmt.Errorf("compile: %w", err)
	}

	out := CompileOutcome{
		Success:         res.ExitCode == 0 && !res.TimedOut,
		ExitCode:        res.ExitCode,
		TimedOut:        res.TimedOut,
		DiagnosticsPath: b.diagnosticsPath,
		Duration:        res.Duration,
	}
	b.logger.Debug("compiler finished",
		zap.String("compiler", b.compiler),
		zap.Strings("args", args),
		zap.Int("exit_code", res.ExitCode),
		zap.Bool("timed_out", res.TimedOut),
		zap.Duration("elapsed", res.Duration),
	)
	return out, nil
}

// Version reports the compiler's --version banner, first line only.
func (b *Builder) Version(ctx context.Context) (string, error) {
	res, err := b.term.Run(ctx, Command{Name: b.compiler, Args: []string{"--version"}})
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("%s --version exited with %d", b.compiler, res.ExitCode)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(res.Stdout), "\n")
	return line, nil
}

// ExpandArgs substitutes {source} and {binary}. Empty args default to
// "{source} -o {binary}".
func ExpandArgs(args []string, source, binary string) []string {
	if len(args) == 0 {
		return []string{source, "-o", binary}
	}
	out := make([]string, 0, len(args))
	for _, a := range args {
		a = strings.ReplaceAll(a, "{source}", source)
		a = strings.ReplaceAll(a, "{binary}", binary)
		out = append(out, a)
	}
	return out
}

// Executable turns a bare file name into a path the OS will not look up in
// $PATH.
func Executable(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(path)
}
