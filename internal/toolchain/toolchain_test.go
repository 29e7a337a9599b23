package toolchain

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/animus-coder/autosolve/internal/config"
)

func TestTerminalCapturesOutput(t *testing.T) {
	term := &Terminal{}
	res, err := term.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "echo hi; echo warn >&2"}})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)
	require.Equal(t, "hi\n", res.Stdout)
	require.Equal(t, "warn\n", res.Stderr)
}

func TestTerminalReportsExitCodeWithoutError(t *testing.T) {
	term := &Terminal{}
	res, err := term.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exit 3"}})
	require.NoError(t, err)
	require.Equal(t, 3, res.ExitCode)
	require.False(t, res.TimedOut)
}

func TestTerminalRedirectsFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "a.in")
	out := filepath.Join(dir, "actual.out")
	require.NoError(t, os.WriteFile(in, []byte("1 2\n"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte("stale content that must disappear"), 0o644))

	term := &Terminal{}
	res, err := term.Run(context.Background(), Command{Name: "cat", StdinPath: in, StdoutPath: out})
	require.NoError(t, err)
	require.Equal(t, 0, res.ExitCode)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "1 2\n", string(data))
}

func TestTerminalTimeout(t *testing.T) {
	term := &Terminal{Timeout: 100 * time.Millisecond}
	res, err := term.Run(context.Background(), Command{Name: "sh", Args: []string{"-c", "exec sleep 5"}})
	require.NoError(t, err)
	require.True(t, res.TimedOut)
	require.Less(t, res.Duration, 4*time.Second)
}

func TestTerminalParentCancellationIsAnError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&Terminal{}).Run(ctx, Command{Name: "sh", Args: []string{"-c", "true"}})
	require.ErrorIs(t, err, context.Canceled)
}

func TestTerminalMissingCommand(t *testing.T) {
	_, err := (&Terminal{}).Run(context.Background(), Command{Name: "definitely-not-a-real-binary-xyz"})
	require.Error(t, err)

	_, err = (&Terminal{}).Run(context.Background(), Command{})
	require.Error(t, err)
}

func newWorkspace(t *testing.T) config.WorkspaceConfig {
	t.Helper()
	return config.WorkspaceConfig{
		Dir:          t.TempDir(),
		Solution:     "solution.cpp",
		Diagnostics:  "compileErrors.txt",
		Binary:       "solution",
		ActualOutput: "actual.out",
	}
}

func TestBuilderCompileFailureWritesDiagnostics(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(ws.DiagnosticsPath(), []byte("old diagnostics"), 0o644))

	b := NewBuilder(config.ToolchainConfig{
		Compiler:    "sh",
		CompileArgs: []string{"-c", "echo \"{source}:1:1: error: expected ';'\" >&2; exit 1"},
	}, ws, 0, nil)

	out, err := b.Compile(context.Background())
	require.NoError(t, err)
	require.False(t, out.Success)
	require.Equal(t, 1, out.ExitCode)

	data, err := os.ReadFile(out.DiagnosticsPath)
	require.NoError(t, err)
	require.Equal(t, ws.SolutionPath()+":1:1: error: expected ';'\n", string(data))
}

func TestBuilderCompileSuccessProducesBinary(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(ws.SolutionPath(), []byte("#!/bin/sh\necho hello\n"), 0o644))

	b := NewBuilder(config.ToolchainConfig{
		Compiler:    "sh",
		CompileArgs: []string{"-c", "cp {source} {binary} && chmod +x {binary}"},
	}, ws, 0, nil)

	out, err := b.Compile(context.Background())
	require.NoError(t, err)
	require.True(t, out.Success)
	require.FileExists(t, b.BinaryPath())
}

func TestBuilderCompileTimeout(t *testing.T) {
	ws := newWorkspace(t)
	b := NewBuilder(config.ToolchainConfig{
		Compiler:    "sh",
		CompileArgs: []string{"-c", "exec sleep 5"},
	}, ws, 100*time.Millisecond, nil)

	out, err := b.Compile(context.Background())
	require.NoError(t, err)
	require.False(t, out.Success)
	require.True(t, out.TimedOut)
}

func TestExpandArgs(t *testing.T) {
	require.Equal(t, []string{"s.cpp", "-O2", "-o", "bin"}, ExpandArgs([]string{"{source}", "-O2", "-o", "{binary}"}, "s.cpp", "bin"))
	require.Equal(t, []string{"s.cpp", "-o", "bin"}, ExpandArgs(nil, "s.cpp", "bin"))
}

func TestExecutable(t *testing.T) {
	p, err := Executable("solution")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(p))
}
