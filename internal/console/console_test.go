package console

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animus-coder/autosolve/internal/judge"
)

func TestReportPlain(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, ColorNever)

	c.Report(judge.Case{Name: "a", File: "a.in"}, judge.VerdictPassed)
	c.Report(judge.Case{Name: "b", File: "b.in"}, judge.VerdictFailed)

	require.Equal(t, "Test a.in PASSED\nTest b.in FAILED\n", buf.String())
}

func TestAutoModeWithoutTerminalIsPlain(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ColorAuto).Result("Correct", true)
	require.Equal(t, "Test result: Correct\n", buf.String())
	require.False(t, IsTerminal(&buf))
}

func TestReportAlwaysColored(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ColorAlways).Report(judge.Case{File: "a.in"}, judge.VerdictPassed)
	require.Contains(t, buf.String(), "\x1b[")
	require.Contains(t, buf.String(), "PASSED")
}

func TestCompileFailedEchoesDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, ColorNever).CompileFailed("solution.cpp:1:1: error: x\n\n")
	require.Equal(t, "Compilation failed. Prompting compile errors.\nsolution.cpp:1:1: error: x\n", buf.String())
}

func TestLineOverride(t *testing.T) {
	var out bytes.Buffer
	override := LineOverride(strings.NewReader("\nuse dynamic programming\r\n"), &out)

	got, err := override(context.Background(), 5, "wrong answer.")
	require.NoError(t, err)
	require.Equal(t, "wrong answer.", got)
	require.Contains(t, out.String(), "Attempt 5. Next prompt:\nwrong answer.\n")

	got, err = override(context.Background(), 10, "Run failed")
	require.NoError(t, err)
	require.Equal(t, "use dynamic programming", got)

	got, err = override(context.Background(), 15, "keep me")
	require.NoError(t, err)
	require.Equal(t, "keep me", got)
}

func TestLineOverrideLastLineWithoutNewline(t *testing.T) {
	override := LineOverride(strings.NewReader("final"), io.Discard)
	got, err := override(context.Background(), 5, "p")
	require.NoError(t, err)
	require.Equal(t, "final", got)
}

func TestLineOverrideCanceled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := LineOverride(pr, io.Discard)(ctx, 5, "p")
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, "p", got)
}
