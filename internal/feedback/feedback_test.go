package feedback

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/outcome"
)

const instr = " Write only the c++ code that will compile."

func TestInitial(t *testing.T) {
	c := NewComposer("c++", config.FeedbackConfig{})
	require.Equal(t, "Sum two ints."+instr, c.Initial("Sum two ints."))
}

func TestDefaultLanguage(t *testing.T) {
	c := NewComposer("  ", config.FeedbackConfig{})
	require.Equal(t, "p"+instr, c.Initial("p"))
	require.Equal(t, "p Write only the go code that will compile.",
		NewComposer("go", config.FeedbackConfig{}).Initial("p"))
}

func TestCompose(t *testing.T) {
	c := NewComposer("c++", config.FeedbackConfig{})

	tests := []struct {
		name string
		in   outcome.Outcome
		want string
		done bool
	}{
		{"all passed", outcome.AllPassed{Cases: 3}, "", true},
		{"compile failed", outcome.CompileFailed{Diagnostics: "error: expected ';'\n", ExitCode: 1}, "error: expected ';'\n" + instr, false},
		{"empty diagnostics", outcome.CompileFailed{}, instr, false},
		{"crashed", outcome.RunCrashed{Case: "a", ExitCode: 139}, "Run failed", false},
		{"timed out", outcome.TimedOut{Stage: outcome.StageRun, Case: "a"}, "Time limit exceeded." + instr, false},
		{
			"wrong answer",
			outcome.TestFailed{Case: "b", Actual: "4\n", Expected: "3\n"},
			"wrong answer.\nyour answer:\n4\nexpected answer:\n3\n" + instr,
			false,
		},
		{
			"wrong answer without trailing newline",
			outcome.TestFailed{Case: "b", Actual: "4", Expected: ""},
			"wrong answer.\nyour answer:\n4\nexpected answer:\n\n" + instr,
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, done := c.Compose(tt.in)
			require.Equal(t, tt.done, done)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComposeIncludesDiff(t *testing.T) {
	c := NewComposer("c++", config.FeedbackConfig{IncludeDiff: true})
	got, done := c.Compose(outcome.TestFailed{
		Case:     "b",
		Actual:   "4\n",
		Expected: "3\n",
		Diff:     "--- expected/b\n+++ actual/b\n@@ -1 +1 @@\n-3\n+4\n",
	})
	require.False(t, done)
	require.True(t, strings.HasPrefix(got, "wrong answer.\nyour answer:\n4\nexpected answer:\n3\ndiff:\n--- expected/b\n"))
	require.True(t, strings.HasSuffix(got, "+4\n"+instr))
}

func TestComposeTruncatesDiff(t *testing.T) {
	c := NewComposer("c++", config.FeedbackConfig{IncludeDiff: true, MaxDiffBytes: 12})
	got, _ := c.Compose(outcome.TestFailed{
		Case: "b", Actual: "x\n", Expected: "y\n",
		Diff: "line one\nline two\nline three\n",
	})
	require.Contains(t, got, "diff:\nline one\n... (diff truncated)\n"+instr)
	require.NotContains(t, got, "line two")
}

func TestComposeIsPure(t *testing.T) {
	c := NewComposer("c++", config.FeedbackConfig{IncludeDiff: true})
	o := outcome.TestFailed{Case: "b", Actual: "1 2\n", Expected: "2 1\n", Diff: "-2 1\n+1 2\n"}

	first, _ := c.Compose(o)
	second, _ := c.Compose(o)
	require.Equal(t, []byte(first), []byte(second))
}
