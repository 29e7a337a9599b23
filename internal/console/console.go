// Package console prints operator-facing progress and reads prompt overrides.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/animus-coder/autosolve/internal/judge"
)

// Color modes accepted by New.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

var (
	colorPass = lipgloss.Color("#2CD7C7")
	colorFail = lipgloss.Color("#E74C3C")
	colorWarn = lipgloss.Color("#F4D03F")
	colorDim  = lipgloss.Color("#6C7A89")
)

// Console writes run progress to the operator.
type Console struct {
	out io.Writer

	pass lipgloss.Style
	fail lipgloss.Style
	warn lipgloss.Style
	dim  lipgloss.Style
}

// New returns a console writing to out. Colors are emitted in "always" mode,
// or in "auto" mode when out is a terminal.
func New(out io.Writer, mode string) *Console {
	r := lipgloss.NewRenderer(out)
	switch strings.ToLower(mode) {
	case ColorAlways:
		r.SetColorProfile(termenv.ANSI256)
	case ColorNever:
		r.SetColorProfile(termenv.Ascii)
	default:
		if !IsTerminal(out) {
			r.SetColorProfile(termenv.Ascii)
		}
	}
	return &Console{
		out:  out,
		pass: r.NewStyle().Foreground(colorPass).Bold(true),
		fail: r.NewStyle().Foreground(colorFail).Bold(true),
		warn: r.NewStyle().Foreground(colorWarn),
		dim:  r.NewStyle().Foreground(colorDim),
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Report prints one "Test <file> <VERDICT>" line. It satisfies judge.Reporter.
func (c *Console) Report(tc judge.Case, v judge.Verdict) {
	style := c.fail
	if v == judge.VerdictPassed {
		style = c.pass
	}
	fmt.Fprintf(c.out, "Test %s %s\n", tc.File, style.Render(string(v)))
}

// Attempt announces the start of an attempt.
func (c *Console) Attempt(n int) {
	fmt.Fprintln(c.out, c.dim.Render(fmt.Sprintf("--- attempt %d ---", n)))
}

// CompileFailed prints the compiler diagnostics that will be sent back.
func (c *Console) CompileFailed(diagnostics string) {
	fmt.Fprintln(c.out, c.warn.Render("Compilation failed. Prompting compile errors."))
	if diagnostics != "" {
		fmt.Fprintln(c.out, strings.TrimRight(diagnostics, "\n"))
	}
}

// CompileSucceeded prints the success status line.
func (c *Console) CompileSucceeded() {
	fmt.Fprintln(c.out, "Compilation successful.")
}

// Result prints the final line of a testing phase.
func (c *Console) Result(summary string, passed bool) {
	style := c.fail
	if passed {
		style = c.pass
	}
	fmt.Fprintf(c.out, "Test result: %s\n", style.Render(summary))
}
