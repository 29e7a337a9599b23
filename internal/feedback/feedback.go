// Package feedback turns attempt outcomes into the next prompt for the model.
package feedback

import (
	"fmt"
	"strings"

	"github.com/animus-coder/autosolve/internal/config"
	"github.com/animus-coder/autosolve/internal/outcome"
)

const (
	wrongAnswer   = "wrong answer.\n"
	runFailed     = "Run failed"
	timeLimit     = "Time limit exceeded."
	truncatedNote = "\n... (diff truncated)\n"
)

// Composer builds prompts. It performs no I/O, so equal outcomes always
// yield byte-identical prompts.
type Composer struct {
	instruction  string
	includeDiff  bool
	maxDiffBytes int
}

// NewComposer returns a composer that asks for code in language.
func NewComposer(language string, cfg config.FeedbackConfig) Composer {
	if strings.TrimSpace(language) == "" {
		language = "c++"
	}
	return Composer{
		instruction:  Instruction(language),
		includeDiff:  cfg.IncludeDiff,
		maxDiffBytes: cfg.MaxDiffBytes,
	}
}

// Instruction is the sentence appended to every corrective prompt.
func Instruction(language string) string {
	return fmt.Sprintf(" Write only the %s code that will compile.", language)
}

// Initial is the first prompt of a run.
func (c Composer) Initial(problem string) string {
	return problem + c.instruction
}

// Compose returns the prompt for the next attempt. done is true only for
// AllPassed, in which case the prompt is empty.
func (c Composer) Compose(o outcome.Outcome) (prompt string, done bool) {
	switch o := o.(type) {
	case outcome.AllPassed:
		return "", true
	case outcome.CompileFailed:
		return o.Diagnostics + c.instruction, false
	case outcome.TestFailed:
		return c.wrongAnswer(o), false
	case outcome.RunCrashed:
		return runFailed, false
	case outcome.TimedOut:
		return timeLimit + c.instruction, false
	default:
		return c.instruction, false
	}
}

func (c Composer) wrongAnswer(o outcome.TestFailed) string {
	var b strings.Builder
	b.WriteString(wrongAnswer)
	b.WriteString("your answer:\n")
	writeBlock(&b, o.Actual)
	b.WriteString("expected answer:\n")
	writeBlock(&b, o.Expected)
	if c.includeDiff && strings.TrimSpace(o.Diff) != "" {
		b.WriteString("diff:\n")
		writeBlock(&b, c.truncate(o.Diff))
	}
	b.WriteString(c.instruction)
	return b.String()
}

func (c Composer) truncate(s string) string {
	if c.maxDiffBytes <= 0 || len(s) <= c.maxDiffBytes {
		return s
	}
	cut := s[:c.maxDiffBytes]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i+1]
	}
	return strings.TrimRight(cut, "\n") + truncatedNote
}

func writeBlock(b *strings.Builder, s string) {
	b.WriteString(s)
	if !strings.HasSuffix(s, "\n") {
		b.WriteString("\n")
	}
}
