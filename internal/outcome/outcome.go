// Package outcome defines the result of a single attempt.
package outcome

import "fmt"

// Outcome is the tagged result of one generate–compile–test iteration.
// Exactly one of the types below implements it.
type Outcome interface {
	// Kind is a stable label used for logs and metrics.
	Kind() string
	isOutcome()
}

// Stage names the step that exceeded its deadline.
type Stage string

const (
	StageCompile Stage = "compile"
	StageRun     Stage = "run"
)

// CompileFailed carries the toolchain diagnostics for a failed build.
type CompileFailed struct {
	Diagnostics string
	ExitCode    int
}

// TestFailed names the first fixture whose output did not match.
type TestFailed struct {
	Case     string
	Actual   string
	Expected string
	// Diff is a unified diff from expected to actual; may be empty.
	Diff string
}

// RunCrashed reports a nonzero exit of the program under test.
type RunCrashed struct {
	Case     string
	ExitCode int
}

// TimedOut reports a step that did not finish within its configured deadline.
type TimedOut struct {
	Stage Stage
	Case  string
}

// AllPassed reports that every fixture matched.
type AllPassed struct {
	Cases int
}

func (CompileFailed) Kind() string { return "compile_failed" }
func (TestFailed) Kind() string    { return "test_failed" }
func (RunCrashed) Kind() string    { return "run_crashed" }
func (TimedOut) Kind() string      { return "timed_out" }
func (AllPassed) Kind() string     { return "all_passed" }

func (CompileFailed) isOutcome() {}
func (TestFailed) isOutcome()    {}
func (RunCrashed) isOutcome()    {}
func (TimedOut) isOutcome()      {}
func (AllPassed) isOutcome()     {}

func (o CompileFailed) String() string {
	return fmt.Sprintf("compilation failed (exit %d)", o.ExitCode)
}

func (o TestFailed) String() string {
	return fmt.Sprintf("wrong answer on %s", o.Case)
}

func (o RunCrashed) String() string {
	return fmt.Sprintf("run failed on %s (exit %d)", o.Case, o.ExitCode)
}

func (o TimedOut) String() string {
	if o.Case != "" {
		return fmt.Sprintf("%s timed out on %s", o.Stage, o.Case)
	}
	return fmt.Sprintf("%s timed out", o.Stage)
}

func (o AllPassed) String() string {
	return fmt.Sprintf("all %d tests passed", o.Cases)
}

// Passed reports whether o terminates the loop successfully.
func Passed(o Outcome) bool {
	_, ok := o.(AllPassed)
	return ok
}
