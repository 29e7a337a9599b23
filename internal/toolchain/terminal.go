// Package toolchain runs the compiler and the compiled program as child processes.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"
)

// Command describes one child process. Empty redirect paths leave the stream
// captured in memory (Stdout/Stderr) or, for stdin, empty.
type Command struct {
	Name       string
	Args       []string
	StdinPath  string
	StdoutPath string
	StderrPath string
}

// ExecResult carries output and status code.
type ExecResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Terminal executes commands in WorkingDir with an optional deadline.
type Terminal struct {
	WorkingDir string
	Timeout    time.Duration
}

// Run executes cmd and waits for it. A nonzero exit is reported through
// ExitCode, not as an error; errors mean the process could not be started,
// its redirect files could not be opened, or ctx was cancelled.
func (t *Terminal) Run(ctx context.Context, cmd Command) (ExecResult, error) {
	if cmd.Name == "" {
		return ExecResult{}, fmt.Errorf("command is required")
	}

	runCtx := ctx
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(runCtx, cmd.Name, cmd.Args...)
	// Grandchildren may keep inherited pipes open after a kill.
	c.WaitDelay = 2 * time.Second
	if t.WorkingDir != "" {
		c.Dir = t.WorkingDir
	}

	var closers []io.Closer
	defer func() {
		for _, cl := range closers {
			_ = cl.Close()
		}
	}()

	if cmd.StdinPath != "" {
		f, err := os.Open(cmd.StdinPath)
		if err != nil {
			return ExecResult{}, fmt.Errorf("open stdin: %w", err)
		}
		closers = append(closers, f)
		c.Stdin = f
	}

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.StdoutPath != "" {
		f, err := os.Create(cmd.StdoutPath)
		if err != nil {
			return ExecResult{}, fmt.Errorf("open stdout: %w", err)
		}
		closers = append(closers, f)
		c.Stdout = f
	}
	if cmd.StderrPath != "" {
		f, err := os.Create(cmd.StderrPath)
		if err != nil {
			return ExecResult{}, fmt.Errorf("open stderr: %w", err)
		}
		closers = append(closers, f)
		c.Stderr = f
	}

	start := time.Now()
	err := c.Run()
	res := ExecResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return res, ctxErr
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		res.ExitCode = -1
		return res, nil
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		res.ExitCode = 0
	case errors.As(err, &exitErr):
		res.ExitCode = exitErr.ExitCode()
	default:
		return res, fmt.Errorf("run %s: %w", cmd.Name, err)
	}
	return res, nil
}
