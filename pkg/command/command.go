// Package command runs external build and test tools and captures their
// outcome for evidence.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// Invocation describes one external command: argv, working directory, and
// any environment entries appended on top of the inherited environment.
type Invocation struct {
	Command []string
	Dir     string
	Env     []string
}

// Result captures execution details for an invocation.
type Result struct {
	Command  []string      `json:"command"`
	Dir      string        `json:"dir,omitempty"`
	Stdout   string        `json:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// Executor runs invocations. The pipeline runner depends on this interface
// so tests can substitute a fake and never spawn real tools.
type Executor interface {
	Run(ctx context.Context, inv Invocation) (*Result, error)
}

// ExecExecutor runs invocations as real child processes.
type ExecExecutor struct{}

// NewExecExecutor creates an executor backed by os/exec.
func NewExecExecutor() *ExecExecutor {
	return &ExecExecutor{}
}

// Run executes the invocation, blocking until the child exits. A non-zero
// exit is not an error here; it is reported through Result.ExitCode so the
// caller decides what is fatal. Only failure to start the process errors.
func (e *ExecExecutor) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if len(inv.Command) == 0 {
		return nil, fmt.Errorf("invocation requires a command")
	}

	cmd := exec.CommandContext(ctx, inv.Command[0], inv.Command[1:]...)
	if inv.Dir != "" {
		cmd.Dir = inv.Dir
	}
	if len(inv.Env) > 0 {
		cmd.Env = append(os.Environ(), inv.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("run %s: %w", inv.Command[0], err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &Result{
		Command:  append([]string{}, inv.Command...),
		Dir:      inv.Dir,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
		Duration: duration,
	}, nil
}
