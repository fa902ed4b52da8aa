// Package toolchain drives the external developer tools behind devctl.
package toolchain

import (
	"context"
	"errors"
	"io"
	"os/exec"
)

// CommandRunner abstracts external command execution so task sequencing can
// be tested without invoking real tools.
type CommandRunner interface {
	// Run executes a command with output streamed to the given writers.
	// A nonzero exit comes back as *exec.ExitError.
	Run(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) error

	// Output executes a command and returns its combined stdout/stderr.
	Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func NewRunner() *ExecRunner {
	return &ExecRunner{}
}

func (r *ExecRunner) Run(ctx context.Context, dir string, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

func (r *ExecRunner) Output(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

var _ CommandRunner = (*ExecRunner)(nil)

// ExitCode maps a Run error onto the exit status devctl should propagate.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}
