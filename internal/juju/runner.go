package juju

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
)

// Command describes one invocation of an external binary.
type Command struct {
	// Path is the binary to execute.
	Path string
	// Args are the arguments passed after the binary.
	Args []string
	// Env is the full environment of the child process; nil inherits ours.
	Env []string
	// Stdout receives standard output; nil discards it.
	Stdout io.Writer
	// Stderr receives standard error; nil discards it.
	Stderr io.Writer
}

// Runner executes commands. The default implementation shells out with os/exec.
type Runner interface {
	Run(ctx context.Context, cmd Command) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run executes cmd and waits for it to exit.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Env = c.Env
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v failed: %w", filepath.Base(c.Path), c.Args, err)
	}
	return nil
}
