package juju

import (
	"errors"
	"fmt"
	"time"
)

// ToolResolutionError indicates the juju binary cannot be used: it is missing,
// cannot be executed, or does not report a version.
type ToolResolutionError struct {
	// Path is the tool path that was requested.
	Path string
	// Err is the underlying cause.
	Err error
}

func (e *ToolResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve juju tool %q: %v", e.Path, e.Err)
}

func (e *ToolResolutionError) Unwrap() error { return e.Err }

// IsToolResolutionError reports whether err indicates an unusable juju tool.
func IsToolResolutionError(err error) bool {
	var target *ToolResolutionError
	return errors.As(err, &target)
}

// TimeoutError reports a status poll that did not converge in time.
type TimeoutError struct {
	// Operation describes what was being waited for.
	Operation string
	// Timeout is the budget that was exhausted.
	Timeout time.Duration
	// LastErr is the most recent error seen while polling, if any.
	LastErr error
}

func (e *TimeoutError) Error() string {
	if e.LastErr != nil {
		return fmt.Sprintf("timed out after %s waiting for %s (last error: %v)", e.Timeout, e.Operation, e.LastErr)
	}
	return fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Operation)
}

func (e *TimeoutError) Unwrap() error { return e.LastErr }

// IsTimeoutError reports whether err is a TimeoutError.
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}

// AgentErrorState indicates an agent reached an error state while waiting for
// agents to start.
type AgentErrorState struct {
	// State is the reported agent state (e.g. "error").
	State string
	// Agents lists the machines and units in that state.
	Agents []string
}

func (e *AgentErrorState) Error() string {
	return fmt.Sprintf("agents in state %q: %v", e.State, e.Agents)
}
