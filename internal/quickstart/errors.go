package quickstart

import (
	"errors"
	"fmt"
)

// StepFailure wraps the error of a step that did not complete.
type StepFailure struct {
	// Step is the progress key of the failed step.
	Step string
	// Err is the underlying failure.
	Err error
}

func (e *StepFailure) Error() string {
	return fmt.Sprintf("step %s failed: %v", e.Step, e.Err)
}

func (e *StepFailure) Unwrap() error { return e.Err }

// IsStepFailure reports whether err came from a failed step.
func IsStepFailure(err error) bool {
	var target *StepFailure
	return errors.As(err, &target)
}

// FinalizationError reports a failed status report or log collection during
// cleanup.
type FinalizationError struct {
	// Stage is "status" or "logs".
	Stage string
	// Err is the underlying failure.
	Err error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalization %s failed: %v", e.Stage, e.Err)
}

func (e *FinalizationError) Unwrap() error { return e.Err }

// DestroyFailure reports that the environment could not be destroyed.
type DestroyFailure struct {
	// Env is the environment name.
	Env string
	// Err is the underlying failure.
	Err error
}

func (e *DestroyFailure) Error() string {
	return fmt.Sprintf("destroy environment %q failed: %v", e.Env, e.Err)
}

func (e *DestroyFailure) Unwrap() error { return e.Err }

// IsDestroyFailure reports whether err includes a failed environment destruction.
func IsDestroyFailure(err error) bool {
	var target *DestroyFailure
	return errors.As(err, &target)
}
