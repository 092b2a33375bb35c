package quickstart

import (
	"context"
	"errors"
)

// Progress keys, one per step, in execution order.
const (
	KeyQuickstart    = "juju-quickstart"
	KeyBootstrapHost = "bootstrap_host"
	KeyDeployStarted = "deploy_started"
	KeyAgentsStarted = "agents_started"
)

// Fixed status values reported by the steps that do not discover anything.
const (
	StatusQuickstartReturned = "Returned from quickstart"
	StatusDeployStarted      = "Deploy stated"
	StatusAgentsStarted      = "All Agents started"
)

// bootstrapMachine is the machine whose address is needed for log collection.
const bootstrapMachine = "0"

// ErrStepsExhausted is returned by Steps.Next once no step remains.
var ErrStepsExhausted = errors.New("quickstart steps exhausted")

// Progress is the record produced by one completed step.
type Progress struct {
	Key   string
	Value string
}

// Map renders the record as a single-entry mapping.
func (p Progress) Map() map[string]string {
	return map[string]string{p.Key: p.Value}
}

// Sequence yields progress records one at a time.
type Sequence interface {
	Next(ctx context.Context) (Progress, error)
}

type step struct {
	key string
	run func(ctx context.Context, s *Scenario) (string, error)
}

var steps = []step{
	{KeyQuickstart, func(ctx context.Context, s *Scenario) (string, error) {
		if err := s.Client.Quickstart(ctx, s.BundlePath); err != nil {
			return "", err
		}
		return StatusQuickstartReturned, nil
	}},
	{KeyBootstrapHost, func(ctx context.Context, s *Scenario) (string, error) {
		return s.Client.MachineDNSName(ctx, bootstrapMachine)
	}},
	{KeyDeployStarted, func(ctx context.Context, s *Scenario) (string, error) {
		if err := s.Client.WaitForDeployStarted(ctx, s.ServiceCount); err != nil {
			return "", err
		}
		return StatusDeployStarted, nil
	}},
	{KeyAgentsStarted, func(ctx context.Context, s *Scenario) (string, error) {
		if err := s.Client.WaitForStarted(ctx); err != nil {
			return "", err
		}
		return StatusAgentsStarted, nil
	}},
}

// Steps is the cursor over the scenario's steps. Each Next call performs the
// side effects of exactly one step. It is not restartable: after the last
// step, or after a failure, Next returns ErrStepsExhausted.
type Steps struct {
	scenario *Scenario
	cursor   int
	closed   bool
}

// IterSteps returns a fresh step cursor for the scenario.
func (s *Scenario) IterSteps() *Steps {
	return &Steps{scenario: s}
}

// Next runs the next step and returns its record. A failing step produces no
// record; its error is returned as a *StepFailure and the cursor is closed.
func (st *Steps) Next(ctx context.Context) (Progress, error) {
	if st.closed || st.cursor >= len(steps) {
		return Progress{}, ErrStepsExhausted
	}

	current := steps[st.cursor]
	st.cursor++

	value, err := current.run(ctx, st.scenario)
	if err != nil {
		st.closed = true
		return Progress{}, &StepFailure{Step: current.key, Err: err}
	}
	return Progress{Key: current.key, Value: value}, nil
}

// Remaining returns how many steps have not run yet. After a failure these
// steps are skipped for good.
func (st *Steps) Remaining() int {
	return len(steps) - st.cursor
}
