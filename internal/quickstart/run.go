package quickstart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/juju-qa/quickstart-deploy/internal/juju"
)

// Run drives the scenario's steps to completion. Whatever happens, it then
// reports status, collects logs and destroys the environment, in that order
// and exactly once. A step failure is returned as is; cleanup failures are
// logged and only returned when every step succeeded.
func (s *Scenario) Run(ctx context.Context) error {
	return s.drive(ctx, s.IterSteps())
}

func (s *Scenario) drive(ctx context.Context, seq Sequence) (err error) {
	start := time.Now()
	host := juju.NoBootstrapHost

	defer func() {
		// cleanup must run even when the caller cancelled
		finalErr := s.finalize(context.WithoutCancel(ctx), host)
		if err != nil {
			return
		}
		err = finalErr
	}()

	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.logger.Warn("run interrupted between steps", "error", ctxErr)
			return fmt.Errorf("run interrupted: %w", ctxErr)
		}

		// a started step always runs to completion
		progress, nextErr := seq.Next(context.WithoutCancel(ctx))
		if errors.Is(nextErr, ErrStepsExhausted) {
			s.logger.Info("all steps completed", "duration", time.Since(start).Round(time.Millisecond))
			return nil
		}
		if nextErr != nil {
			attrs := []any{"error", nextErr, "timeout", juju.IsTimeoutError(nextErr)}
			if r, ok := seq.(interface{ Remaining() int }); ok {
				attrs = append(attrs, "skipped_steps", r.Remaining())
			}
			s.logger.Error("step failed", attrs...)
			return nextErr
		}

		s.logger.Info("step completed", progress.Key, progress.Value)
		if progress.Key == KeyBootstrapHost {
			host = progress.Value
		}
		if s.OnProgress != nil {
			s.OnProgress(progress)
		}
	}
}

// finalize reports status, collects logs and destroys the environment. Each
// stage runs regardless of the previous one's outcome.
func (s *Scenario) finalize(ctx context.Context, host string) error {
	var errs []error

	if err := s.Client.ReportStatus(ctx); err != nil {
		errs = append(errs, &FinalizationError{Stage: "status", Err: err})
	}
	if err := s.Logs.CollectLogs(ctx, host, s.LogDir); err != nil {
		errs = append(errs, &FinalizationError{Stage: "logs", Err: err})
	}
	if err := s.Client.DestroyEnvironment(ctx, true); err != nil {
		errs = append(errs, &DestroyFailure{Env: s.Client.EnvironmentName(), Err: err})
	}

	for _, err := range errs {
		s.logger.Error("cleanup failed", "error", err)
	}
	return errors.Join(errs...)
}
