package cli

import (
	"context"
	"log/slog"

	"github.com/juju-qa/quickstart-deploy/internal/config"
	"github.com/juju-qa/quickstart-deploy/internal/ghoutput"
	"github.com/juju-qa/quickstart-deploy/internal/juju"
	"github.com/juju-qa/quickstart-deploy/internal/quickstart"
)

// launch builds the scenario against the real juju binary and runs it.
// Interrupts stop the run between steps; cleanup still happens.
func launch(ctx context.Context, req runRequest, logger *slog.Logger) error {
	scenario, err := quickstart.FromArgs(ctx, req.Args,
		quickstart.WithSettings(req.Settings),
		quickstart.WithLogger(logger),
		quickstart.WithJujuOptions(juju.WithExtraEnv(req.ExtraEnv)),
		quickstart.WithProgressHandler(publishProgress(ghoutput.FromEnv(), logger)),
	)
	if err != nil {
		if config.IsEnvironmentNotFound(err) {
			logger.Error("base environment missing from environments.yaml", "juju_home", req.Settings.JujuHome)
		}
		return err
	}

	if err := scenario.Run(ctx); err != nil {
		return err
	}
	logger.Info("quickstart run succeeded", "env", scenario.Client.EnvironmentName())
	return nil
}

// publishProgress mirrors each record into the job outputs when running under
// GitHub Actions. Write failures are logged and do not stop the run.
func publishProgress(out *ghoutput.Writer, logger *slog.Logger) func(quickstart.Progress) {
	return func(p quickstart.Progress) {
		if err := out.Write(p.Map()); err != nil {
			logger.Warn("failed to publish step output", "step", p.Key, "error", err)
		}
	}
}
