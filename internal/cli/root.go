// Package cli defines the command-line interface for quickstart-deploy.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/juju-qa/quickstart-deploy/internal/config"
	"github.com/juju-qa/quickstart-deploy/internal/env"
	"github.com/juju-qa/quickstart-deploy/internal/logging"
	"github.com/juju-qa/quickstart-deploy/internal/quickstart"
)

const defaultServiceCount = 2

// Options stores the flags of a quickstart run.
type Options struct {
	JujuPath      string
	ServiceCount  int
	AgentURL      string
	Series        string
	Debug         bool
	Region        string
	AgentStream   string
	BootstrapHost string
	EnvFiles      []string
	Vars          string
	LogLevel      string
}

// runRequest is everything a launch needs to build and run a scenario.
type runRequest struct {
	Args     quickstart.Args
	Settings config.Settings
	ExtraEnv env.Vars
}

// launchFunc builds and runs the scenario described by req.
type launchFunc func(ctx context.Context, req runRequest, logger *slog.Logger) error

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand(&Options{}, logger, launch)
	rootCmd.SetArgs(args)

	return rootCmd.ExecuteContext(ctx)
}

// newRootCommand constructs the root cobra.Command. It parses the run
// arguments and hands a runRequest to launch.
func newRootCommand(opts *Options, logger *slog.Logger, launch launchFunc) *cobra.Command {
	var settings config.Settings

	cmd := &cobra.Command{
		Use:   "quickstart-deploy ENV BUNDLE_PATH LOGS [TEMP_ENV_NAME]",
		Short: "Bootstrap and deploy a bundle with juju quickstart, then tear it down",
		Long: "quickstart-deploy clones ENV under a temporary name, runs juju quickstart with BUNDLE_PATH, " +
			"waits for every agent to start and always reports status, collects logs into LOGS " +
			"and destroys the temporary environment.",
		Args:          cobra.RangeArgs(3, 4),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			settings, err = config.LoadSettings()
			if err != nil {
				return err
			}
			levelValue := opts.LogLevel
			if !cmd.Flags().Changed("log-level") {
				levelValue = settings.LogLevel
			}
			level := logging.ParseLevel(levelValue)
			logger = logging.NewLogger(os.Stderr, level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			req, err := opts.request(args, settings)
			if err != nil {
				return err
			}
			logger.Info("starting quickstart run",
				"base_env", req.Args.BaseEnv,
				"temp_env", req.Args.TempEnvName,
				"bundle", req.Args.BundlePath,
				"logs", req.Args.LogDir,
			)
			return launch(cmd.Context(), req, logger)
		},
	}

	cmd.Flags().StringVar(&opts.JujuPath, "juju-path", "", "Path to the juju binary (default: juju from PATH)")
	cmd.Flags().IntVar(&opts.ServiceCount, "service-count", defaultServiceCount, "Minimum number of services in the bundle")
	cmd.Flags().StringVar(&opts.AgentURL, "agent-url", "", "URL of the agent binaries (tools-metadata-url)")
	cmd.Flags().StringVar(&opts.Series, "series", "", "Default series for new machines")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "Pass --debug to every juju command")
	cmd.Flags().StringVar(&opts.Region, "region", "", "Override the environment region")
	cmd.Flags().StringVar(&opts.AgentStream, "agent-stream", "", "Agent stream to bootstrap with")
	cmd.Flags().StringVar(&opts.BootstrapHost, "bootstrap-host", "", "Host to bootstrap a manual environment on")
	cmd.Flags().StringArrayVar(&opts.EnvFiles, "env-file", nil, "Env file exported to juju commands (repeatable)")
	cmd.Flags().StringVar(&opts.Vars, "vars", "", "Additional juju environment variables in k=v,k2=v2 format")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	return cmd
}

// request validates the positional arguments and flags into a runRequest.
func (o *Options) request(args []string, settings config.Settings) (runRequest, error) {
	if o.ServiceCount < 1 {
		return runRequest{}, fmt.Errorf("--service-count must be at least 1, got %d", o.ServiceCount)
	}

	fileVars, err := env.LoadEnvFiles(o.EnvFiles)
	if err != nil {
		return runRequest{}, err
	}
	inlineVars, err := env.ParseInlineVars(o.Vars)
	if err != nil {
		return runRequest{}, err
	}

	baseEnv := args[0]
	tempName := ""
	if len(args) > 3 {
		tempName = strings.TrimSpace(args[3])
	}
	if tempName == "" {
		tempName = defaultTempEnvName(baseEnv)
	}

	return runRequest{
		Args: quickstart.Args{
			BaseEnv:      baseEnv,
			TempEnvName:  tempName,
			JujuPath:     o.JujuPath,
			LogDir:       args[2],
			BundlePath:   args[1],
			ServiceCount: o.ServiceCount,
			Options: quickstart.Options{
				AgentURL:      o.AgentURL,
				Series:        o.Series,
				Debug:         o.Debug,
				Region:        o.Region,
				AgentStream:   o.AgentStream,
				BootstrapHost: o.BootstrapHost,
			},
		},
		Settings: settings,
		ExtraEnv: env.Merge(fileVars, inlineVars),
	}, nil
}

// defaultTempEnvName derives a unique environment name from base.
func defaultTempEnvName(base string) string {
	return base + "-" + uuid.NewString()[:8]
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
