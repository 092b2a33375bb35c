// Package quickstart runs the juju-quickstart deployment scenario: a fixed
// sequence of provisioning steps followed by unconditional cleanup.
package quickstart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/juju-qa/quickstart-deploy/internal/config"
	"github.com/juju-qa/quickstart-deploy/internal/juju"
	"github.com/juju-qa/quickstart-deploy/internal/logging"
)

// Client is the orchestration surface the scenario drives. *juju.Client
// implements it.
type Client interface {
	EnvironmentName() string
	Quickstart(ctx context.Context, bundlePath string) error
	MachineDNSName(ctx context.Context, machineID string) (string, error)
	WaitForDeployStarted(ctx context.Context, serviceCount int) error
	WaitForStarted(ctx context.Context) error
	ReportStatus(ctx context.Context) error
	DestroyEnvironment(ctx context.Context, deleteJenv bool) error
}

// LogCollector captures diagnostics for a run. *juju.LogCollector implements it.
type LogCollector interface {
	CollectLogs(ctx context.Context, host, dir string) error
}

// Scenario is one quickstart deployment run against a single environment.
type Scenario struct {
	Client       Client
	Logs         LogCollector
	BundlePath   string
	LogDir       string
	ServiceCount int
	// OnProgress, when set, receives every record as it is produced.
	OnProgress func(Progress)

	logger *slog.Logger
}

// New constructs a Scenario from already-built collaborators.
func New(client Client, logs LogCollector, bundlePath, logDir string, serviceCount int, logger *slog.Logger) *Scenario {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Scenario{
		Client:       client,
		Logs:         logs,
		BundlePath:   bundlePath,
		LogDir:       logDir,
		ServiceCount: serviceCount,
		logger:       logger,
	}
}

// Args are the inputs of FromArgs.
type Args struct {
	// BaseEnv is the environments.yaml entry used as template.
	BaseEnv string
	// TempEnvName is the name of the environment created for this run.
	TempEnvName string
	// JujuPath is the juju binary; empty means juju from PATH.
	JujuPath string
	// LogDir receives the collected diagnostics.
	LogDir string
	// BundlePath is the bundle URL or path handed to juju-quickstart.
	BundlePath string
	// ServiceCount is the number of services the bundle deploys.
	ServiceCount int
	// Options holds the optional environment overrides.
	Options Options
}

// Options are the recognized optional settings of a run. Empty values leave
// the corresponding configuration key unset.
type Options struct {
	AgentURL      string
	Series        string
	Debug         bool
	Region        string
	AgentStream   string
	BootstrapHost string
}

// apply copies the supplied options onto the environment configuration.
func (o Options) apply(e *config.Environment) {
	e.SetIfNotEmpty(config.KeyToolsMetadataURL, o.AgentURL)
	e.SetIfNotEmpty(config.KeyDefaultSeries, o.Series)
	e.SetIfNotEmpty(config.KeyRegion, o.Region)
	e.SetIfNotEmpty(config.KeyAgentStream, o.AgentStream)
	e.SetIfNotEmpty(config.KeyBootstrapHost, o.BootstrapHost)
}

// EnvironmentLoader returns the base environment called name.
type EnvironmentLoader func(name string) (*config.Environment, error)

// ClientResolver returns a client for jujuPath bound to e.
type ClientResolver func(ctx context.Context, e *config.Environment, jujuPath string, debug bool) (*juju.Client, error)

type builder struct {
	settings    config.Settings
	loadEnv     EnvironmentLoader
	resolve     ClientResolver
	jujuOptions []juju.Option
	onProgress  func(Progress)
	logger      *slog.Logger
}

// BuildOption customizes FromArgs.
type BuildOption func(*builder)

// WithSettings sets JUJU_HOME and the client timeouts.
func WithSettings(s config.Settings) BuildOption {
	return func(b *builder) { b.settings = s }
}

// WithEnvironmentLoader replaces the environments.yaml loader.
func WithEnvironmentLoader(fn EnvironmentLoader) BuildOption {
	return func(b *builder) { b.loadEnv = fn }
}

// WithClientResolver replaces juju.ByVersion.
func WithClientResolver(fn ClientResolver) BuildOption {
	return func(b *builder) { b.resolve = fn }
}

// WithJujuOptions passes extra options to the default client resolver.
func WithJujuOptions(opts ...juju.Option) BuildOption {
	return func(b *builder) { b.jujuOptions = append(b.jujuOptions, opts...) }
}

// WithProgressHandler registers fn as the scenario's OnProgress callback.
func WithProgressHandler(fn func(Progress)) BuildOption {
	return func(b *builder) { b.onProgress = fn }
}

// WithLogger sets the logger for the scenario and its client.
func WithLogger(logger *slog.Logger) BuildOption {
	return func(b *builder) { b.logger = logger }
}

// FromArgs builds a fully configured Scenario: it loads the base environment,
// clones it under the temporary name, applies the options and resolves a
// client for the juju binary.
func FromArgs(ctx context.Context, args Args, opts ...BuildOption) (*Scenario, error) {
	b := &builder{logger: logging.Discard()}
	for _, opt := range opts {
		opt(b)
	}
	if b.loadEnv == nil {
		home := b.settings.JujuHome
		b.loadEnv = func(name string) (*config.Environment, error) {
			return config.FromConfig(home, name)
		}
	}
	if b.resolve == nil {
		clientOpts := append([]juju.Option{juju.WithSettings(b.settings), juju.WithLogger(b.logger)}, b.jujuOptions...)
		b.resolve = func(ctx context.Context, e *config.Environment, jujuPath string, debug bool) (*juju.Client, error) {
			return juju.ByVersion(ctx, e, jujuPath, debug, clientOpts...)
		}
	}

	base, err := b.loadEnv(args.BaseEnv)
	if err != nil {
		return nil, fmt.Errorf("load base environment %q: %w", args.BaseEnv, err)
	}
	e := base.Clone(args.TempEnvName)
	args.Options.apply(e)

	client, err := b.resolve(ctx, e, args.JujuPath, args.Options.Debug)
	if err != nil {
		return nil, err
	}

	s := New(client, juju.NewLogCollector(client), args.BundlePath, args.LogDir, args.ServiceCount, b.logger)
	s.OnProgress = b.onProgress
	return s, nil
}
