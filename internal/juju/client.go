// Package juju provides low-level integration with the juju CLI for a single environment.
package juju

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/juju-qa/quickstart-deploy/internal/config"
	"github.com/juju-qa/quickstart-deploy/internal/env"
	"github.com/juju-qa/quickstart-deploy/internal/logging"
)

const (
	defaultBinary = "juju"

	// quickstartConstraints are the machine constraints used for quickstart bootstraps.
	quickstartConstraints = "mem=2G"
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+`)

// Timeouts bounds the blocking client operations.
type Timeouts struct {
	DNS     time.Duration
	Deploy  time.Duration
	Agents  time.Duration
	Destroy time.Duration
}

// DefaultTimeouts mirrors the defaults of config.Settings.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		DNS:     10 * time.Minute,
		Deploy:  20 * time.Minute,
		Agents:  time.Hour,
		Destroy: 10 * time.Minute,
	}
}

// Client wraps juju execution against one environment.
type Client struct {
	// Env is the environment every command targets.
	Env *config.Environment
	// Version is the version string reported by the binary.
	Version string
	// FullPath is the absolute path of the juju binary.
	FullPath string
	// Debug passes --debug instead of --show-log to every command.
	Debug bool
	// JujuHome is the JUJU_HOME exported to every command.
	JujuHome string
	// ExtraEnv is merged over the process environment for every command.
	ExtraEnv env.Vars
	// Timeouts bounds the wait and destroy operations.
	Timeouts Timeouts
	// PollInterval is the delay between status polls.
	PollInterval time.Duration

	runner Runner
	logger *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithDebug toggles verbose juju output.
func WithDebug(debug bool) Option {
	return func(c *Client) { c.Debug = debug }
}

// WithJujuHome sets the JUJU_HOME used by the client.
func WithJujuHome(home string) Option {
	return func(c *Client) { c.JujuHome = home }
}

// WithExtraEnv adds variables to every juju invocation.
func WithExtraEnv(vars env.Vars) Option {
	return func(c *Client) { c.ExtraEnv = env.Merge(c.ExtraEnv, vars) }
}

// WithSettings applies JUJU_HOME, timeouts and poll interval from settings.
// Zero or negative durations keep the client's current values.
func WithSettings(s config.Settings) Option {
	return func(c *Client) {
		if s.JujuHome != "" {
			c.JujuHome = s.JujuHome
		}
		setIfPositive(&c.Timeouts.DNS, s.DNSTimeout)
		setIfPositive(&c.Timeouts.Deploy, s.DeployTimeout)
		setIfPositive(&c.Timeouts.Agents, s.AgentTimeout)
		setIfPositive(&c.Timeouts.Destroy, s.DestroyTimeout)
		if s.PollInterval > 0 {
			c.PollInterval = s.PollInterval
		}
	}
}

func setIfPositive(dst *time.Duration, d time.Duration) {
	if d > 0 {
		*dst = d
	}
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithLogger sets the logger used for command output and progress.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient constructs a client without touching the binary.
func NewClient(e *config.Environment, version, fullPath string, opts ...Option) *Client {
	c := &Client{
		Env:          e,
		Version:      version,
		FullPath:     fullPath,
		Timeouts:     DefaultTimeouts(),
		PollInterval: 5 * time.Second,
		runner:       ExecRunner{},
		logger:       logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetVersion runs `<path> --version` and returns the trimmed output.
func GetVersion(ctx context.Context, r Runner, path string) (string, error) {
	if r == nil {
		r = ExecRunner{}
	}
	var stdout, stderr bytes.Buffer
	err := r.Run(ctx, Command{Path: path, Args: []string{"--version"}, Stdout: &stdout, Stderr: &stderr})
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ByVersion resolves jujuPath (or "juju" from PATH when empty), queries its
// version and returns a client for e. Any failure is a *ToolResolutionError.
func ByVersion(ctx context.Context, e *config.Environment, jujuPath string, debug bool, opts ...Option) (*Client, error) {
	probe := NewClient(e, "", "", opts...)

	path := jujuPath
	if strings.TrimSpace(path) == "" {
		found, err := exec.LookPath(defaultBinary)
		if err != nil {
			return nil, &ToolResolutionError{Path: defaultBinary, Err: err}
		}
		path = found
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ToolResolutionError{Path: path, Err: err}
	}

	version, err := GetVersion(ctx, probe.runner, abs)
	if err != nil {
		return nil, &ToolResolutionError{Path: abs, Err: err}
	}
	if !versionPattern.MatchString(version) {
		return nil, &ToolResolutionError{Path: abs, Err: fmt.Errorf("unrecognized version %q", version)}
	}

	probe.logger.Debug("resolved juju", "path", abs, "version", version)
	return NewClient(e, version, abs, append(opts, WithDebug(debug))...), nil
}

// EnvironmentName returns the name of the target environment.
func (c *Client) EnvironmentName() string {
	return c.Env.Name
}

// call describes one juju invocation.
type call struct {
	command  string
	args     []string
	includeE bool
	env      env.Vars
}

// fullArgs builds the argument list: juju [--debug|--show-log] command [-e env] args...
func (c *Client) fullArgs(k call) []string {
	out := make([]string, 0, len(k.args)+4)
	if c.Debug {
		out = append(out, "--debug")
	} else {
		out = append(out, "--show-log")
	}
	out = append(out, k.command)
	if k.includeE {
		out = append(out, "-e", c.Env.Name)
	}
	return append(out, k.args...)
}

func (c *Client) environ(extra env.Vars) []string {
	vars := env.Merge(env.FromOS(), c.ExtraEnv, extra)
	if c.JujuHome != "" {
		if _, set := extra["JUJU_HOME"]; !set {
			vars["JUJU_HOME"] = c.JujuHome
		}
	}
	return vars.List()
}

func (c *Client) binary() string {
	if c.FullPath == "" {
		return defaultBinary
	}
	return c.FullPath
}

func (c *Client) run(ctx context.Context, k call) error {
	out := logging.NewWriter(c.logger, "command", k.command)
	defer out.Flush()

	c.logger.Debug("running juju", "args", c.fullArgs(k))
	return c.runner.Run(ctx, Command{
		Path:   c.binary(),
		Args:   c.fullArgs(k),
		Env:    c.environ(k.env),
		Stdout: out,
		Stderr: out,
	})
}

func (c *Client) capture(ctx context.Context, k call) ([]byte, error) {
	var stdout bytes.Buffer
	errOut := logging.NewWriter(c.logger, "command", k.command)
	defer errOut.Flush()

	err := c.runner.Run(ctx, Command{
		Path:   c.binary(),
		Args:   c.fullArgs(k),
		Env:    c.environ(k.env),
		Stdout: &stdout,
		Stderr: errOut,
	})
	if err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Juju runs an environment-scoped juju command, streaming its output to the log.
func (c *Client) Juju(ctx context.Context, command string, args ...string) error {
	return c.run(ctx, call{command: command, args: args, includeE: true})
}

// Capture runs an environment-scoped juju command and returns its stdout.
func (c *Client) Capture(ctx context.Context, command string, args ...string) ([]byte, error) {
	return c.capture(ctx, call{command: command, args: args, includeE: true})
}

// Quickstart bootstraps the environment and deploys bundle with juju-quickstart,
// using a temporary JUJU_HOME holding only this environment.
func (c *Client) Quickstart(ctx context.Context, bundle string) error {
	return TempBootstrapHome(c.JujuHome, c.Env, func(home string) error {
		return c.run(ctx, call{
			command:  "quickstart",
			args:     []string{"--constraints", quickstartConstraints, "--no-browser", bundle},
			includeE: true,
			env:      env.Vars{"JUJU_HOME": home, "JUJU": c.binary()},
		})
	})
}

// Status returns the parsed status of the environment.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	raw, err := c.Capture(ctx, "status", "--format", "yaml")
	if err != nil {
		return nil, err
	}
	return ParseStatus(raw)
}

// ReportStatus prints the environment status to the log.
func (c *Client) ReportStatus(ctx context.Context) error {
	if err := c.Juju(ctx, "status"); err != nil {
		return fmt.Errorf("report status of %q: %w", c.Env.Name, err)
	}
	return nil
}

// DestroyEnvironment force-destroys the environment. When deleteJenv is set the
// persisted environment-state file is removed from JUJU_HOME afterwards, even
// if destruction failed.
func (c *Client) DestroyEnvironment(ctx context.Context, deleteJenv bool) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeouts.Destroy)
	defer cancel()

	c.logger.Info("destroying environment", "env", c.Env.Name)
	err := c.run(ctx, call{command: "destroy-environment", args: []string{c.Env.Name, "--force", "-y"}})
	if err != nil {
		err = fmt.Errorf("destroy environment %q: %w", c.Env.Name, err)
	}

	if deleteJenv && c.JujuHome != "" {
		jenv := c.Env.JenvPath(c.JujuHome)
		if rmErr := os.Remove(jenv); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = errors.Join(err, fmt.Errorf("remove %q: %w", jenv, rmErr))
		}
	}
	return err
}
