package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"
)

// Settings holds process-wide harness settings read from the environment.
type Settings struct {
	// JujuHome is the juju configuration directory; defaults to ~/.juju.
	JujuHome string `env:"JUJU_HOME"`
	// DNSTimeout bounds the wait for machine 0 to report an address.
	DNSTimeout time.Duration `env:"QUICKSTART_DNS_TIMEOUT" envDefault:"10m"`
	// DeployTimeout bounds the wait for services to appear in status.
	DeployTimeout time.Duration `env:"QUICKSTART_DEPLOY_TIMEOUT" envDefault:"20m"`
	// AgentTimeout bounds the wait for every agent to report started.
	AgentTimeout time.Duration `env:"QUICKSTART_AGENT_TIMEOUT" envDefault:"1h"`
	// DestroyTimeout bounds environment destruction during cleanup.
	DestroyTimeout time.Duration `env:"QUICKSTART_DESTROY_TIMEOUT" envDefault:"10m"`
	// PollInterval is the delay between status polls.
	PollInterval time.Duration `env:"QUICKSTART_POLL_INTERVAL" envDefault:"5s"`
	// LogLevel is the default log level when --log-level is not given.
	LogLevel string `env:"QUICKSTART_LOG_LEVEL" envDefault:"info"`
}

// LoadSettings reads Settings from the process environment.
func LoadSettings() (Settings, error) {
	return LoadSettingsFrom(nil)
}

// LoadSettingsFrom reads Settings from vars, or from the process environment
// when vars is nil.
func LoadSettingsFrom(vars map[string]string) (Settings, error) {
	var s Settings
	opts := cenv.Options{}
	if vars != nil {
		opts.Environment = vars
	}
	if err := cenv.ParseWithOptions(&s, opts); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	if strings.TrimSpace(s.JujuHome) == "" {
		home := ""
		if vars != nil {
			home = vars["HOME"]
		}
		if home == "" {
			var err error
			if home, err = os.UserHomeDir(); err != nil {
				return Settings{}, fmt.Errorf("resolve juju home: %w", err)
			}
		}
		s.JujuHome = filepath.Join(home, ".juju")
	}
	positive := []struct {
		name  string
		value time.Duration
	}{
		{"QUICKSTART_DNS_TIMEOUT", s.DNSTimeout},
		{"QUICKSTART_DEPLOY_TIMEOUT", s.DeployTimeout},
		{"QUICKSTART_AGENT_TIMEOUT", s.AgentTimeout},
		{"QUICKSTART_DESTROY_TIMEOUT", s.DestroyTimeout},
		{"QUICKSTART_POLL_INTERVAL", s.PollInterval},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return Settings{}, fmt.Errorf("%s must be positive, got %s", p.name, p.value)
		}
	}
	return s, nil
}
