// Package config contains the environment handle and the loaders for juju's
// environments.yaml and process-wide harness settings.
package config

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Configuration keys the harness sets on a cloned environment.
const (
	KeyName             = "name"
	KeyType             = "type"
	KeyToolsMetadataURL = "tools-metadata-url"
	KeyDefaultSeries    = "default-series"
	KeyRegion           = "region"
	KeyAgentStream      = "agent-stream"
	KeyBootstrapHost    = "bootstrap-host"
)

// EnvironmentsFileName is the file juju reads environment definitions from.
const EnvironmentsFileName = "environments.yaml"

// Environment is the handle for one target deployment environment: a name
// plus the configuration bag juju is given for it.
type Environment struct {
	// Name is the environment name passed to juju with -e.
	Name string
	// Config holds the environment settings as written to environments.yaml.
	Config map[string]any
}

// NewEnvironment constructs an Environment. A nil cfg becomes an empty map.
func NewEnvironment(name string, cfg map[string]any) *Environment {
	if cfg == nil {
		cfg = make(map[string]any)
	}
	return &Environment{Name: name, Config: cfg}
}

// Clone returns a copy of the environment renamed to name, with the "name"
// key of its configuration set accordingly.
func (e *Environment) Clone(name string) *Environment {
	cfg := make(map[string]any, len(e.Config)+1)
	maps.Copy(cfg, e.Config)
	cfg[KeyName] = name
	return &Environment{Name: name, Config: cfg}
}

// SetIfNotEmpty sets key to value unless value is blank.
func (e *Environment) SetIfNotEmpty(key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	e.Config[key] = value
}

// Get returns the string form of a configuration value.
func (e *Environment) Get(key string) (string, bool) {
	v, ok := e.Config[key]
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// Type returns the provider type (local, ec2, maas, manual...).
func (e *Environment) Type() string {
	t, _ := e.Get(KeyType)
	return t
}

// IsLocal reports whether the environment uses the local provider.
func (e *Environment) IsLocal() bool {
	return e.Type() == "local"
}

// JenvPath returns the location of the persisted environment-state file juju
// writes for this environment under jujuHome.
func (e *Environment) JenvPath(jujuHome string) string {
	return filepath.Join(jujuHome, "environments", e.Name+".jenv")
}

// EnvironmentsFile mirrors the structure of environments.yaml.
type EnvironmentsFile struct {
	// Default is the environment juju selects when -e is omitted.
	Default string `yaml:"default,omitempty"`
	// Environments maps environment name to its configuration.
	Environments map[string]map[string]any `yaml:"environments"`
}

// EnvironmentNotFoundError indicates the named environment is not defined.
type EnvironmentNotFoundError struct {
	// Name is the environment that was requested.
	Name string
	// Path is the environments.yaml that was searched.
	Path string
	// Available lists the environments the file does define.
	Available []string
}

func (e *EnvironmentNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("environment %q not defined in %s", e.Name, e.Path)
	}
	return fmt.Sprintf("environment %q not defined in %s (available: %s)", e.Name, e.Path, strings.Join(e.Available, ", "))
}

// IsEnvironmentNotFound reports whether err indicates a missing environment.
func IsEnvironmentNotFound(err error) bool {
	var target *EnvironmentNotFoundError
	return errors.As(err, &target)
}

// LoadEnvironmentsFile reads and parses an environments.yaml file.
func LoadEnvironmentsFile(path string) (*EnvironmentsFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var file EnvironmentsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	if file.Environments == nil {
		file.Environments = make(map[string]map[string]any)
	}
	return &file, nil
}

// Names returns the defined environment names in sorted order.
func (f *EnvironmentsFile) Names() []string {
	names := make([]string, 0, len(f.Environments))
	for name := range f.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromConfig loads the named environment from jujuHome/environments.yaml.
func FromConfig(jujuHome, name string) (*Environment, error) {
	path := filepath.Join(jujuHome, EnvironmentsFileName)
	file, err := LoadEnvironmentsFile(path)
	if err != nil {
		return nil, err
	}

	cfg, ok := file.Environments[name]
	if !ok {
		return nil, &EnvironmentNotFoundError{Name: name, Path: path, Available: file.Names()}
	}
	return NewEnvironment(name, maps.Clone(cfg)), nil
}

// WriteEnvironmentsFile writes an environments.yaml holding only envs, with the
// first one as default.
func WriteEnvironmentsFile(path string, envs ...*Environment) error {
	file := EnvironmentsFile{Environments: make(map[string]map[string]any, len(envs))}
	for i, e := range envs {
		if i == 0 {
			file.Default = e.Name
		}
		file.Environments[e.Name] = e.Config
	}

	out, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("encode environments: %w", err)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write %q: %w", path, err)
	}
	return nil
}
