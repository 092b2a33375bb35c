package juju

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// stateNoAgent is reported for machines and units that have no agent state yet.
const stateNoAgent = "no-agent"

// Status is the subset of `juju status --format yaml` the harness reads.
type Status struct {
	// Environment is the environment name reported by juju.
	Environment string `yaml:"environment,omitempty"`
	// Machines maps machine id to machine status.
	Machines map[string]MachineStatus `yaml:"machines,omitempty"`
	// Services maps service name to service status.
	Services map[string]ServiceStatus `yaml:"services,omitempty"`
}

// MachineStatus describes one machine.
type MachineStatus struct {
	AgentState     string                   `yaml:"agent-state,omitempty"`
	AgentStateInfo string                   `yaml:"agent-state-info,omitempty"`
	AgentVersion   string                   `yaml:"agent-version,omitempty"`
	DNSName        string                   `yaml:"dns-name,omitempty"`
	InstanceID     string                   `yaml:"instance-id,omitempty"`
	Series         string                   `yaml:"series,omitempty"`
	Containers     map[string]MachineStatus `yaml:"containers,omitempty"`
}

// ServiceStatus describes one deployed service.
type ServiceStatus struct {
	Charm   string                `yaml:"charm,omitempty"`
	Exposed bool                  `yaml:"exposed,omitempty"`
	Units   map[string]UnitStatus `yaml:"units,omitempty"`
}

// UnitStatus describes one service unit and its subordinates.
type UnitStatus struct {
	AgentState     string                `yaml:"agent-state,omitempty"`
	AgentStateInfo string                `yaml:"agent-state-info,omitempty"`
	Machine        string                `yaml:"machine,omitempty"`
	PublicAddress  string                `yaml:"public-address,omitempty"`
	Subordinates   map[string]UnitStatus `yaml:"subordinates,omitempty"`
}

// ParseStatus decodes YAML status output.
func ParseStatus(raw []byte) (*Status, error) {
	var s Status
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode juju status: %w", err)
	}
	return &s, nil
}

// ServiceCount returns the number of services juju has started deploying.
func (s *Status) ServiceCount() int {
	return len(s.Services)
}

// MachineDNSName returns the address of machine id, or "" when none is known yet.
func (s *Status) MachineDNSName(id string) string {
	m, ok := s.Machines[id]
	if !ok {
		return ""
	}
	return strings.TrimSpace(m.DNSName)
}

// AgentStates groups machine and unit agents by their reported state.
// Agent names within each state are sorted.
func (s *Status) AgentStates() map[string][]string {
	states := make(map[string][]string)
	add := func(state, name string) {
		if state == "" {
			state = stateNoAgent
		}
		states[state] = append(states[state], name)
	}

	for id, m := range s.Machines {
		add(m.AgentState, id)
	}
	var addUnits func(units map[string]UnitStatus)
	addUnits = func(units map[string]UnitStatus) {
		for name, u := range units {
			add(u.AgentState, name)
			addUnits(u.Subordinates)
		}
	}
	for _, svc := range s.Services {
		addUnits(svc.Units)
	}

	for _, names := range states {
		sort.Strings(names)
	}
	return states
}

// CheckAgentsStarted reports whether every agent is started. It fails when any
// agent is in an error state.
func (s *Status) CheckAgentsStarted() (bool, error) {
	states := s.AgentStates()
	if len(states) == 1 {
		if _, ok := states["started"]; ok {
			return true, nil
		}
	}

	keys := make([]string, 0, len(states))
	for state := range states {
		keys = append(keys, state)
	}
	sort.Strings(keys)
	for _, state := range keys {
		if strings.Contains(state, "error") {
			return false, &AgentErrorState{State: state, Agents: states[state]}
		}
	}
	return false, nil
}
