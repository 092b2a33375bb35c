package juju

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const startedStatus = `environment: foo
machines:
  "0":
    agent-state: started
    dns-name: 10.0.0.1
    instance-id: i-0
  "1":
    agent-state: started
    dns-name: 10.0.0.2
services:
  mysql:
    charm: cs:trusty/mysql-1
    units:
      mysql/0:
        agent-state: started
        machine: "1"
        subordinates:
          ntp/0:
            agent-state: started
  wordpress:
    charm: cs:trusty/wordpress-2
    exposed: true
    units:
      wordpress/0:
        agent-state: started
        machine: "1"
`

func TestParseStatus(t *testing.T) {
	t.Parallel()
	s, err := ParseStatus([]byte(startedStatus))
	require.NoError(t, err)

	assert.Equal(t, "foo", s.Environment)
	assert.Equal(t, 2, s.ServiceCount())
	assert.Equal(t, "10.0.0.1", s.MachineDNSName("0"))
	assert.Empty(t, s.MachineDNSName("7"))
	assert.True(t, s.Services["wordpress"].Exposed)
}

func TestParseStatusInvalid(t *testing.T) {
	t.Parallel()
	_, err := ParseStatus([]byte("machines: [unclosed"))
	assert.Error(t, err)
}

func TestAgentStatesIncludesSubordinates(t *testing.T) {
	t.Parallel()
	s, err := ParseStatus([]byte(startedStatus))
	require.NoError(t, err)

	states := s.AgentStates()
	assert.Equal(t, map[string][]string{
		"started": {"0", "1", "mysql/0", "ntp/0", "wordpress/0"},
	}, states)

	ok, err := s.CheckAgentsStarted()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckAgentsStartedPending(t *testing.T) {
	t.Parallel()
	s := &Status{
		Machines: map[string]MachineStatus{
			"0": {AgentState: "started"},
			"1": {},
		},
	}
	assert.Equal(t, []string{"1"}, s.AgentStates()[stateNoAgent])

	ok, err := s.CheckAgentsStarted()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckAgentsStartedError(t *testing.T) {
	t.Parallel()
	s := &Status{
		Machines: map[string]MachineStatus{"0": {AgentState: "started"}},
		Services: map[string]ServiceStatus{
			"mysql": {Units: map[string]UnitStatus{"mysql/0": {AgentState: "error"}}},
		},
	}

	ok, err := s.CheckAgentsStarted()
	assert.False(t, ok)
	var stateErr *AgentErrorState
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, "error", stateErr.State)
	assert.Equal(t, []string{"mysql/0"}, stateErr.Agents)
}

func TestCheckAgentsStartedEmptyStatus(t *testing.T) {
	t.Parallel()
	ok, err := (&Status{}).CheckAgentsStarted()
	require.NoError(t, err)
	assert.False(t, ok)
}
