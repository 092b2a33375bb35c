package juju

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pendingStatus = `machines:
  "0":
    agent-state: pending
`

const addressedStatus = `machines:
  "0":
    agent-state: started
    dns-name: bootstrap.example.com
services:
  mysql:
    units:
      mysql/0:
        agent-state: pending
`

const erroredStatus = `machines:
  "0":
    agent-state: started
    dns-name: bootstrap.example.com
services:
  mysql:
    units:
      mysql/0:
        agent-state: error
        agent-state-info: 'hook failed: "install"'
`

func TestMachineDNSNamePollsUntilAddressKnown(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status",
		fakeResponse{err: errBoom},
		fakeResponse{stdout: pendingStatus},
		fakeResponse{stdout: addressedStatus},
	)
	c := newTestClient(t, runner)

	name, err := c.MachineDNSName(context.Background(), "0")
	require.NoError(t, err)
	assert.Equal(t, "bootstrap.example.com", name)
	assert.Len(t, runner.argsOf("status"), 3)
}

func TestMachineDNSNameTimeout(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status", fakeResponse{err: errBoom})
	c := newTestClient(t, runner)
	c.Timeouts.DNS = 20 * time.Millisecond

	_, err := c.MachineDNSName(context.Background(), "0")
	require.Error(t, err)
	assert.True(t, IsTimeoutError(err))
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "machine 0 address")
}

func TestWaitForDeployStarted(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status",
		fakeResponse{stdout: addressedStatus},
		fakeResponse{stdout: startedStatus},
	)
	c := newTestClient(t, runner)

	require.NoError(t, c.WaitForDeployStarted(context.Background(), 2))
	assert.Len(t, runner.argsOf("status"), 2)
}

func TestWaitForDeployStartedTimeout(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status", fakeResponse{stdout: addressedStatus})
	c := newTestClient(t, runner)
	c.Timeouts.Deploy = 20 * time.Millisecond

	err := c.WaitForDeployStarted(context.Background(), 5)
	require.Error(t, err)
	var timeout *TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 20*time.Millisecond, timeout.Timeout)
	assert.NoError(t, timeout.LastErr)
}

func TestWaitForStarted(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status",
		fakeResponse{stdout: addressedStatus},
		fakeResponse{stdout: startedStatus},
	)
	c := newTestClient(t, runner)

	require.NoError(t, c.WaitForStarted(context.Background()))
}

func TestWaitForStartedFailsFastOnError(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status", fakeResponse{stdout: erroredStatus})
	c := newTestClient(t, runner)
	c.Timeouts.Agents = time.Hour

	err := c.WaitForStarted(context.Background())
	var stateErr *AgentErrorState
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, []string{"mysql/0"}, stateErr.Agents)
	assert.Len(t, runner.argsOf("status"), 1)
}

func TestPollHonoursCallerCancellation(t *testing.T) {
	t.Parallel()
	runner := newFakeRunner().on("status", fakeResponse{stdout: pendingStatus})
	c := newTestClient(t, runner)
	c.Timeouts.Agents = time.Hour
	c.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.WaitForStarted(ctx)
	require.Error(t, err)
	assert.False(t, IsTimeoutError(err))
	assert.ErrorIs(t, err, context.Canceled)
}
