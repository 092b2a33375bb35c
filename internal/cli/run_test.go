package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juju-qa/quickstart-deploy/internal/ghoutput"
	"github.com/juju-qa/quickstart-deploy/internal/logging"
	"github.com/juju-qa/quickstart-deploy/internal/quickstart"
)

func TestPublishProgress(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "output")
	publish := publishProgress(ghoutput.New(path), logging.Discard())

	publish(quickstart.Progress{Key: quickstart.KeyQuickstart, Value: quickstart.StatusQuickstartReturned})
	publish(quickstart.Progress{Key: quickstart.KeyBootstrapHost, Value: "10.0.0.1"})

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "juju_quickstart=Returned from quickstart\nbootstrap_host=10.0.0.1\n", string(data))
}

func TestPublishProgressIgnoresWriteFailures(t *testing.T) {
	t.Parallel()
	publish := publishProgress(ghoutput.New(filepath.Join(t.TempDir(), "missing", "output")), logging.Discard())

	assert.NotPanics(t, func() {
		publish(quickstart.Progress{Key: quickstart.KeyAgentsStarted, Value: quickstart.StatusAgentsStarted})
	})
}
