package ghoutput

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAppendsSortedOutputs(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o600))
	w := New(path)

	require.NoError(t, w.Write(map[string]string{"juju-quickstart": "Returned from quickstart"}))
	require.NoError(t, w.Write(map[string]string{"bootstrap_host": "10.0.0.1", "note": "a\nb", " ": "skipped"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing=1\njuju_quickstart=Returned from quickstart\nbootstrap_host=10.0.0.1\nnote=a%0Ab\n", string(data))
}

func TestDisabledWriterIsNoop(t *testing.T) {
	t.Parallel()
	w := New("  ")

	assert.False(t, w.Enabled())
	assert.NoError(t, w.Write(map[string]string{"a": "b"}))

	var nilWriter *Writer
	assert.False(t, nilWriter.Enabled())
	assert.NoError(t, nilWriter.Write(map[string]string{"a": "b"}))
}

func TestFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	t.Setenv("GITHUB_OUTPUT", path)

	w := FromEnv()
	require.True(t, w.Enabled())
	require.NoError(t, w.Write(map[string]string{"agents_started": "All Agents started"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "agents_started=All Agents started\n", string(data))
}

func TestWriteUnwritablePath(t *testing.T) {
	t.Parallel()
	w := New(filepath.Join(t.TempDir(), "missing", "output"))

	assert.Error(t, w.Write(map[string]string{"a": "b"}))
}
