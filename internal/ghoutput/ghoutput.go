// Package ghoutput publishes run progress as GitHub Actions step outputs.
package ghoutput

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
)

// outputVar names the file GitHub Actions reads step outputs from.
const outputVar = "GITHUB_OUTPUT"

// Writer appends key=value outputs to a GITHUB_OUTPUT file. A Writer with an
// empty path discards everything.
type Writer struct {
	path string
	mu   sync.Mutex
}

// New returns a Writer appending to path.
func New(path string) *Writer {
	return &Writer{path: strings.TrimSpace(path)}
}

// FromEnv returns a Writer for the GITHUB_OUTPUT file of the current job.
func FromEnv() *Writer {
	return New(os.Getenv(outputVar))
}

// Enabled reports whether outputs are written anywhere.
func (w *Writer) Enabled() bool {
	return w != nil && w.path != ""
}

// Write appends values in key order. Keys are normalized to the
// underscore form accepted by expressions such as steps.x.outputs.y.
func (w *Writer) Write(values map[string]string) error {
	if !w.Enabled() || len(values) == 0 {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s: %w", outputVar, err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", normalizeKey(key), sanitize(values[key])); err != nil {
			return fmt.Errorf("write %s: %w", outputVar, err)
		}
	}
	return nil
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), "-", "_")
}

func sanitize(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\r", "%0D")
	value = strings.ReplaceAll(value, "\n", "%0A")
	return value
}
