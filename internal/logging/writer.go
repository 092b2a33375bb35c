package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
)

// Writer is an io.Writer implementation that forwards command output to slog.
// Partial lines are buffered until a newline arrives or Flush is called.
type Writer struct {
	logger *slog.Logger
	attrs  []any

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewWriter constructs a Writer bound to the provided logger. The optional attrs
// are attached to every emitted line (e.g. "command", "status").
func NewWriter(logger *slog.Logger, attrs ...any) *Writer {
	return &Writer{logger: logger, attrs: attrs}
}

// Write logs every complete line in p at info level.
func (w *Writer) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// no newline yet: keep the remainder for the next write
			w.buf.Reset()
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *Writer) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *Writer) emit(line string) {
	if w.logger == nil {
		return
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.logger.Info("command output", append([]any{"line", line}, w.attrs...)...)
}
