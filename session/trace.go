package session

import (
	"log/slog"
	"os"
	"sync"
)

// TraceSink appends raw continuation payloads to a file for protocol
// debugging. Writes are serialized with a mutex because overlapping
// sessions may share a sink, and a write failure must never abort the
// polling loop: errors are logged and swallowed.
type TraceSink struct {
	path string

	mu sync.Mutex
	f  *os.File
}

// NewTraceSink returns a sink appending to path. The file is opened
// lazily on first write.
func NewTraceSink(path string) *TraceSink {
	return &TraceSink{path: path}
}

// Append writes one raw payload followed by a newline.
func (t *TraceSink) Append(raw []byte) {
	if t == nil || len(raw) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f == nil {
		f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			slog.Warn("trace sink open failed", slog.String("path", t.path), slog.Any("err", err))
			return
		}
		t.f = f
	}
	if _, err := t.f.Write(append(raw, '\n')); err != nil {
		slog.Warn("trace sink write failed", slog.String("path", t.path), slog.Any("err", err))
	}
}

// Close closes the underlying file if it was opened.
func (t *TraceSink) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.f != nil {
		if err := t.f.Close(); err != nil {
			slog.Warn("trace sink close failed", slog.String("path", t.path), slog.Any("err", err))
		}
		t.f = nil
	}
}
