package driver

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// TraceEntry is one request/response exchange written to the trace file.
type TraceEntry struct {
	Timestamp   time.Time       `json:"timestamp"`
	Driver      string          `json:"driver"`
	Endpoint    string          `json:"endpoint"`
	Method      string          `json:"method"`
	Model       string          `json:"model,omitempty"`
	RequestBody json.RawMessage `json:"request_body,omitempty"`
	StatusCode  int             `json:"status_code,omitempty"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
	DurationMs  int64           `json:"duration_ms"`
}

// Tracer appends entries to an NDJSON file. Parallel workers share one Tracer.
type Tracer struct {
	mu   sync.Mutex
	file *os.File
}

var (
	activeMu sync.Mutex
	active   *Tracer
)

// EnableTracing opens path for appending and makes it the active trace file,
// replacing any previous one.
func EnableTracing(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("open trace file: %w", err)
	}

	activeMu.Lock()
	prev := active
	active = &Tracer{file: f}
	activeMu.Unlock()

	return prev.Close()
}

// StopTracing closes the active trace file, if any.
func StopTracing() error {
	activeMu.Lock()
	prev := active
	active = nil
	activeMu.Unlock()

	return prev.Close()
}

// Trace writes entry to the active trace file. It is a no-op when tracing is off.
func Trace(entry TraceEntry) {
	activeMu.Lock()
	t := active
	activeMu.Unlock()

	t.Write(entry)
}

// Write appends one entry. Encoding and write errors are dropped.
func (t *Tracer) Write(entry TraceEntry) {
	if t == nil {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	data = append(data, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file != nil {
		_, _ = t.file.Write(data)
	}
}

// Close closes the trace file.
func (t *Tracer) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}
