package costlog

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// JSONL is an append-only JSON-lines cost log.
//
// Writers in the same process serialize on mu; separate processes serialize on
// an advisory lock taken on the file itself.
type JSONL struct {
	path    string
	project string
	mu      sync.Mutex
}

// NewJSONL returns a log that appends to path.
func NewJSONL(path, project string) *JSONL {
	return &JSONL{path: path, project: project}
}

// Path returns the log file location.
func (l *JSONL) Path() string {
	return l.path
}

// Record appends one entry as a single line.
func (l *JSONL) Record(_ context.Context, entry Entry) error {
	entry = normalize(entry, l.project)
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode cost entry: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("create cost log directory: %w", err)
	}

	// #nosec G302,G304 -- path comes from user configuration
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open cost log: %w", err)
	}
	defer f.Close() // nolint:errcheck // best-effort cleanup

	if err := lockFile(f); err != nil {
		return fmt.Errorf("lock cost log: %w", err)
	}
	defer unlockFile(f) // nolint:errcheck // released on close regardless

	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("write cost log: %w", err)
	}
	return nil
}

// Entries reads the log, skipping lines that do not decode.
func (l *JSONL) Entries(_ context.Context, since time.Time) ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := os.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cost log: %w", err)
	}

	var entries []Entry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if !since.IsZero() && entry.Timestamp.Before(since) {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan cost log: %w", err)
	}
	return entries, nil
}

// Close is a no-op; the file is opened per write.
func (l *JSONL) Close() error {
	return nil
}
