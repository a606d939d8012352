// Package costlog records per-query spend and summarizes it.
//
// Two backends are supported: an append-only JSON-lines file guarded by an
// advisory file lock, and a libsql table for users who already keep a local
// or Turso database.
package costlog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/askp-cli/askp/internal/config"
)

const (
	DriverJSONL  = "jsonl"
	DriverLibsql = "libsql"
)

// Entry is one completed query in the cost log.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Model      string    `json:"model"`
	TokenCount int       `json:"token_count"`
	Cost       float64   `json:"cost"`
	QueryID    string    `json:"query_id"`
	Project    string    `json:"project,omitempty"`
}

// Recorder appends entries to the log.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Log is a readable, closable cost log.
type Log interface {
	Recorder
	// Entries returns entries with Timestamp at or after since, oldest first.
	Entries(ctx context.Context, since time.Time) ([]Entry, error)
	Close() error
}

// Open returns the log selected by cfg. A disabled log is a no-op.
func Open(ctx context.Context, cfg config.CostLogConfig) (Log, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverJSONL
	}

	switch driver {
	case DriverJSONL:
		path := strings.TrimSpace(cfg.Path)
		if path == "" {
			path = config.DefaultCostLogPath()
		}
		return NewJSONL(path, cfg.Project), nil
	case DriverLibsql:
		return OpenSQL(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported cost log driver: %s", cfg.Driver)
	}
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }

func (Nop) Entries(context.Context, time.Time) ([]Entry, error) { return nil, nil }

func (Nop) Close() error { return nil }

func normalize(entry Entry, project string) Entry {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Project == "" {
		entry.Project = project
	}
	return entry
}
