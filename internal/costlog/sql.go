package costlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/askp-cli/askp/internal/config"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS cost_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query_id TEXT NOT NULL,
		model TEXT NOT NULL,
		token_count INTEGER NOT NULL,
		cost REAL NOT NULL,
		project TEXT,
		logged_at INTEGER NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_cost_log_logged_at ON cost_log(logged_at);`,
}

// SQL stores cost entries in a libsql database.
type SQL struct {
	DB      *sql.DB
	project string
}

// OpenSQL connects to the configured libsql database and migrates it.
func OpenSQL(ctx context.Context, cfg config.CostLogConfig) (*SQL, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	dsn, err := buildLibsqlDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(DriverLibsql, dsn)
	if err != nil {
		return nil, fmt.Errorf("open libsql cost log: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping libsql cost log: %w", err)
	}

	s := &SQL{DB: db, project: cfg.Project}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate ensures the cost_log table exists.
func (s *SQL) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("cost log store is not initialized")
	}
	for _, stmt := range schemaStatements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("cost log migration failed: %w", err)
		}
	}
	return nil
}

// Record inserts one entry.
func (s *SQL) Record(ctx context.Context, entry Entry) error {
	if s == nil || s.DB == nil {
		return errors.New("cost log store is not initialized")
	}
	entry = normalize(entry, s.project)
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO cost_log (query_id, model, token_count, cost, project, logged_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.QueryID, entry.Model, entry.TokenCount, entry.Cost, entry.Project, entry.Timestamp.UTC().UnixNano())
	if err != nil {
		return fmt.Errorf("insert cost entry: %w", err)
	}
	return nil
}

// Entries returns entries logged at or after since, oldest first.
func (s *SQL) Entries(ctx context.Context, since time.Time) ([]Entry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("cost log store is not initialized")
	}

	var sinceNanos int64
	if !since.IsZero() {
		sinceNanos = since.UTC().UnixNano()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT query_id, model, token_count, cost, COALESCE(project, ''), logged_at
		FROM cost_log
		WHERE logged_at >= ?
		ORDER BY logged_at ASC, id ASC
	`, sinceNanos)
	if err != nil {
		return nil, fmt.Errorf("query cost log: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	var entries []Entry
	for rows.Next() {
		var (
			entry    Entry
			loggedAt int64
		)
		if err := rows.Scan(&entry.QueryID, &entry.Model, &entry.TokenCount, &entry.Cost, &entry.Project, &loggedAt); err != nil {
			return nil, fmt.Errorf("scan cost entry: %w", err)
		}
		entry.Timestamp = time.Unix(0, loggedAt).UTC()
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cost log: %w", err)
	}
	return entries, nil
}

// Close releases database resources.
func (s *SQL) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func buildLibsqlDSN(cfg config.CostLogConfig) (string, error) {
	if dsn := strings.TrimSpace(cfg.URL); dsn != "" {
		return addAuthToken(dsn, cfg.AuthToken)
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return "", errors.New("cost log path or url is required")
	}

	if path == ":memory:" || strings.HasPrefix(path, "libsql:") {
		return path, nil
	}

	if strings.HasPrefix(path, "file:") {
		localPath, err := extractFilePath(path)
		if err != nil {
			return "", err
		}
		if err := ensureDir(localPath); err != nil {
			return "", err
		}
		return path, nil
	}

	if err := ensureDir(path); err != nil {
		return "", err
	}
	return "file:" + filepath.Clean(path), nil
}

func addAuthToken(dsn string, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return dsn, nil
	}

	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid cost log url: %w", err)
	}

	query := parsed.Query()
	if query.Get("authToken") == "" {
		query.Set("authToken", token)
		parsed.RawQuery = query.Encode()
	}

	return parsed.String(), nil
}

func extractFilePath(dsn string) (string, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid cost log path: %w", err)
	}

	if parsed.Path != "" {
		return strings.TrimPrefix(parsed.Path, "//"), nil
	}

	return strings.TrimPrefix(parsed.Opaque, "//"), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(filepath.Clean(path))
	if dir == "." || dir == string(filepath.Separator) {
		return nil
	}

	// #nosec G301 -- data directories use 0755 for multi-user access compatibility
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create cost log directory: %w", err)
	}
	return nil
}
