package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/observability"
)

// Writer persists results. It owns one mutex per combined-file path and holds
// it only across the file I/O for that path.
type Writer struct {
	dir      string
	format   core.Format
	renderer Renderer
	logger   observability.Logger
	now      func() time.Time

	mu      sync.Mutex
	locks   map[string]*sync.Mutex
	started map[string]bool
}

// NewWriter returns a writer that stores individual files under dir.
func NewWriter(dir string, format core.Format, logger observability.Logger) *Writer {
	return &Writer{
		dir:      dir,
		format:   format,
		renderer: NewRenderer(format),
		logger:   observability.OrNop(logger),
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		started:  make(map[string]bool),
	}
}

// Dir returns the individual-file directory.
func (w *Writer) Dir() string { return w.dir }

// Format returns the output format.
func (w *Writer) Format() core.Format { return w.format }

func (w *Writer) lockFor(path string) *sync.Mutex {
	key := filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.locks[key]
	if !ok {
		l = &sync.Mutex{}
		w.locks[key] = l
	}
	return l
}

func (w *Writer) isStarted(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.started[filepath.Clean(path)]
}

func (w *Writer) markStarted(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.started[filepath.Clean(path)] = true
}

// SaveIndividual writes result to {dir}/{index:03d}_{sanitized}.{ext}, where
// index is the 0-based slot and the file number is 1-based.
func (w *Writer) SaveIndividual(result *core.QueryResult, index int) (string, error) {
	if !result.OK() {
		return "", fmt.Errorf("refusing to save failed result for slot %d", index)
	}

	path := filepath.Join(w.dir, IndividualFilename(result.Query, index, w.format))
	body, err := w.renderer.RenderEntry(NewEntry(result, index))
	if err != nil {
		return "", fmt.Errorf("render result %d: %w", index+1, err)
	}
	if err := writeFile(path, []byte(body)); err != nil {
		return "", apperrors.WrapWrite(err, path)
	}
	return path, nil
}

// AppendCombined adds result to the live combined file at path.
//
// Markdown and text files get a header from the first successful append for
// the path, then one block per call. JSON files are loaded, extended and
// rewritten whole.
func (w *Writer) AppendCombined(result *core.QueryResult, index, total int, path string) (string, error) {
	if !result.OK() {
		return "", fmt.Errorf("refusing to append failed result for slot %d", index)
	}
	entry := NewEntry(result, index)

	lock := w.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	var err error
	if w.format == core.FormatJSON {
		err = w.appendJSON(path, entry)
	} else {
		err = w.appendBlock(path, entry, total)
	}
	if err != nil {
		return "", apperrors.WrapWrite(err, path)
	}
	w.markStarted(path)
	return path, nil
}

func (w *Writer) appendBlock(path string, entry Entry, total int) error {
	first := !w.isStarted(path)

	chunk := w.renderer.Block(entry)
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if first {
		chunk = w.renderer.Header(total) + chunk
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	if err := ensureParent(path); err != nil {
		return err
	}
	// #nosec G302,G304 -- output path is chosen by the user
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(chunk); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *Writer) appendJSON(path string, entry Entry) error {
	doc := &Document{
		Type:     DocumentMultiQuery,
		Metadata: Metadata{Timestamp: w.now().Format(time.RFC3339)},
		Results:  []Entry{},
	}

	if w.isStarted(path) {
		// #nosec G304 -- output path is chosen by the user
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			var existing Document
			if jsonErr := json.Unmarshal(data, &existing); jsonErr == nil {
				doc = &existing
			} else {
				w.logger.Warn("Combined JSON unreadable, starting fresh", zap.String("path", path), zap.Error(jsonErr))
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return err
		}
	}

	doc.Results = append(doc.Results, entry)
	doc.Metadata.QueryCount = len(doc.Results)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(path, append(data, '\n'))
}

// WriteArtifact replaces the file at path with body under the path's lock.
func (w *Writer) WriteArtifact(path string, body []byte) error {
	lock := w.lockFor(path)
	lock.Lock()
	defer lock.Unlock()

	if err := writeFile(path, body); err != nil {
		return apperrors.WrapWrite(err, path)
	}
	return nil
}

func ensureParent(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	// #nosec G301 -- output directories use 0755 for multi-user access compatibility
	return os.MkdirAll(dir, 0755)
}

func writeFile(path string, data []byte) error {
	if err := ensureParent(path); err != nil {
		return err
	}
	// #nosec G306 -- result files are meant to be readable
	return os.WriteFile(path, data, 0644)
}
