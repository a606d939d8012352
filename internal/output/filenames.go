package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/askp-cli/askp/internal/core"
)

const (
	maxSanitizedLength = 50
	maxCleanLength     = 40
	maxHintLength      = 20
	timestampLayout    = "20060102-150405"
)

var hintStopwords = map[string]bool{
	"what": true, "is": true, "the": true, "a": true, "an": true, "in": true,
	"of": true, "to": true, "for": true, "and": true, "or": true, "capital": true,
}

// SanitizeFilename replaces every non-alphanumeric rune with an underscore and
// truncates to 50 runes. Queries with no usable characters become "query".
func SanitizeFilename(q string) string {
	runes := make([]rune, 0, len(q))
	for _, r := range q {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			runes = append(runes, r)
		} else {
			runes = append(runes, '_')
		}
	}
	if strings.Trim(string(runes), "_") == "" {
		return "query"
	}
	if len(runes) > maxSanitizedLength {
		runes = runes[:maxSanitizedLength]
	}
	return string(runes)
}

// IndividualFilename names the per-query file for the 0-based slot index.
func IndividualFilename(query string, index int, format core.Format) string {
	return fmt.Sprintf("%03d_%s.%s", index+1, SanitizeFilename(query), format.Extension())
}

// CombinedFilename derives the combined artifact name from the batch queries.
func CombinedFilename(queries []string, format core.Format, deep bool, now time.Time) string {
	ts := now.Format(timestampLayout)
	ext := format.Extension()

	if deep {
		topic := ""
		if len(queries) > 0 {
			topic = queries[0]
		}
		return fmt.Sprintf("deep_research_%s_%s.%s", cleanName(topic), ts, ext)
	}

	if len(queries) == 1 {
		return fmt.Sprintf("%s_%s.%s", cleanName(queries[0]), ts, ext)
	}

	if len(queries) > 1 {
		if hint := queryHint(queries[0]); hint != "" {
			return fmt.Sprintf("queries_%d_%s_%s.%s", len(queries), hint, ts, ext)
		}
	}
	return fmt.Sprintf("queries_%d_%s.%s", len(queries), ts, ext)
}

// ResolveCombinedPath returns the artifact path: the explicit path with its
// extension matched to format, or a derived name under dir.
func ResolveCombinedPath(explicit, dir string, queries []string, format core.Format, deep bool, now time.Time) string {
	if strings.TrimSpace(explicit) != "" {
		return WithExtension(explicit, format)
	}
	return filepath.Join(dir, CombinedFilename(queries, format, deep, now))
}

// WithExtension replaces path's extension with the one for format.
func WithExtension(path string, format core.Format) string {
	want := "." + format.Extension()
	ext := filepath.Ext(path)
	if strings.EqualFold(ext, want) {
		return path
	}
	return strings.TrimSuffix(path, ext) + want
}

// FormatPath shortens path for display: relative to the working directory
// when inside it, otherwise with the home directory replaced by "~".
func FormatPath(path string) string {
	if cwd, err := os.Getwd(); err == nil {
		if rel, err := filepath.Rel(cwd, path); err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return rel
		}
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" && strings.HasPrefix(path, home+string(filepath.Separator)) {
		return "~" + strings.TrimPrefix(path, home)
	}
	return path
}

// cleanWords keeps word characters, spaces and hyphens, then joins words with underscores.
func cleanWords(s string, max int) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || unicode.IsSpace(r) {
			sb.WriteRune(r)
		}
	}
	cleaned := strings.Join(strings.Fields(sb.String()), "_")
	runes := []rune(cleaned)
	if len(runes) > max {
		runes = runes[:max]
	}
	return string(runes)
}

func cleanName(s string) string {
	if c := cleanWords(s, maxCleanLength); c != "" {
		return c
	}
	return "query"
}

func queryHint(q string) string {
	fields := strings.Fields(q)
	if len(fields) > 3 {
		fields = fields[:3]
	}
	var words []string
	seen := make(map[string]bool)
	for _, w := range fields {
		w = cleanWords(w, maxHintLength)
		if w == "" || hintStopwords[strings.ToLower(w)] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	hint := []rune(strings.Join(words, "_"))
	if len(hint) > maxHintLength {
		hint = hint[:maxHintLength]
	}
	return string(hint)
}
