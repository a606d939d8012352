package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/core"
)

const expandPrompt = `Here are some research queries:

%s

Generate %d additional queries that explore closely related aspects not already covered.
Return one query per line with no numbering, bullets or commentary.`

// Expand grows queries to total entries by asking the model for related ones.
//
// The originals always come first. Generated queries are deduplicated and the
// list is capped at total. On any failure the originals are returned unchanged.
func (d *Dispatcher) Expand(ctx context.Context, queries []string, total int, opts core.Options) []string {
	missing := total - len(queries)
	if missing <= 0 || len(queries) == 0 || d == nil || d.Executor == nil {
		return queries
	}

	var listed strings.Builder
	for i, q := range queries {
		listed.WriteString(fmt.Sprintf("%d. %s\n", i+1, q))
	}

	callOpts := opts
	callOpts.Prompt = core.PromptRaw

	result, err := d.Executor.Execute(ctx, fmt.Sprintf(expandPrompt, strings.TrimRight(listed.String(), "\n"), missing), callOpts)
	if err != nil {
		d.logger().Warn("Failed to expand queries", zap.Error(err))
		return queries
	}
	if !result.OK() {
		d.logger().Warn("Failed to expand queries", zap.String("error", failureMessage(result)))
		return queries
	}

	out := make([]string, 0, total)
	seen := make(map[string]bool, total)
	for _, q := range queries {
		out = append(out, q)
		seen[normalizeQuery(q)] = true
	}
	for _, line := range strings.Split(result.Content, "\n") {
		if len(out) >= total {
			break
		}
		q := cleanGeneratedQuery(line)
		key := normalizeQuery(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}

	d.logger().Info("Expanded queries", zap.Int("original", len(queries)), zap.Int("total", len(out)))
	return out
}

// cleanGeneratedQuery strips list markers such as "3.", "-", "*" and quotes.
func cleanGeneratedQuery(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*•# \t")
	if i := strings.IndexAny(line, ".)"); i > 0 && i <= 3 && isDigits(line[:i]) {
		line = line[i+1:]
	}
	return strings.Trim(strings.TrimSpace(line), `"`)
}

func normalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
