package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
)

func okResult(query, content string, tokens int) *core.QueryResult {
	return &core.QueryResult{
		ID:      "id-" + query,
		Query:   query,
		Content: content,
		Model:   "sonar-pro",
		Tokens:  tokens,
		Cost:    float64(tokens) / 1_000_000 * 15,
	}
}

func TestSaveIndividual(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	w := NewWriter(dir, core.FormatMarkdown, nil)

	path, err := w.SaveIndividual(okResult("what is go?", "Go is a language.", 100), 0)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "001_what_is_go_.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# what is go?")
	require.Contains(t, string(data), "Go is a language.")
}

func TestSaveIndividualJSON(t *testing.T) {
	w := NewWriter(t.TempDir(), core.FormatJSON, nil)
	result := okResult("rust", "Rust is a language.", 10)
	result.Citations = []string{"https://rust-lang.org"}

	path, err := w.SaveIndividual(result, 4)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "005_rust.json"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var entry Entry
	require.NoError(t, json.Unmarshal(data, &entry))
	require.Equal(t, 5, entry.QueryIndex)
	require.Equal(t, "Rust is a language.", entry.Content)
	require.Equal(t, []string{"https://rust-lang.org"}, entry.Citations)
}

func TestSaveIndividualReportsWriteError(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	w := NewWriter(blocker, core.FormatText, nil)
	_, err := w.SaveIndividual(okResult("a", "body", 1), 0)
	require.Error(t, err)
	require.Equal(t, apperrors.KindWrite, apperrors.KindOf(err))

	sibling := NewWriter(filepath.Join(filepath.Dir(blocker), "ok"), core.FormatText, nil)
	_, err = sibling.SaveIndividual(okResult("b", "body", 1), 1)
	require.NoError(t, err)
}

func TestSaveIndividualRejectsFailedResult(t *testing.T) {
	w := NewWriter(t.TempDir(), core.FormatMarkdown, nil)
	_, err := w.SaveIndividual(core.Failure(0, "a", apperrors.WrapTransport(fmt.Errorf("x"), "a")), 0)
	require.Error(t, err)
}

func TestAppendCombinedConcurrentMarkdown(t *testing.T) {
	for _, workers := range []int{1, 5, 20} {
		t.Run(fmt.Sprintf("K=%d", workers), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "combined.md")
			w := NewWriter(filepath.Dir(path), core.FormatMarkdown, nil)

			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					content := strings.Repeat(fmt.Sprintf("line %d of worker %d\n", i, i), 50)
					_, err := w.AppendCombined(okResult(fmt.Sprintf("query-%d", i), content, 10), i, workers, path)
					assert.NoError(t, err)
				}(i)
			}
			wg.Wait()

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			text := string(data)

			header := fmt.Sprintf("# Combined Results (%d queries requested)\n\n", workers)
			require.True(t, strings.HasPrefix(text, header))
			require.Equal(t, 1, strings.Count(text, "# Combined Results"))
			require.Equal(t, workers, strings.Count(text, "## Query "))

			renderer := &MarkdownRenderer{}
			for i := 0; i < workers; i++ {
				content := strings.Repeat(fmt.Sprintf("line %d of worker %d\n", i, i), 50)
				block := renderer.Block(NewEntry(okResult(fmt.Sprintf("query-%d", i), content, 10), i))
				require.Equal(t, 1, strings.Count(text, block), "block %d must appear whole exactly once", i)
			}
		})
	}
}

func TestAppendCombinedHeaderFromFirstSuccessfulAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale content from an earlier run\n"), 0o644))

	w := NewWriter(filepath.Dir(path), core.FormatText, nil)
	_, err := w.AppendCombined(okResult("third", "c", 1), 2, 3, path)
	require.NoError(t, err)
	_, err = w.AppendCombined(okResult("first", "a", 1), 0, 3, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	require.True(t, strings.HasPrefix(text, "Combined Results (3 queries requested)\n\n"))
	require.NotContains(t, text, "stale")
	require.Less(t, strings.Index(text, "Query 3: third"), strings.Index(text, "Query 1: first"))
}

func TestAppendCombinedConcurrentJSON(t *testing.T) {
	const workers = 20
	path := filepath.Join(t.TempDir(), "combined.json")
	w := NewWriter(filepath.Dir(path), core.FormatJSON, nil)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := w.AppendCombined(okResult(fmt.Sprintf("q%d", i), fmt.Sprintf("content %d", i), 10), i, workers, path)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Results, workers)
	require.Equal(t, workers, doc.Metadata.QueryCount)

	seen := make(map[int]bool)
	for _, e := range doc.Results {
		require.Equal(t, fmt.Sprintf("content %d", e.QueryIndex-1), e.Content)
		seen[e.QueryIndex] = true
	}
	require.Len(t, seen, workers)
}

func TestWriteArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "final.md")
	w := NewWriter(t.TempDir(), core.FormatMarkdown, nil)
	require.NoError(t, w.WriteArtifact(path, []byte("body")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "body", string(data))
}
