package output

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askp-cli/askp/internal/core"
)

var fixedNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"what is go?":  "what_is_go_",
		"???":          "query",
		"":             "query",
		"naïve bayes":  "naïve_bayes",
		"a/b\\c:d*e|f": "a_b_c_d_e_f",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeFilename(in), in)
	}

	long := SanitizeFilename("this query is definitely longer than fifty characters in total")
	require.Len(t, []rune(long), 50)
}

func TestIndividualFilename(t *testing.T) {
	require.Equal(t, "001_what_is_go_.md", IndividualFilename("what is go?", 0, core.FormatMarkdown))
	require.Equal(t, "012_rust.json", IndividualFilename("rust", 11, core.FormatJSON))
	require.Equal(t, "003_x.txt", IndividualFilename("x", 2, core.FormatText))
}

func TestCombinedFilename(t *testing.T) {
	cases := []struct {
		name    string
		queries []string
		format  core.Format
		deep    bool
		want    string
	}{
		{name: "single", queries: []string{"how does Go's GC work?"}, format: core.FormatMarkdown, want: "how_does_Gos_GC_work_20260102-030405.md"},
		{name: "multi with hint", queries: []string{"python async patterns", "rust"}, format: core.FormatJSON, want: "queries_2_python_async_pattern_20260102-030405.json"},
		{name: "multi stopwords only", queries: []string{"What is the capital", "b", "c"}, format: core.FormatText, want: "queries_3_20260102-030405.txt"},
		{name: "multi hint trimmed", queries: []string{"kubernetes operators reconciliation", "b"}, format: core.FormatMarkdown, want: "queries_2_kubernetes_operators_20260102-030405.md"},
		{name: "deep", queries: []string{"quantum error correction"}, format: core.FormatMarkdown, deep: true, want: "deep_research_quantum_error_correction_20260102-030405.md"},
		{name: "empty single", queries: []string{"?!"}, format: core.FormatMarkdown, want: "query_20260102-030405.md"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CombinedFilename(tc.queries, tc.format, tc.deep, fixedNow))
		})
	}
}

func TestResolveCombinedPath(t *testing.T) {
	require.Equal(t, filepath.Join("out", "report.json"), ResolveCombinedPath(filepath.Join("out", "report.txt"), "ignored", nil, core.FormatJSON, false, fixedNow))
	require.Equal(t, "report.md", ResolveCombinedPath("report", "ignored", nil, core.FormatMarkdown, false, fixedNow))
	require.Equal(t, "report.MD", ResolveCombinedPath("report.MD", "ignored", nil, core.FormatMarkdown, false, fixedNow))
	require.Equal(t, filepath.Join("results", "a_20260102-030405.md"), ResolveCombinedPath("", "results", []string{"a"}, core.FormatMarkdown, false, fixedNow))
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"What's new in Go 1.22?": "what-s-new-in-go-1-22",
		"  Leading and trailing ": "leading-and-trailing",
		"a -- b":                  "a-b",
		"???":                     "",
	}
	for in, want := range cases {
		require.Equal(t, want, Slug(in), in)
	}
}
