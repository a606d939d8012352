package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/askp-cli/askp/internal/core"
	"github.com/askp-cli/askp/internal/costlog"
)

func sampleReport() *core.BatchReport {
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return core.NewBatchReport([]*core.QueryResult{
		{Index: 0, Query: "alpha", Content: "alpha body", Model: "sonar-pro", Tokens: 1200, Cost: 0.018},
	}, start, start.Add(2*time.Second))
}

func TestPresentSingleWritesBody(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := present(&stdout, &stderr, presentation{Report: sampleReport(), Format: core.FormatMarkdown})
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "# alpha")
	require.Contains(t, stdout.String(), "alpha body")
	require.Contains(t, stderr.String(), "1,200 tokens")
}

func TestPresentQuietWritesNothing(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := present(&stdout, &stderr, presentation{Report: sampleReport(), Format: core.FormatMarkdown, Quiet: true})
	require.NoError(t, err)
	require.Empty(t, stdout.String())
	require.Empty(t, stderr.String())
}

func TestPresentBatchView(t *testing.T) {
	path := filepath.Join(t.TempDir(), "combined.md")
	require.NoError(t, os.WriteFile(path, []byte("# Combined Query Results\n"), 0o600))

	var stdout, stderr bytes.Buffer
	err := present(&stdout, &stderr, presentation{
		Report:   sampleReport(),
		Artifact: &core.CombinedArtifact{Path: path, QueryCount: 1},
		Format:   core.FormatMarkdown,
		Multi:    true,
		View:     true,
	})
	require.NoError(t, err)
	require.Equal(t, "# Combined Query Results\n", stdout.String())
	require.Contains(t, stderr.String(), "1/1 succeeded")
	require.Contains(t, stderr.String(), "Combined results (1 queries)")
}

func TestWriteCostsTable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	summary := costlog.Summarize([]costlog.Entry{
		{Timestamp: now, Model: "sonar-pro", TokenCount: 1000, Cost: 0.015},
		{Timestamp: now.Add(time.Hour), Model: "sonar", TokenCount: 2000, Cost: 0.002},
	}, costlog.GroupByModel)

	var buf bytes.Buffer
	writeCostsTable(&buf, summary, costlog.GroupByModel)
	out := buf.String()
	require.Contains(t, out, "MODEL")
	require.Contains(t, out, "sonar-pro")
	require.Contains(t, out, "$0.0170")
	require.Contains(t, out, "3,000")
	require.Contains(t, out, "Total")

	buf.Reset()
	writeCostsTable(&buf, costlog.Summary{}, costlog.GroupByModel)
	require.Contains(t, buf.String(), "No cost entries")
}
