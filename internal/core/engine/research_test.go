package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
)

func replying(content string) *stubExecutor {
	return &stubExecutor{respond: func(q string) (*core.QueryResult, error) {
		return &core.QueryResult{Query: q, Content: content, Tokens: 50, Cost: 0.00005}, nil
	}}
}

func failing() *stubExecutor {
	return &stubExecutor{respond: func(q string) (*core.QueryResult, error) {
		return core.Failure(0, q, apperrors.WrapTransport(fmt.Errorf("connection refused"), q)), nil
	}}
}

func TestPlanResearchParsesEmbeddedJSON(t *testing.T) {
	reply := "Here is the plan:\n```json\n" + `{
  "overview": "How quantum computing affects cryptography",
  "research_queries": ["Shor's algorithm and RSA", "  ", "Post-quantum standards", "Shor's algorithm and RSA"]
}` + "\n```\nGood luck."

	exec := replying(reply)
	d := &Dispatcher{Executor: exec}

	plan := d.PlanResearch(context.Background(), "quantum cryptography", testOptions())
	require.Equal(t, "quantum cryptography", plan.Topic)
	require.Equal(t, "How quantum computing affects cryptography", plan.Overview)
	require.Equal(t, []string{"Shor's algorithm and RSA", "Post-quantum standards"}, plan.Queries())
	require.Equal(t, "Section 2: Post-quantum standards", plan.Sections[1].Title)
	require.Equal(t, 1, exec.calls())
	require.Contains(t, exec.seen[0], `"quantum cryptography"`)
}

func TestPlanResearchFallsBack(t *testing.T) {
	tests := []struct {
		name string
		exec *stubExecutor
	}{
		{name: "no json", exec: replying("I cannot help with that.")},
		{name: "broken json", exec: replying(`{"overview": "x", "research_queries": [`)},
		{name: "empty queries", exec: replying(`{"overview": "x", "research_queries": []}`)},
		{name: "transport failure", exec: failing()},
		{name: "usage error", exec: &stubExecutor{respond: func(string) (*core.QueryResult, error) {
			return nil, apperrors.NewUsage("blocked")
		}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dispatcher{Executor: tt.exec}
			plan := d.PlanResearch(context.Background(), " topic ", testOptions())
			require.Equal(t, "topic", plan.Overview)
			require.Equal(t, []core.PlanSection{{Title: "topic", Query: "topic"}}, plan.Sections)
		})
	}
}

func TestSynthesizeBuildsOverviewAndConclusion(t *testing.T) {
	exec := &stubExecutor{respond: func(q string) (*core.QueryResult, error) {
		content := "conclusion text"
		if strings.Contains(q, "opening of a research report") {
			content = "overview text"
		}
		return &core.QueryResult{Query: q, Content: content, Tokens: 200, Cost: 0.0002}, nil
	}}
	d := &Dispatcher{Executor: exec}

	report := core.NewBatchReport([]*core.QueryResult{
		{Query: "section a", Content: "alpha findings", Tokens: 100, Cost: 0.0001},
		core.Failure(1, "section b", apperrors.WrapTransport(fmt.Errorf("timeout"), "section b")),
		{Index: 2, Query: "section c", Content: "gamma findings", Tokens: 100, Cost: 0.0001},
	}, testClockStart, testClockStart.Add(2e9))

	syn := d.Synthesize(context.Background(), "topic", report, testOptions())
	require.NotNil(t, syn)
	require.Equal(t, "overview text", syn.Overview.Content)
	require.Equal(t, "Overview", syn.Overview.Query)
	require.Equal(t, "conclusion text", syn.Conclusion.Content)
	require.Equal(t, 2, exec.calls())

	require.Contains(t, exec.seen[0], "alpha findings")
	require.Contains(t, exec.seen[0], "gamma findings")
	require.NotContains(t, exec.seen[0], "section b")

	totals := report.Totals(syn)
	require.Equal(t, 600, totals.Tokens)
	require.InDelta(t, 0.0006, totals.Cost, 1e-12)
	require.Equal(t, 2, totals.Count)
}

func TestSynthesizeIsBestEffort(t *testing.T) {
	report := core.NewBatchReport([]*core.QueryResult{
		{Query: "a", Content: "x", Tokens: 1},
	}, testClockStart, testClockStart)

	d := &Dispatcher{Executor: failing()}
	require.Nil(t, d.Synthesize(context.Background(), "topic", report, testOptions()))

	empty := core.NewBatchReport([]*core.QueryResult{core.Failure(0, "a", nil)}, testClockStart, testClockStart)
	exec := replying("unused")
	d = &Dispatcher{Executor: exec}
	require.Nil(t, d.Synthesize(context.Background(), "topic", empty, testOptions()))
	require.Zero(t, exec.calls())
}

func TestExpandAddsRelatedQueries(t *testing.T) {
	reply := "1. Rust async runtimes\n- Go goroutines\n\n* go goroutines\n\"Python asyncio internals\"\nExtra query beyond total"
	exec := replying(reply)
	d := &Dispatcher{Executor: exec}

	got := d.Expand(context.Background(), []string{"Go goroutines", "Erlang processes"}, 4, testOptions())
	require.Equal(t, []string{"Go goroutines", "Erlang processes", "Rust async runtimes", "Python asyncio internals"}, got)
	require.Contains(t, exec.seen[0], "Generate 2 additional queries")
}

func TestExpandFallsBackToOriginals(t *testing.T) {
	originals := []string{"a", "b"}

	d := &Dispatcher{Executor: failing()}
	require.Equal(t, originals, d.Expand(context.Background(), originals, 5, testOptions()))

	exec := replying("c")
	d = &Dispatcher{Executor: exec}
	require.Equal(t, originals, d.Expand(context.Background(), originals, 2, testOptions()))
	require.Zero(t, exec.calls())
}

func TestCleanGeneratedQuery(t *testing.T) {
	tests := map[string]string{
		"3. What is X?":      "What is X?",
		"10) Follow-up":      "Follow-up",
		"- bullet item":      "bullet item",
		"U.S. policy trends": "U.S. policy trends",
		`  "quoted"  `:       "quoted",
		"":                   "",
	}
	for in, want := range tests {
		require.Equal(t, want, cleanGeneratedQuery(in), in)
	}
}
