package core

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/askp-cli/askp/internal/errors"
)

func validOptions() Options {
	return Options{Model: "sonar-pro", Temperature: 0.7, TokenMax: 8192, MaxParallel: DefaultMaxParallel}
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, validOptions().Validate())

	cases := []struct {
		name   string
		mutate func(*Options)
	}{
		{name: "conflicting reasoning", mutate: func(o *Options) { o.Reasoning, o.ProReasoning = true, true }},
		{name: "negative temperature", mutate: func(o *Options) { o.Temperature = -0.1 }},
		{name: "temperature above one", mutate: func(o *Options) { o.Temperature = 1.01 }},
		{name: "zero tokens", mutate: func(o *Options) { o.TokenMax = 0 }},
		{name: "zero parallel", mutate: func(o *Options) { o.MaxParallel = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := validOptions()
			tc.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			require.True(t, apperrors.IsUsage(err))
		})
	}

	opts := validOptions()
	opts.MaxParallel = 0
	require.NoError(t, opts.ValidateRequest())
}

func TestNewBatchReport(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	slots := []*QueryResult{
		{Query: "a", Tokens: 100, Cost: 0.1},
		Failure(1, "b", apperrors.WrapTransport(errors.New("boom"), "b")),
		{Query: "c", Tokens: 300, Cost: 0.3},
		nil,
	}

	report := NewBatchReport(slots, start, start.Add(4*time.Second))
	require.Equal(t, 4, report.Requested)
	require.Equal(t, 2, report.SuccessCount)
	require.Equal(t, 400, report.TotalTokens)
	require.InDelta(t, 0.4, report.TotalCost, 1e-9)
	require.InDelta(t, 4.0, report.ElapsedSeconds, 1e-9)
	require.InDelta(t, 0.5, report.QueriesPerSecond, 1e-9)
	require.True(t, report.Partial())
	require.True(t, report.AnySucceeded())

	succeeded := report.Succeeded()
	require.Len(t, succeeded, 2)
	require.Equal(t, "a", succeeded[0].Query)
	require.Equal(t, "c", succeeded[1].Query)

	failed := report.Failed()
	require.Len(t, failed, 1)
	require.Equal(t, apperrors.KindTransport, failed[0].Err.Kind)
}

func TestNewBatchReportZeroElapsed(t *testing.T) {
	now := time.Now()
	report := NewBatchReport([]*QueryResult{{Query: "a", Tokens: 1}}, now, now)
	require.Zero(t, report.QueriesPerSecond)
	require.False(t, report.Partial())
}

func TestTotalsIncludeSynthesis(t *testing.T) {
	now := time.Now()
	report := NewBatchReport([]*QueryResult{{Query: "a", Tokens: 100, Cost: 0.1}}, now, now)
	syn := &Synthesis{
		Overview:   &QueryResult{Tokens: 10, Cost: 0.01},
		Conclusion: Failure(0, "c", apperrors.WrapTransport(errors.New("x"), "c")),
	}

	totals := report.Totals(syn)
	require.Equal(t, 1, totals.Count)
	require.Equal(t, 110, totals.Tokens)
	require.InDelta(t, 0.11, totals.Cost, 1e-9)

	require.Equal(t, Totals{Count: 1, Tokens: 100, Cost: 0.1}, report.Totals(nil))
}

func TestFailureDefaultsToTransport(t *testing.T) {
	r := Failure(2, "q", errors.New("plain"))
	require.False(t, r.OK())
	require.Equal(t, apperrors.KindTransport, r.Err.Kind)
	require.Equal(t, 2, r.Index)
}

func TestOptionsSectionTitle(t *testing.T) {
	opts := Options{SectionTitles: []string{"Section 1: a", "  "}}
	require.Equal(t, "Section 1: a", opts.SectionTitle(0, "a"))
	require.Equal(t, "b", opts.SectionTitle(1, "b"))
	require.Equal(t, "c", opts.SectionTitle(2, "c"))
	require.Equal(t, "d", Options{}.SectionTitle(0, "d"))
}

func TestResearchPlanQueries(t *testing.T) {
	plan := &ResearchPlan{Sections: []PlanSection{{Title: "A", Query: "qa"}, {Title: "B", Query: "qb"}}}
	require.Equal(t, []string{"qa", "qb"}, plan.Queries())
	require.Nil(t, (*ResearchPlan)(nil).Queries())
	require.Equal(t, []string{"A", "B"}, plan.Titles())
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)
	require.Equal(t, "json", format.Extension())

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatMarkdown, format)
	require.Equal(t, "md", format.Extension())

	format, err = ParseFormat("txt")
	require.NoError(t, err)
	require.Equal(t, FormatText, format)
	require.Equal(t, "txt", format.Extension())

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestParsePromptStyle(t *testing.T) {
	style, err := ParsePromptStyle(" Dense ")
	require.NoError(t, err)
	require.Equal(t, PromptDense, style)

	style, err = ParsePromptStyle("")
	require.NoError(t, err)
	require.Equal(t, PromptRaw, style)

	_, err = ParsePromptStyle("pirate")
	require.Error(t, err)
}
