package core

import "time"

// BatchReport aggregates one dispatcher run.
//
// Results has one slot per requested query in submission order; failed slots keep
// their error result and are excluded from every total.
type BatchReport struct {
	Results          []*QueryResult `json:"results"`
	Requested        int            `json:"requested"`
	SuccessCount     int            `json:"success_count"`
	TotalTokens      int            `json:"total_tokens"`
	TotalCost        float64        `json:"total_cost"`
	ElapsedSeconds   float64        `json:"elapsed_seconds"`
	QueriesPerSecond float64        `json:"queries_per_second"`
	StartedAt        time.Time      `json:"started_at"`
	FinishedAt       time.Time      `json:"finished_at"`
}

// NewBatchReport computes statistics over slots.
func NewBatchReport(slots []*QueryResult, startedAt, finishedAt time.Time) *BatchReport {
	report := &BatchReport{
		Results:    slots,
		Requested:  len(slots),
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
	}
	for _, r := range slots {
		if !r.OK() {
			continue
		}
		report.SuccessCount++
		report.TotalTokens += r.Tokens
		report.TotalCost += r.Cost
	}

	elapsed := finishedAt.Sub(startedAt).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	report.ElapsedSeconds = elapsed
	if elapsed > 0 {
		report.QueriesPerSecond = float64(report.SuccessCount) / elapsed
	}
	return report
}

// Succeeded returns successful results in submission order.
func (r *BatchReport) Succeeded() []*QueryResult {
	if r == nil {
		return nil
	}
	out := make([]*QueryResult, 0, r.SuccessCount)
	for _, res := range r.Results {
		if res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// Failed returns the failed slots in submission order.
func (r *BatchReport) Failed() []*QueryResult {
	if r == nil {
		return nil
	}
	out := make([]*QueryResult, 0)
	for _, res := range r.Results {
		if res != nil && !res.OK() {
			out = append(out, res)
		}
	}
	return out
}

// AnySucceeded reports whether the batch produced at least one usable result.
func (r *BatchReport) AnySucceeded() bool {
	return r != nil && r.SuccessCount > 0
}

// Partial reports a batch with both successes and failures.
func (r *BatchReport) Partial() bool {
	return r != nil && r.SuccessCount > 0 && r.SuccessCount < r.Requested
}

// Synthesis wraps the optional deep-research overview and conclusion.
type Synthesis struct {
	Overview   *QueryResult `json:"overview,omitempty"`
	Conclusion *QueryResult `json:"conclusion,omitempty"`
}

// Totals are aggregate token and cost sums.
type Totals struct {
	Count  int     `json:"count"`
	Tokens int     `json:"tokens"`
	Cost   float64 `json:"cost"`
}

// Totals returns batch totals adjusted by any successful synthesis calls.
func (r *BatchReport) Totals(syn *Synthesis) Totals {
	t := Totals{}
	if r != nil {
		t = Totals{Count: r.SuccessCount, Tokens: r.TotalTokens, Cost: r.TotalCost}
	}
	if syn == nil {
		return t
	}
	for _, extra := range []*QueryResult{syn.Overview, syn.Conclusion} {
		if extra.OK() {
			t.Tokens += extra.Tokens
			t.Cost += extra.Cost
		}
	}
	return t
}

// PlanSection is one focused query in a research plan.
type PlanSection struct {
	Title string `json:"title"`
	Query string `json:"query"`
}

// ResearchPlan breaks a topic into sections for deep mode.
type ResearchPlan struct {
	Topic    string        `json:"topic"`
	Overview string        `json:"overview"`
	Sections []PlanSection `json:"sections"`
}

// Titles returns the section titles in plan order.
func (p *ResearchPlan) Titles() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		out = append(out, s.Title)
	}
	return out
}

// Queries returns the section queries in plan order.
func (p *ResearchPlan) Queries() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		out = append(out, s.Query)
	}
	return out
}

// CombinedArtifact describes the merged output file.
type CombinedArtifact struct {
	Path       string `json:"path"`
	Format     Format `json:"format"`
	QueryCount int    `json:"query_count"`
	Bytes      int    `json:"bytes"`
	Deep       bool   `json:"deep"`
}
