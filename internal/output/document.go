package output

import (
	"time"

	"github.com/askp-cli/askp/internal/core"
)

const (
	DocumentMultiQuery   = "multi_query"
	DocumentDeepResearch = "deep_research"
)

// Document is the format-independent view of a combined artifact.
// The JSON encoding is the full structure; markdown and text are derived from it.
type Document struct {
	Type       string    `json:"type"`
	Metadata   Metadata  `json:"metadata"`
	Overview   string    `json:"overview,omitempty"`
	Sections   []Section `json:"sections,omitempty"`
	Results    []Entry   `json:"results"`
	Conclusion string    `json:"conclusion,omitempty"`
	Summary    *Summary  `json:"summary,omitempty"`
}

// Metadata describes the document as a whole.
type Metadata struct {
	QueryCount int    `json:"query_count"`
	Timestamp  string `json:"timestamp"`
}

// Entry is one successful query. QueryIndex is the 1-based submission position.
type Entry struct {
	QueryIndex     int      `json:"query_index"`
	Query          string   `json:"query"`
	Content        string   `json:"content"`
	Citations      []string `json:"citations,omitempty"`
	Model          string   `json:"model"`
	Tokens         int      `json:"tokens"`
	Cost           float64  `json:"cost"`
	ElapsedSeconds float64  `json:"elapsed_seconds"`
	ID             string   `json:"id"`
	SavedPath      string   `json:"saved_path,omitempty"`
}

// Section is a table-of-contents entry for deep documents.
type Section struct {
	QueryIndex int    `json:"query_index"`
	Title      string `json:"title"`
	Anchor     string `json:"anchor"`
}

// sectionTitle returns the heading for the i-th result of a deep document.
func (d *Document) sectionTitle(i int) string {
	if i < len(d.Sections) && d.Sections[i].QueryIndex == d.Results[i].QueryIndex {
		return d.Sections[i].Title
	}
	return d.Results[i].Query
}

// Summary is the footer statistics block.
type Summary struct {
	Requested        int     `json:"requested"`
	Succeeded        int     `json:"succeeded"`
	Tokens           int     `json:"tokens"`
	Cost             float64 `json:"cost"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	QueriesPerSecond float64 `json:"queries_per_second"`
}

// NewEntry converts a successful result. index is the 0-based submission slot.
func NewEntry(result *core.QueryResult, index int) Entry {
	return Entry{
		QueryIndex:     index + 1,
		Query:          result.Query,
		Content:        result.Content,
		Citations:      result.Citations,
		Model:          result.Model,
		Tokens:         result.Tokens,
		Cost:           result.Cost,
		ElapsedSeconds: result.ElapsedSeconds,
		ID:             result.ID,
		SavedPath:      result.SavedPath,
	}
}

// BuildDocument assembles the document for a finished batch. Failed slots are
// dropped and surviving entries keep their original query index.
func BuildDocument(report *core.BatchReport, syn *core.Synthesis, opts core.Options, now time.Time) *Document {
	doc := &Document{
		Type:     DocumentMultiQuery,
		Metadata: Metadata{Timestamp: now.Format(time.RFC3339)},
		Results:  []Entry{},
	}

	if report != nil {
		for i, r := range report.Results {
			if !r.OK() {
				continue
			}
			doc.Results = append(doc.Results, NewEntry(r, i))
		}
	}
	doc.Metadata.QueryCount = len(doc.Results)

	totals := report.Totals(syn)
	summary := &Summary{
		Succeeded: totals.Count,
		Tokens:    totals.Tokens,
		Cost:      totals.Cost,
	}
	if report != nil {
		summary.Requested = report.Requested
		summary.ElapsedSeconds = report.ElapsedSeconds
		summary.QueriesPerSecond = report.QueriesPerSecond
	}
	doc.Summary = summary

	if !opts.Deep {
		return doc
	}

	doc.Type = DocumentDeepResearch
	doc.Overview = opts.Overview
	if syn != nil && syn.Overview.OK() {
		doc.Overview = syn.Overview.Content
	}
	if syn != nil && syn.Conclusion.OK() {
		doc.Conclusion = syn.Conclusion.Content
	}
	for _, e := range doc.Results {
		title := opts.SectionTitle(e.QueryIndex-1, e.Query)
		doc.Sections = append(doc.Sections, Section{QueryIndex: e.QueryIndex, Title: title, Anchor: Slug(title)})
	}
	return doc
}
