package core

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/askp-cli/askp/internal/errors"
)

// PromptStyle selects how a query is wrapped before it is sent.
type PromptStyle string

const (
	PromptRaw   PromptStyle = "raw"
	PromptDense PromptStyle = "dense"
	PromptHuman PromptStyle = "human"
)

// ParsePromptStyle validates and normalizes a prompt style string.
func ParsePromptStyle(value string) (PromptStyle, error) {
	switch PromptStyle(strings.ToLower(strings.TrimSpace(value))) {
	case "", PromptRaw:
		return PromptRaw, nil
	case PromptDense:
		return PromptDense, nil
	case PromptHuman:
		return PromptHuman, nil
	default:
		return "", fmt.Errorf("unsupported prompt style: %s", value)
	}
}

// DefaultMaxParallel bounds concurrent requests when nothing else is configured.
const DefaultMaxParallel = 5

// Options are the per-run query settings. Built once per invocation and never mutated.
type Options struct {
	Model        string
	Temperature  float64
	TokenMax     int
	Reasoning    bool
	ProReasoning bool
	Prompt       PromptStyle
	Format       Format
	Combine      bool
	MaxParallel  int
	Deep         bool
	Retries      int
	OutputDir    string

	// OutputPath is the explicit combined artifact path, if any.
	OutputPath string

	// Overview is the caller-supplied overview used by deep rendering when
	// synthesis is unavailable.
	Overview string

	// SectionTitles label deep sections by submission slot. Missing or blank
	// entries fall back to the query text.
	SectionTitles []string
}

// SectionTitle returns the deep section title for the 0-based slot index.
func (o Options) SectionTitle(index int, query string) string {
	if index >= 0 && index < len(o.SectionTitles) {
		if title := strings.TrimSpace(o.SectionTitles[index]); title != "" {
			return title
		}
	}
	return query
}

// Validate rejects option combinations that must fail before any network call.
func (o Options) Validate() error {
	if err := o.ValidateRequest(); err != nil {
		return err
	}
	if o.MaxParallel <= 0 {
		return apperrors.NewUsage("max parallel must be positive, got %d", o.MaxParallel)
	}
	return nil
}

// ValidateRequest checks the settings that shape a single API request.
func (o Options) ValidateRequest() error {
	if o.Reasoning && o.ProReasoning {
		return apperrors.NewUsage("--reasoning and --pro-reasoning are mutually exclusive")
	}
	if o.Temperature < 0 || o.Temperature > 1 {
		return apperrors.NewUsage("temperature must be between 0.0 and 1.0, got %g", o.Temperature)
	}
	if o.TokenMax <= 0 {
		return apperrors.NewUsage("token ceiling must be positive, got %d", o.TokenMax)
	}
	return nil
}

// ResultError tags a failed query.
type ResultError struct {
	Kind    apperrors.Kind `json:"kind"`
	Message string         `json:"message"`
	// Status is the HTTP status of a non-2xx reply, zero otherwise.
	Status int `json:"status,omitempty"`
}

// QueryResult is the outcome of one query. Workers each own their instance.
type QueryResult struct {
	Index          int          `json:"index"`
	ID             string       `json:"id"`
	Query          string       `json:"query"`
	Content        string       `json:"content,omitempty"`
	Citations      []string     `json:"citations,omitempty"`
	Model          string       `json:"model"`
	Tokens         int          `json:"tokens"`
	Cost           float64      `json:"cost"`
	ElapsedSeconds float64      `json:"elapsed_seconds"`
	CreatedAt      time.Time    `json:"created_at"`
	SavedPath      string       `json:"saved_path,omitempty"`
	Err            *ResultError `json:"error,omitempty"`
}

// OK reports whether r holds a usable response.
func (r *QueryResult) OK() bool {
	return r != nil && r.Err == nil
}

// Elapsed returns the wall-clock time of the call.
func (r *QueryResult) Elapsed() time.Duration {
	if r == nil {
		return 0
	}
	return time.Duration(r.ElapsedSeconds * float64(time.Second))
}

// Failure builds a failed result for query at index.
func Failure(index int, query string, err error) *QueryResult {
	kind := apperrors.KindOf(err)
	if kind == "" {
		kind = apperrors.KindTransport
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &QueryResult{
		Index:     index,
		Query:     query,
		CreatedAt: time.Now().UTC(),
		Err:       &ResultError{Kind: kind, Message: msg},
	}
}
