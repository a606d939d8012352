package output

import (
	"fmt"
	"time"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
)

// Aggregator merges a finished batch into the combined artifact.
type Aggregator struct {
	writer *Writer
	now    func() time.Time
}

// NewAggregator returns an aggregator that writes through w.
func NewAggregator(w *Writer) *Aggregator {
	return &Aggregator{writer: w, now: time.Now}
}

// Combine renders the surviving results of report, plus any synthesis, in
// submission order and writes the artifact.
//
// The artifact goes to opts.OutputPath when set, otherwise to a name derived
// from the batch queries inside the writer's directory.
func (a *Aggregator) Combine(report *core.BatchReport, syn *core.Synthesis, opts core.Options) (*core.CombinedArtifact, error) {
	now := a.now()
	doc := BuildDocument(report, syn, opts, now)
	if len(doc.Results) == 0 {
		return nil, apperrors.ErrNoResults
	}

	body, err := NewRenderer(opts.Format).Render(doc)
	if err != nil {
		return nil, fmt.Errorf("render combined %s: %w", opts.Format, err)
	}

	path := ResolveCombinedPath(opts.OutputPath, a.writer.Dir(), batchQueries(report), opts.Format, opts.Deep, now)
	if err := a.writer.WriteArtifact(path, []byte(body)); err != nil {
		return nil, err
	}

	return &core.CombinedArtifact{
		Path:       path,
		Format:     opts.Format,
		QueryCount: len(doc.Results),
		Bytes:      len(body),
		Deep:       opts.Deep,
	}, nil
}

func batchQueries(report *core.BatchReport) []string {
	if report == nil {
		return nil
	}
	out := make([]string, 0, len(report.Results))
	for _, r := range report.Results {
		if r != nil {
			out = append(out, r.Query)
		}
	}
	return out
}
