// Package engine fans queries out to an executor and gathers the results.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/observability"
	"github.com/askp-cli/askp/internal/output"
	"github.com/askp-cli/askp/internal/query"
)

var errNilResult = errors.New("executor returned no result")

// Dispatcher runs a batch of queries on a bounded worker pool.
type Dispatcher struct {
	Executor query.Executor
	// Writer persists each successful result. Nil disables all file output.
	Writer  *output.Writer
	Limiter *RateLimiter
	Logger  observability.Logger
	Clock   func() time.Time
}

// RunBatch executes every query and returns one result slot per query, in
// submission order.
//
// The error return is reserved for usage problems found before any request is
// sent. A failed query never cancels its siblings; it is recorded in its slot.
func (d *Dispatcher) RunBatch(ctx context.Context, queries []string, opts core.Options) (*core.BatchReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(queries) == 0 {
		return nil, apperrors.NewUsage("no queries provided")
	}
	for i, q := range queries {
		if strings.TrimSpace(q) == "" {
			return nil, apperrors.NewUsage("query %d is empty", i+1)
		}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if d == nil || d.Executor == nil {
		return nil, apperrors.NewUsage("no query executor configured")
	}

	workers := min(opts.MaxParallel, len(queries))
	logger := d.logger()
	logger.Info("Dispatching queries",
		zap.Int("queries", len(queries)),
		zap.Int("workers", workers),
		zap.String("model", opts.Model))

	slots := make([]*core.QueryResult, len(queries))
	start := d.now()

	var g errgroup.Group
	g.SetLimit(workers)
	for i, q := range queries {
		g.Go(func() error {
			slots[i] = d.runOne(ctx, i, q, len(queries), opts)
			return nil
		})
	}
	_ = g.Wait()

	report := core.NewBatchReport(slots, start, d.now())
	logger.Info("Batch complete",
		zap.Int("succeeded", report.SuccessCount),
		zap.Int("requested", report.Requested),
		zap.Int("tokens", report.TotalTokens),
		zap.Float64("cost", report.TotalCost),
		zap.Float64("elapsed_seconds", report.ElapsedSeconds))
	return report, nil
}

func (d *Dispatcher) runOne(ctx context.Context, index int, q string, total int, opts core.Options) *core.QueryResult {
	logger := d.logger()

	if err := ctx.Err(); err != nil {
		return core.Failure(index, q, apperrors.WrapTransport(err, q))
	}
	if err := d.Limiter.Wait(ctx); err != nil {
		return core.Failure(index, q, apperrors.WrapTransport(err, q))
	}

	result, err := d.Executor.Execute(ctx, q, opts)
	switch {
	case err != nil:
		result = core.Failure(index, q, err)
	case result == nil:
		result = core.Failure(index, q, apperrors.WrapMalformed(errNilResult, q))
	}
	result.Index = index

	if !result.OK() {
		logger.Warn("Query failed",
			zap.Int("index", index+1),
			zap.String("query", apperrors.QueryPrefix(q, 50)),
			zap.String("kind", string(result.Err.Kind)),
			zap.String("error", result.Err.Message))
		return result
	}

	if d.Writer != nil {
		path, err := d.Writer.SaveIndividual(result, index)
		if err != nil {
			logger.Warn("Failed to save result", zap.Int("index", index+1), zap.Error(err))
		} else {
			result.SavedPath = path
		}
		if opts.Combine && strings.TrimSpace(opts.OutputPath) != "" {
			if _, err := d.Writer.AppendCombined(result, index, total, opts.OutputPath); err != nil {
				logger.Warn("Failed to append combined result", zap.Int("index", index+1), zap.Error(err))
			}
		}
	}

	logger.Debug("Query complete",
		zap.Int("index", index+1),
		zap.Int("tokens", result.Tokens),
		zap.Float64("elapsed_seconds", result.ElapsedSeconds))
	return result
}

func failureMessage(r *core.QueryResult) string {
	if r == nil || r.Err == nil {
		return "no result"
	}
	return r.Err.Message
}

func (d *Dispatcher) logger() observability.Logger {
	if d == nil {
		return observability.OrNop(nil)
	}
	return observability.OrNop(d.Logger)
}

func (d *Dispatcher) now() time.Time {
	if d != nil && d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
