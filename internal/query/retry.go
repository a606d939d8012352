package query

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/ailink/driver"
	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/observability"
)

// DefaultRetryBackoff is the base delay between attempts.
const DefaultRetryBackoff = 2 * time.Second

// Retrying re-runs transport failures with linear backoff.
// Malformed responses, usage errors and non-retryable statuses such as 401
// are returned as-is.
type Retrying struct {
	next    Executor
	retries int
	backoff time.Duration
	logger  observability.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewRetrying wraps next. With retries <= 0 it returns next unchanged.
func NewRetrying(next Executor, retries int, backoff time.Duration, logger observability.Logger) Executor {
	if retries <= 0 {
		return next
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &Retrying{
		next:    next,
		retries: retries,
		backoff: backoff,
		logger:  observability.OrNop(logger),
		sleep:   sleepContext,
	}
}

// Execute runs the wrapped executor up to retries+1 times.
func (r *Retrying) Execute(ctx context.Context, query string, opts core.Options) (*core.QueryResult, error) {
	for attempt := 0; ; attempt++ {
		result, err := r.next.Execute(ctx, query, opts)
		if err != nil {
			return nil, err
		}
		if !retryable(result) || attempt >= r.retries {
			return result, nil
		}

		delay := r.backoff * time.Duration(attempt+1)
		r.logger.Info("Retrying query",
			zap.String("query", apperrors.QueryPrefix(query, 50)),
			zap.Int("attempt", attempt+2),
			zap.Duration("delay", delay))
		if err := r.sleep(ctx, delay); err != nil {
			return result, nil
		}
	}
}

func retryable(result *core.QueryResult) bool {
	if result.OK() || result.Err.Kind != apperrors.KindTransport {
		return false
	}
	return driver.RetryableStatus(result.Err.Status)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
