// Package query sends single queries to the chat-completion API and turns the
// outcome into a core.QueryResult.
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/ailink/driver"
	"github.com/askp-cli/askp/internal/core"
	"github.com/askp-cli/askp/internal/costlog"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/models"
	"github.com/askp-cli/askp/internal/observability"
	"github.com/askp-cli/askp/internal/pii"
)

// Executor runs one query.
//
// The returned error is reserved for usage problems detected before the
// network call. Transport and response failures come back as a result whose
// Err is set.
type Executor interface {
	Execute(ctx context.Context, query string, opts core.Options) (*core.QueryResult, error)
}

// Client is the Executor backed by a completion driver.
type Client struct {
	driver   driver.Driver
	recorder costlog.Recorder
	gate     *pii.Gate
	logger   observability.Logger
	now      func() time.Time
	newID    func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithRecorder records a cost entry for every successful query.
func WithRecorder(r costlog.Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithGate blocks queries the gate rejects.
func WithGate(g *pii.Gate) Option {
	return func(c *Client) { c.gate = g }
}

// WithLogger sets the logger.
func WithLogger(l observability.Logger) Option {
	return func(c *Client) { c.logger = observability.OrNop(l) }
}

// NewClient returns a Client that sends requests through d.
func NewClient(d driver.Driver, opts ...Option) *Client {
	c := &Client{
		driver: d,
		logger: observability.OrNop(nil),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Execute sends query with opts and normalizes the outcome.
func (c *Client) Execute(ctx context.Context, query string, opts core.Options) (*core.QueryResult, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, apperrors.NewUsage("query must not be empty")
	}
	if err := opts.ValidateRequest(); err != nil {
		return nil, err
	}

	model := models.Resolve(opts.Model, opts.Reasoning, opts.ProReasoning)
	if err := c.gate.Check(trimmed); err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindUsage, Op: "pii check", Err: err}
	}
	if c.driver == nil {
		return nil, apperrors.NewUsage("no completion driver configured")
	}

	temperature := opts.Temperature
	maxTokens := opts.TokenMax
	req := &driver.Request{
		Model:       model.Name,
		Messages:    []driver.Message{driver.UserMessage(RenderPrompt(opts.Prompt, trimmed))},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}

	c.logger.Debug("Sending query",
		zap.String("query", apperrors.QueryPrefix(trimmed, 50)),
		zap.String("model", model.Name))

	start := c.now()
	resp, err := c.driver.Complete(ctx, req)
	elapsed := c.now().Sub(start)

	if err == nil && (resp == nil || resp.Usage == nil) {
		err = driver.ErrMalformedResponse
	}
	if err != nil {
		var wrapped error
		if errors.Is(err, driver.ErrMalformedResponse) {
			wrapped = apperrors.WrapMalformed(err, trimmed)
		} else {
			wrapped = apperrors.WrapTransport(err, trimmed)
		}
		c.logger.Warn("Query failed",
			zap.String("query", apperrors.QueryPrefix(trimmed, 50)),
			zap.String("kind", string(apperrors.KindOf(wrapped))),
			zap.Error(err))

		result := core.Failure(0, trimmed, wrapped)
		var providerErr *driver.ProviderError
		if errors.As(err, &providerErr) {
			result.Err.Status = providerErr.StatusCode
		}
		result.Model = model.Name
		result.ElapsedSeconds = elapsed.Seconds()
		return result, nil
	}

	tokens := resp.Usage.TotalTokens
	result := &core.QueryResult{
		ID:             c.newID(),
		Query:          trimmed,
		Content:        resp.Content,
		Citations:      resp.Citations,
		Model:          model.Name,
		Tokens:         tokens,
		Cost:           model.Cost(tokens),
		ElapsedSeconds: elapsed.Seconds(),
		CreatedAt:      c.now().UTC(),
	}

	c.record(ctx, result)
	return result, nil
}

func (c *Client) record(ctx context.Context, result *core.QueryResult) {
	if c.recorder == nil {
		return
	}
	entry := costlog.Entry{
		Timestamp:  result.CreatedAt,
		Model:      result.Model,
		TokenCount: result.Tokens,
		Cost:       result.Cost,
		QueryID:    result.ID,
	}
	if err := c.recorder.Record(ctx, entry); err != nil {
		c.logger.Warn("Failed to record query cost", zap.String("query_id", result.ID), zap.Error(err))
	}
}
