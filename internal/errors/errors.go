package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
)

// Kind classifies failures so callers can decide whether they are fatal for a batch.
type Kind string

const (
	// KindUsage covers conflicting flags, missing credentials and bad input.
	// Usage errors are fatal and are raised before any network work.
	KindUsage Kind = "usage"
	// KindTransport covers timeouts, connection failures and non-2xx responses.
	KindTransport Kind = "transport"
	// KindMalformedResponse covers undecodable bodies and missing response fields.
	KindMalformedResponse Kind = "malformed_response"
	// KindWrite covers filesystem failures while persisting results.
	KindWrite Kind = "write"
)

// Error is the single error type used across the query pipeline.
type Error struct {
	Kind  Kind
	Op    string
	Query string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	if e.Err != nil {
		sb.WriteString(e.Err.Error())
	} else {
		sb.WriteString(string(e.Kind))
	}
	if q := QueryPrefix(e.Query, 40); q != "" {
		sb.WriteString(fmt.Sprintf(" (query %q)", q))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error by kind so sentinel-style checks work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Err == nil
}

// Sentinels for errors.Is checks.
var (
	ErrUsage             = &Error{Kind: KindUsage}
	ErrTransport         = &Error{Kind: KindTransport}
	ErrMalformedResponse = &Error{Kind: KindMalformedResponse}
	ErrWrite             = &Error{Kind: KindWrite}
)

func NewUsage(format string, args ...any) *Error {
	return &Error{Kind: KindUsage, Err: fmt.Errorf(format, args...)}
}

func WrapTransport(err error, query string) *Error {
	return &Error{Kind: KindTransport, Op: "request", Query: query, Err: err}
}

func WrapMalformed(err error, query string) *Error {
	return &Error{Kind: KindMalformedResponse, Op: "decode response", Query: query, Err: err}
}

func WrapWrite(err error, path string) *Error {
	return &Error{Kind: KindWrite, Op: "write " + path, Err: err}
}

// KindOf returns the kind of err, or "" when err is not a pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) && e != nil {
		return e.Kind
	}
	return ""
}

func IsUsage(err error) bool { return KindOf(err) == KindUsage }

// QueryPrefix shortens a query for logs and error messages.
func QueryPrefix(query string, max int) string {
	trimmed := strings.TrimSpace(query)
	runes := []rune(trimmed)
	if max <= 0 || len(runes) <= max {
		return trimmed
	}
	return string(runes[:max]) + "..."
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope("INTERNAL_ERROR", "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	code, severity := "INTERNAL_ERROR", errors.SeverityHigh
	switch KindOf(err) {
	case KindUsage:
		code, severity = "INVALID_INPUT", errors.SeverityMedium
	case KindTransport:
		code = "EXTERNAL_SERVICE_ERROR"
	case KindMalformedResponse:
		code = "DATA_PROCESSING_ERROR"
	case KindWrite:
		code = "WRITE_FAILED"
	}

	env := errors.NewErrorEnvelope(code, err.Error())
	env = env.WithCorrelationID(errors.GenerateCorrelationID())
	if updated, updateErr := env.WithContext(map[string]interface{}{
		"wrapped_error": err.Error(),
		"kind":          string(KindOf(err)),
	}); updateErr == nil {
		env = updated
	}
	if updated, sevErr := env.WithSeverity(severity); sevErr == nil {
		env = updated
	}
	return env
}

// ExitCodeFor maps a fatal command error to a semantic exit code.
func ExitCodeFor(err error) foundry.ExitCode {
	if KindOf(err) == KindUsage && stderrors.Is(err, ErrMissingAPIKey) {
		return foundry.ExitConfigInvalid
	}
	return foundry.ExitFailure
}

// ErrMissingAPIKey is wrapped into the usage error raised when no key is configured.
var ErrMissingAPIKey = stderrors.New("perplexity api key not configured")

// ErrNoResults is returned when every query in a batch failed.
var ErrNoResults = stderrors.New("no queries produced a usable result")
