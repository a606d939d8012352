package pii

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/config"
	"github.com/askp-cli/askp/internal/observability"
)

// Gate decides whether a query may leave the machine.
type Gate struct {
	validator   *Validator
	minSeverity Severity
	logger      observability.Logger
}

// BlockedError lists the findings that stopped a query.
type BlockedError struct {
	Findings []Finding
}

func (e *BlockedError) Error() string {
	parts := make([]string, 0, len(e.Findings))
	for _, f := range e.Findings {
		parts = append(parts, fmt.Sprintf("%s (%s, %d match)", f.Description, f.Severity, len(f.Matches)))
	}
	return "query blocked, sensitive data detected: " + strings.Join(parts, "; ")
}

// NewGate builds a gate from config. A disabled config yields a nil gate,
// which allows everything.
func NewGate(cfg config.PIIConfig, logger observability.Logger) (*Gate, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	sev, ok := ParseSeverity(strings.ToLower(strings.TrimSpace(cfg.MinSeverity)))
	if !ok {
		return nil, fmt.Errorf("invalid pii.min_severity: %s", cfg.MinSeverity)
	}
	v, err := NewValidator(DefaultPatterns, cfg.Allow)
	if err != nil {
		return nil, err
	}
	return &Gate{validator: v, minSeverity: sev, logger: observability.OrNop(logger)}, nil
}

// Check returns a *BlockedError when query carries findings at or above the
// gate's minimum severity. Lower-severity findings are logged only.
func (g *Gate) Check(query string) error {
	if g == nil {
		return nil
	}
	findings, err := g.validator.Scan(query)
	if err != nil {
		return err
	}

	var blocking []Finding
	for _, f := range findings {
		if f.Severity >= g.minSeverity {
			blocking = append(blocking, f)
			continue
		}
		g.logger.Warn("Possible sensitive data in query",
			zap.String("pattern", f.Pattern),
			zap.Strings("matches", f.Masked()))
	}
	if len(blocking) > 0 {
		return &BlockedError{Findings: blocking}
	}
	return nil
}
