// Package pii scans outgoing queries for personal data and secrets.
package pii

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

const matchTimeout = 250 * time.Millisecond

// Finding is one detector that matched a query.
type Finding struct {
	Pattern     string
	Description string
	Severity    Severity
	Matches     []string
}

// Masked returns the matches with their middles hidden.
func (f Finding) Masked() []string {
	out := make([]string, 0, len(f.Matches))
	for _, m := range f.Matches {
		out = append(out, mask(m))
	}
	return out
}

type compiled struct {
	pattern Pattern
	re      *regexp2.Regexp
}

// Validator runs the detector set against text.
type Validator struct {
	patterns []compiled
	allow    []*regexp2.Regexp
}

// NewValidator compiles patterns plus allow-list expressions. Matches that an
// allow expression finds are not reported.
func NewValidator(patterns []Pattern, allow []string) (*Validator, error) {
	v := &Validator{}
	for _, p := range patterns {
		re, err := regexp2.Compile(p.Expr, regexp2.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("compile pii pattern %s: %w", p.Name, err)
		}
		re.MatchTimeout = matchTimeout
		v.patterns = append(v.patterns, compiled{pattern: p, re: re})
	}
	for _, expr := range allow {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		re, err := regexp2.Compile(expr, regexp2.IgnoreCase)
		if err != nil {
			return nil, fmt.Errorf("compile pii allow pattern %q: %w", expr, err)
		}
		re.MatchTimeout = matchTimeout
		v.allow = append(v.allow, re)
	}
	return v, nil
}

// Scan returns every detector that matched text, in detector order.
func (v *Validator) Scan(text string) ([]Finding, error) {
	if v == nil {
		return nil, nil
	}
	var findings []Finding
	for _, c := range v.patterns {
		matches, err := findAll(c.re, text)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", c.pattern.Name, err)
		}
		matches = v.filterAllowed(matches)
		if len(matches) == 0 {
			continue
		}
		findings = append(findings, Finding{
			Pattern:     c.pattern.Name,
			Description: c.pattern.Description,
			Severity:    c.pattern.Severity,
			Matches:     matches,
		})
	}
	return findings, nil
}

func (v *Validator) filterAllowed(matches []string) []string {
	if len(v.allow) == 0 {
		return matches
	}
	kept := matches[:0]
	for _, m := range matches {
		allowed := false
		for _, re := range v.allow {
			if ok, err := re.MatchString(m); err == nil && ok {
				allowed = true
				break
			}
		}
		if !allowed {
			kept = append(kept, m)
		}
	}
	return kept
}

func findAll(re *regexp2.Regexp, text string) ([]string, error) {
	var out []string
	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		out = append(out, m.String())
		m, err = re.FindNextMatch(m)
	}
	return out, err
}

func mask(value string) string {
	runes := []rune(value)
	if len(runes) <= 4 {
		return "***"
	}
	return string(runes[:2]) + strings.Repeat("*", len(runes)-4) + string(runes[len(runes)-2:])
}
