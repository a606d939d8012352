// Package models holds the static Perplexity model table.
package models

import (
	"sort"
	"strings"
)

// Capability tags attached to model descriptors.
const (
	CapSearch    = "search"
	CapReasoning = "reasoning"
	CapResearch  = "research"
	CapOffline   = "offline"
)

// Default is the canonical fallback model.
const Default = "sonar-pro"

// ProReasoning is the model selected by the pro-reasoning flag.
const ProReasoning = "sonar-reasoning-pro"

// Descriptor describes one model. The table is read-only at runtime.
type Descriptor struct {
	Name             string   `json:"name"`
	ID               string   `json:"id"`
	DisplayName      string   `json:"display_name"`
	CostPerMillion   float64  `json:"cost_per_million"`
	Capabilities     []string `json:"capabilities"`
	ReasoningVariant string   `json:"reasoning_variant,omitempty"`
}

// HasCapability reports whether the descriptor carries tag.
func (d Descriptor) HasCapability(tag string) bool {
	for _, c := range d.Capabilities {
		if c == tag {
			return true
		}
	}
	return false
}

// IsReasoning reports whether the model is already a reasoning variant.
func (d Descriptor) IsReasoning() bool {
	return d.HasCapability(CapReasoning)
}

// Cost returns the dollar cost of tokens on this model.
func (d Descriptor) Cost(tokens int) float64 {
	return float64(tokens) / 1_000_000 * d.CostPerMillion
}

var table = map[string]Descriptor{
	"sonar": {
		Name: "sonar", ID: "sonar", DisplayName: "sonar (basic)",
		CostPerMillion: 1.0, Capabilities: []string{CapSearch},
		ReasoningVariant: "sonar-reasoning",
	},
	"sonar-pro": {
		Name: "sonar-pro", ID: "sonar-pro", DisplayName: "sonar-pro (EXPENSIVE)",
		CostPerMillion: 15.0, Capabilities: []string{CapSearch},
		ReasoningVariant: "sonar-reasoning-pro",
	},
	"sonar-reasoning": {
		Name: "sonar-reasoning", ID: "reasoning", DisplayName: "sonar-reasoning",
		CostPerMillion: 5.0, Capabilities: []string{CapSearch, CapReasoning},
	},
	"sonar-reasoning-pro": {
		Name: "sonar-reasoning-pro", ID: "pro-reasoning", DisplayName: "sonar-reasoning-pro (enhanced)",
		CostPerMillion: 8.0, Capabilities: []string{CapSearch, CapReasoning},
	},
	"sonar-deep-research": {
		Name: "sonar-deep-research", ID: "deep-research", DisplayName: "sonar-deep-research",
		CostPerMillion: 8.0, Capabilities: []string{CapSearch, CapReasoning, CapResearch},
	},
	"r1-1776": {
		Name: "r1-1776", ID: "r1-1776", DisplayName: "r1-1776 (offline)",
		CostPerMillion: 8.0, Capabilities: []string{CapOffline, CapReasoning},
	},
}

// aliases map a compacted (lower-case, no dashes or spaces) name to a table key.
var aliases = map[string]string{
	"sonar":             "sonar",
	"sonarpro":          "sonar-pro",
	"prosonar":          "sonar-pro",
	"pro":               "sonar-pro",
	"sonarreasoning":    "sonar-reasoning",
	"reasoning":         "sonar-reasoning",
	"sonarreasoningpro": "sonar-reasoning-pro",
	"sonarproreasoning": "sonar-reasoning-pro",
	"proreasoning":      "sonar-reasoning-pro",
	"sonardeepresearch": "sonar-deep-research",
	"deepresearch":      "sonar-deep-research",
	"r1":                "r1-1776",
	"r11776":            "r1-1776",
}

// Normalize maps user-supplied names and aliases to a canonical table key.
// Unknown names are returned lower-cased and trimmed.
func Normalize(name string) string {
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return Default
	}
	compact := strings.NewReplacer("-", "", " ", "", "_", "", ".", "").Replace(trimmed)
	if key, ok := aliases[compact]; ok {
		return key
	}
	return trimmed
}

// Lookup returns the descriptor for name (aliases allowed).
func Lookup(name string) (Descriptor, bool) {
	d, ok := table[Normalize(name)]
	return d, ok
}

// Known reports whether name (or an alias) is in the model table.
func Known(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// Resolve picks the model actually sent to the API. Unknown names fall back to
// Default. proReasoning wins over reasoning; callers reject the combination
// before calling.
func Resolve(name string, reasoning, proReasoning bool) Descriptor {
	if proReasoning {
		return table[ProReasoning]
	}

	d, ok := Lookup(name)
	if !ok {
		d = table[Default]
	}
	if !reasoning || d.IsReasoning() {
		return d
	}
	if variant, ok := table[d.ReasoningVariant]; ok {
		return variant
	}
	return table["sonar-reasoning"]
}

// Names returns the sorted table keys.
func Names() []string {
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every descriptor ordered by name.
func All() []Descriptor {
	names := Names()
	out := make([]Descriptor, 0, len(names))
	for _, name := range names {
		out = append(out, table[name])
	}
	return out
}
