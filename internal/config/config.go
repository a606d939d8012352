package config

import "time"

// Config represents the complete application configuration.
// Layer 1: defaults (SetDefaults)
// Layer 2: user config file (~/.config/askp/config.yaml or --config)
// Layer 3: environment variables (ASKP_*, PERPLEXITY_API_KEY) and CLI flags
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Query   QueryConfig   `mapstructure:"query" yaml:"query"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output"`
	CostLog CostLogConfig `mapstructure:"cost_log" yaml:"cost_log"`
	PII     PIIConfig     `mapstructure:"pii" yaml:"pii"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// APIConfig contains the chat-completion endpoint settings.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string        `mapstructure:"api_key" yaml:"api_key"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// QueryConfig holds per-run defaults that CLI flags override.
type QueryConfig struct {
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	TokenMax    int     `mapstructure:"token_max" yaml:"token_max"`
	DeepTokens  int     `mapstructure:"deep_token_max" yaml:"deep_token_max"`
	MaxParallel int     `mapstructure:"max_parallel" yaml:"max_parallel"`
	Format      string  `mapstructure:"format" yaml:"format"`
	Prompt      string  `mapstructure:"prompt" yaml:"prompt"`
	Retries     int     `mapstructure:"retries" yaml:"retries"`

	// RateLimit caps request starts per second across workers. Zero disables it.
	RateLimit float64 `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// OutputConfig controls where result files land.
type OutputConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// CostLogConfig configures the append-only cost log.
//
// Driver "jsonl" (default) appends one JSON object per line to Path.
// Driver "libsql" writes to a libsql/Turso database at Path or URL.
type CostLogConfig struct {
	Enabled   bool   `mapstructure:"enabled" yaml:"enabled"`
	Driver    string `mapstructure:"driver" yaml:"driver"`
	Path      string `mapstructure:"path" yaml:"path"`
	URL       string `mapstructure:"url" yaml:"url"`
	AuthToken string `mapstructure:"auth_token" yaml:"auth_token"`
	Project   string `mapstructure:"project" yaml:"project"`
}

// PIIConfig toggles the outgoing-query PII gate.
type PIIConfig struct {
	Enabled     bool     `mapstructure:"enabled" yaml:"enabled"`
	MinSeverity string   `mapstructure:"min_severity" yaml:"min_severity"`
	Allow       []string `mapstructure:"allow" yaml:"allow"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
}

// Redacted returns a copy safe for display.
func (c Config) Redacted() Config {
	out := c
	if out.API.APIKey != "" {
		out.API.APIKey = redact(out.API.APIKey)
	}
	if out.CostLog.AuthToken != "" {
		out.CostLog.AuthToken = redact(out.CostLog.AuthToken)
	}
	return out
}

func redact(secret string) string {
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
