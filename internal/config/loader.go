// Package config provides configuration loading for askp.
// Values are layered by viper (defaults, config file, environment) and decoded into
// a typed Config that is passed explicitly to the query pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// AppName is used for XDG directories and the env prefix.
	AppName = "askp"

	// EnvPrefix is prepended to config keys when read from the environment.
	EnvPrefix = "ASKP"

	// APIKeyEnv is the conventional Perplexity key variable.
	APIKeyEnv = "PERPLEXITY_API_KEY"

	DefaultBaseURL     = "https://api.perplexity.ai"
	DefaultModel       = "sonar-pro"
	DefaultTemperature = 0.7
	DefaultTokenMax    = 8192
	DefaultDeepTokens  = 16384
	DefaultMaxParallel = 5
	DefaultTimeout     = 120 * time.Second
	DefaultOutputDir   = "perplexity_results"
)

// SetDefaults registers default configuration values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.timeout", DefaultTimeout.String())

	v.SetDefault("query.model", DefaultModel)
	v.SetDefault("query.temperature", DefaultTemperature)
	v.SetDefault("query.token_max", DefaultTokenMax)
	v.SetDefault("query.deep_token_max", DefaultDeepTokens)
	v.SetDefault("query.max_parallel", DefaultMaxParallel)
	v.SetDefault("query.format", "markdown")
	v.SetDefault("query.prompt", "raw")
	v.SetDefault("query.retries", 0)
	v.SetDefault("query.rate_limit", 0.0)

	v.SetDefault("output.dir", DefaultOutputDir)

	v.SetDefault("cost_log.enabled", true)
	v.SetDefault("cost_log.driver", "jsonl")
	v.SetDefault("cost_log.path", DefaultCostLogPath())
	v.SetDefault("cost_log.url", "")
	v.SetDefault("cost_log.auth_token", "")
	v.SetDefault("cost_log.project", "")

	v.SetDefault("pii.enabled", true)
	v.SetDefault("pii.min_severity", "high")
	v.SetDefault("pii.allow", []string{})

	v.SetDefault("logging.level", "info")
}

// BindEnv wires environment variables into v.
// ASKP_QUERY_MODEL maps to query.model; PERPLEXITY_API_KEY maps to api.api_key.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("api.api_key", EnvPrefix+"_API_KEY", APIKeyEnv); err != nil {
		return fmt.Errorf("bind api key env: %w", err)
	}
	return nil
}

// Load decodes the merged viper settings into a Config.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		return nil, fmt.Errorf("viper instance is required")
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			mapstructure.StringToFloat64HookFunc(),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.API.APIKey = strings.TrimSpace(cfg.API.APIKey)
	if strings.TrimSpace(cfg.CostLog.Path) == "" && strings.TrimSpace(cfg.CostLog.URL) == "" {
		cfg.CostLog.Path = DefaultCostLogPath()
	}
	if cfg.CostLog.Project == "" {
		cfg.CostLog.Project = defaultProject()
	}

	return cfg, nil
}

// DefaultConfigDir returns the XDG-compliant config directory for the app.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(AppName)
}

// DefaultCostLogPath returns the default cost log location.
func DefaultCostLogPath() string {
	dataDir := gfconfig.GetAppDataDir(AppName)
	if strings.TrimSpace(dataDir) == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".", "."+AppName, "costs.jsonl")
		}
		dataDir = filepath.Join(home, "."+AppName)
	}
	return filepath.Join(dataDir, "cost_logs", "costs.jsonl")
}

func defaultProject() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(cwd)
}
