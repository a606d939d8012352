package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/askp-cli/askp/internal/config"
	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/models"
	"github.com/askp-cli/askp/internal/pii"
)

func newQueryCommand(t *testing.T, flags map[string]string) *cobra.Command {
	t.Helper()
	queryFlags = queryFlagValues{}
	t.Cleanup(func() { queryFlags = queryFlagValues{} })

	c := &cobra.Command{Use: "test"}
	registerQueryFlags(c)
	for name, value := range flags {
		require.NoError(t, c.Flags().Set(name, value), name)
	}
	return c
}

func defaultConfig(t *testing.T) *config.Config {
	t.Helper()
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	return cfg
}

func TestBuildOptionsDefaultsFromConfig(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Query.Model = "sonar"
	cfg.Query.Format = "json"

	opts, err := buildOptions(newQueryCommand(t, nil), cfg)
	require.NoError(t, err)
	require.Equal(t, "sonar", opts.Model)
	require.Equal(t, core.FormatJSON, opts.Format)
	require.Equal(t, config.DefaultTokenMax, opts.TokenMax)
	require.Equal(t, config.DefaultMaxParallel, opts.MaxParallel)
	require.Equal(t, core.PromptRaw, opts.Prompt)
	require.Equal(t, config.DefaultOutputDir, opts.OutputDir)
	require.False(t, opts.Combine)
}

func TestBuildOptionsUnknownModelFallsBackToDefault(t *testing.T) {
	cfg := defaultConfig(t)

	opts, err := buildOptions(newQueryCommand(t, map[string]string{"model": "gpt-9"}), cfg)
	require.NoError(t, err)
	require.Equal(t, models.Default, opts.Model)
}

func TestBuildOptionsFlagsOverrideConfig(t *testing.T) {
	cfg := defaultConfig(t)

	opts, err := buildOptions(newQueryCommand(t, map[string]string{
		"model":        "pro-reasoning",
		"temperature":  "0.2",
		"token-max":    "512",
		"max-parallel": "3",
		"format":       "txt",
		"prompt":       "dense",
		"output-dir":   "out",
		"output":       "combined.md",
		"combine":      "true",
		"retries":      "2",
	}), cfg)
	require.NoError(t, err)
	require.Equal(t, "pro-reasoning", opts.Model)
	require.InDelta(t, 0.2, opts.Temperature, 1e-9)
	require.Equal(t, 512, opts.TokenMax)
	require.Equal(t, 3, opts.MaxParallel)
	require.Equal(t, core.FormatText, opts.Format)
	require.Equal(t, core.PromptDense, opts.Prompt)
	require.Equal(t, "out", opts.OutputDir)
	require.Equal(t, "combined.md", opts.OutputPath)
	require.True(t, opts.Combine)
	require.Equal(t, 2, opts.Retries)
}

func TestBuildOptionsDeep(t *testing.T) {
	cfg := defaultConfig(t)

	opts, err := buildOptions(newQueryCommand(t, map[string]string{"deep": "true"}), cfg)
	require.NoError(t, err)
	require.True(t, opts.Deep)
	require.True(t, opts.Combine)
	require.Equal(t, config.DefaultDeepTokens, opts.TokenMax)

	opts, err = buildOptions(newQueryCommand(t, map[string]string{"deep": "true", "token-max": "1000"}), cfg)
	require.NoError(t, err)
	require.Equal(t, 1000, opts.TokenMax)
}

func TestBuildOptionsUsageErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags map[string]string
	}{
		{name: "conflicting reasoning", flags: map[string]string{"reasoning": "true", "pro-reasoning": "true"}},
		{name: "temperature too high", flags: map[string]string{"temperature": "1.5"}},
		{name: "zero tokens", flags: map[string]string{"token-max": "0"}},
		{name: "zero parallel", flags: map[string]string{"max-parallel": "0"}},
		{name: "unknown format", flags: map[string]string{"format": "xml"}},
		{name: "unknown prompt", flags: map[string]string{"prompt": "poetic"}},
		{name: "negative retries", flags: map[string]string{"retries": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildOptions(newQueryCommand(t, tt.flags), defaultConfig(t))
			require.Error(t, err)
			require.True(t, apperrors.IsUsage(err))
		})
	}
}

func TestCheckOutputParent(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, checkOutputParent(""))
	require.NoError(t, checkOutputParent(filepath.Join(dir, "out.md")))

	err := checkOutputParent(filepath.Join(dir, "missing", "out.md"))
	require.Error(t, err)
	require.True(t, apperrors.IsUsage(err))
}

func TestPrecheckQueriesBlocksBeforeSending(t *testing.T) {
	gate, err := pii.NewGate(config.PIIConfig{Enabled: true, MinSeverity: "high"}, nil)
	require.NoError(t, err)

	require.NoError(t, precheckQueries(gate, []string{"what is go", "how do channels work"}))

	err = precheckQueries(gate, []string{"fine", "email me at jane.doe@example.com"})
	require.Error(t, err)
	require.True(t, apperrors.IsUsage(err))
	require.Contains(t, err.Error(), "query 2")
	require.NotContains(t, err.Error(), "jane.doe@example.com")

	var blocked *pii.BlockedError
	require.True(t, errors.As(err, &blocked))

	require.NoError(t, precheckQueries(nil, []string{"jane.doe@example.com"}))
}

func TestBuildGateAllowSkipsChecks(t *testing.T) {
	gate, err := buildGate(config.PIIConfig{Enabled: true, MinSeverity: "high"}, true, nil)
	require.NoError(t, err)
	require.Nil(t, gate)

	_, err = buildGate(config.PIIConfig{Enabled: true, MinSeverity: "extreme"}, false, nil)
	require.Error(t, err)
	require.True(t, apperrors.IsUsage(err))
}
