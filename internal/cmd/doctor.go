package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/askp-cli/askp/internal/config"
	"github.com/askp-cli/askp/internal/costlog"
	"github.com/askp-cli/askp/internal/observability"
	"github.com/askp-cli/askp/internal/pii"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Check configuration, credentials, output and cost log locations, and suggest fixes for common issues.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		logger := observability.CLILogger
		logger.Info("=== askp doctor ===")
		logger.Info("")

		allChecks := true
		totalChecks := 7

		goVersion := runtime.Version()
		logger.Info(fmt.Sprintf("[1/%d] Checking Go runtime... ✅ %s %s/%s", totalChecks, goVersion, runtime.GOOS, runtime.GOARCH),
			zap.String("go_version", goVersion))

		version := crucible.GetVersion()
		if version.Gofulmen != "" {
			logger.Info(fmt.Sprintf("[2/%d] Checking Gofulmen... ✅ v%s (crucible v%s)", totalChecks, version.Gofulmen, version.Crucible))
		} else {
			logger.Warn(fmt.Sprintf("[2/%d] Checking Gofulmen... ⚠️  version unavailable", totalChecks))
		}

		configDir := config.DefaultConfigDir()
		configPath := filepath.Join(configDir, "config.yaml")
		if used := viper.ConfigFileUsed(); used != "" {
			configPath = used
		}
		if configDir == "" {
			logger.Warn(fmt.Sprintf("[3/%d] Checking config file... ⚠️  config directory not resolved", totalChecks))
		} else {
			logger.Info(fmt.Sprintf("[3/%d] Checking config file... ✅ %s (%s)", totalChecks, configPath, existenceStatus(fileExists(configPath))))
		}

		cfg, cfgErr := loadConfig()
		if cfgErr != nil {
			logger.Error(fmt.Sprintf("[4/%d] Loading config... ❌ %v", totalChecks, cfgErr))
			logger.Warn("⚠️  Remaining checks skipped.")
			return
		}
		logger.Info(fmt.Sprintf("[4/%d] Loading config... ✅ model %s, %d parallel", totalChecks, cfg.Query.Model, cfg.Query.MaxParallel))

		if cfg.API.APIKey != "" {
			logger.Info(fmt.Sprintf("[5/%d] Checking API key... ✅ configured", totalChecks))
		} else {
			logger.Error(fmt.Sprintf("[5/%d] Checking API key... ❌ not set (export %s or run 'askp doctor init --api-key prompt')", totalChecks, config.APIKeyEnv))
			allChecks = false
		}

		if cfg.CostLog.Enabled {
			target := cfg.CostLog.Path
			if cfg.CostLog.URL != "" {
				target = cfg.CostLog.URL
			}
			costs, err := costlog.Open(cmd.Context(), cfg.CostLog)
			if err != nil {
				logger.Warn(fmt.Sprintf("[6/%d] Checking cost log... ⚠️  %s (%v)", totalChecks, target, err))
				allChecks = false
			} else {
				_ = costs.Close()
				size := "not created yet"
				if info, statErr := os.Stat(cfg.CostLog.Path); statErr == nil {
					size = formatFileSize(info.Size())
				}
				logger.Info(fmt.Sprintf("[6/%d] Checking cost log... ✅ %s via %s (%s)", totalChecks, target, cfg.CostLog.Driver, size))
			}
		} else {
			logger.Info(fmt.Sprintf("[6/%d] Checking cost log... disabled", totalChecks))
		}

		if _, err := pii.NewGate(cfg.PII, nil); err != nil {
			logger.Error(fmt.Sprintf("[7/%d] Checking sensitive-data gate... ❌ %v", totalChecks, err))
			allChecks = false
		} else if cfg.PII.Enabled {
			logger.Info(fmt.Sprintf("[7/%d] Checking sensitive-data gate... ✅ blocking %s and above", totalChecks, cfg.PII.MinSeverity))
		} else {
			logger.Warn(fmt.Sprintf("[7/%d] Checking sensitive-data gate... ⚠️  disabled", totalChecks))
		}

		logger.Info("")
		if allChecks {
			logger.Info("✅ All checks passed! Your askp installation is healthy.")
		} else {
			logger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
	},
}

var (
	doctorInitForce  bool
	doctorInitAPIKey string
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir := config.DefaultConfigDir()
		if configDir == "" {
			return fmt.Errorf("config path not resolved")
		}
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(apiKey, "prompt") {
			key, err := promptForValue(cmd.InOrStdin(), cmd.OutOrStdout(), "Enter Perplexity API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			apiKey = key
		}

		body, err := buildInitConfig(apiKey)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
		mode := os.FileMode(0644)
		if apiKey != "" {
			mode = 0600
		}
		if err := os.WriteFile(configPath, body, mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "set the API key, or 'prompt' to enter it")
}

// buildInitConfig renders the default settings as YAML.
func buildInitConfig(apiKey string) ([]byte, error) {
	v := viper.New()
	config.SetDefaults(v)
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	cfg.API.APIKey = apiKey
	// The project defaults to the working directory at run time.
	cfg.CostLog.Project = ""

	body, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	header := "# askp config - created by 'askp doctor init'\n"
	if apiKey == "" {
		header += fmt.Sprintf("# Set api.api_key here or export %s.\n", config.APIKeyEnv)
	}
	return append([]byte(header), body...), nil
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func promptForValue(in io.Reader, out io.Writer, prompt string) (string, error) {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(in)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}
