package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/askp-cli/askp/internal/ailink/driver/perplexity"
	"github.com/askp-cli/askp/internal/config"
	"github.com/askp-cli/askp/internal/core"
	"github.com/askp-cli/askp/internal/core/engine"
	"github.com/askp-cli/askp/internal/costlog"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/models"
	"github.com/askp-cli/askp/internal/observability"
	"github.com/askp-cli/askp/internal/output"
	"github.com/askp-cli/askp/internal/pii"
	"github.com/askp-cli/askp/internal/query"
)

// componentsDir holds per-section files of a deep research run.
const componentsDir = "components"

type queryFlagValues struct {
	file         string
	format       string
	output       string
	outputDir    string
	model        string
	temperature  float64
	tokenMax     int
	reasoning    bool
	proReasoning bool
	maxParallel  int
	combine      bool
	deep         bool
	expand       int
	single       bool
	prompt       string
	retries      int
	allowPII     bool
	quiet        bool
	view         bool
}

var queryFlags queryFlagValues

func registerQueryFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&queryFlags.file, "file", "i", "", "read queries from file, one per line (- for stdin)")
	f.StringVarP(&queryFlags.format, "format", "f", "", "output format: markdown, json, text")
	f.StringVarP(&queryFlags.output, "output", "o", "", "combined output file (extension follows --format)")
	f.StringVar(&queryFlags.outputDir, "output-dir", "", "directory for result files")
	f.StringVarP(&queryFlags.model, "model", "m", "", "model name or alias (see 'askp models')")
	f.Float64Var(&queryFlags.temperature, "temperature", config.DefaultTemperature, "sampling temperature (0.0-1.0)")
	f.IntVarP(&queryFlags.tokenMax, "token-max", "t", config.DefaultTokenMax, "maximum tokens per response")
	f.BoolVarP(&queryFlags.reasoning, "reasoning", "r", false, "use the reasoning variant of the model")
	f.BoolVar(&queryFlags.proReasoning, "pro-reasoning", false, "use sonar-reasoning-pro")
	f.IntVar(&queryFlags.maxParallel, "max-parallel", config.DefaultMaxParallel, "maximum concurrent requests")
	f.BoolVarP(&queryFlags.combine, "combine", "c", false, "write results into a combined file as they complete")
	f.BoolVarP(&queryFlags.deep, "deep", "d", false, "plan and run a multi-section deep research report")
	f.IntVarP(&queryFlags.expand, "expand", "e", 0, "expand the queries to this many related queries")
	f.BoolVarP(&queryFlags.single, "single", "s", false, "treat all arguments as one query")
	f.StringVar(&queryFlags.prompt, "prompt", "", "prompt style: raw, dense, human")
	f.IntVar(&queryFlags.retries, "retries", 0, "retry transport failures this many times")
	f.BoolVar(&queryFlags.allowPII, "allow-pii", false, "skip the sensitive-data check for this run")
	f.BoolVarP(&queryFlags.quiet, "quiet", "q", false, "suppress console output")
	f.BoolVar(&queryFlags.view, "view", false, "print the combined file when done")
}

func runQuery(cmd *cobra.Command, args []string) error {
	stdin := cmd.InOrStdin()
	if len(args) == 0 && strings.TrimSpace(queryFlags.file) == "" && isTerminal(stdin) {
		return cmd.Help()
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := observability.CLI()

	opts, err := buildOptions(cmd, cfg)
	if err != nil {
		return err
	}

	queries, err := resolveQueries(queryInput{
		Args:            args,
		File:            queryFlags.file,
		Single:          queryFlags.single,
		Stdin:           stdin,
		StdinIsTerminal: isTerminal(stdin),
	})
	if err != nil {
		return err
	}

	if err := checkOutputParent(opts.OutputPath); err != nil {
		return err
	}
	if cfg.API.APIKey == "" {
		return &apperrors.Error{Kind: apperrors.KindUsage, Op: "configure api", Err: apperrors.ErrMissingAPIKey}
	}

	gate, err := buildGate(cfg.PII, queryFlags.allowPII, logger)
	if err != nil {
		return err
	}
	if err := precheckQueries(gate, queries); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	costs, err := costlog.Open(ctx, cfg.CostLog)
	if err != nil {
		logger.Warn("Cost log unavailable, costs will not be recorded", zap.Error(err))
		costs = costlog.Nop{}
	}
	defer costs.Close() // nolint:errcheck // best-effort cleanup

	dispatcher := buildDispatcher(cfg, opts, gate, costs, logger)

	var topic string
	if opts.Deep {
		topic = strings.Join(queries, " ")
		plan := dispatcher.PlanResearch(ctx, topic, opts)
		queries = plan.Queries()
		opts.Overview = plan.Overview
		opts.SectionTitles = plan.Titles()
		if !queryFlags.quiet {
			printPlan(cmd.ErrOrStderr(), plan)
		}
	} else if queryFlags.expand > len(queries) {
		queries = dispatcher.Expand(ctx, queries, queryFlags.expand, opts)
	}

	multi := len(queries) > 1 || opts.Deep || opts.Combine
	if multi || opts.OutputPath != "" {
		naming := queries
		if opts.Deep {
			naming = []string{topic}
		}
		opts.OutputPath = output.ResolveCombinedPath(opts.OutputPath, opts.OutputDir, naming, opts.Format, opts.Deep, time.Now())
	}

	report, err := dispatcher.RunBatch(ctx, queries, opts)
	if err != nil {
		return err
	}

	var syn *core.Synthesis
	if opts.Deep && report.AnySucceeded() {
		syn = dispatcher.Synthesize(ctx, opts.Overview, report, opts)
	}

	if !report.AnySucceeded() {
		if !queryFlags.quiet {
			fmt.Fprintln(cmd.ErrOrStderr(), output.SummaryTable(report, nil))
		}
		return fmt.Errorf("0/%d queries succeeded: %w", report.Requested, apperrors.ErrNoResults)
	}

	var artifact *core.CombinedArtifact
	if multi || opts.OutputPath != "" {
		artifact, err = output.NewAggregator(dispatcher.Writer).Combine(report, syn, opts)
		if err != nil {
			return err
		}
	}

	if report.Partial() {
		logger.Warn("Some queries failed",
			zap.Int("succeeded", report.SuccessCount),
			zap.Int("requested", report.Requested))
	}

	return present(cmd.OutOrStdout(), cmd.ErrOrStderr(), presentation{
		Report:   report,
		Syn:      syn,
		Artifact: artifact,
		Format:   opts.Format,
		Multi:    multi,
		Quiet:    queryFlags.quiet,
		View:     queryFlags.view,
	})
}

// buildOptions merges flags over config. Flags win only when set explicitly.
func buildOptions(cmd *cobra.Command, cfg *config.Config) (core.Options, error) {
	flags := cmd.Flags()

	opts := core.Options{
		Model:        cfg.Query.Model,
		Temperature:  cfg.Query.Temperature,
		TokenMax:     cfg.Query.TokenMax,
		Reasoning:    queryFlags.reasoning,
		ProReasoning: queryFlags.proReasoning,
		MaxParallel:  cfg.Query.MaxParallel,
		Retries:      cfg.Query.Retries,
		Deep:         queryFlags.deep,
		Combine:      queryFlags.combine || queryFlags.deep,
		OutputDir:    cfg.Output.Dir,
		OutputPath:   strings.TrimSpace(queryFlags.output),
	}

	if flags.Changed("model") {
		opts.Model = queryFlags.model
	}
	if !models.Known(opts.Model) {
		observability.CLI().Warn("Unknown model, using default",
			zap.String("model", opts.Model),
			zap.String("default", models.Default))
		opts.Model = models.Default
	}
	if flags.Changed("temperature") {
		opts.Temperature = queryFlags.temperature
	}
	switch {
	case flags.Changed("token-max"):
		opts.TokenMax = queryFlags.tokenMax
	case opts.Deep && cfg.Query.DeepTokens > 0:
		opts.TokenMax = cfg.Query.DeepTokens
	}
	if flags.Changed("max-parallel") {
		opts.MaxParallel = queryFlags.maxParallel
	}
	if flags.Changed("retries") {
		opts.Retries = queryFlags.retries
	}
	if flags.Changed("output-dir") {
		opts.OutputDir = queryFlags.outputDir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = config.DefaultOutputDir
	}

	formatValue := cfg.Query.Format
	if flags.Changed("format") {
		formatValue = queryFlags.format
	}
	format, err := core.ParseFormat(formatValue)
	if err != nil {
		return core.Options{}, apperrors.NewUsage("%v", err)
	}
	opts.Format = format

	promptValue := cfg.Query.Prompt
	if flags.Changed("prompt") {
		promptValue = queryFlags.prompt
	}
	style, err := core.ParsePromptStyle(promptValue)
	if err != nil {
		return core.Options{}, apperrors.NewUsage("%v", err)
	}
	opts.Prompt = style

	if opts.Retries < 0 {
		return core.Options{}, apperrors.NewUsage("retries must not be negative, got %d", opts.Retries)
	}
	if err := opts.Validate(); err != nil {
		return core.Options{}, err
	}
	return opts, nil
}

// checkOutputParent rejects an explicit output path whose directory is missing.
func checkOutputParent(path string) error {
	if path == "" {
		return nil
	}
	parent := filepath.Dir(path)
	info, err := os.Stat(parent)
	if err != nil {
		return apperrors.NewUsage("output directory %s does not exist", parent)
	}
	if !info.IsDir() {
		return apperrors.NewUsage("output parent %s is not a directory", parent)
	}
	return nil
}

func buildGate(cfg config.PIIConfig, allow bool, logger observability.Logger) (*pii.Gate, error) {
	if allow {
		observability.OrNop(logger).Warn("Sensitive-data check disabled for this run")
		return nil, nil
	}
	gate, err := pii.NewGate(cfg, logger)
	if err != nil {
		return nil, &apperrors.Error{Kind: apperrors.KindUsage, Op: "configure pii gate", Err: err}
	}
	return gate, nil
}

// precheckQueries runs the gate over every query before any request is sent.
func precheckQueries(gate *pii.Gate, queries []string) error {
	for i, q := range queries {
		if err := gate.Check(q); err != nil {
			return &apperrors.Error{Kind: apperrors.KindUsage, Op: fmt.Sprintf("pii check query %d", i+1), Err: err}
		}
	}
	return nil
}

func buildDispatcher(cfg *config.Config, opts core.Options, gate *pii.Gate, costs costlog.Recorder, logger observability.Logger) *engine.Dispatcher {
	client := perplexity.NewClient(cfg.API.BaseURL, cfg.API.APIKey)
	client.Timeout = cfg.API.Timeout

	executor := query.NewRetrying(
		query.NewClient(client,
			query.WithRecorder(costs),
			query.WithGate(gate),
			query.WithLogger(logger),
		),
		opts.Retries,
		query.DefaultRetryBackoff,
		logger,
	)

	dir := opts.OutputDir
	if opts.Deep {
		dir = filepath.Join(dir, componentsDir)
	}

	return &engine.Dispatcher{
		Executor: executor,
		Writer:   output.NewWriter(dir, opts.Format, logger),
		Limiter:  engine.NewRateLimiter(cfg.Query.RateLimit, opts.MaxParallel),
		Logger:   logger,
	}
}
