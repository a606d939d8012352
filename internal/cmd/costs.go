package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/askp-cli/askp/internal/costlog"
	apperrors "github.com/askp-cli/askp/internal/errors"
	"github.com/askp-cli/askp/internal/output"
)

var (
	costsSince  string
	costsBy     string
	costsFormat string
)

var costsCmd = &cobra.Command{
	Use:   "costs",
	Short: "Summarize recorded query spend",
	Long: `Summarize the cost log written after every successful query.

Entries can be limited to a lookback window (--since 30d, 2w, 12h or all) and
grouped by model, project, month or day.`,
	Args: cobra.NoArgs,
	RunE: runCosts,
}

func init() {
	rootCmd.AddCommand(costsCmd)

	costsCmd.Flags().StringVar(&costsSince, "since", "30d", "lookback window: Nd, Nw, Nh or all")
	costsCmd.Flags().StringVar(&costsBy, "by", "model", "group by: model, project, month, day")
	costsCmd.Flags().StringVar(&costsFormat, "format", "table", "output format: table, json")
}

func runCosts(cmd *cobra.Command, args []string) error {
	by, err := costlog.ParseGroupBy(costsBy)
	if err != nil {
		return apperrors.NewUsage("%v", err)
	}
	since, err := costlog.ParseSince(costsSince, time.Now())
	if err != nil {
		return apperrors.NewUsage("%v", err)
	}
	format := strings.ToLower(strings.TrimSpace(costsFormat))
	if format != "table" && format != "json" {
		return apperrors.NewUsage("unsupported output format: %s", costsFormat)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := costlog.Open(cmd.Context(), cfg.CostLog)
	if err != nil {
		return err
	}
	defer log.Close() // nolint:errcheck // best-effort cleanup

	entries, err := log.Entries(cmd.Context(), since)
	if err != nil {
		return fmt.Errorf("read cost log: %w", err)
	}
	summary := costlog.Summarize(entries, by)

	if format == "json" {
		payload, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return nil
	}

	writeCostsTable(cmd.OutOrStdout(), summary, by)
	return nil
}

func writeCostsTable(w io.Writer, summary costlog.Summary, by costlog.GroupBy) {
	if summary.Count == 0 {
		fmt.Fprintln(w, "No cost entries recorded for this period.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{strings.ToUpper(string(by)), "Queries", "Tokens", "Cost", "Avg/Query"})
	for _, g := range summary.Groups {
		avg := 0.0
		if g.Count > 0 {
			avg = g.Cost / float64(g.Count)
		}
		t.AppendRow(table.Row{
			g.Key,
			g.Count,
			output.FormatTokens(g.Tokens),
			fmt.Sprintf("$%.4f", g.Cost),
			fmt.Sprintf("$%.4f", avg),
		})
	}
	t.AppendFooter(table.Row{
		"Total",
		summary.Count,
		output.FormatTokens(summary.Tokens),
		fmt.Sprintf("$%.4f", summary.Cost),
		fmt.Sprintf("$%.4f", summary.AverageCost()),
	})
	t.Render()

	fmt.Fprintf(w, "%s to %s\n", summary.First.Local().Format("2006-01-02 15:04"), summary.Last.Local().Format("2006-01-02 15:04"))
}
