package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/askp-cli/askp/internal/core"
	apperrors "github.com/askp-cli/askp/internal/errors"
)

// SummaryTable renders a per-query status table for a batch.
func SummaryTable(report *core.BatchReport, syn *core.Synthesis) string {
	if report == nil {
		return ""
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Query", "Status", "Model", "Tokens", "Cost", "Time"})

	for i, r := range report.Results {
		if r == nil {
			continue
		}
		status := "ok"
		if !r.OK() {
			status = string(r.Err.Kind)
		}
		t.AppendRow(table.Row{
			i + 1,
			apperrors.QueryPrefix(r.Query, 40),
			status,
			r.Model,
			FormatTokens(r.Tokens),
			fmt.Sprintf("$%.4f", r.Cost),
			fmt.Sprintf("%.1fs", r.ElapsedSeconds),
		})
	}

	totals := report.Totals(syn)
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d/%d succeeded", report.SuccessCount, report.Requested),
		"",
		"",
		FormatTokens(totals.Tokens),
		fmt.Sprintf("$%.4f", totals.Cost),
		fmt.Sprintf("%.1fs (%.2f q/s)", report.ElapsedSeconds, report.QueriesPerSecond),
	})

	return t.Render()
}
