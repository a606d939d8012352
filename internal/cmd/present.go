package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/askp-cli/askp/internal/core"
	"github.com/askp-cli/askp/internal/output"
)

type presentation struct {
	Report   *core.BatchReport
	Syn      *core.Synthesis
	Artifact *core.CombinedArtifact
	Format   core.Format
	Multi    bool
	Quiet    bool
	View     bool
}

// present writes results to stdout and status lines to stderr.
func present(stdout, stderr io.Writer, p presentation) error {
	if p.Multi {
		return presentBatch(stdout, stderr, p)
	}
	return presentSingle(stdout, stderr, p)
}

func presentSingle(stdout, stderr io.Writer, p presentation) error {
	succeeded := p.Report.Succeeded()
	if len(succeeded) == 0 {
		return nil
	}
	result := succeeded[0]

	if !p.Quiet {
		body, err := output.NewRenderer(p.Format).RenderEntry(output.NewEntry(result, result.Index))
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, body)
		fmt.Fprintf(stderr, "%s | %s tokens | $%.4f | %.1fs\n",
			result.Model, output.FormatTokens(result.Tokens), result.Cost, result.ElapsedSeconds)
		if result.SavedPath != "" {
			fmt.Fprintf(stderr, "Result saved: %s\n", output.FormatPath(result.SavedPath))
		}
	}
	if p.Artifact != nil && !p.Quiet {
		fmt.Fprintf(stderr, "Output written: %s\n", output.FormatPath(p.Artifact.Path))
	}
	return nil
}

func presentBatch(stdout, stderr io.Writer, p presentation) error {
	if !p.Quiet {
		fmt.Fprintln(stderr, output.SummaryTable(p.Report, p.Syn))
		if p.Artifact != nil {
			fmt.Fprintf(stderr, "Combined results (%d queries): %s\n", p.Artifact.QueryCount, output.FormatPath(p.Artifact.Path))
		}
	}

	if !p.View || p.Artifact == nil {
		return nil
	}
	data, err := os.ReadFile(p.Artifact.Path)
	if err != nil {
		return fmt.Errorf("read combined file: %w", err)
	}
	_, err = stdout.Write(data)
	return err
}

func printPlan(w io.Writer, plan *core.ResearchPlan) {
	fmt.Fprintf(w, "Research plan: %s\n", plan.Overview)
	for i, s := range plan.Sections {
		fmt.Fprintf(w, "  %d. %s\n", i+1, s.Query)
	}
	fmt.Fprintln(w)
}
