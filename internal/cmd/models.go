package cmd

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/askp-cli/askp/internal/models"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List known models and their pricing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		t := table.NewWriter()
		t.SetOutputMirror(cmd.OutOrStdout())
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(table.Row{"Model", "Short ID", "Description", "$/M tokens", "Capabilities", "Reasoning Variant"})
		for _, d := range models.All() {
			t.AppendRow(table.Row{
				d.Name,
				d.ID,
				d.DisplayName,
				fmt.Sprintf("$%.2f", d.CostPerMillion),
				strings.Join(d.Capabilities, ", "),
				d.ReasoningVariant,
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}
