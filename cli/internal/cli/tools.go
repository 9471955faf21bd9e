package cli

import (
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the generation tools and their brief fields",
	RunE: func(cmd *cobra.Command, args []string) error {
		t := appUI.Table(table.Row{"Tool", "Title", "Required", "Optional"})
		for _, d := range tools.Descriptors() {
			t.AppendRow(table.Row{
				d.Kind,
				d.Title,
				strings.Join(d.Required, ", "),
				strings.Join(d.Optional, ", "),
			})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}
