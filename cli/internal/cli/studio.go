package cli

import (
	"github.com/spf13/cobra"
)

var studioCmd = &cobra.Command{
	Use:   "studio",
	Short: "Drive generation sessions",
	Long: `Studio commands create and drive generation sessions: brief a tool,
generate candidate directions, pick and expand them, and save the
results to your library.

Examples:
  adcraft studio shell
  adcraft studio generate --tool ad_creative --set category="fitness apps"
  adcraft studio drafts list`,
}

func init() {
	rootCmd.AddCommand(studioCmd)
}
