package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	studiomcp "github.com/adcraft-ai/adcraft/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the studio workflow as MCP tools on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio, so agents can
drive generation sessions. Configure your agent host with:

  {
    "mcpServers": {
      "adcraft": { "command": "adcraft", "args": ["mcp"] }
    }
  }

Available tools: studio_list_tools, studio_start_session,
studio_submit_brief, studio_session_status, studio_toggle_selection,
studio_expand_selected, studio_save_selected, studio_reset_session,
studio_credit_balance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStudio(cmd)
		if err != nil {
			return err
		}
		defer st.Close()

		srv := studiomcp.NewServer(st)
		defer srv.Close()
		if err := srv.ServeStdio(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
