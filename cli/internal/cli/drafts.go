package cli

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/pkg/studio"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

var draftsClearAll bool

var draftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "Inspect and clear autosaved session drafts",
	Long: `Sessions autosave a draft after every step and drop it an hour after
the last change. One draft slot exists per tool and scope; drafts list
shows the live ones, drafts show prints a draft in full, and drafts
clear empties a slot.`,
}

var draftsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List live drafts",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStudio(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		drafts, err := st.Drafts().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list drafts: %w", err)
		}
		if len(drafts) == 0 {
			appUI.Info("No live drafts.")
			return nil
		}

		t := appUI.Table(table.Row{"Tool", "Scope", "Stage", "Brief", "Saved"})
		for _, d := range drafts {
			t.AppendRow(table.Row{
				d.ToolKind,
				d.ScopeKey,
				ui.StatusColor(string(draftStage(d))),
				firstLine(briefSummary(d.Params)),
				savedAgo(d.SavedAt),
			})
		}
		t.Render()
		return nil
	},
}

var draftsShowCmd = &cobra.Command{
	Use:   "show <tool>",
	Short: "Print one draft in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := tools.ParseKind(args[0])
		if err != nil {
			return err
		}

		st, err := openStudio(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		d, err := st.Drafts().Load(cmd.Context(), draftScope(st), kind)
		if err != nil {
			return fmt.Errorf("failed to load draft: %w", err)
		}
		if d == nil {
			appUI.Info("No live draft for %s.", kind)
			return nil
		}

		appUI.Info("Saved %s", savedAgo(d.SavedAt))
		renderSession(appUI, draftView(d))
		return nil
	},
}

var draftsClearCmd = &cobra.Command{
	Use:   "clear [tool]",
	Short: "Clear a draft slot, or every slot with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !draftsClearAll {
			return fmt.Errorf("name a tool to clear, or pass --all")
		}

		st, err := openStudio(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if draftsClearAll {
			drafts, err := st.Drafts().List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list drafts: %w", err)
			}
			for _, d := range drafts {
				if err := st.Drafts().Delete(cmd.Context(), d.ScopeKey, d.ToolKind); err != nil {
					return fmt.Errorf("failed to clear %s draft: %w", d.ToolKind, err)
				}
			}
			appUI.Success("Cleared %d draft(s).", len(drafts))
			return nil
		}

		kind, err := tools.ParseKind(args[0])
		if err != nil {
			return err
		}
		if err := st.Drafts().Delete(cmd.Context(), draftScope(st), kind); err != nil {
			return fmt.Errorf("failed to clear draft: %w", err)
		}
		appUI.Success("Cleared the %s draft.", kind)
		return nil
	},
}

func init() {
	draftsClearCmd.Flags().BoolVar(&draftsClearAll, "all", false, "Clear every draft, across scopes")

	draftsCmd.AddCommand(draftsListCmd)
	draftsCmd.AddCommand(draftsShowCmd)
	draftsCmd.AddCommand(draftsClearCmd)
	studioCmd.AddCommand(draftsCmd)
}

func draftScope(st *studio.Studio) string {
	if key := st.Config().Drafts.ScopeKey; key != "" {
		return key
	}
	return workflow.DefaultScopeKey
}

// draftStage mirrors where a restored session would resume.
func draftStage(d *draft.Draft) workflow.Status {
	switch {
	case len(d.SecondaryResults) > 0:
		return workflow.StatusSelectingSecondary
	case len(d.PrimaryResults) > 0:
		return workflow.StatusSelectingPrimary
	default:
		return workflow.StatusConfiguring
	}
}

// draftView shapes a draft like a session snapshot so the session
// renderer can print it.
func draftView(d *draft.Draft) workflow.Session {
	return workflow.Session{
		ToolKind:           d.ToolKind,
		ScopeKey:           d.ScopeKey,
		Status:             draftStage(d),
		Params:             d.Params,
		PrimaryResults:     d.PrimaryResults,
		PrimarySelection:   d.PrimarySelection,
		SecondaryResults:   d.SecondaryResults,
		SecondarySelection: d.SecondarySelection,
	}
}

func savedAgo(at time.Time) string {
	age := time.Since(at).Round(time.Second)
	if age < time.Second {
		return "just now"
	}
	return fmt.Sprintf("%s ago", age)
}
