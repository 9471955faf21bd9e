package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

var (
	generateTool       string
	generateBriefFile  string
	generateSet        []string
	generatePicks      string
	generateAssetPicks string
	generateFresh      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run a full generation pass non-interactively",
	Long: `Generate runs brief, generation, selection, expansion and save in one
pass. The brief comes from --brief-file (YAML or JSON, field names as
in the tool's schema) and --set overrides; --pick and --pick-assets
take 1-based indexes and decide what moves to the next step.

A session interrupted mid-flow leaves a draft; rerunning the command
resumes at the stage the draft reached unless --fresh is set.

Examples:
  adcraft studio generate --tool ad_creative --set category="fitness apps" --set tone=bold
  adcraft studio generate --tool script_hook --brief-file brief.yaml --pick 1,3 --pick-assets all`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateTool, "tool", "t", "", "Tool kind (ad_creative, script_hook, style_clone)")
	generateCmd.Flags().StringVar(&generateBriefFile, "brief-file", "", "YAML or JSON file holding the brief")
	generateCmd.Flags().StringArrayVar(&generateSet, "set", nil, "Brief field as key=value (repeatable)")
	generateCmd.Flags().StringVar(&generatePicks, "pick", "1", "Directions to expand, 1-based (e.g. 1,3 or all)")
	generateCmd.Flags().StringVar(&generateAssetPicks, "pick-assets", "all", "Assets to save, 1-based (e.g. 2 or all)")
	generateCmd.Flags().BoolVar(&generateFresh, "fresh", false, "Start over, ignoring any saved draft")
	_ = generateCmd.MarkFlagRequired("tool")

	studioCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	kind, err := tools.ParseKind(generateTool)
	if err != nil {
		return err
	}

	st, err := openStudio(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := cmd.Context()
	live, err := openSession(ctx, st, kind, generateFresh)
	if err != nil {
		return err
	}
	defer live.close()

	ctrl := live.ctrl
	snap := ctrl.Snapshot()
	if snap.Status != workflow.StatusConfiguring {
		appUI.Info("Resuming the saved %s draft at %s.", kind, ui.StatusColor(string(snap.Status)))
		if generateBriefFile != "" || len(generateSet) > 0 {
			appUI.Warning("The resumed draft is past the brief; --brief-file and --set are ignored. Use --fresh to start over.")
		}
	}

	if snap.Status == workflow.StatusConfiguring {
		params, err := mergeBrief(kind, snap.Params, generateBriefFile, generateSet)
		if err != nil {
			return err
		}
		if params == nil {
			return fmt.Errorf("the brief is empty; pass --brief-file or --set key=value")
		}
		if err := ctrl.UpdateParams(params); err != nil {
			return err
		}
		appUI.Info("Brief: %s", briefSummary(params))

		if err := ctrl.SubmitPrimary(ctx); err != nil {
			return err
		}
		snap = live.settle(ctx, appUI, "Generating directions...")
		if snap.Status != workflow.StatusSelectingPrimary {
			return settleFailure(snap)
		}
		renderVariants(appUI, snap)
	}

	if snap.Status == workflow.StatusSelectingPrimary {
		picks, err := parsePicks(strings.Split(generatePicks, ","), len(snap.PrimaryResults))
		if err != nil {
			return fmt.Errorf("--pick: %w", err)
		}
		if err := applyPicks(ctrl, snap.PrimarySelection, picks); err != nil {
			return err
		}

		if err := ctrl.SubmitSecondary(ctx); err != nil {
			return err
		}
		snap = live.settle(ctx, appUI, "Expanding the picked directions...")
		if snap.Status != workflow.StatusSelectingSecondary {
			return settleFailure(snap)
		}
		renderAssets(appUI, snap)
	}

	if snap.Status == workflow.StatusSelectingSecondary {
		picks, err := parsePicks(strings.Split(generateAssetPicks, ","), len(snap.SecondaryResults))
		if err != nil {
			return fmt.Errorf("--pick-assets: %w", err)
		}
		if err := applyPicks(ctrl, snap.SecondarySelection, picks); err != nil {
			return err
		}

		if err := ctrl.PersistSelected(ctx); err != nil {
			return err
		}
		snap = live.settle(ctx, appUI, "Saving to your library...")
		if snap.Status != workflow.StatusCompleted {
			return settleFailure(snap)
		}
	}

	appUI.Success("Saved %d asset(s).", len(snap.SavedIDs))
	for _, id := range snap.SavedIDs {
		fmt.Fprintln(appUI.Out, id)
	}
	if balance, known := st.Tracker().Balance(); known {
		appUI.Info("Credits remaining: %d", balance)
	}
	return nil
}

// settleFailure turns a session that did not reach the expected stage
// into a command error.
func settleFailure(snap workflow.Session) error {
	if snap.Error != nil {
		return fmt.Errorf("%s: %s", snap.Error.Kind, snap.Error.Message)
	}
	if snap.Status.Generating() {
		return fmt.Errorf("generation timed out after %s; the draft keeps your progress, rerun to resume", settleTimeout)
	}
	return fmt.Errorf("session stopped at %s", snap.Status)
}
