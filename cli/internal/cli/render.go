package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

func pickMark(picked bool) string {
	if picked {
		return ui.Green("✓")
	}
	return ""
}

func selectedSet(indexes []int) map[int]bool {
	set := make(map[int]bool, len(indexes))
	for _, idx := range indexes {
		set[idx] = true
	}
	return set
}

// renderVariants prints the candidate directions with 1-based indexes
// and selection marks.
func renderVariants(u *ui.UI, snap workflow.Session) {
	picked := selectedSet(snap.PrimarySelection)
	t := u.Table(table.Row{"#", "Pick", "Direction"})
	for i, variant := range snap.PrimaryResults {
		t.AppendRow(table.Row{i + 1, pickMark(picked[i]), ui.Wrap(variant.Text, ui.WrapWidth)})
	}
	t.Render()
}

// renderAssets prints the expanded assets as a summary table.
func renderAssets(u *ui.UI, snap workflow.Session) {
	picked := selectedSet(snap.SecondarySelection)
	t := u.Table(table.Row{"#", "Pick", "Asset"})
	for i, asset := range snap.SecondaryResults {
		t.AppendRow(table.Row{i + 1, pickMark(picked[i]), ui.Wrap(asset.Summary(), ui.WrapWidth)})
	}
	t.Render()
}

// renderAssetDetail prints every field of one asset.
func renderAssetDetail(u *ui.UI, index int, asset tools.Asset, picked bool) {
	header := fmt.Sprintf("%d.", index+1)
	if picked {
		header += " " + pickMark(true)
	}
	fmt.Fprintln(u.Out, ui.Cyan(header))

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(u.Out, "   %s\n%s\n", ui.Faint(label), ui.Indent(ui.Wrap(value, ui.WrapWidth-3), 3))
	}

	switch a := asset.(type) {
	case tools.AdCreativeAsset:
		field("Headline", a.Headline)
		field("Body", a.BodyText)
		field("Visual brief", a.VisualBrief)
		field("Call to action", a.CallToAction)
	case tools.ScriptHookAsset:
		field("Hook", a.Hook)
		field("Script", a.Script)
		field("Outro", a.Outro)
	case tools.StyleCloneAsset:
		field("Post", a.Post)
		field("Hashtags", strings.Join(a.Hashtags, " "))
	default:
		field("Summary", asset.Summary())
	}
}

// renderSession prints the session panel: tool, status, brief, results
// and the last error.
func renderSession(u *ui.UI, snap workflow.Session) {
	title := string(snap.ToolKind)
	if d, ok := tools.Describe(snap.ToolKind); ok {
		title = fmt.Sprintf("%s (%s)", d.Title, snap.ToolKind)
	}
	fmt.Fprintf(u.Out, "%s %s\n", ui.Faint("Tool:"), title)
	fmt.Fprintf(u.Out, "%s %s\n", ui.Faint("Status:"), ui.StatusColor(string(snap.Status)))
	if summary := briefSummary(snap.Params); summary != "" {
		fmt.Fprintf(u.Out, "%s %s\n", ui.Faint("Brief:"), summary)
	}
	if snap.Error != nil {
		u.Error("%s: %s", snap.Error.Kind, snap.Error.Message)
	}

	switch snap.Status {
	case workflow.StatusSelectingPrimary:
		renderVariants(u, snap)
	case workflow.StatusSelectingSecondary:
		picked := selectedSet(snap.SecondarySelection)
		for i, asset := range snap.SecondaryResults {
			renderAssetDetail(u, i, asset, picked[i])
		}
	case workflow.StatusCompleted:
		if len(snap.SavedIDs) > 0 {
			u.Success("Saved %d asset(s): %s", len(snap.SavedIDs), strings.Join(snap.SavedIDs, ", "))
		}
	}
}

// briefSummary renders the configured params as a compact one-liner.
func briefSummary(params tools.Params) string {
	if params == nil {
		return ""
	}

	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, fmt.Sprintf("%s=%s", key, value))
		}
	}
	addInt := func(key string, value int) {
		if value != 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", key, value))
		}
	}

	switch p := params.(type) {
	case tools.AdCreativeParams:
		add("category", p.Category)
		add("product", p.ProductName)
		add("platform", p.Platform)
		add("cta", p.CallToAction)
		add("tone", p.Tone)
		addInt("variants", p.VariantCount)
	case tools.ScriptHookParams:
		add("topic", p.Topic)
		add("platform", p.Platform)
		add("tone", p.Tone)
		addInt("duration", p.DurationSeconds)
		addInt("variants", p.VariantCount)
	case tools.StyleCloneParams:
		add("topic", p.Topic)
		add("platform", p.Platform)
		addInt("samples", len(p.SampleTexts))
		addInt("variants", p.VariantCount)
	}
	return strings.Join(parts, " ")
}
