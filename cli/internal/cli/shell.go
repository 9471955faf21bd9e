package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/spf13/cobra"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/pkg/studio"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive generation shell",
	Long: `The shell walks one generation session at a time through the full
workflow: choose a tool, fill in the brief, generate candidate
directions, pick the ones worth expanding, expand them into complete
assets, and save the keepers.

A session autosaves after every step; choosing the same tool later
resumes where you left off.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStudio(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		return runShell(cmd.Context(), st)
	},
}

func init() {
	studioCmd.AddCommand(shellCmd)
}

// shellState carries the one live session the shell drives.
type shellState struct {
	ctx    context.Context
	studio *studio.Studio
	live   *liveSession
}

func runShell(ctx context.Context, st *studio.Studio) error {
	state := &shellState{ctx: ctx, studio: st}
	defer state.closeSession()

	sh := ishell.New()
	sh.Println("adcraft studio shell")
	sh.Println(ui.Faint(`Start with "tool", then "brief" and "generate". "help" lists everything.`))
	sh.SetPrompt(state.prompt())

	sh.AddCmd(&ishell.Cmd{
		Name: "tool",
		Help: "choose the generation tool: tool [ad_creative|script_hook|style_clone]",
		Func: state.cmdTool,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "brief",
		Help: "fill in the generation brief field by field",
		Func: state.cmdBrief,
	})
	sh.AddCmd(&ishell.Cmd{
		Name:    "generate",
		Aliases: []string{"gen"},
		Help:    "generate candidate directions from the brief",
		Func:    state.cmdGenerate,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "pick",
		Help: "pick results for the next step: pick [1 3|all] or interactive",
		Func: state.cmdPick,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "expand",
		Help: "expand the picked directions into complete assets",
		Func: state.cmdExpand,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "save",
		Help: "save the picked assets to your library",
		Func: state.cmdSave,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "show the session's position in the workflow",
		Func: state.cmdStatus,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "back",
		Help: "leave the current selection stage and redo the previous step",
		Func: state.cmdBack,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "reset",
		Help: "return the session to the brief, discarding results",
		Func: state.cmdReset,
	})
	sh.AddCmd(&ishell.Cmd{
		Name: "balance",
		Help: "show the account's credit balance",
		Func: state.cmdBalance,
	})

	sh.Run()
	sh.Close()
	return nil
}

func (s *shellState) prompt() string {
	if s.live == nil {
		return "adcraft> "
	}
	snap := s.live.ctrl.Snapshot()
	return fmt.Sprintf("adcraft %s:%s> ", snap.ToolKind, snap.Status)
}

// active returns the live controller, or warns when no tool is chosen.
func (s *shellState) active() (*workflow.Controller, bool) {
	if s.live == nil {
		appUI.Warning(`No active session. Choose a tool first: tool`)
		return nil, false
	}
	return s.live.ctrl, true
}

func (s *shellState) closeSession() {
	if s.live != nil {
		s.live.close()
		s.live = nil
	}
}

func (s *shellState) fail(err error) {
	appUI.Error("%v", err)
}

func (s *shellState) cmdTool(c *ishell.Context) {
	var kind tools.Kind
	if len(c.Args) > 0 {
		k, err := tools.ParseKind(c.Args[0])
		if err != nil {
			s.fail(err)
			return
		}
		kind = k
	} else {
		descs := tools.Descriptors()
		options := make([]string, len(descs))
		for i, d := range descs {
			options[i] = fmt.Sprintf("%s - %s", d.Title, d.Summary)
		}
		choice := c.MultiChoice(options, "Which tool?")
		if choice < 0 {
			return
		}
		kind = descs[choice].Kind
	}

	s.closeSession()
	live, err := openSession(s.ctx, s.studio, kind, false)
	if err != nil {
		s.fail(err)
		return
	}
	s.live = live

	snap := live.ctrl.Snapshot()
	if snap.Status != workflow.StatusConfiguring || snap.Params != nil {
		appUI.Info("Resumed the saved draft for %s.", kind)
	}
	renderSession(appUI, snap)
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdBrief(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	snap := ctrl.Snapshot()
	desc, ok := tools.Describe(snap.ToolKind)
	if !ok {
		s.fail(fmt.Errorf("no descriptor for tool %s", snap.ToolKind))
		return
	}
	if snap.Status != workflow.StatusConfiguring {
		appUI.Warning("The brief is editable while configuring; run back or reset first.")
		return
	}

	appUI.Info("Brief for %s. Enter keeps the value in brackets.", desc.Title)
	current := briefSettings(snap.Params)
	settings := make(map[string]string)
	for _, name := range desc.Required {
		s.promptField(c, name, true, current, settings)
	}
	for _, name := range desc.Optional {
		s.promptField(c, name, false, current, settings)
	}

	params, err := briefFromSettings(snap.ToolKind, settings)
	if err != nil {
		s.fail(err)
		return
	}
	if err := ctrl.UpdateParams(params); err != nil {
		s.fail(err)
		return
	}
	appUI.Success("Brief saved: %s", briefSummary(params))
	c.SetPrompt(s.prompt())
}

// promptField reads one brief field. Sample texts for the style clone
// tool are collected line by line; everything else is a single value.
func (s *shellState) promptField(c *ishell.Context, name string, required bool, current, settings map[string]string) {
	label := name
	if required {
		label += ui.Red("*")
	}

	if name == "sampleTexts" {
		c.Println(ui.Faint("Sample posts to clone, one per line. An empty line finishes."))
		var samples []string
		for {
			c.Printf("  %s> ", label)
			line := strings.TrimSpace(c.ReadLine())
			if line == "" {
				break
			}
			samples = append(samples, line)
		}
		if len(samples) > 0 {
			encoded, err := json.Marshal(samples)
			if err == nil {
				settings[name] = string(encoded)
			}
		} else if def := current[name]; def != "" {
			settings[name] = def
		}
		return
	}

	if def := current[name]; def != "" {
		c.Printf("%s [%s]: ", label, def)
	} else {
		c.Printf("%s: ", label)
	}
	line := strings.TrimSpace(c.ReadLine())
	switch {
	case line != "":
		settings[name] = line
	case current[name] != "":
		settings[name] = current[name]
	}
}

func (s *shellState) cmdGenerate(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	if err := ctrl.SubmitPrimary(s.ctx); err != nil {
		s.fail(err)
		return
	}
	snap := s.live.settle(s.ctx, appUI, "Generating directions...")
	s.afterSettle(snap)
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdPick(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	snap := ctrl.Snapshot()

	var options []string
	var selected []int
	switch snap.Status {
	case workflow.StatusSelectingPrimary:
		for _, v := range snap.PrimaryResults {
			options = append(options, firstLine(v.Text))
		}
		selected = snap.PrimarySelection
	case workflow.StatusSelectingSecondary:
		for _, a := range snap.SecondaryResults {
			options = append(options, firstLine(a.Summary()))
		}
		selected = snap.SecondarySelection
	default:
		appUI.Warning("Nothing to pick while the session is %s.", snap.Status)
		return
	}

	var chosen []int
	if len(c.Args) > 0 {
		idxs, err := parsePicks(c.Args, len(options))
		if err != nil {
			s.fail(err)
			return
		}
		chosen = idxs
	} else {
		chosen = c.Checklist(options, "Pick with space, confirm with enter:", selected)
	}

	if err := applyPicks(ctrl, selected, chosen); err != nil {
		s.fail(err)
		return
	}
	renderSession(appUI, ctrl.Snapshot())
}

func (s *shellState) cmdExpand(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	if err := ctrl.SubmitSecondary(s.ctx); err != nil {
		s.fail(err)
		return
	}
	snap := s.live.settle(s.ctx, appUI, "Expanding the picked directions...")
	s.afterSettle(snap)
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdSave(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	if err := ctrl.PersistSelected(s.ctx); err != nil {
		s.fail(err)
		return
	}
	snap := s.live.settle(s.ctx, appUI, "Saving to your library...")
	s.afterSettle(snap)
	if snap.Status == workflow.StatusCompleted {
		if balance, known := s.studio.Tracker().Balance(); known {
			appUI.Info("Credits remaining: %s", ui.Cyan(strconv.FormatInt(balance, 10)))
		}
	}
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdStatus(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	snap := ctrl.Snapshot()
	renderSession(appUI, snap)
	if snap.Status.Generating() {
		appUI.Info("A call is in flight; results apply as soon as they land.")
	}
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdBack(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	if err := ctrl.Back(); err != nil {
		s.fail(err)
		return
	}
	renderSession(appUI, ctrl.Snapshot())
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdReset(c *ishell.Context) {
	ctrl, ok := s.active()
	if !ok {
		return
	}
	if err := ctrl.Reset(); err != nil {
		s.fail(err)
		return
	}
	appUI.Success("Session reset. The brief is kept; results and the draft are gone.")
	c.SetPrompt(s.prompt())
}

func (s *shellState) cmdBalance(c *ishell.Context) {
	record, err := s.studio.CreditBalance(s.ctx)
	if err != nil {
		s.fail(err)
		return
	}
	renderBalance(appUI, record)
}

// afterSettle renders the settled session and spells out the less
// obvious outcomes.
func (s *shellState) afterSettle(snap workflow.Session) {
	switch {
	case snap.Status.Generating():
		appUI.Warning("Still working. Run status to check; the draft keeps your progress.")
	case snap.Status == workflow.StatusFailed:
		renderSession(appUI, snap)
		appUI.Info("Run reset to return to the brief and try again.")
	default:
		renderSession(appUI, snap)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 76
	if runes := []rune(s); len(runes) > max {
		s = string(runes[:max-3]) + "..."
	}
	return s
}
