package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/pkg/studio"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

// settleTimeout bounds how long a command waits for an in-flight
// generation before handing control back to the user.
const settleTimeout = 2 * time.Minute

// liveSession pairs a controller with the change feed its host waits
// on. The channel has capacity one; notify never blocks the controller.
type liveSession struct {
	ctrl   *workflow.Controller
	change chan struct{}
}

// openSession resumes the tool's saved draft, or starts fresh when
// fresh is set or no draft exists.
func openSession(ctx context.Context, st *studio.Studio, kind tools.Kind, fresh bool) (*liveSession, error) {
	s := &liveSession{change: make(chan struct{}, 1)}
	hook := workflow.WithOnChange(s.notify)

	var err error
	if fresh {
		s.ctrl, err = st.NewSession(kind, hook)
	} else {
		s.ctrl, err = st.ResumeSession(ctx, kind, hook)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *liveSession) notify(workflow.Session) {
	select {
	case s.change <- struct{}{}:
	default:
	}
}

// settle blocks until no call is in flight, showing a spinner while
// waiting. On timeout or cancellation the still-generating snapshot is
// returned; the draft keeps the session resumable.
func (s *liveSession) settle(ctx context.Context, u *ui.UI, verb string) workflow.Session {
	sp := u.Spinner(verb)
	sp.Start()
	defer sp.Stop()

	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	// The change signal can be consumed by an earlier wait; the ticker
	// re-checks the snapshot regardless.
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap := s.ctrl.Snapshot()
		if !snap.Status.Generating() {
			return snap
		}
		select {
		case <-ctx.Done():
			return snap
		case <-s.change:
		case <-ticker.C:
		}
	}
}

func (s *liveSession) close() {
	if s.ctrl != nil {
		s.ctrl.Close()
	}
}

// parsePicks resolves 1-based selection tokens ("1", "1,3", "all") into
// zero-based indexes, deduplicated and sorted.
func parsePicks(tokens []string, limit int) ([]int, error) {
	seen := make(map[int]bool)
	var out []int
	add := func(idx int) {
		if !seen[idx] {
			seen[idx] = true
			out = append(out, idx)
		}
	}

	for _, tok := range tokens {
		for _, part := range strings.Split(tok, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if part == "all" {
				for i := 0; i < limit; i++ {
					add(i)
				}
				continue
			}
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("pick %q is not a number", part)
			}
			if n < 1 || n > limit {
				return nil, fmt.Errorf("pick %d out of range 1..%d", n, limit)
			}
			add(n - 1)
		}
	}
	sort.Ints(out)
	return out, nil
}

// toggleDiff returns the indexes whose membership differs between the
// current and the chosen selection, in ascending order.
func toggleDiff(current, chosen []int) []int {
	currentSet := make(map[int]bool, len(current))
	for _, idx := range current {
		currentSet[idx] = true
	}
	chosenSet := make(map[int]bool, len(chosen))
	for _, idx := range chosen {
		chosenSet[idx] = true
	}

	var out []int
	for idx := range currentSet {
		if !chosenSet[idx] {
			out = append(out, idx)
		}
	}
	for idx := range chosenSet {
		if idx >= 0 && !currentSet[idx] {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

// applyPicks reconciles the stage selection to exactly the chosen
// indexes by toggling the difference.
func applyPicks(ctrl *workflow.Controller, current, chosen []int) error {
	for _, idx := range toggleDiff(current, chosen) {
		if err := ctrl.ToggleSelection(idx); err != nil {
			return err
		}
	}
	return nil
}
