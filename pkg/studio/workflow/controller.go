package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adcraft-ai/adcraft/pkg/studio/api"
	"github.com/adcraft-ai/adcraft/pkg/studio/credits"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/selection"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

const draftIOTimeout = 5 * time.Second

// Controller drives one generation session through the workflow state
// machine. All methods are safe for concurrent use; state only changes
// under the controller's lock, through the transitions the action
// methods implement.
//
// Generation and persistence calls run asynchronously. Each outbound
// call is tagged with the epoch active when it was issued; a result is
// applied only if its tag still equals the session's epoch on arrival,
// so responses outlived by a reset or resubmission are discarded
// without touching state.
type Controller struct {
	id       string
	toolKind tools.Kind
	scopeKey string

	client   api.Client
	bus      *credits.Bus
	drafts   draft.Store
	logger   *slog.Logger
	now      func() time.Time
	onChange func(Session)
	restored *draft.Draft

	mu                 sync.Mutex
	status             Status
	params             tools.Params
	primaryResults     []tools.Variant
	primarySelection   *selection.Set
	secondaryResults   []tools.Asset
	secondarySelection *selection.Set
	savedIDs           []string
	lastErr            *SessionError
	epoch              uint64
	createdAt          time.Time
	updatedAt          time.Time

	wg sync.WaitGroup
}

// NewController creates a session for the given tool in Configuring
// state, or restores one when WithRestoredDraft is given.
func NewController(toolKind tools.Kind, client api.Client, opts ...Option) (*Controller, error) {
	if !toolKind.Valid() {
		return nil, apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("unknown tool kind: %q", toolKind), nil)
	}
	if client == nil {
		return nil, apperrors.New(apperrors.ErrCodeValidation, "api client is required", nil)
	}

	c := &Controller{
		toolKind:           toolKind,
		scopeKey:           DefaultScopeKey,
		client:             client,
		logger:             slog.Default(),
		now:                time.Now,
		status:             StatusConfiguring,
		primarySelection:   selection.New(),
		secondarySelection: selection.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.id == "" {
		c.id = uuid.NewString()
	}
	c.createdAt = c.now()
	c.updatedAt = c.createdAt

	if c.restored != nil {
		c.applyDraft(c.restored)
		c.restored = nil
	}
	return c, nil
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// ToolKind returns the tool this session drives.
func (c *Controller) ToolKind() tools.Kind { return c.toolKind }

// Snapshot returns a copy of the current session state.
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// UpdateParams replaces the session's generation brief. Valid only
// while Configuring.
func (c *Controller) UpdateParams(params tools.Params) error {
	if params == nil {
		return apperrors.New(apperrors.ErrCodeValidation, "params are required", nil)
	}
	if params.Kind() != c.toolKind {
		return apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("params are for %s but the session drives %s", params.Kind(), c.toolKind), nil)
	}

	c.mu.Lock()
	if c.status != StatusConfiguring {
		status := c.status
		c.mu.Unlock()
		return invalidEdge("updateParams", status)
	}
	c.params = params
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)
	return nil
}

// SubmitPrimary validates the brief and starts primary generation. The
// session moves to GeneratingPrimary immediately; the result arrives
// asynchronously.
func (c *Controller) SubmitPrimary(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusConfiguring {
		status := c.status
		c.mu.Unlock()
		return invalidEdge("submitPrimary", status)
	}
	if c.params == nil {
		c.mu.Unlock()
		return apperrors.New(apperrors.ErrCodeValidation, "params are required before generating", nil)
	}
	if err := c.params.Validate(); err != nil {
		c.mu.Unlock()
		return err
	}

	c.epoch++
	epoch := c.epoch
	req := api.PrimaryRequest{ToolKind: c.toolKind, Params: c.params}
	c.setStatusLocked(StatusGeneratingPrimary)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.applyPrimaryOutcome(epoch, c.client.GeneratePrimary(ctx, req))
	}()
	return nil
}

// ToggleSelection flips the selection state of the result at index in
// the stage the session is currently selecting.
func (c *Controller) ToggleSelection(index int) error {
	c.mu.Lock()
	var set *selection.Set
	var limit int
	switch c.status {
	case StatusSelectingPrimary:
		set, limit = c.primarySelection, len(c.primaryResults)
	case StatusSelectingSecondary:
		set, limit = c.secondarySelection, len(c.secondaryResults)
	default:
		status := c.status
		c.mu.Unlock()
		return invalidEdge("toggleSelection", status)
	}
	if index < 0 || index >= limit {
		c.mu.Unlock()
		return apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("selection index %d out of range [0,%d)", index, limit), nil)
	}

	set.Toggle(index)
	c.touchLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)
	return nil
}

// SubmitSecondary expands the selected primary results into full
// assets. Requires a non-empty primary selection.
func (c *Controller) SubmitSecondary(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusSelectingPrimary {
		status := c.status
		c.mu.Unlock()
		return invalidEdge("submitSecondary", status)
	}
	if c.primarySelection.Len() == 0 {
		c.mu.Unlock()
		return apperrors.New(apperrors.ErrCodeValidation, "select at least one primary result first", nil)
	}

	ids := make([]string, 0, c.primarySelection.Len())
	for _, idx := range c.primarySelection.Values() {
		ids = append(ids, c.primaryResults[idx].ID)
	}
	c.epoch++
	epoch := c.epoch
	req := api.SecondaryRequest{ToolKind: c.toolKind, SelectedPrimaryIDs: ids, Params: c.params}
	c.setStatusLocked(StatusGeneratingSecondary)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.applySecondaryOutcome(epoch, c.client.GenerateSecondary(ctx, req))
	}()
	return nil
}

// PersistSelected saves the selected assets to the user's library.
// Requires a non-empty secondary selection. On acknowledgement the
// session completes and a credit event is published.
func (c *Controller) PersistSelected(ctx context.Context) error {
	c.mu.Lock()
	if c.status != StatusSelectingSecondary {
		status := c.status
		c.mu.Unlock()
		return invalidEdge("persistSelected", status)
	}
	if c.secondarySelection.Len() == 0 {
		c.mu.Unlock()
		return apperrors.New(apperrors.ErrCodeValidation, "select at least one asset first", nil)
	}

	assets := make([]tools.Asset, 0, c.secondarySelection.Len())
	for _, idx := range c.secondarySelection.Values() {
		assets = append(assets, c.secondaryResults[idx])
	}
	c.epoch++
	epoch := c.epoch
	req := api.PersistRequest{ToolKind: c.toolKind, Assets: assets, Params: c.params}
	c.setStatusLocked(StatusPersisting)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.applyPersistOutcome(epoch, c.client.PersistSelected(ctx, req))
	}()
	return nil
}

// Back leaves the current selection stage: SelectingSecondary returns
// to SelectingPrimary with the secondary stage cleared, and
// SelectingPrimary returns to Configuring with all results cleared.
// Params are kept either way.
func (c *Controller) Back() error {
	c.mu.Lock()
	switch c.status {
	case StatusSelectingPrimary:
		c.epoch++
		c.primaryResults = nil
		c.primarySelection.Clear()
		c.secondaryResults = nil
		c.secondarySelection.Clear()
		c.setStatusLocked(StatusConfiguring)
	case StatusSelectingSecondary:
		c.epoch++
		c.secondaryResults = nil
		c.secondarySelection.Clear()
		c.setStatusLocked(StatusSelectingPrimary)
	default:
		status := c.status
		c.mu.Unlock()
		return invalidEdge("back", status)
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)
	return nil
}

// Reset returns the session to Configuring from any state, keeping the
// configured params. The epoch bump makes every outstanding call stale,
// and the session's draft slot is cleared.
func (c *Controller) Reset() error {
	c.mu.Lock()
	c.epoch++
	c.primaryResults = nil
	c.primarySelection.Clear()
	c.secondaryResults = nil
	c.secondarySelection.Clear()
	c.savedIDs = nil
	c.lastErr = nil
	c.setStatusLocked(StatusConfiguring)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.deleteDraft()
	c.notify(snap)
	return nil
}

// Close waits for any in-flight call to settle. It does not cancel the
// call; a result for the current epoch still applies before Close
// returns.
func (c *Controller) Close() {
	c.wg.Wait()
}

func (c *Controller) applyPrimaryOutcome(epoch uint64, out api.Outcome[api.PrimaryResultSet]) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding stale primary result",
			"session_id", c.id, "call_epoch", epoch)
		return
	}

	if err := out.Err(); err != nil {
		c.failLocked(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.saveDraft(snap)
		c.notify(snap)
		return
	}

	c.primaryResults = out.Data.Variants
	c.primarySelection.Clear()
	c.secondaryResults = nil
	c.secondarySelection.Clear()
	c.setStatusLocked(StatusSelectingPrimary)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)
}

func (c *Controller) applySecondaryOutcome(epoch uint64, out api.Outcome[api.SecondaryResultSet]) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding stale secondary result",
			"session_id", c.id, "call_epoch", epoch)
		return
	}

	if err := out.Err(); err != nil {
		c.failLocked(err)
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.saveDraft(snap)
		c.notify(snap)
		return
	}

	c.secondaryResults = out.Data.Assets
	c.secondarySelection.Clear()
	c.setStatusLocked(StatusSelectingSecondary)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.saveDraft(snap)
	c.notify(snap)
}

func (c *Controller) applyPersistOutcome(epoch uint64, out api.Outcome[api.PersistAck]) {
	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("discarding stale persist ack",
			"session_id", c.id, "call_epoch", epoch)
		return
	}

	if err := out.Err(); err != nil {
		c.failLocked(persistFailure(err))
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.saveDraft(snap)
		c.notify(snap)
		return
	}

	c.savedIDs = out.Data.SavedIDs
	c.setStatusLocked(StatusCompleted)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.deleteDraft()
	if c.bus != nil {
		c.bus.Publish(credits.Event{
			ToolSlug:   c.toolKind.Slug(),
			NewBalance: out.Data.NewBalance,
			EmittedAt:  c.now(),
		})
	}
	c.notify(snap)
}

func (c *Controller) applyDraft(d *draft.Draft) {
	if d.ToolKind != c.toolKind {
		c.logger.Warn("ignoring draft for a different tool",
			"session_id", c.id, "draft_tool", d.ToolKind, "session_tool", c.toolKind)
		return
	}

	c.params = d.Params
	if len(d.PrimaryResults) > 0 {
		c.primaryResults = d.PrimaryResults
		for _, idx := range d.PrimarySelection {
			if idx >= 0 && idx < len(c.primaryResults) {
				c.primarySelection.Toggle(idx)
			}
		}
	}
	if len(c.primaryResults) > 0 && len(d.SecondaryResults) > 0 {
		c.secondaryResults = d.SecondaryResults
		for _, idx := range d.SecondarySelection {
			if idx >= 0 && idx < len(c.secondaryResults) {
				c.secondarySelection.Toggle(idx)
			}
		}
	}

	switch {
	case len(c.secondaryResults) > 0:
		c.status = StatusSelectingSecondary
	case len(c.primaryResults) > 0:
		c.status = StatusSelectingPrimary
	default:
		c.status = StatusConfiguring
	}
	c.logger.Debug("session restored from draft",
		"session_id", c.id, "status", c.status, "saved_at", d.SavedAt)
}

func (c *Controller) snapshotLocked() Session {
	snap := Session{
		ID:                 c.id,
		ToolKind:           c.toolKind,
		ScopeKey:           c.scopeKey,
		Status:             c.status,
		Params:             c.params,
		PrimarySelection:   c.primarySelection.Values(),
		SecondarySelection: c.secondarySelection.Values(),
		Epoch:              c.epoch,
		CreatedAt:          c.createdAt,
		UpdatedAt:          c.updatedAt,
	}
	if len(c.primaryResults) > 0 {
		snap.PrimaryResults = make([]tools.Variant, len(c.primaryResults))
		copy(snap.PrimaryResults, c.primaryResults)
	}
	if len(c.secondaryResults) > 0 {
		snap.SecondaryResults = make([]tools.Asset, len(c.secondaryResults))
		copy(snap.SecondaryResults, c.secondaryResults)
	}
	if len(c.savedIDs) > 0 {
		snap.SavedIDs = make([]string, len(c.savedIDs))
		copy(snap.SavedIDs, c.savedIDs)
	}
	if c.lastErr != nil {
		errCopy := *c.lastErr
		snap.Error = &errCopy
	}
	return snap
}

func (c *Controller) setStatusLocked(next Status) {
	c.logger.Debug("session transition",
		"session_id", c.id, "from", c.status, "to", next, "epoch", c.epoch)
	c.status = next
	c.touchLocked()
}

func (c *Controller) touchLocked() {
	c.updatedAt = c.now()
}

func (c *Controller) failLocked(err error) {
	kind := apperrors.CodeOf(err)
	if kind == "" {
		kind = apperrors.ErrCodeServer
	}
	c.lastErr = &SessionError{Kind: kind, Message: displayMessage(err)}
	c.setStatusLocked(StatusFailed)
	c.logger.Warn("session failed", "session_id", c.id, "kind", kind, "error", err)
}

func (c *Controller) saveDraft(snap Session) {
	if c.drafts == nil {
		return
	}
	d := &draft.Draft{
		ToolKind:           snap.ToolKind,
		ScopeKey:           snap.ScopeKey,
		Params:             snap.Params,
		PrimarySelection:   snap.PrimarySelection,
		SecondarySelection: snap.SecondarySelection,
		PrimaryResults:     snap.PrimaryResults,
		SecondaryResults:   snap.SecondaryResults,
	}

	ctx, cancel := context.WithTimeout(context.Background(), draftIOTimeout)
	defer cancel()
	if err := c.drafts.Save(ctx, d); err != nil {
		c.logger.Warn("failed to autosave draft", "session_id", c.id, "error", err)
	}
}

func (c *Controller) deleteDraft() {
	if c.drafts == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), draftIOTimeout)
	defer cancel()
	if err := c.drafts.Delete(ctx, c.scopeKey, c.toolKind); err != nil {
		c.logger.Warn("failed to clear draft", "session_id", c.id, "error", err)
	}
}

func (c *Controller) notify(snap Session) {
	if c.onChange != nil {
		c.onChange(snap)
	}
}

func invalidEdge(event string, status Status) error {
	return apperrors.New(apperrors.ErrCodeValidation,
		fmt.Sprintf("%s is not valid while the session is %s", event, status), nil)
}

// persistFailure reclassifies a failed final save. Expired credentials
// keep their kind so the host can refresh and retry; everything else
// counts as a persistence failure.
func persistFailure(err error) error {
	if apperrors.HasCode(err, apperrors.ErrCodeAuthExpired) {
		return err
	}
	return apperrors.New(apperrors.ErrCodePersistence, displayMessage(err), err)
}

// displayMessage extracts the human-readable part of an error, without
// the code prefix AppError.Error adds.
func displayMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
