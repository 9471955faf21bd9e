package workflow

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adcraft-ai/adcraft/pkg/studio/api"
	"github.com/adcraft-ai/adcraft/pkg/studio/credits"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// fakeClient blocks each call until the test queues an outcome on the
// matching channel, so tests control exactly when results arrive.
type fakeClient struct {
	mu             sync.Mutex
	primaryCalls   int
	secondaryCalls int
	persistCalls   int
	lastPrimary    api.PrimaryRequest
	lastSecondary  api.SecondaryRequest
	lastPersist    api.PersistRequest

	primaryOut   chan api.Outcome[api.PrimaryResultSet]
	secondaryOut chan api.Outcome[api.SecondaryResultSet]
	persistOut   chan api.Outcome[api.PersistAck]

	closeOnce sync.Once
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		primaryOut:   make(chan api.Outcome[api.PrimaryResultSet], 4),
		secondaryOut: make(chan api.Outcome[api.SecondaryResultSet], 4),
		persistOut:   make(chan api.Outcome[api.PersistAck], 4),
	}
}

func (f *fakeClient) GeneratePrimary(ctx context.Context, req api.PrimaryRequest) api.Outcome[api.PrimaryResultSet] {
	f.mu.Lock()
	f.primaryCalls++
	f.lastPrimary = req
	f.mu.Unlock()
	return <-f.primaryOut
}

func (f *fakeClient) GenerateSecondary(ctx context.Context, req api.SecondaryRequest) api.Outcome[api.SecondaryResultSet] {
	f.mu.Lock()
	f.secondaryCalls++
	f.lastSecondary = req
	f.mu.Unlock()
	return <-f.secondaryOut
}

func (f *fakeClient) PersistSelected(ctx context.Context, req api.PersistRequest) api.Outcome[api.PersistAck] {
	f.mu.Lock()
	f.persistCalls++
	f.lastPersist = req
	f.mu.Unlock()
	return <-f.persistOut
}

func (f *fakeClient) GetCreditBalance(ctx context.Context) api.Outcome[api.CreditBalance] {
	return api.OK(api.CreditBalance{Balance: 100})
}

// unblock releases any call still waiting on an outcome. Closed
// channels yield zero-value failure outcomes.
func (f *fakeClient) unblock() {
	f.closeOnce.Do(func() {
		close(f.primaryOut)
		close(f.secondaryOut)
		close(f.persistOut)
	})
}

func (f *fakeClient) counts() (primary, secondary, persist int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.primaryCalls, f.secondaryCalls, f.persistCalls
}

func newTestController(t *testing.T, f *fakeClient, opts ...Option) *Controller {
	t.Helper()
	c, err := NewController(tools.KindAdCreative, f, opts...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	t.Cleanup(f.unblock)
	return c
}

func variants(n int) []tools.Variant {
	out := make([]tools.Variant, n)
	for i := range out {
		out[i] = tools.Variant{ID: fmt.Sprintf("var_%d", i+1), Text: fmt.Sprintf("direction %d", i+1)}
	}
	return out
}

func adAssets(n int) []tools.Asset {
	out := make([]tools.Asset, n)
	for i := range out {
		out[i] = tools.AdCreativeAsset{
			ID:           fmt.Sprintf("as_%d", i+1),
			Headline:     fmt.Sprintf("headline %d", i+1),
			BodyText:     "body",
			VisualBrief:  "visual",
			CallToAction: "cta",
		}
	}
	return out
}

func waitStatus(t *testing.T, c *Controller, want Status) Session {
	t.Helper()
	var snap Session
	require.Eventually(t, func() bool {
		snap = c.Snapshot()
		return snap.Status == want
	}, time.Second, 5*time.Millisecond, "session never reached %s", want)
	return snap
}

// driveTo advances a fresh controller to the given status.
func driveTo(t *testing.T, c *Controller, f *fakeClient, target Status) {
	t.Helper()
	if target == StatusConfiguring {
		return
	}
	require.NoError(t, c.UpdateParams(tools.AdCreativeParams{Category: "3"}))
	require.NoError(t, c.SubmitPrimary(context.Background()))
	if target == StatusGeneratingPrimary {
		return
	}
	f.primaryOut <- api.OK(api.PrimaryResultSet{ToolKind: tools.KindAdCreative, Variants: variants(5), Count: 5})
	waitStatus(t, c, StatusSelectingPrimary)
	if target == StatusSelectingPrimary {
		return
	}
	require.NoError(t, c.ToggleSelection(0))
	require.NoError(t, c.SubmitSecondary(context.Background()))
	if target == StatusGeneratingSecondary {
		return
	}
	f.secondaryOut <- api.OK(api.SecondaryResultSet{ToolKind: tools.KindAdCreative, Assets: adAssets(2)})
	waitStatus(t, c, StatusSelectingSecondary)
	if target == StatusSelectingSecondary {
		return
	}
	require.NoError(t, c.ToggleSelection(1))
	require.NoError(t, c.PersistSelected(context.Background()))
	if target == StatusPersisting {
		return
	}
	switch target {
	case StatusCompleted:
		f.persistOut <- api.OK(api.PersistAck{SavedIDs: []string{"as_2"}})
		waitStatus(t, c, StatusCompleted)
	case StatusFailed:
		f.persistOut <- api.Fail[api.PersistAck](apperrors.ErrCodeServer, "boom")
		waitStatus(t, c, StatusFailed)
	}
}

func TestNewControllerStartsConfiguring(t *testing.T) {
	c := newTestController(t, newFakeClient())

	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Equal(t, tools.KindAdCreative, snap.ToolKind)
	assert.Equal(t, uint64(0), snap.Epoch)
	assert.Empty(t, snap.PrimaryResults)
	assert.Nil(t, snap.Error)
	assert.NotEmpty(t, snap.ID)
}

func TestNewControllerRejectsUnknownKind(t *testing.T) {
	_, err := NewController(tools.Kind("banner"), newFakeClient())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestSubmitPrimaryHappyPath(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)

	require.NoError(t, c.UpdateParams(tools.AdCreativeParams{Category: "3"}))
	require.NoError(t, c.SubmitPrimary(context.Background()))

	snap := c.Snapshot()
	assert.Equal(t, StatusGeneratingPrimary, snap.Status)
	assert.Equal(t, uint64(1), snap.Epoch)

	f.primaryOut <- api.OK(api.PrimaryResultSet{ToolKind: tools.KindAdCreative, Variants: variants(5), Count: 5})

	snap = waitStatus(t, c, StatusSelectingPrimary)
	assert.Len(t, snap.PrimaryResults, 5)
	assert.Empty(t, snap.PrimarySelection)
	assert.Nil(t, snap.Error)

	f.mu.Lock()
	req := f.lastPrimary
	f.mu.Unlock()
	assert.Equal(t, tools.KindAdCreative, req.ToolKind)
	assert.Equal(t, tools.AdCreativeParams{Category: "3"}, req.Params)
}

func TestSubmitPrimaryRequiresParams(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)

	err := c.SubmitPrimary(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	assert.Equal(t, StatusConfiguring, c.Snapshot().Status)

	primary, _, _ := f.counts()
	assert.Equal(t, 0, primary)
}

func TestSubmitPrimaryValidatesParams(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)

	require.NoError(t, c.UpdateParams(tools.AdCreativeParams{ProductName: "GlowSerum"}))
	err := c.SubmitPrimary(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Equal(t, uint64(0), snap.Epoch)

	primary, _, _ := f.counts()
	assert.Equal(t, 0, primary)
}

func TestUpdateParamsRejectsKindMismatch(t *testing.T) {
	c := newTestController(t, newFakeClient())

	err := c.UpdateParams(tools.ScriptHookParams{Topic: "gym"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestOneCallInFlightPerSession(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)

	require.NoError(t, c.UpdateParams(tools.AdCreativeParams{Category: "3"}))
	require.NoError(t, c.SubmitPrimary(context.Background()))

	err := c.SubmitPrimary(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))

	f.primaryOut <- api.OK(api.PrimaryResultSet{ToolKind: tools.KindAdCreative, Variants: variants(5), Count: 5})
	waitStatus(t, c, StatusSelectingPrimary)

	primary, _, _ := f.counts()
	assert.Equal(t, 1, primary)
}

func TestToggleInvolution(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingPrimary)

	require.NoError(t, c.ToggleSelection(2))
	assert.Equal(t, []int{2}, c.Snapshot().PrimarySelection)

	require.NoError(t, c.ToggleSelection(2))
	assert.Empty(t, c.Snapshot().PrimarySelection)
}

func TestToggleOutOfRange(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingPrimary)

	for _, index := range []int{-1, 5, 99} {
		err := c.ToggleSelection(index)
		require.Error(t, err, "index %d", index)
		assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	}
	assert.Empty(t, c.Snapshot().PrimarySelection)
}

func TestSubmitSecondaryHappyPath(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingPrimary)

	require.NoError(t, c.ToggleSelection(0))
	require.NoError(t, c.ToggleSelection(2))
	require.NoError(t, c.SubmitSecondary(context.Background()))
	assert.Equal(t, StatusGeneratingSecondary, c.Snapshot().Status)

	f.secondaryOut <- api.OK(api.SecondaryResultSet{ToolKind: tools.KindAdCreative, Assets: adAssets(2)})

	snap := waitStatus(t, c, StatusSelectingSecondary)
	assert.Len(t, snap.SecondaryResults, 2)
	assert.Empty(t, snap.SecondarySelection)
	assert.Len(t, snap.PrimaryResults, 5)

	f.mu.Lock()
	req := f.lastSecondary
	f.mu.Unlock()
	assert.Equal(t, []string{"var_1", "var_3"}, req.SelectedPrimaryIDs)
}

func TestSubmitSecondaryRequiresSelection(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingPrimary)

	err := c.SubmitSecondary(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
	assert.Equal(t, StatusSelectingPrimary, c.Snapshot().Status)
}

func TestPersistPublishesOneCreditEvent(t *testing.T) {
	bus := credits.NewBus()
	var mu sync.Mutex
	var events []credits.Event
	bus.Subscribe(func(e credits.Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	f := newFakeClient()
	c := newTestController(t, f, WithBus(bus))
	driveTo(t, c, f, StatusSelectingSecondary)

	require.NoError(t, c.ToggleSelection(1))
	require.NoError(t, c.PersistSelected(context.Background()))
	assert.Equal(t, StatusPersisting, c.Snapshot().Status)

	remaining := int64(93)
	f.persistOut <- api.OK(api.PersistAck{SavedIDs: []string{"as_2"}, NewBalance: &remaining})

	waitStatus(t, c, StatusCompleted)
	// Close drains the apply goroutine, so the publish has happened.
	c.Close()

	assert.Equal(t, []string{"as_2"}, c.Snapshot().SavedIDs)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "ad_creative", events[0].ToolSlug)
	require.NotNil(t, events[0].NewBalance)
	assert.Equal(t, int64(93), *events[0].NewBalance)
	assert.False(t, events[0].EmittedAt.IsZero())

	f.mu.Lock()
	req := f.lastPersist
	f.mu.Unlock()
	require.Len(t, req.Assets, 1)
	assert.Equal(t, "as_2", req.Assets[0].AssetID())
}

func TestPersistRequiresSelection(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingSecondary)

	err := c.PersistSelected(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation))
}

func TestAuthExpiredFailsSession(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusGeneratingPrimary)

	f.primaryOut <- api.Fail[api.PrimaryResultSet](apperrors.ErrCodeAuthExpired, "token expired")

	snap := waitStatus(t, c, StatusFailed)
	require.NotNil(t, snap.Error)
	assert.Equal(t, apperrors.ErrCodeAuthExpired, snap.Error.Kind)
	assert.Equal(t, "token expired", snap.Error.Message)
}

func TestServerErrorPreservesMessage(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusGeneratingPrimary)

	f.primaryOut <- api.Fail[api.PrimaryResultSet](apperrors.ErrCodeServer, "model overloaded")

	snap := waitStatus(t, c, StatusFailed)
	require.NotNil(t, snap.Error)
	assert.Equal(t, apperrors.ErrCodeServer, snap.Error.Kind)
	assert.Equal(t, "model overloaded", snap.Error.Message)
}

func TestPersistFailureClassifiedAsPersistence(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusPersisting)

	f.persistOut <- api.Fail[api.PersistAck](apperrors.ErrCodeServer, "library write failed")

	snap := waitStatus(t, c, StatusFailed)
	require.NotNil(t, snap.Error)
	assert.Equal(t, apperrors.ErrCodePersistence, snap.Error.Kind)
	assert.Equal(t, "library write failed", snap.Error.Message)
}

func TestPersistAuthExpiryKeepsItsKind(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusPersisting)

	f.persistOut <- api.Fail[api.PersistAck](apperrors.ErrCodeAuthExpired, "token expired")

	snap := waitStatus(t, c, StatusFailed)
	require.NotNil(t, snap.Error)
	assert.Equal(t, apperrors.ErrCodeAuthExpired, snap.Error.Kind)
}

func TestEpochFencingDiscardsStaleResult(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusGeneratingPrimary)

	require.NoError(t, c.Reset())
	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Equal(t, uint64(2), snap.Epoch)

	// Release the epoch-1 call and wait for its apply attempt to finish.
	f.primaryOut <- api.OK(api.PrimaryResultSet{ToolKind: tools.KindAdCreative, Variants: variants(5), Count: 5})
	c.Close()

	snap = c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Empty(t, snap.PrimaryResults)
	assert.Equal(t, uint64(2), snap.Epoch)
	assert.Nil(t, snap.Error)
}

func TestStaleErrorAlsoDiscarded(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusGeneratingPrimary)

	require.NoError(t, c.Reset())
	f.primaryOut <- api.Fail[api.PrimaryResultSet](apperrors.ErrCodeServer, "too late")
	c.Close()

	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Nil(t, snap.Error)
}

func TestBackFromSelectingPrimary(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingPrimary)
	require.NoError(t, c.ToggleSelection(1))
	epochBefore := c.Snapshot().Epoch

	require.NoError(t, c.Back())

	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Equal(t, tools.AdCreativeParams{Category: "3"}, snap.Params)
	assert.Empty(t, snap.PrimaryResults)
	assert.Empty(t, snap.PrimarySelection)
	assert.Equal(t, epochBefore+1, snap.Epoch)
}

func TestBackFromSelectingSecondary(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusSelectingSecondary)

	require.NoError(t, c.Back())

	snap := c.Snapshot()
	assert.Equal(t, StatusSelectingPrimary, snap.Status)
	assert.Len(t, snap.PrimaryResults, 5)
	assert.Equal(t, []int{0}, snap.PrimarySelection)
	assert.Empty(t, snap.SecondaryResults)
	assert.Empty(t, snap.SecondarySelection)
}

func TestResetFromFailedClearsError(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusFailed)
	require.NotNil(t, c.Snapshot().Error)

	require.NoError(t, c.Reset())

	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Nil(t, snap.Error)
	assert.Equal(t, tools.AdCreativeParams{Category: "3"}, snap.Params)
	assert.Empty(t, snap.PrimaryResults)
}

func TestCompletedSessionCanRunAgainAfterReset(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f)
	driveTo(t, c, f, StatusCompleted)

	require.NoError(t, c.Reset())
	require.NoError(t, c.SubmitPrimary(context.Background()))
	f.primaryOut <- api.OK(api.PrimaryResultSet{ToolKind: tools.KindAdCreative, Variants: variants(3), Count: 3})

	snap := waitStatus(t, c, StatusSelectingPrimary)
	assert.Len(t, snap.PrimaryResults, 3)

	primary, _, _ := f.counts()
	assert.Equal(t, 2, primary)
}

func TestInvalidEdgesReturnValidationError(t *testing.T) {
	events := map[string]func(*Controller) error{
		"submitPrimary":   func(c *Controller) error { return c.SubmitPrimary(context.Background()) },
		"submitSecondary": func(c *Controller) error { return c.SubmitSecondary(context.Background()) },
		"persistSelected": func(c *Controller) error { return c.PersistSelected(context.Background()) },
		"toggleSelection": func(c *Controller) error { return c.ToggleSelection(0) },
		"back":            func(c *Controller) error { return c.Back() },
		"updateParams": func(c *Controller) error {
			return c.UpdateParams(tools.AdCreativeParams{Category: "9"})
		},
	}
	invalid := map[Status][]string{
		StatusConfiguring:         {"submitSecondary", "persistSelected", "toggleSelection", "back"},
		StatusGeneratingPrimary:   {"submitPrimary", "submitSecondary", "persistSelected", "toggleSelection", "back", "updateParams"},
		StatusSelectingPrimary:    {"submitPrimary", "persistSelected", "updateParams"},
		StatusGeneratingSecondary: {"submitPrimary", "submitSecondary", "persistSelected", "toggleSelection", "back", "updateParams"},
		StatusSelectingSecondary:  {"submitPrimary", "submitSecondary", "updateParams"},
		StatusPersisting:          {"submitPrimary", "submitSecondary", "persistSelected", "toggleSelection", "back", "updateParams"},
		StatusCompleted:           {"submitPrimary", "submitSecondary", "persistSelected", "toggleSelection", "back", "updateParams"},
		StatusFailed:              {"submitPrimary", "submitSecondary", "persistSelected", "toggleSelection", "back", "updateParams"},
	}

	for status, names := range invalid {
		for _, name := range names {
			t.Run(string(status)+"/"+name, func(t *testing.T) {
				f := newFakeClient()
				c := newTestController(t, f)
				driveTo(t, c, f, status)

				before := c.Snapshot()
				err := events[name](c)
				require.Error(t, err)
				assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidation),
					"expected a validation error, got %v", err)
				assert.Equal(t, before, c.Snapshot())
			})
		}
	}
}

func TestDraftAutosaveLifecycle(t *testing.T) {
	store, err := draft.NewStore(draft.StoreTypeMemory)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	f := newFakeClient()
	c := newTestController(t, f, WithDraftStore(store), WithScopeKey("acct_1"))

	require.NoError(t, c.UpdateParams(tools.AdCreativeParams{Category: "3"}))
	saved, err := store.Load(ctx, "acct_1", tools.KindAdCreative)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, tools.AdCreativeParams{Category: "3"}, saved.Params)
	assert.Empty(t, saved.PrimaryResults)

	driveTo(t, c, f, StatusSelectingPrimary)
	c.Close()
	require.NoError(t, c.ToggleSelection(2))

	saved, err = store.Load(ctx, "acct_1", tools.KindAdCreative)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Len(t, saved.PrimaryResults, 5)
	assert.Equal(t, []int{2}, saved.PrimarySelection)
}

func TestCompletionDeletesDraft(t *testing.T) {
	store, err := draft.NewStore(draft.StoreTypeMemory)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	f := newFakeClient()
	c := newTestController(t, f, WithDraftStore(store), WithScopeKey("acct_1"))
	driveTo(t, c, f, StatusCompleted)
	c.Close()

	saved, err := store.Load(ctx, "acct_1", tools.KindAdCreative)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestResetDeletesDraft(t *testing.T) {
	store, err := draft.NewStore(draft.StoreTypeMemory)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	f := newFakeClient()
	c := newTestController(t, f, WithDraftStore(store), WithScopeKey("acct_1"))
	driveTo(t, c, f, StatusSelectingPrimary)
	c.Close()

	require.NoError(t, c.Reset())

	saved, err := store.Load(ctx, "acct_1", tools.KindAdCreative)
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRestoreParamsOnlyDraft(t *testing.T) {
	c := newTestController(t, newFakeClient(), WithRestoredDraft(&draft.Draft{
		ToolKind: tools.KindAdCreative,
		ScopeKey: "acct_1",
		Params:   tools.AdCreativeParams{Category: "3"},
	}))

	snap := c.Snapshot()
	assert.Equal(t, StatusConfiguring, snap.Status)
	assert.Equal(t, tools.AdCreativeParams{Category: "3"}, snap.Params)
}

func TestRestoreResumesSelection(t *testing.T) {
	f := newFakeClient()
	c := newTestController(t, f, WithRestoredDraft(&draft.Draft{
		ToolKind:         tools.KindAdCreative,
		ScopeKey:         "acct_1",
		Params:           tools.AdCreativeParams{Category: "3"},
		PrimaryResults:   variants(5),
		PrimarySelection: []int{1, 3, 99},
	}))

	snap := c.Snapshot()
	assert.Equal(t, StatusSelectingPrimary, snap.Status)
	assert.Len(t, snap.PrimaryResults, 5)
	// The out-of-range index from the draft is dropped.
	assert.Equal(t, []int{1, 3}, snap.PrimarySelection)

	// The restored session continues normally.
	require.NoError(t, c.SubmitSecondary(context.Background()))
	f.secondaryOut <- api.OK(api.SecondaryResultSet{ToolKind: tools.KindAdCreative, Assets: adAssets(2)})
	waitStatus(t, c, StatusSelectingSecondary)

	f.mu.Lock()
	req := f.lastSecondary
	f.mu.Unlock()
	assert.Equal(t, []string{"var_2", "var_4"}, req.SelectedPrimaryIDs)
}

func TestRestoreResumesSecondaryStage(t *testing.T) {
	c := newTestController(t, newFakeClient(), WithRestoredDraft(&draft.Draft{
		ToolKind:           tools.KindAdCreative,
		ScopeKey:           "acct_1",
		Params:             tools.AdCreativeParams{Category: "3"},
		PrimaryResults:     variants(5),
		PrimarySelection:   []int{0},
		SecondaryResults:   adAssets(2),
		SecondarySelection: []int{1},
	}))

	snap := c.Snapshot()
	assert.Equal(t, StatusSelectingSecondary, snap.Status)
	assert.Equal(t, []int{1}, snap.SecondarySelection)
}

func TestOnChangeObservesTransitions(t *testing.T) {
	var mu sync.Mutex
	var seen []Status
	f := newFakeClient()
	c := newTestController(t, f, WithOnChange(func(s Session) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	}))

	driveTo(t, c, f, StatusCompleted)
	c.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, StatusGeneratingPrimary)
	assert.Contains(t, seen, StatusSelectingPrimary)
	assert.Contains(t, seen, StatusGeneratingSecondary)
	assert.Contains(t, seen, StatusSelectingSecondary)
	assert.Contains(t, seen, StatusPersisting)
	assert.Equal(t, StatusCompleted, seen[len(seen)-1])
}
