package credits

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerStartsUnknown(t *testing.T) {
	tracker := NewTracker(NewBus(), func(context.Context) (int64, error) { return 0, nil })
	defer tracker.Close()

	_, known := tracker.Balance()
	assert.False(t, known)
}

func TestTrackerAppliesCarriedBalance(t *testing.T) {
	bus := NewBus()
	tracker := NewTracker(bus, func(context.Context) (int64, error) {
		t.Fatal("fetch should not be called when the event carries a balance")
		return 0, nil
	})
	defer tracker.Close()

	remaining := int64(95)
	bus.Publish(Event{ToolSlug: "ad_creative", NewBalance: &remaining})

	balance, known := tracker.Balance()
	require.True(t, known)
	assert.Equal(t, int64(95), balance)
}

func TestTrackerRefetchesWhenBalanceAbsent(t *testing.T) {
	bus := NewBus()
	tracker := NewTracker(bus, func(context.Context) (int64, error) { return 37, nil })
	defer tracker.Close()

	bus.Publish(Event{ToolSlug: "script_hook"})

	require.Eventually(t, func() bool {
		balance, known := tracker.Balance()
		return known && balance == 37
	}, time.Second, 10*time.Millisecond)
}

func TestTrackerLastFetchToResolveWins(t *testing.T) {
	results := make(chan int64)
	tracker := NewTracker(NewBus(), func(ctx context.Context) (int64, error) {
		return <-results, nil
	})
	defer tracker.Close()

	done := make(chan struct{}, 2)
	for range 2 {
		go func() {
			_, err := tracker.Refresh(context.Background())
			require.NoError(t, err)
			done <- struct{}{}
		}()
	}

	results <- 100
	<-done
	results <- 50
	<-done

	balance, known := tracker.Balance()
	require.True(t, known)
	assert.Equal(t, int64(50), balance)
}

func TestTrackerKeepsBalanceWhenRefreshFails(t *testing.T) {
	bus := NewBus()
	calls := 0
	tracker := NewTracker(bus, func(context.Context) (int64, error) {
		calls++
		return 0, errors.New("backend down")
	})

	seed := int64(80)
	bus.Publish(Event{ToolSlug: "ad_creative", NewBalance: &seed})
	bus.Publish(Event{ToolSlug: "ad_creative"})

	// Close waits for the background refresh to finish.
	tracker.Close()

	balance, known := tracker.Balance()
	require.True(t, known)
	assert.Equal(t, int64(80), balance)
	assert.Equal(t, 1, calls)
}

func TestTrackerCloseStopsDelivery(t *testing.T) {
	bus := NewBus()
	tracker := NewTracker(bus, func(context.Context) (int64, error) { return 1, nil })
	tracker.Close()

	remaining := int64(10)
	bus.Publish(Event{NewBalance: &remaining})

	_, known := tracker.Balance()
	assert.False(t, known)
	assert.Equal(t, 0, bus.SubscriberCount())
}
