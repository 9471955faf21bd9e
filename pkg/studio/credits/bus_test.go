package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishDeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.Subscribe(func(Event) { order = append(order, "first") })
	bus.Subscribe(func(Event) { order = append(order, "second") })
	bus.Subscribe(func(Event) { order = append(order, "third") })

	bus.Publish(Event{ToolSlug: "ad_creative"})

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestPublishWithoutSubscribersIsHarmless(t *testing.T) {
	bus := NewBus()
	bus.Publish(Event{ToolSlug: "script_hook"})
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	var got int
	unsubscribe := bus.Subscribe(func(Event) { got++ })

	bus.Publish(Event{})
	require.Equal(t, 1, got)

	unsubscribe()
	bus.Publish(Event{})
	assert.Equal(t, 1, got)
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()

	var other int
	unsubscribe := bus.Subscribe(func(Event) {})
	bus.Subscribe(func(Event) { other++ })

	unsubscribe()
	unsubscribe()

	bus.Publish(Event{})
	assert.Equal(t, 1, other)
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(Event{ToolSlug: "ad_creative"})

	var got []Event
	bus.Subscribe(func(e Event) { got = append(got, e) })

	assert.Empty(t, got)

	bus.Publish(Event{ToolSlug: "style_clone"})
	require.Len(t, got, 1)
	assert.Equal(t, "style_clone", got[0].ToolSlug)
}

func TestHandlerUnsubscribingDuringDispatch(t *testing.T) {
	bus := NewBus()

	var first, second int
	var unsubscribeFirst func()
	unsubscribeFirst = bus.Subscribe(func(Event) {
		first++
		unsubscribeFirst()
	})
	bus.Subscribe(func(Event) { second++ })

	// The snapshot taken at publish time still reaches both handlers.
	bus.Publish(Event{})
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	bus.Publish(Event{})
	assert.Equal(t, 1, first)
	assert.Equal(t, 2, second)
}

func TestHandlerSubscribingDuringDispatchSeesNextEvent(t *testing.T) {
	bus := NewBus()

	var late int
	bus.Subscribe(func(Event) {
		if bus.SubscriberCount() == 1 {
			bus.Subscribe(func(Event) { late++ })
		}
	})

	bus.Publish(Event{})
	assert.Equal(t, 0, late)

	bus.Publish(Event{})
	assert.Equal(t, 1, late)
}
