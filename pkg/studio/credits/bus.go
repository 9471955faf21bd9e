package credits

import "sync"

// Handler receives credit events synchronously on the publishing
// goroutine. Handlers must not block.
type Handler func(Event)

// Bus is an in-process publish/subscribe hub for credit events.
// Delivery is synchronous and follows subscription order. Events are
// not replayed; a handler only sees events published after it
// subscribed.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

type subscription struct {
	id      int
	handler Handler
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers handler and returns its unsubscribe function.
// Calling unsubscribe more than once is harmless.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs = append(b.subs, subscription{id: id, handler: handler})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, sub := range b.subs {
			if sub.id == id {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every current subscriber in subscription
// order. The subscriber list is snapshotted first, so a handler that
// subscribes or unsubscribes during dispatch takes effect on the next
// publish without corrupting this one.
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	snapshot := make([]subscription, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.RUnlock()

	for _, sub := range snapshot {
		sub.handler(event)
	}
}

// SubscriberCount reports how many handlers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
