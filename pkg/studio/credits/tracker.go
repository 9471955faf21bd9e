package credits

import (
	"context"
	"log/slog"
	"sync"
)

// FetchFunc retrieves the current balance from the backend.
type FetchFunc func(ctx context.Context) (int64, error)

// Tracker keeps the last known credit balance. It applies the balance
// carried on credit events directly and refetches from the backend when
// an event arrives without one. Concurrent refreshes are not fenced:
// the last fetch to resolve wins.
type Tracker struct {
	fetch  FetchFunc
	logger *slog.Logger

	mu      sync.RWMutex
	balance int64
	known   bool

	unsubscribe func()
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithTrackerLogger overrides the default logger.
func WithTrackerLogger(logger *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = logger }
}

// NewTracker creates a Tracker subscribed to bus. Close releases the
// subscription and waits for in-flight refreshes.
func NewTracker(bus *Bus, fetch FetchFunc, opts ...TrackerOption) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		fetch:  fetch,
		logger: slog.Default(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.unsubscribe = bus.Subscribe(t.handle)
	return t
}

// Balance returns the last known balance. known is false until the
// first event or refresh resolves.
func (t *Tracker) Balance() (balance int64, known bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.balance, t.known
}

// Apply records a balance observed outside the event flow, such as an
// explicit balance query.
func (t *Tracker) Apply(balance int64) {
	t.store(balance)
}

// Refresh fetches the balance synchronously and stores the result.
func (t *Tracker) Refresh(ctx context.Context) (int64, error) {
	balance, err := t.fetch(ctx)
	if err != nil {
		return 0, err
	}
	t.store(balance)
	return balance, nil
}

// Close unsubscribes from the bus and waits for background refreshes.
func (t *Tracker) Close() {
	t.unsubscribe()
	t.cancel()
	t.wg.Wait()
}

func (t *Tracker) handle(event Event) {
	if event.NewBalance != nil {
		t.store(*event.NewBalance)
		return
	}

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if _, err := t.Refresh(t.ctx); err != nil {
			t.logger.Warn("failed to refresh credit balance",
				"tool", event.ToolSlug, "error", err)
		}
	}()
}

func (t *Tracker) store(balance int64) {
	t.mu.Lock()
	t.balance = balance
	t.known = true
	t.mu.Unlock()
}
