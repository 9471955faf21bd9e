package workflow

import (
	"log/slog"
	"time"

	"github.com/adcraft-ai/adcraft/pkg/studio/credits"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
)

// DefaultScopeKey is used when the host does not scope sessions to an
// account or project.
const DefaultScopeKey = "default"

// Option configures a Controller.
type Option func(*Controller)

// WithBus sets the credit event bus the controller publishes to after a
// successful save.
func WithBus(bus *credits.Bus) Option {
	return func(c *Controller) { c.bus = bus }
}

// WithDraftStore enables draft autosave. Every applied mutation
// overwrites the session's draft slot; completion and reset clear it.
func WithDraftStore(store draft.Store) Option {
	return func(c *Controller) { c.drafts = store }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithClock overrides the time source for timestamps and credit events.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithOnChange registers a hook invoked with a snapshot after every
// applied mutation, outside the controller's lock. The hook may call
// back into the controller.
func WithOnChange(fn func(Session)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithID fixes the session ID instead of generating one.
func WithID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// WithScopeKey scopes the session's draft slot, so concurrent accounts
// or projects do not collide.
func WithScopeKey(key string) Option {
	return func(c *Controller) {
		if key != "" {
			c.scopeKey = key
		}
	}
}

// WithRestoredDraft seeds the session from a previously saved draft.
// The session resumes at the selection stage matching the draft's
// progress, or at Configuring when only params were saved.
func WithRestoredDraft(d *draft.Draft) Option {
	return func(c *Controller) { c.restored = d }
}
