// Package credits broadcasts generation credit consumption inside the
// process and tracks the account's last known balance.
package credits

import "time"

// Event records that a metered action consumed credits, published after
// the backend acknowledges a save.
type Event struct {
	// ToolSlug identifies which generation tool consumed the credits.
	ToolSlug string `json:"tool_slug"`

	// NewBalance is the post-deduction balance when the backend reported
	// one. Nil means the consumer should refetch the balance itself.
	NewBalance *int64 `json:"new_balance,omitempty"`

	EmittedAt time.Time `json:"emitted_at"`
}
