package workflow

import (
	"time"

	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// SessionError is the display form of a terminal failure. Kind is one
// of the error codes from pkg/studio/errors.
type SessionError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is a read-only snapshot of the controller state. Slices are
// copies; mutating them does not affect the controller.
type Session struct {
	ID                 string          `json:"id"`
	ToolKind           tools.Kind      `json:"toolKind"`
	ScopeKey           string          `json:"businessScopeKey"`
	Status             Status          `json:"status"`
	Params             tools.Params    `json:"params,omitempty"`
	PrimaryResults     []tools.Variant `json:"primaryResults,omitempty"`
	PrimarySelection   []int           `json:"primarySelection,omitempty"`
	SecondaryResults   []tools.Asset   `json:"secondaryResults,omitempty"`
	SecondarySelection []int           `json:"secondarySelection,omitempty"`
	SavedIDs           []string        `json:"savedIds,omitempty"`
	Error              *SessionError   `json:"error,omitempty"`
	Epoch              uint64          `json:"epoch"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// SelectedPrimary returns the selected primary variants in index order.
func (s Session) SelectedPrimary() []tools.Variant {
	out := make([]tools.Variant, 0, len(s.PrimarySelection))
	for _, idx := range s.PrimarySelection {
		if idx >= 0 && idx < len(s.PrimaryResults) {
			out = append(out, s.PrimaryResults[idx])
		}
	}
	return out
}

// SelectedSecondary returns the selected assets in index order.
func (s Session) SelectedSecondary() []tools.Asset {
	out := make([]tools.Asset, 0, len(s.SecondarySelection))
	for _, idx := range s.SecondarySelection {
		if idx >= 0 && idx < len(s.SecondaryResults) {
			out = append(out, s.SecondaryResults[idx])
		}
	}
	return out
}
