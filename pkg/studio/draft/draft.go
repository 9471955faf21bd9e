// Package draft stores in-progress generation sessions in a keyed,
// time-limited cache so a user can resume after a reload. Entries
// expire a fixed interval after their last save; expiry is enforced at
// read time.
package draft

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// DefaultTTL is how long a draft stays restorable after its last save.
const DefaultTTL = time.Hour

// Draft is the persisted snapshot of a session. Result fields are only
// present when the session had progressed past the corresponding
// generation step.
type Draft struct {
	ToolKind           tools.Kind      `json:"toolKind"`
	ScopeKey           string          `json:"businessScopeKey"`
	Params             tools.Params    `json:"params,omitempty"`
	PrimarySelection   []int           `json:"primarySelection,omitempty"`
	SecondarySelection []int           `json:"secondarySelection,omitempty"`
	PrimaryResults     []tools.Variant `json:"primaryResults,omitempty"`
	SecondaryResults   []tools.Asset   `json:"secondaryResults,omitempty"`
	SavedAt            time.Time       `json:"savedAt"`
}

// Key derives the storage key for a (scope, kind) slot. Each slot holds
// at most one draft.
func Key(scopeKey string, kind tools.Kind) string {
	return fmt.Sprintf("draft:%s:%s", scopeKey, kind)
}

// Key returns the storage key for this draft's slot.
func (d *Draft) Key() string {
	return Key(d.ScopeKey, d.ToolKind)
}

func (d *Draft) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolKind           tools.Kind      `json:"toolKind"`
		ScopeKey           string          `json:"businessScopeKey"`
		Params             json.RawMessage `json:"params"`
		PrimarySelection   []int           `json:"primarySelection"`
		SecondarySelection []int           `json:"secondarySelection"`
		PrimaryResults     []tools.Variant `json:"primaryResults"`
		SecondaryResults   json.RawMessage `json:"secondaryResults"`
		SavedAt            time.Time       `json:"savedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation, "malformed draft payload", err)
	}
	if !raw.ToolKind.Valid() {
		return apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("draft has unknown tool kind: %q", raw.ToolKind), nil)
	}

	d.ToolKind = raw.ToolKind
	d.ScopeKey = raw.ScopeKey
	d.PrimarySelection = raw.PrimarySelection
	d.SecondarySelection = raw.SecondarySelection
	d.PrimaryResults = raw.PrimaryResults
	d.SavedAt = raw.SavedAt

	d.Params = nil
	if len(raw.Params) > 0 && string(raw.Params) != "null" {
		params, err := tools.UnmarshalParams(raw.ToolKind, raw.Params)
		if err != nil {
			return err
		}
		d.Params = params
	}

	d.SecondaryResults = nil
	if len(raw.SecondaryResults) > 0 && string(raw.SecondaryResults) != "null" {
		assets, err := tools.UnmarshalAssets(raw.ToolKind, raw.SecondaryResults)
		if err != nil {
			return err
		}
		d.SecondaryResults = assets
	}

	return nil
}
