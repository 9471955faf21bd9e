package api

import (
	"encoding/json"
	"time"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// PrimaryRequest asks the backend for candidate directions.
type PrimaryRequest struct {
	ToolKind tools.Kind   `json:"toolKind"`
	Params   tools.Params `json:"params"`
}

func (r *PrimaryRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolKind tools.Kind      `json:"toolKind"`
		Params   json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation, "malformed primary request", err)
	}
	r.ToolKind = raw.ToolKind
	r.Params = nil
	if len(raw.Params) > 0 && string(raw.Params) != "null" {
		params, err := tools.UnmarshalParams(raw.ToolKind, raw.Params)
		if err != nil {
			return err
		}
		r.Params = params
	}
	return nil
}

// PrimaryResultSet carries the generated variants plus the echoed brief,
// so a caller can reconcile which parameters produced which batch.
type PrimaryResultSet struct {
	ToolKind tools.Kind      `json:"toolKind"`
	Variants []tools.Variant `json:"variants"`
	Count    int             `json:"count"`
	Params   tools.Params    `json:"params,omitempty"`
}

func (r *PrimaryResultSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolKind tools.Kind      `json:"toolKind"`
		Variants []tools.Variant `json:"variants"`
		Count    int             `json:"count"`
		Params   json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation, "malformed primary result set", err)
	}
	r.ToolKind = raw.ToolKind
	r.Variants = raw.Variants
	r.Count = raw.Count
	r.Params = nil
	if len(raw.Params) > 0 && string(raw.Params) != "null" {
		params, err := tools.UnmarshalParams(raw.ToolKind, raw.Params)
		if err != nil {
			return err
		}
		r.Params = params
	}
	return nil
}

// SecondaryRequest expands the selected directions into full assets.
type SecondaryRequest struct {
	ToolKind           tools.Kind   `json:"toolKind"`
	SelectedPrimaryIDs []string     `json:"selectedPrimaryIds"`
	Params             tools.Params `json:"params"`
}

func (r *SecondaryRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolKind           tools.Kind      `json:"toolKind"`
		SelectedPrimaryIDs []string        `json:"selectedPrimaryIds"`
		Params             json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation, "malformed secondary request", err)
	}
	r.ToolKind = raw.ToolKind
	r.SelectedPrimaryIDs = raw.SelectedPrimaryIDs
	r.Params = nil
	if len(raw.Params) > 0 && string(raw.Params) != "null" {
		params, err := tools.UnmarshalParams(raw.ToolKind, raw.Params)
		if err != nil {
			return err
		}
		r.Params = params
	}
	return nil
}

// SecondaryResultSet carries the expanded assets.
type SecondaryResultSet struct {
	ToolKind tools.Kind    `json:"toolKind"`
	Assets   []tools.Asset `json:"assets"`
}

func (r *SecondaryResultSet) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolKind tools.Kind      `json:"toolKind"`
		Assets   json.RawMessage `json:"assets"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation, "malformed secondary result set", err)
	}
	r.ToolKind = raw.ToolKind
	r.Assets = nil
	if len(raw.Assets) > 0 && string(raw.Assets) != "null" {
		assets, err := tools.UnmarshalAssets(raw.ToolKind, raw.Assets)
		if err != nil {
			return err
		}
		r.Assets = assets
	}
	return nil
}

// PersistRequest saves the selected assets to the user's library.
type PersistRequest struct {
	ToolKind tools.Kind    `json:"toolKind"`
	Assets   []tools.Asset `json:"assets"`
	Params   tools.Params  `json:"params,omitempty"`
}

func (r *PersistRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ToolKind tools.Kind      `json:"toolKind"`
		Assets   json.RawMessage `json:"assets"`
		Params   json.RawMessage `json:"params"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation, "malformed persist request", err)
	}
	r.ToolKind = raw.ToolKind
	r.Assets = nil
	if len(raw.Assets) > 0 && string(raw.Assets) != "null" {
		assets, err := tools.UnmarshalAssets(raw.ToolKind, raw.Assets)
		if err != nil {
			return err
		}
		r.Assets = assets
	}
	r.Params = nil
	if len(raw.Params) > 0 && string(raw.Params) != "null" {
		params, err := tools.UnmarshalParams(raw.ToolKind, raw.Params)
		if err != nil {
			return err
		}
		r.Params = params
	}
	return nil
}

// PersistAck confirms a save. NewBalance is the post-deduction credit
// balance when the backend includes one; nil means the caller should
// refetch the balance itself.
type PersistAck struct {
	SavedIDs   []string `json:"savedIds,omitempty"`
	NewBalance *int64   `json:"newBalance,omitempty"`
}

// SubscriptionStatus describes the account's plan state.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// CreditBalance reports the account's remaining credits. A MonthlyQuota
// of zero means unlimited.
type CreditBalance struct {
	Balance            int64              `json:"balance"`
	MonthlyQuota       int64              `json:"monthlyQuota,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	RenewalDate        *time.Time         `json:"renewalDate,omitempty"`
	LastSyncedAt       time.Time          `json:"lastSyncedAt,omitempty"`
}
