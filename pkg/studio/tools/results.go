package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
)

// Variant is a primary generation result: one candidate direction the
// user can select for expansion. IDs are assigned by the server.
type Variant struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Asset is a secondary generation result. The concrete type is keyed by
// the tool kind that produced it.
type Asset interface {
	Kind() Kind
	AssetID() string
	// Summary returns a one-line description for list displays.
	Summary() string
}

// AdCreativeAsset is a complete ad expanded from a selected angle.
type AdCreativeAsset struct {
	ID           string `json:"id"`
	Headline     string `json:"headline"`
	BodyText     string `json:"bodyText"`
	VisualBrief  string `json:"visualBrief"`
	CallToAction string `json:"callToAction"`
}

func (a AdCreativeAsset) Kind() Kind      { return KindAdCreative }
func (a AdCreativeAsset) AssetID() string { return a.ID }
func (a AdCreativeAsset) Summary() string { return a.Headline }

// ScriptHookAsset is a full short-form script expanded from a selected hook.
type ScriptHookAsset struct {
	ID     string `json:"id"`
	Hook   string `json:"hook"`
	Script string `json:"script"`
	Outro  string `json:"outro"`
}

func (a ScriptHookAsset) Kind() Kind      { return KindScriptHook }
func (a ScriptHookAsset) AssetID() string { return a.ID }
func (a ScriptHookAsset) Summary() string { return a.Hook }

// StyleCloneAsset is a post written in the cloned voice.
type StyleCloneAsset struct {
	ID       string   `json:"id"`
	Post     string   `json:"post"`
	Hashtags []string `json:"hashtags,omitempty"`
}

func (a StyleCloneAsset) Kind() Kind      { return KindStyleClone }
func (a StyleCloneAsset) AssetID() string { return a.ID }

func (a StyleCloneAsset) Summary() string {
	line := a.Post
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	return line
}

// UnmarshalAssets decodes a JSON array of assets for the given kind.
func UnmarshalAssets(kind Kind, data []byte) ([]Asset, error) {
	switch kind {
	case KindAdCreative:
		var items []AdCreativeAsset
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, malformedAssets(kind, err)
		}
		out := make([]Asset, len(items))
		for i := range items {
			out[i] = items[i]
		}
		return out, nil
	case KindScriptHook:
		var items []ScriptHookAsset
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, malformedAssets(kind, err)
		}
		out := make([]Asset, len(items))
		for i := range items {
			out[i] = items[i]
		}
		return out, nil
	case KindStyleClone:
		var items []StyleCloneAsset
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, malformedAssets(kind, err)
		}
		out := make([]Asset, len(items))
		for i := range items {
			out[i] = items[i]
		}
		return out, nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("unknown tool kind: %q", kind), nil)
	}
}

func malformedAssets(kind Kind, cause error) error {
	return apperrors.New(apperrors.ErrCodeValidation,
		fmt.Sprintf("malformed %s assets payload", kind), cause)
}
