package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
)

// MaxVariantCount bounds how many primary variants a single generation
// request may ask for. Zero means the server default.
const MaxVariantCount = 20

// Params is the per-kind generation brief. Implementations are plain
// value types so snapshots can be copied freely.
type Params interface {
	Kind() Kind
	Validate() error
}

// AdCreativeParams briefs the ad creative tool. Category is the only
// required field; everything else refines the brief.
type AdCreativeParams struct {
	Category     string `json:"category"`
	ProductName  string `json:"productName,omitempty"`
	Description  string `json:"description,omitempty"`
	Platform     string `json:"platform,omitempty"`
	CallToAction string `json:"callToAction,omitempty"`
	Tone         string `json:"tone,omitempty"`
	VariantCount int    `json:"variantCount,omitempty"`
}

func (p AdCreativeParams) Kind() Kind { return KindAdCreative }

func (p AdCreativeParams) Validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(p.Category) == "" {
		errs = multierror.Append(errs, fmt.Errorf("category is required"))
	}
	if err := validateVariantCount(p.VariantCount); err != nil {
		errs = multierror.Append(errs, err)
	}
	return validationError(p.Kind(), errs)
}

// ScriptHookParams briefs the short-form script hook tool.
type ScriptHookParams struct {
	Topic           string `json:"topic"`
	Platform        string `json:"platform,omitempty"`
	Tone            string `json:"tone,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
	VariantCount    int    `json:"variantCount,omitempty"`
}

func (p ScriptHookParams) Kind() Kind { return KindScriptHook }

func (p ScriptHookParams) Validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(p.Topic) == "" {
		errs = multierror.Append(errs, fmt.Errorf("topic is required"))
	}
	if p.DurationSeconds < 0 || p.DurationSeconds > 180 {
		errs = multierror.Append(errs, fmt.Errorf("durationSeconds must be between 0 and 180, got %d", p.DurationSeconds))
	}
	if err := validateVariantCount(p.VariantCount); err != nil {
		errs = multierror.Append(errs, err)
	}
	return validationError(p.Kind(), errs)
}

// StyleCloneParams briefs the style clone tool, which writes a new post
// in the voice of the provided samples.
type StyleCloneParams struct {
	SampleTexts  []string `json:"sampleTexts"`
	Topic        string   `json:"topic"`
	Platform     string   `json:"platform,omitempty"`
	VariantCount int      `json:"variantCount,omitempty"`
}

func (p StyleCloneParams) Kind() Kind { return KindStyleClone }

func (p StyleCloneParams) Validate() error {
	var errs *multierror.Error
	samples := 0
	for _, s := range p.SampleTexts {
		if strings.TrimSpace(s) != "" {
			samples++
		}
	}
	if samples == 0 {
		errs = multierror.Append(errs, fmt.Errorf("at least one non-empty sample text is required"))
	}
	if strings.TrimSpace(p.Topic) == "" {
		errs = multierror.Append(errs, fmt.Errorf("topic is required"))
	}
	if err := validateVariantCount(p.VariantCount); err != nil {
		errs = multierror.Append(errs, err)
	}
	return validationError(p.Kind(), errs)
}

func validateVariantCount(n int) error {
	if n < 0 || n > MaxVariantCount {
		return fmt.Errorf("variantCount must be between 0 and %d, got %d", MaxVariantCount, n)
	}
	return nil
}

func validationError(kind Kind, errs *multierror.Error) error {
	if err := errs.ErrorOrNil(); err != nil {
		return apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("invalid %s params", kind), err)
	}
	return nil
}

// UnmarshalParams decodes the params payload for the given kind into its
// concrete type. The payload is checked for shape only; call Validate on
// the result to check required fields.
func UnmarshalParams(kind Kind, data []byte) (Params, error) {
	switch kind {
	case KindAdCreative:
		var p AdCreativeParams
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, malformedParams(kind, err)
		}
		return p, nil
	case KindScriptHook:
		var p ScriptHookParams
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, malformedParams(kind, err)
		}
		return p, nil
	case KindStyleClone:
		var p StyleCloneParams
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, malformedParams(kind, err)
		}
		return p, nil
	default:
		return nil, apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("unknown tool kind: %q", kind), nil)
	}
}

func malformedParams(kind Kind, cause error) error {
	return apperrors.New(apperrors.ErrCodeValidation,
		fmt.Sprintf("malformed %s params payload", kind), cause)
}
