// Package tools defines the generation tool kinds and their typed
// parameter and result schemas. Each kind carries its own schema; the
// workflow state machine is written once against the interfaces here.
package tools

import (
	"fmt"

	"github.com/stoewer/go-strcase"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
)

// Kind discriminates the generation tools.
type Kind string

const (
	KindAdCreative Kind = "ad_creative"
	KindScriptHook Kind = "script_hook"
	KindStyleClone Kind = "style_clone"
)

// Kinds returns all known tool kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindAdCreative, KindScriptHook, KindStyleClone}
}

// Valid reports whether k names a known tool kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAdCreative, KindScriptHook, KindStyleClone:
		return true
	}
	return false
}

// Slug returns the wire identifier for the kind, also used as the
// toolSlug on credit events.
func (k Kind) Slug() string {
	return string(k)
}

// ParseKind resolves a kind from its slug. Kebab-case spellings from CLI
// arguments ("ad-creative") are accepted alongside the canonical slug.
func ParseKind(s string) (Kind, error) {
	k := Kind(strcase.SnakeCase(s))
	if !k.Valid() {
		return "", apperrors.New(apperrors.ErrCodeValidation,
			fmt.Sprintf("unknown tool kind: %q", s), nil)
	}
	return k, nil
}
