package sandbox

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// Registered provider names.
const (
	ProviderTemplate  = "template"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// DefaultVariantCount is used when a brief does not ask for a specific
// number of primary variants.
const DefaultVariantCount = 4

// Provider is a content backend. Variants produces primary candidates
// for a brief; Assets expands selected candidates into finished
// creatives, one asset per variant, in order. Asset IDs are assigned by
// the server, so providers leave them empty.
type Provider interface {
	Name() string
	Variants(ctx context.Context, params tools.Params, count int) ([]string, error)
	Assets(ctx context.Context, params tools.Params, variants []tools.Variant) ([]tools.Asset, error)
}

// Registry holds the available providers.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Provider),
	}
}

// Register registers a provider. Registering the same name twice is an
// error.
func (r *Registry) Register(provider Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := provider.Name()
	if _, exists := r.providers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.providers[name] = provider
	return nil
}

// Get retrieves a provider by name.
func (r *Registry) Get(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.providers[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return provider, nil
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// requestedVariants resolves how many primary candidates a brief asks
// for, applying the server default and cap.
func requestedVariants(params tools.Params) int {
	var n int
	switch p := params.(type) {
	case tools.AdCreativeParams:
		n = p.VariantCount
	case tools.ScriptHookParams:
		n = p.VariantCount
	case tools.StyleCloneParams:
		n = p.VariantCount
	}
	if n <= 0 {
		n = DefaultVariantCount
	}
	if n > tools.MaxVariantCount {
		n = tools.MaxVariantCount
	}
	return n
}
