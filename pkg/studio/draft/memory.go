package draft

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// memoryStore keeps drafts as serialized payloads so all drivers share
// the same read-time decode path.
type memoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
	ttl     time.Duration
	now     func() time.Time
}

func (s *memoryStore) Save(ctx context.Context, d *Draft) error {
	d.SavedAt = s.now()
	payload, err := json.Marshal(d)
	if err != nil {
		return apperrors.New(apperrors.ErrCodePersistence, "failed to encode draft", err)
	}

	s.mu.Lock()
	s.entries[d.Key()] = payload
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Load(ctx context.Context, scopeKey string, kind tools.Kind) (*Draft, error) {
	key := Key(scopeKey, kind)

	s.mu.RLock()
	payload, exists := s.entries[key]
	s.mu.RUnlock()
	if !exists {
		return nil, nil
	}

	d, stale := decodeLive(payload, s.ttl, s.now())
	if stale {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, nil
	}
	return d, nil
}

func (s *memoryStore) Delete(ctx context.Context, scopeKey string, kind tools.Kind) error {
	s.mu.Lock()
	delete(s.entries, Key(scopeKey, kind))
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) List(ctx context.Context) ([]*Draft, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.entries))
	payloads := make(map[string][]byte, len(s.entries))
	for key, payload := range s.entries {
		keys = append(keys, key)
		payloads[key] = payload
	}
	s.mu.RUnlock()
	sort.Strings(keys)

	now := s.now()
	var drafts []*Draft
	var stale []string
	for _, key := range keys {
		d, dead := decodeLive(payloads[key], s.ttl, now)
		if dead {
			stale = append(stale, key)
			continue
		}
		drafts = append(drafts, d)
	}

	if len(stale) > 0 {
		s.mu.Lock()
		for _, key := range stale {
			delete(s.entries, key)
		}
		s.mu.Unlock()
	}
	return drafts, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	return nil
}
