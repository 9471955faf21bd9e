package draft

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// StoreType selects the draft storage driver.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeRedis  StoreType = "redis"
	StoreTypeSQLite StoreType = "sqlite"
)

// Store is the draft cache. One slot exists per (scope, kind) pair;
// saves overwrite the slot unconditionally.
type Store interface {
	// Save stamps the draft with the current time and overwrites its slot.
	Save(ctx context.Context, d *Draft) error

	// Load returns the draft for the slot, or nil when the slot is
	// empty. A stored entry past its TTL, or one that no longer parses
	// as a valid draft, is deleted during the read and reported as nil.
	Load(ctx context.Context, scopeKey string, kind tools.Kind) (*Draft, error)

	// Delete clears the slot. Deleting an empty slot is not an error.
	Delete(ctx context.Context, scopeKey string, kind tools.Kind) error

	// List returns all live drafts, applying the same read-time expiry
	// as Load.
	List(ctx context.Context) ([]*Draft, error)

	// Close releases driver resources.
	Close() error
}

// StoreOption configures a draft store.
type StoreOption func(*storeConfig)

type storeConfig struct {
	redisClient *redis.Client
	db          *gorm.DB
	sqlitePath  string
	ttl         time.Duration
	now         func() time.Time
}

// WithRedisClient sets the Redis client for the redis driver.
func WithRedisClient(client *redis.Client) StoreOption {
	return func(c *storeConfig) { c.redisClient = client }
}

// WithDB sets an already-open gorm handle for the sqlite driver.
func WithDB(db *gorm.DB) StoreOption {
	return func(c *storeConfig) { c.db = db }
}

// WithSQLitePath sets the database file for the sqlite driver. Ignored
// when WithDB is given.
func WithSQLitePath(path string) StoreOption {
	return func(c *storeConfig) { c.sqlitePath = path }
}

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) StoreOption {
	return func(c *storeConfig) { c.ttl = ttl }
}

// WithClock overrides the time source used for save stamps and expiry
// checks.
func WithClock(now func() time.Time) StoreOption {
	return func(c *storeConfig) { c.now = now }
}

// NewStore creates a draft store for the given driver type. The redis
// driver requires WithRedisClient; the sqlite driver requires WithDB or
// WithSQLitePath.
func NewStore(storeType StoreType, opts ...StoreOption) (Store, error) {
	config := &storeConfig{
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(config)
	}

	switch storeType {
	case StoreTypeMemory:
		return &memoryStore{
			entries: make(map[string][]byte),
			ttl:     config.ttl,
			now:     config.now,
		}, nil

	case StoreTypeRedis:
		if config.redisClient == nil {
			return nil, apperrors.New(apperrors.ErrCodePersistence,
				"redis draft store requires a redis client", nil)
		}
		return &redisStore{
			client: config.redisClient,
			ttl:    config.ttl,
			now:    config.now,
		}, nil

	case StoreTypeSQLite:
		return newSQLiteStore(config)

	default:
		return nil, apperrors.New(apperrors.ErrCodePersistence,
			"unknown draft store type: "+string(storeType), nil)
	}
}

// decodeLive decodes a stored payload and applies the read-time policy.
// stale is true when the entry must be dropped: it expired, or it no
// longer parses as a valid draft.
func decodeLive(payload []byte, ttl time.Duration, now time.Time) (d *Draft, stale bool) {
	var decoded Draft
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, true
	}
	if now.Sub(decoded.SavedAt) > ttl {
		return nil, true
	}
	return &decoded, false
}
