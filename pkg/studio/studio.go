// Package studio is the client SDK for the AdCraft generation
// platform. It wires the API client, token source, credit tracking and
// draft cache together and hands out session controllers that drive
// the two-step generation workflow.
package studio

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/adcraft-ai/adcraft/pkg/studio/api"
	"github.com/adcraft-ai/adcraft/pkg/studio/auth"
	"github.com/adcraft-ai/adcraft/pkg/studio/config"
	"github.com/adcraft-ai/adcraft/pkg/studio/credits"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
	"github.com/adcraft-ai/adcraft/pkg/studio/workflow"
)

// Studio owns the shared collaborators behind every generation
// session: one API client, one credit bus and tracker, one draft
// store. Sessions created through it publish and autosave through
// these shared pieces.
type Studio struct {
	config  *config.Config
	logger  *slog.Logger
	tokens  auth.TokenSource
	client  api.Client
	bus     *credits.Bus
	tracker *credits.Tracker
	drafts  draft.Store

	// set only when the token source is the file-backed one, so the
	// refresh loop can be started and stopped with the studio.
	fileTokens *auth.FileSource
}

// Option overrides a collaborator the config would otherwise build.
type Option func(*Studio)

// WithLogger sets the logger shared by all sessions.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Studio) { s.logger = logger }
}

// WithClient replaces the HTTP API client.
func WithClient(client api.Client) Option {
	return func(s *Studio) { s.client = client }
}

// WithTokenSource replaces the configured token source.
func WithTokenSource(tokens auth.TokenSource) Option {
	return func(s *Studio) { s.tokens = tokens }
}

// WithDraftStore replaces the configured draft store.
func WithDraftStore(store draft.Store) Option {
	return func(s *Studio) { s.drafts = store }
}

// New builds a Studio from the configuration. A nil config means
// defaults.
func New(cfg *config.Config, opts ...Option) (*Studio, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Studio{
		config: cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.tokens == nil {
		if cfg.Auth.Token != "" {
			s.tokens = auth.NewStaticSource(cfg.Auth.Token)
		} else {
			fs := auth.NewFileSource(cfg.Auth.TokenPath,
				auth.WithRefreshPeriod(cfg.Auth.RefreshPeriod))
			s.tokens = fs
			s.fileTokens = fs
		}
	}

	if s.client == nil {
		s.client = api.NewHTTPClient(cfg.API.BaseURL, s.tokens,
			api.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}))
	}

	s.bus = credits.NewBus()
	s.tracker = credits.NewTracker(s.bus, s.fetchBalance,
		credits.WithTrackerLogger(s.logger))

	if s.drafts == nil {
		store, err := newDraftStore(cfg)
		if err != nil {
			s.tracker.Close()
			return nil, err
		}
		s.drafts = store
	}

	return s, nil
}

func newDraftStore(cfg *config.Config) (draft.Store, error) {
	opts := []draft.StoreOption{draft.WithTTL(cfg.Drafts.TTL)}
	switch cfg.Drafts.Store {
	case draft.StoreTypeRedis:
		opts = append(opts, draft.WithRedisClient(redis.NewClient(&redis.Options{
			Addr: cfg.Drafts.RedisAddr,
			DB:   cfg.Drafts.RedisDB,
		})))
	case draft.StoreTypeSQLite:
		opts = append(opts, draft.WithSQLitePath(cfg.Drafts.SQLitePath))
	}
	return draft.NewStore(cfg.Drafts.Store, opts...)
}

// Start begins the background token refresh cycle. It is a no-op for
// inline and custom token sources.
func (s *Studio) Start(ctx context.Context) error {
	if s.fileTokens != nil {
		return s.fileTokens.Start(ctx)
	}
	return nil
}

// Close releases the credit tracker, the token refresh loop and the
// draft store. Call it once, after every session is closed.
func (s *Studio) Close() error {
	s.tracker.Close()
	if s.fileTokens != nil {
		s.fileTokens.Stop()
	}
	return s.drafts.Close()
}

// NewSession creates a generation session for the given tool, wired to
// the studio's client, credit bus and draft store.
func (s *Studio) NewSession(toolKind tools.Kind, opts ...workflow.Option) (*workflow.Controller, error) {
	base := []workflow.Option{
		workflow.WithBus(s.bus),
		workflow.WithDraftStore(s.drafts),
		workflow.WithLogger(s.logger),
		workflow.WithScopeKey(s.config.Drafts.ScopeKey),
	}
	return workflow.NewController(toolKind, s.client, append(base, opts...)...)
}

// ResumeSession creates a session restored from the tool's saved
// draft, or a fresh one when no live draft exists.
func (s *Studio) ResumeSession(ctx context.Context, toolKind tools.Kind, opts ...workflow.Option) (*workflow.Controller, error) {
	d, err := s.drafts.Load(ctx, s.scopeKey(), toolKind)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return s.NewSession(toolKind, opts...)
	}
	return s.NewSession(toolKind, append(opts, workflow.WithRestoredDraft(d))...)
}

// CreditBalance fetches the full balance record from the backend and
// feeds the numeric balance into the tracker.
func (s *Studio) CreditBalance(ctx context.Context) (api.CreditBalance, error) {
	out := s.client.GetCreditBalance(ctx)
	if err := out.Err(); err != nil {
		return api.CreditBalance{}, err
	}
	s.tracker.Apply(out.Data.Balance)
	return out.Data, nil
}

// Client returns the shared API client.
func (s *Studio) Client() api.Client { return s.client }

// Bus returns the credit event bus sessions publish on.
func (s *Studio) Bus() *credits.Bus { return s.bus }

// Tracker returns the shared balance tracker.
func (s *Studio) Tracker() *credits.Tracker { return s.tracker }

// Drafts returns the draft store.
func (s *Studio) Drafts() draft.Store { return s.drafts }

// Logger returns the studio logger.
func (s *Studio) Logger() *slog.Logger { return s.logger }

// Config returns the configuration the studio was built from.
func (s *Studio) Config() *config.Config { return s.config }

func (s *Studio) scopeKey() string {
	if s.config.Drafts.ScopeKey != "" {
		return s.config.Drafts.ScopeKey
	}
	return workflow.DefaultScopeKey
}

func (s *Studio) fetchBalance(ctx context.Context) (int64, error) {
	out := s.client.GetCreditBalance(ctx)
	if err := out.Err(); err != nil {
		return 0, err
	}
	return out.Data.Balance, nil
}
