package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adcraft-ai/adcraft/internal/observability"
	studioapi "github.com/adcraft-ai/adcraft/pkg/studio/api"
	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

// Server answers the generation API wire contract. Every /api/v1
// response is an outcome envelope; HTTP status codes carry the
// transport classification (401 for auth, 402 for credits) while the
// envelope carries the message and the token-expired marker.
type Server struct {
	cfg      *Config
	account  *Account
	registry *Registry
	provider Provider
	logger   *slog.Logger
	metrics  *observability.Metrics
	handler  http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics sets the instrument bundle /metrics reports from.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// WithProvider registers an extra content provider before the active
// one is resolved, so tests can inject fakes.
func WithProvider(p Provider) ServerOption {
	return func(s *Server) {
		if err := s.registry.Register(p); err != nil {
			s.logger.Warn("failed to register provider", "provider", p.Name(), "error", err)
		}
	}
}

// NewServer wires the account, the provider registry, and the router.
// The template provider is always available; the SDK providers are
// registered only when their API key resolves, and selecting an
// unavailable provider is an error. Callers validate the config first.
func NewServer(cfg *Config, opts ...ServerOption) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		account:  NewAccount(cfg.Credits),
		registry: NewRegistry(),
		logger:   observability.DiscardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	// Built-ins fill in around anything injected through options.
	if _, err := s.registry.Get(ProviderTemplate); err != nil {
		if err := s.registry.Register(NewTemplateProvider()); err != nil {
			return nil, err
		}
	}
	if cfg.Providers.Anthropic.APIKey != "" {
		if _, err := s.registry.Get(ProviderAnthropic); err != nil {
			if err := s.registry.Register(NewAnthropicProvider(cfg.Providers.Anthropic, s.logger, s.metrics)); err != nil {
				return nil, err
			}
		}
	}
	if cfg.Providers.OpenAI.APIKey != "" {
		if _, err := s.registry.Get(ProviderOpenAI); err != nil {
			if err := s.registry.Register(NewOpenAIProvider(cfg.Providers.OpenAI, s.logger, s.metrics)); err != nil {
				return nil, err
			}
		}
	}

	provider, err := s.registry.Get(cfg.Providers.Active)
	if err != nil {
		return nil, fmt.Errorf("active provider %q is not available (missing API key?): %w",
			cfg.Providers.Active, err)
	}
	s.provider = provider

	s.handler = s.withMetrics(s.routes())
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Account exposes the emulated account, mainly for tests.
func (s *Server) Account() *Account { return s.account }

// Providers lists the registered provider names.
func (s *Server) Providers() []string { return s.registry.List() }

func (s *Server) routes() *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.HandleFunc(studioapi.PathGeneratePrimary, s.authed(s.handleGeneratePrimary)).Methods(http.MethodPost)
	router.HandleFunc(studioapi.PathGenerateSecondary, s.authed(s.handleGenerateSecondary)).Methods(http.MethodPost)
	router.HandleFunc(studioapi.PathCreatives, s.authed(s.handlePersist)).Methods(http.MethodPost)
	router.HandleFunc(studioapi.PathCreditBalance, s.authed(s.handleCreditBalance)).Methods(http.MethodGet)

	return router
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// authed rejects requests without a recognized bearer token. The
// configured expired token is always rejected with the token-expired
// marker so clients can exercise their refresh path.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		switch {
		case token == "":
			s.recordAuthFailure("missing")
			s.writeFailure(w, http.StatusUnauthorized, "missing bearer token", false)
		case token == s.cfg.Auth.ExpiredToken:
			s.recordAuthFailure("expired")
			s.writeFailure(w, http.StatusUnauthorized, "token expired, refresh your credentials", true)
		case token != s.cfg.Auth.APIToken:
			s.recordAuthFailure("unknown")
			s.writeFailure(w, http.StatusUnauthorized, "unknown token", false)
		default:
			next(w, r)
		}
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func (s *Server) handleGeneratePrimary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req studioapi.PrimaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, http.StatusBadRequest, errorText(err), false)
		return
	}
	if !req.ToolKind.Valid() {
		s.writeFailure(w, http.StatusBadRequest, fmt.Sprintf("unknown tool kind: %q", req.ToolKind), false)
		return
	}
	if req.Params == nil {
		s.writeFailure(w, http.StatusBadRequest, "params are required", false)
		return
	}
	if err := req.Params.Validate(); err != nil {
		s.writeFailure(w, http.StatusBadRequest, errorText(err), false)
		return
	}

	newBalance, err := s.account.Charge(PrimaryCost)
	if err != nil {
		s.writeFailure(w, http.StatusPaymentRequired, errorText(err), false)
		return
	}

	count := requestedVariants(req.Params)
	texts, err := s.provider.Variants(r.Context(), req.Params, count)
	if err != nil {
		s.account.Refund(PrimaryCost)
		s.recordGeneration(req.ToolKind, "primary", "error", start)
		s.logger.Error("primary generation failed",
			"tool", req.ToolKind, "provider", s.provider.Name(), "error", err)
		s.writeFailure(w, http.StatusBadGateway, fmt.Sprintf("content provider failed: %v", err), false)
		return
	}

	variants := make([]tools.Variant, 0, len(texts))
	for _, text := range texts {
		variants = append(variants, tools.Variant{ID: uuid.NewString(), Text: text})
	}
	s.account.RememberVariants(variants)

	s.recordGeneration(req.ToolKind, "primary", "success", start)
	s.recordCharge(req.ToolKind, "primary", PrimaryCost, newBalance)
	s.logger.Info("primary generation finished",
		"tool", req.ToolKind, "provider", s.provider.Name(),
		"variants", len(variants), "balance", newBalance)

	s.writeOK(w, studioapi.PrimaryResultSet{
		ToolKind: req.ToolKind,
		Variants: variants,
		Count:    len(variants),
		Params:   req.Params,
	})
}

func (s *Server) handleGenerateSecondary(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req studioapi.SecondaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, http.StatusBadRequest, errorText(err), false)
		return
	}
	if !req.ToolKind.Valid() {
		s.writeFailure(w, http.StatusBadRequest, fmt.Sprintf("unknown tool kind: %q", req.ToolKind), false)
		return
	}
	if len(req.SelectedPrimaryIDs) == 0 {
		s.writeFailure(w, http.StatusBadRequest, "selectedPrimaryIds must not be empty", false)
		return
	}
	if req.Params == nil {
		s.writeFailure(w, http.StatusBadRequest, "params are required", false)
		return
	}

	variants, err := s.account.ResolveVariants(req.SelectedPrimaryIDs)
	if err != nil {
		s.writeFailure(w, http.StatusBadRequest, errorText(err), false)
		return
	}

	cost := SecondaryCostPerVariant * int64(len(variants))
	newBalance, err := s.account.Charge(cost)
	if err != nil {
		s.writeFailure(w, http.StatusPaymentRequired, errorText(err), false)
		return
	}

	assets, err := s.provider.Assets(r.Context(), req.Params, variants)
	if err != nil {
		s.account.Refund(cost)
		s.recordGeneration(req.ToolKind, "secondary", "error", start)
		s.logger.Error("secondary generation failed",
			"tool", req.ToolKind, "provider", s.provider.Name(), "error", err)
		s.writeFailure(w, http.StatusBadGateway, fmt.Sprintf("content provider failed: %v", err), false)
		return
	}

	assets = withAssetIDs(assets)
	s.recordGeneration(req.ToolKind, "secondary", "success", start)
	s.recordCharge(req.ToolKind, "secondary", cost, newBalance)
	s.logger.Info("secondary generation finished",
		"tool", req.ToolKind, "provider", s.provider.Name(),
		"assets", len(assets), "balance", newBalance)

	s.writeOK(w, studioapi.SecondaryResultSet{
		ToolKind: req.ToolKind,
		Assets:   assets,
	})
}

func (s *Server) handlePersist(w http.ResponseWriter, r *http.Request) {
	var req studioapi.PersistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeFailure(w, http.StatusBadRequest, errorText(err), false)
		return
	}
	if !req.ToolKind.Valid() {
		s.writeFailure(w, http.StatusBadRequest, fmt.Sprintf("unknown tool kind: %q", req.ToolKind), false)
		return
	}
	if len(req.Assets) == 0 {
		s.writeFailure(w, http.StatusBadRequest, "assets must not be empty", false)
		return
	}

	// Persisting is free; the ack reports the balance so clients can
	// settle their local view without a second call.
	ids := s.account.SaveAssets(req.ToolKind, req.Assets)
	balance := s.account.Balance()

	if s.metrics != nil {
		s.metrics.RecordCreativesSaved(string(req.ToolKind), len(ids))
	}
	s.logger.Info("creatives saved",
		"tool", req.ToolKind, "count", len(ids), "balance", balance)

	s.writeOK(w, studioapi.PersistAck{
		SavedIDs:   ids,
		NewBalance: &balance,
	})
}

func (s *Server) handleCreditBalance(w http.ResponseWriter, r *http.Request) {
	s.writeOK(w, s.account.CreditBalance())
}

// withAssetIDs assigns ids to provider output, which leaves them empty.
func withAssetIDs(assets []tools.Asset) []tools.Asset {
	out := make([]tools.Asset, 0, len(assets))
	for _, a := range assets {
		switch asset := a.(type) {
		case tools.AdCreativeAsset:
			asset.ID = uuid.NewString()
			out = append(out, asset)
		case tools.ScriptHookAsset:
			asset.ID = uuid.NewString()
			out = append(out, asset)
		case tools.StyleCloneAsset:
			asset.ID = uuid.NewString()
			out = append(out, asset)
		default:
			out = append(out, a)
		}
	}
	return out
}

func (s *Server) writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func (s *Server) writeFailure(w http.ResponseWriter, status int, message string, tokenExpired bool) {
	envelope := map[string]any{
		"success": false,
		"error":   message,
	}
	if tokenExpired {
		envelope["isTokenExpired"] = true
	}
	writeJSON(w, status, envelope)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are gone; nothing left to do but note it.
		slog.Debug("failed to encode response", "error", err)
	}
}

// withMetrics records request counts and latency for every route.
func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.metrics == nil {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.metrics.RecordHTTPRequest(r.Method, r.URL.Path,
			strconv.Itoa(recorder.status), time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) recordGeneration(kind tools.Kind, stage, status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGeneration(string(kind), stage, status, time.Since(start).Seconds())
}

func (s *Server) recordCharge(kind tools.Kind, stage string, cost, newBalance int64) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordCharge(string(kind), stage, cost, newBalance)
}

func (s *Server) recordAuthFailure(reason string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordAuthFailure(reason)
}

// errorText extracts the readable part of an error, dropping the
// AppError code prefix that belongs to the client-side taxonomy.
func errorText(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}
