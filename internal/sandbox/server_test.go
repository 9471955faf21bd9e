package sandbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adcraft-ai/adcraft/internal/observability"
	studioapi "github.com/adcraft-ai/adcraft/pkg/studio/api"
	"github.com/adcraft-ai/adcraft/pkg/studio/auth"
	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
	"github.com/adcraft-ai/adcraft/pkg/studio/tools"
)

func newTestServer(t *testing.T, mutate func(*Config), opts ...ServerOption) (*Server, *httptest.Server) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Credits.StartingBalance = 20
	if mutate != nil {
		mutate(cfg)
	}

	srv, err := NewServer(cfg, opts...)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func newClient(ts *httptest.Server, token string) *studioapi.HTTPClient {
	return studioapi.NewHTTPClient(ts.URL, auth.NewStaticSource(token))
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, string(body))
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRejections(t *testing.T) {
	_, ts := newTestServer(t, nil)

	tests := []struct {
		name        string
		token       string
		wantExpired bool
	}{
		{name: "missing token", token: "", wantExpired: false},
		{name: "unknown token", token: "not-a-real-token", wantExpired: false},
		{name: "expired token", token: "sandbox-token-expired", wantExpired: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, ts.URL+studioapi.PathCreditBalance, nil)
			require.NoError(t, err)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}

			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			var envelope struct {
				Success        bool   `json:"success"`
				Error          string `json:"error"`
				IsTokenExpired bool   `json:"isTokenExpired"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope))
			assert.False(t, envelope.Success)
			assert.NotEmpty(t, envelope.Error)
			assert.Equal(t, tt.wantExpired, envelope.IsTokenExpired)
		})
	}
}

func TestExpiredTokenThroughClient(t *testing.T) {
	_, ts := newTestServer(t, nil)
	client := newClient(ts, "sandbox-token-expired")

	outcome := client.GetCreditBalance(context.Background())
	assert.False(t, outcome.Success)
	assert.True(t, outcome.IsTokenExpired)
	assert.True(t, apperrors.HasCode(outcome.Err(), apperrors.ErrCodeAuthExpired))
}

func TestFullWorkflowAgainstSandbox(t *testing.T) {
	srv, ts := newTestServer(t, nil)
	client := newClient(ts, "sandbox-token")
	ctx := context.Background()

	params := tools.AdCreativeParams{Category: "coffee", ProductName: "Dawn Roast"}

	// Primary: 5 credits.
	primary := client.GeneratePrimary(ctx, studioapi.PrimaryRequest{
		ToolKind: tools.KindAdCreative,
		Params:   params,
	})
	require.NoError(t, primary.Err())
	require.Len(t, primary.Data.Variants, DefaultVariantCount)
	assert.Equal(t, DefaultVariantCount, primary.Data.Count)
	assert.Equal(t, int64(15), srv.Account().Balance())

	// Secondary on two picks: 2 credits each.
	picked := []string{primary.Data.Variants[0].ID, primary.Data.Variants[2].ID}
	secondary := client.GenerateSecondary(ctx, studioapi.SecondaryRequest{
		ToolKind:           tools.KindAdCreative,
		SelectedPrimaryIDs: picked,
		Params:             params,
	})
	require.NoError(t, secondary.Err())
	require.Len(t, secondary.Data.Assets, 2)
	assert.Equal(t, int64(11), srv.Account().Balance())

	asset, ok := secondary.Data.Assets[0].(tools.AdCreativeAsset)
	require.True(t, ok)
	assert.Equal(t, primary.Data.Variants[0].Text, asset.Headline)
	assert.NotEmpty(t, asset.ID)

	// Persist is free and reports the balance in the ack.
	persist := client.PersistSelected(ctx, studioapi.PersistRequest{
		ToolKind: tools.KindAdCreative,
		Assets:   secondary.Data.Assets,
		Params:   params,
	})
	require.NoError(t, persist.Err())
	assert.Len(t, persist.Data.SavedIDs, 2)
	require.NotNil(t, persist.Data.NewBalance)
	assert.Equal(t, int64(11), *persist.Data.NewBalance)
	assert.Len(t, srv.Account().Saved(), 2)

	// Balance endpoint agrees.
	balance := client.GetCreditBalance(ctx)
	require.NoError(t, balance.Err())
	assert.Equal(t, int64(11), balance.Data.Balance)
}

func TestPrimaryValidationFailure(t *testing.T) {
	_, ts := newTestServer(t, nil)
	client := newClient(ts, "sandbox-token")

	outcome := client.GeneratePrimary(context.Background(), studioapi.PrimaryRequest{
		ToolKind: tools.KindAdCreative,
		Params:   tools.AdCreativeParams{},
	})
	require.Error(t, outcome.Err())
	assert.False(t, outcome.Success)
	assert.Contains(t, outcome.Error, "category is required")
}

func TestExhaustedBalanceIsServerError(t *testing.T) {
	srv, ts := newTestServer(t, func(c *Config) { c.Credits.StartingBalance = 3 })
	client := newClient(ts, "sandbox-token")

	outcome := client.GeneratePrimary(context.Background(), studioapi.PrimaryRequest{
		ToolKind: tools.KindScriptHook,
		Params:   tools.ScriptHookParams{Topic: "meal prep"},
	})
	require.Error(t, outcome.Err())
	assert.True(t, apperrors.HasCode(outcome.Err(), apperrors.ErrCodeServer))
	assert.Contains(t, outcome.Error, "insufficient credits")
	assert.Equal(t, int64(3), srv.Account().Balance())
}

func TestSecondaryUnknownIDs(t *testing.T) {
	_, ts := newTestServer(t, nil)
	client := newClient(ts, "sandbox-token")

	outcome := client.GenerateSecondary(context.Background(), studioapi.SecondaryRequest{
		ToolKind:           tools.KindScriptHook,
		SelectedPrimaryIDs: []string{"never-issued"},
		Params:             tools.ScriptHookParams{Topic: "meal prep"},
	})
	require.Error(t, outcome.Err())
	assert.Contains(t, outcome.Error, "never-issued")
}

type failingProvider struct{}

func (failingProvider) Name() string { return "failing" }

func (failingProvider) Variants(context.Context, tools.Params, int) ([]string, error) {
	return nil, fmt.Errorf("model unavailable")
}

func (failingProvider) Assets(context.Context, tools.Params, []tools.Variant) ([]tools.Asset, error) {
	return nil, fmt.Errorf("model unavailable")
}

func TestProviderFailureRefundsCharge(t *testing.T) {
	srv, ts := newTestServer(t,
		func(c *Config) { c.Providers.Active = "failing" },
		WithProvider(failingProvider{}))
	client := newClient(ts, "sandbox-token")

	outcome := client.GeneratePrimary(context.Background(), studioapi.PrimaryRequest{
		ToolKind: tools.KindStyleClone,
		Params:   tools.StyleCloneParams{SampleTexts: []string{"sample"}, Topic: "ai"},
	})
	require.Error(t, outcome.Err())
	assert.Contains(t, outcome.Error, "content provider failed")
	assert.Equal(t, int64(20), srv.Account().Balance())
}

func TestUnavailableActiveProviderFailsConstruction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.Active = ProviderAnthropic
	cfg.Providers.Anthropic.APIKey = ""
	cfg.Providers.Anthropic.APIKeyEnv = ""

	_, err := NewServer(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestServerRecordsMetrics(t *testing.T) {
	metrics := observability.NewMetricsWith(prometheus.NewRegistry())
	_, ts := newTestServer(t, nil, WithMetrics(metrics))
	client := newClient(ts, "sandbox-token")

	outcome := client.GeneratePrimary(context.Background(), studioapi.PrimaryRequest{
		ToolKind: tools.KindAdCreative,
		Params:   tools.AdCreativeParams{Category: "coffee"},
	})
	require.NoError(t, outcome.Err())

	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.GenerationCounter.WithLabelValues("ad_creative", "primary", "success")))
	assert.Equal(t, float64(PrimaryCost), testutil.ToFloat64(
		metrics.CreditsSpent.WithLabelValues("ad_creative", "primary")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.HTTPRequestCounter.WithLabelValues("POST", studioapi.PathGeneratePrimary, "200")))
}
