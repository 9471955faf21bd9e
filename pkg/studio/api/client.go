package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adcraft-ai/adcraft/pkg/studio/auth"
	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
)

// Generation backend endpoints.
const (
	PathGeneratePrimary   = "/api/v1/generate/primary"
	PathGenerateSecondary = "/api/v1/generate/secondary"
	PathCreatives         = "/api/v1/creatives"
	PathCreditBalance     = "/api/v1/credits/balance"
)

// Generation calls block while the model works, so the default timeout
// is generous.
const defaultTimeout = 120 * time.Second

// Client is the backend surface the workflow controller drives. Methods
// resolve with an Outcome instead of returning an error; inspect
// Outcome.Err for the taxonomy classification.
type Client interface {
	GeneratePrimary(ctx context.Context, req PrimaryRequest) Outcome[PrimaryResultSet]
	GenerateSecondary(ctx context.Context, req SecondaryRequest) Outcome[SecondaryResultSet]
	PersistSelected(ctx context.Context, req PersistRequest) Outcome[PersistAck]
	GetCreditBalance(ctx context.Context) Outcome[CreditBalance]
}

// HTTPClient implements Client against the adcraft HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	tokens     auth.TokenSource
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a client for the backend at baseURL. tokens may
// be nil for unauthenticated use.
func NewHTTPClient(baseURL string, tokens auth.TokenSource, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) GeneratePrimary(ctx context.Context, req PrimaryRequest) Outcome[PrimaryResultSet] {
	return call[PrimaryResultSet](ctx, c, http.MethodPost, PathGeneratePrimary, req)
}

func (c *HTTPClient) GenerateSecondary(ctx context.Context, req SecondaryRequest) Outcome[SecondaryResultSet] {
	return call[SecondaryResultSet](ctx, c, http.MethodPost, PathGenerateSecondary, req)
}

func (c *HTTPClient) PersistSelected(ctx context.Context, req PersistRequest) Outcome[PersistAck] {
	return call[PersistAck](ctx, c, http.MethodPost, PathCreatives, req)
}

func (c *HTTPClient) GetCreditBalance(ctx context.Context) Outcome[CreditBalance] {
	return call[CreditBalance](ctx, c, http.MethodGet, PathCreditBalance, nil)
}

func (c *HTTPClient) addAuthHeaders(req *http.Request) {
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}
}

// call performs a request, retrying exactly once with a refreshed token
// when the backend reports the current one expired.
func call[T any](ctx context.Context, c *HTTPClient, method, path string, body any) Outcome[T] {
	outcome := roundTrip[T](ctx, c, method, path, body)
	if !outcome.IsTokenExpired {
		return outcome
	}
	refresher, ok := c.tokens.(auth.Refresher)
	if !ok {
		return outcome
	}
	if err := refresher.Refresh(ctx); err != nil {
		return outcome
	}
	return roundTrip[T](ctx, c, method, path, body)
}

func roundTrip[T any](ctx context.Context, c *HTTPClient, method, path string, body any) Outcome[T] {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return Fail[T](apperrors.ErrCodeValidation, fmt.Sprintf("failed to marshal request: %v", err))
		}
		reader = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return Fail[T](apperrors.ErrCodeNetwork, fmt.Sprintf("failed to create request: %v", err))
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.addAuthHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Fail[T](apperrors.ErrCodeNetwork, fmt.Sprintf("failed to send request: %v", err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Fail[T](apperrors.ErrCodeNetwork, fmt.Sprintf("failed to read response: %v", err))
	}

	var out Outcome[T]
	if err := json.Unmarshal(payload, &out); err != nil {
		return Fail[T](codeForStatus(resp.StatusCode),
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(payload)))
	}

	if out.Success {
		// A success envelope on a non-200 status is not trustworthy.
		if resp.StatusCode != http.StatusOK {
			return Fail[T](codeForStatus(resp.StatusCode),
				fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(payload)))
		}
		return out
	}

	out.errCode = codeForStatus(resp.StatusCode)
	if out.IsTokenExpired || resp.StatusCode == http.StatusUnauthorized {
		out.IsTokenExpired = true
		out.errCode = apperrors.ErrCodeAuthExpired
	}
	if out.Error == "" {
		out.Error = fmt.Sprintf("request rejected with status %d", resp.StatusCode)
	}
	return out
}

func codeForStatus(status int) string {
	if status == http.StatusUnauthorized {
		return apperrors.ErrCodeAuthExpired
	}
	return apperrors.ErrCodeServer
}

func truncate(payload []byte) string {
	const max = 512
	s := strings.TrimSpace(string(payload))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
