// Package auth supplies bearer tokens for the generation backend.
package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	apperrors "github.com/adcraft-ai/adcraft/pkg/studio/errors"
)

const DefaultRefreshPeriod = 60 * time.Second

// TokenSource yields the current bearer token. An empty token means
// unauthenticated; requests are sent without an Authorization header.
type TokenSource interface {
	Token() string
}

// Refresher is implemented by token sources that can mint a fresh token
// after the server reports expiry. The API client calls Refresh at most
// once per request before retrying.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// StaticSource returns a fixed token.
type StaticSource struct {
	token string
}

func NewStaticSource(token string) *StaticSource {
	return &StaticSource{token: token}
}

func (s *StaticSource) Token() string { return s.token }

// FileSource reads the token from a file and keeps it fresh on a
// background ticker. Refresh re-reads the file on demand, which covers
// deployments where an external process rotates the token.
type FileSource struct {
	path          string
	refreshPeriod time.Duration
	token         string
	mu            sync.RWMutex
	stopCh        chan struct{}
}

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithRefreshPeriod overrides DefaultRefreshPeriod for the background
// re-read cycle.
func WithRefreshPeriod(period time.Duration) FileSourceOption {
	return func(s *FileSource) {
		if period > 0 {
			s.refreshPeriod = period
		}
	}
}

// NewFileSource creates a FileSource for the given path. An empty path
// falls back to DefaultTokenPath.
func NewFileSource(path string, opts ...FileSourceOption) *FileSource {
	if path == "" {
		path = DefaultTokenPath()
	}
	s := &FileSource{
		path:          path,
		refreshPeriod: DefaultRefreshPeriod,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultTokenPath returns the conventional token location under the
// user's home directory.
func DefaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adcraft/token"
	}
	return filepath.Join(home, ".adcraft", "token")
}

// Start loads the token and begins the refresh cycle. A missing token
// file is not an error; local development runs unauthenticated.
func (s *FileSource) Start(ctx context.Context) error {
	if err := s.load(true); err != nil {
		return apperrors.New(apperrors.ErrCodeAuthExpired, "failed to load initial token", err)
	}

	ticker := time.NewTicker(s.refreshPeriod)
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := s.load(true); err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to refresh token: %v\n", err)
				}
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-s.stopCh:
				ticker.Stop()
				return
			}
		}
	}()

	return nil
}

// Stop stops the refresh cycle.
func (s *FileSource) Stop() {
	close(s.stopCh)
}

// Token returns the most recently loaded token.
func (s *FileSource) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Refresh re-reads the token file. Unlike the background ticker, an
// explicit refresh requires the file to exist: it only runs after the
// server rejected the current token, so a missing file means there is
// nothing fresher to retry with.
func (s *FileSource) Refresh(_ context.Context) error {
	return s.load(false)
}

func (s *FileSource) load(lenientMissing bool) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if lenientMissing && os.IsNotExist(err) {
			return nil
		}
		return apperrors.New(apperrors.ErrCodeAuthExpired, "failed to read token file", err)
	}

	s.mu.Lock()
	s.token = strings.TrimSpace(string(data))
	s.mu.Unlock()

	return nil
}
