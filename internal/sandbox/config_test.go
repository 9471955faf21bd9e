package sandbox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "127.0.0.1:8787", cfg.Server.Addr())
	assert.Equal(t, ProviderTemplate, cfg.Providers.Active)
	assert.Equal(t, int64(250), cfg.Credits.StartingBalance)
	assert.NotEqual(t, cfg.Auth.APIToken, cfg.Auth.ExpiredToken)
}

func TestSetDefaultsLeavesExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9000
	cfg.Auth.APIToken = "custom"
	cfg.Providers.Active = ProviderOpenAI

	cfg.SetDefaults()

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "custom", cfg.Auth.APIToken)
	assert.Equal(t, ProviderOpenAI, cfg.Providers.Active)
	assert.Equal(t, "gpt-4o", cfg.Providers.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Providers.OpenAI.APIKeyEnv)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "server.port",
		},
		{
			name:    "missing api token",
			mutate:  func(c *Config) { c.Auth.APIToken = "" },
			wantErr: "api_token",
		},
		{
			name: "expired token equals api token",
			mutate: func(c *Config) {
				c.Auth.APIToken = "same"
				c.Auth.ExpiredToken = "same"
			},
			wantErr: "expired_token",
		},
		{
			name:    "negative balance",
			mutate:  func(c *Config) { c.Credits.StartingBalance = -5 },
			wantErr: "starting_balance",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Providers.Active = "mystery" },
			wantErr: "unknown provider",
		},
		{
			name: "anthropic without key",
			mutate: func(c *Config) {
				c.Providers.Active = ProviderAnthropic
				c.Providers.Anthropic.APIKey = ""
				c.Providers.Anthropic.APIKeyEnv = ""
			},
			wantErr: "api_key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSaveAndLoadConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sandbox.yaml")

	original := DefaultConfig()
	original.Server.Port = 9999
	original.Credits.StartingBalance = 42
	require.NoError(t, SaveConfig(original, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, loaded.Server.Port)
	assert.Equal(t, int64(42), loaded.Credits.StartingBalance)
	assert.Equal(t, original.Auth.APIToken, loaded.Auth.APIToken)
}

func TestLoadConfigResolvesAPIKeysFromEnv(t *testing.T) {
	t.Setenv("SANDBOX_TEST_ANTHROPIC_KEY", "sk-ant-from-env")

	path := filepath.Join(t.TempDir(), "sandbox.yaml")
	cfg := DefaultConfig()
	cfg.Providers.Anthropic.APIKeyEnv = "SANDBOX_TEST_ANTHROPIC_KEY"
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-from-env", loaded.Providers.Anthropic.APIKey)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
