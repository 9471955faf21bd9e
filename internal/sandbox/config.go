// Package sandbox is a local emulator of the adcraft generation API.
// It serves the same wire contract as the hosted backend so the CLI,
// the MCP server, and integration tests can run a full workflow
// without an account: bearer-token auth with a deliberately "expired"
// token for exercising refresh paths, credit accounting, and
// pluggable content providers.
package sandbox

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the sandbox server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Credits   CreditsConfig   `yaml:"credits"`
	Providers ProvidersConfig `yaml:"providers"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port the server binds.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig holds the bearer tokens the sandbox accepts. ExpiredToken
// is always rejected with the token-expired marker so clients can
// exercise their refresh path against a live server.
type AuthConfig struct {
	APIToken     string `yaml:"api_token"`
	ExpiredToken string `yaml:"expired_token"`
}

// CreditsConfig seeds the emulated account.
type CreditsConfig struct {
	StartingBalance int64 `yaml:"starting_balance"`
	MonthlyQuota    int64 `yaml:"monthly_quota"`
}

// ProvidersConfig selects and configures the content backends.
type ProvidersConfig struct {
	// Active names the provider generation requests use. The template
	// provider needs no credentials and is the default.
	Active    string         `yaml:"active"`
	Anthropic ProviderConfig `yaml:"anthropic"`
	OpenAI    ProviderConfig `yaml:"openai"`
}

// ProviderConfig holds individual provider configuration.
type ProviderConfig struct {
	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
}

// LoggingConfig holds log output configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Resolve API keys from environment variables
	if config.Providers.Anthropic.APIKeyEnv != "" && config.Providers.Anthropic.APIKey == "" {
		config.Providers.Anthropic.APIKey = os.Getenv(config.Providers.Anthropic.APIKeyEnv)
	}
	if config.Providers.OpenAI.APIKeyEnv != "" && config.Providers.OpenAI.APIKey == "" {
		config.Providers.OpenAI.APIKey = os.Getenv(config.Providers.OpenAI.APIKeyEnv)
	}

	config.SetDefaults()

	return &config, nil
}

// SetDefaults sets default values for configuration.
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8787
	}

	if c.Auth.APIToken == "" {
		c.Auth.APIToken = "sandbox-token"
	}
	if c.Auth.ExpiredToken == "" {
		c.Auth.ExpiredToken = "sandbox-token-expired"
	}

	if c.Credits.StartingBalance == 0 {
		c.Credits.StartingBalance = 250
	}
	if c.Credits.MonthlyQuota == 0 {
		c.Credits.MonthlyQuota = 250
	}

	if c.Providers.Active == "" {
		c.Providers.Active = ProviderTemplate
	}
	if c.Providers.Anthropic.Model == "" {
		c.Providers.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Providers.Anthropic.APIKeyEnv == "" {
		c.Providers.Anthropic.APIKeyEnv = "ANTHROPIC_API_KEY"
	}
	if c.Providers.OpenAI.Model == "" {
		c.Providers.OpenAI.Model = "gpt-4o"
	}
	if c.Providers.OpenAI.APIKeyEnv == "" {
		c.Providers.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Auth.APIToken == "" {
		return fmt.Errorf("auth.api_token is required")
	}
	if c.Auth.APIToken == c.Auth.ExpiredToken {
		return fmt.Errorf("auth.expired_token must differ from auth.api_token")
	}
	if c.Credits.StartingBalance < 0 {
		return fmt.Errorf("credits.starting_balance must not be negative")
	}

	switch c.Providers.Active {
	case ProviderTemplate:
	case ProviderAnthropic:
		if c.Providers.Anthropic.APIKey == "" && c.Providers.Anthropic.APIKeyEnv == "" {
			return fmt.Errorf("provider %s requires api_key or api_key_env", ProviderAnthropic)
		}
	case ProviderOpenAI:
		if c.Providers.OpenAI.APIKey == "" && c.Providers.OpenAI.APIKeyEnv == "" {
			return fmt.Errorf("provider %s requires api_key or api_key_env", ProviderOpenAI)
		}
	default:
		return fmt.Errorf("unknown provider %q (expected %s, %s, or %s)",
			c.Providers.Active, ProviderTemplate, ProviderAnthropic, ProviderOpenAI)
	}

	return nil
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	config := &Config{}
	config.SetDefaults()
	return config
}

// SaveConfig saves configuration to a YAML file.
func SaveConfig(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
