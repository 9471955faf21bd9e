// Package config holds the client-side configuration for the studio
// SDK: where the generation backend lives, how to authenticate, and
// where drafts are cached.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/adcraft-ai/adcraft/pkg/studio/auth"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
)

// Config is the studio SDK configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig locates the generation backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig selects the bearer token source. An inline token wins over
// a token file; token_env resolves the inline token from the named
// environment variable at load time.
type AuthConfig struct {
	Token         string        `yaml:"token,omitempty"`
	TokenEnv      string        `yaml:"token_env,omitempty"`
	TokenPath     string        `yaml:"token_path,omitempty"`
	RefreshPeriod time.Duration `yaml:"refresh_period"`
}

// DraftsConfig selects and configures the draft cache.
type DraftsConfig struct {
	Store      draft.StoreType `yaml:"store"`
	TTL        time.Duration   `yaml:"ttl"`
	ScopeKey   string          `yaml:"scope_key,omitempty"`
	RedisAddr  string          `yaml:"redis_addr,omitempty"`
	RedisDB    int             `yaml:"redis_db,omitempty"`
	SQLitePath string          `yaml:"sqlite_path,omitempty"`
}

// LoggingConfig controls the SDK logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a YAML configuration file, resolves environment-sourced
// secrets and fills unset fields with defaults.
func Load(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if config.Auth.TokenEnv != "" {
		config.Auth.Token = os.Getenv(config.Auth.TokenEnv)
	}

	if err := config.SetDefaults(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SetDefaults fills unset fields from DefaultConfig.
func (c *Config) SetDefaults() error {
	if err := mergo.Merge(c, *DefaultConfig()); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}

	switch c.Drafts.Store {
	case draft.StoreTypeMemory:
	case draft.StoreTypeRedis:
		if c.Drafts.RedisAddr == "" {
			return fmt.Errorf("drafts.redis_addr is required for the redis store")
		}
	case draft.StoreTypeSQLite:
		if c.Drafts.SQLitePath == "" {
			return fmt.Errorf("drafts.sqlite_path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown draft store %q", c.Drafts.Store)
	}
	if c.Drafts.TTL <= 0 {
		return fmt.Errorf("drafts.ttl must be positive")
	}

	if c.Auth.RefreshPeriod <= 0 {
		return fmt.Errorf("auth.refresh_period must be positive")
	}
	return nil
}

// DefaultConfig returns the configuration used when nothing is set:
// local sandbox backend, file token under the user's home directory,
// sqlite draft cache next to it.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8787",
			Timeout: 2 * time.Minute,
		},
		Auth: AuthConfig{
			TokenPath:     auth.DefaultTokenPath(),
			RefreshPeriod: auth.DefaultRefreshPeriod,
		},
		Drafts: DraftsConfig{
			Store:      draft.StoreTypeSQLite,
			TTL:        draft.DefaultTTL,
			SQLitePath: DefaultDraftsPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultDraftsPath returns the conventional sqlite draft cache
// location under the user's home directory.
func DefaultDraftsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".adcraft", "drafts.db")
	}
	return filepath.Join(home, ".adcraft", "drafts.db")
}

// Save writes the configuration to a YAML file.
func Save(config *Config, filePath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
