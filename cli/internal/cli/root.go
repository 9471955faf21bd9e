// Package cli implements the adcraft command line: generation sessions
// through an interactive shell or scripted runs, draft inspection,
// credit balance, and the MCP stdio server.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/adcraft-ai/adcraft/cli/internal/cli/ui"
	"github.com/adcraft-ai/adcraft/internal/observability"
	"github.com/adcraft-ai/adcraft/pkg/studio"
	"github.com/adcraft-ai/adcraft/pkg/studio/config"
	"github.com/adcraft-ai/adcraft/pkg/studio/draft"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	appUI   *ui.UI
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "adcraft",
	Short: "AdCraft content studio - generate, curate and save ad content",
	Long: `adcraft drives the AdCraft generation workflow from the terminal:
brief a tool, generate candidate directions, pick the ones worth
expanding, expand them into full assets, and save the keepers.

Configuration is read from ~/.adcraft/config.yaml, ADCRAFT_* environment
variables, and flags, in increasing priority.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", ui.Red("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.adcraft/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Generation API base URL")
	rootCmd.PersistentFlags().String("token", "", "API token (overrides the token file)")
	rootCmd.PersistentFlags().String("scope", "", "Workspace scope key for drafts")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	_ = viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("auth.token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("drafts.scope_key", rootCmd.PersistentFlags().Lookup("scope"))
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".adcraft"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("ADCRAFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	defaults := config.DefaultConfig()
	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.timeout", defaults.API.Timeout)
	viper.SetDefault("auth.token_path", defaults.Auth.TokenPath)
	viper.SetDefault("auth.refresh_period", defaults.Auth.RefreshPeriod)
	viper.SetDefault("drafts.store", string(defaults.Drafts.Store))
	viper.SetDefault("drafts.ttl", defaults.Drafts.TTL)
	viper.SetDefault("drafts.sqlite_path", defaults.Drafts.SQLitePath)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.format", defaults.Logging.Format)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	appUI = ui.New()
}

// loadStudioConfig assembles the SDK configuration from the viper
// layers: flags over environment over config file over defaults.
func loadStudioConfig() (*config.Config, error) {
	cfg := &config.Config{
		API: config.APIConfig{
			BaseURL: viper.GetString("api.base_url"),
			Timeout: viper.GetDuration("api.timeout"),
		},
		Auth: config.AuthConfig{
			Token:         viper.GetString("auth.token"),
			TokenEnv:      viper.GetString("auth.token_env"),
			TokenPath:     viper.GetString("auth.token_path"),
			RefreshPeriod: viper.GetDuration("auth.refresh_period"),
		},
		Drafts: config.DraftsConfig{
			Store:      draft.StoreType(viper.GetString("drafts.store")),
			TTL:        viper.GetDuration("drafts.ttl"),
			ScopeKey:   viper.GetString("drafts.scope_key"),
			RedisAddr:  viper.GetString("drafts.redis_addr"),
			RedisDB:    viper.GetInt("drafts.redis_db"),
			SQLitePath: viper.GetString("drafts.sqlite_path"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
	}

	if cfg.Auth.TokenEnv != "" && cfg.Auth.Token == "" {
		cfg.Auth.Token = os.Getenv(cfg.Auth.TokenEnv)
	}
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStudio builds a started Studio from the layered configuration.
// Callers own the returned studio and must Close it.
func openStudio(cmd *cobra.Command) (*studio.Studio, error) {
	cfg, err := loadStudioConfig()
	if err != nil {
		return nil, err
	}

	logCfg := observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	logger := observability.NewLogger(logCfg)

	// The draft directory may not exist on first run.
	if cfg.Drafts.Store == draft.StoreTypeSQLite && cfg.Drafts.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Drafts.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create draft directory: %w", err)
		}
	}

	st, err := studio.New(cfg, studio.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := st.Start(cmd.Context()); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}
