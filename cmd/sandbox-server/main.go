package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/adcraft-ai/adcraft/internal/observability"
	"github.com/adcraft-ai/adcraft/internal/sandbox"
)

const defaultConfigPath = "config/sandbox-server.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to the server configuration")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to --config and exit")
	flag.Parse()

	if *writeConfig {
		if err := sandbox.SaveConfig(sandbox.DefaultConfig(), *configPath); err != nil {
			log.Fatalf("Failed to write default configuration: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := loadConfiguration(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	metrics := observability.NewMetrics()

	server, err := sandbox.NewServer(cfg,
		sandbox.WithLogger(logger),
		sandbox.WithMetrics(metrics))
	if err != nil {
		logger.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	logger.Info("starting sandbox generation server",
		"addr", cfg.Server.Addr(),
		"provider", cfg.Providers.Active,
		"available_providers", server.Providers(),
		"starting_balance", cfg.Credits.StartingBalance)

	httpServer := &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     server.Handler(),
		ReadTimeout: 15 * time.Second,
		// Generation requests block on the provider; give them room.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("shutdown signal received, gracefully stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

func loadConfiguration(configPath string) (*sandbox.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("Config file not found at %s, using defaults (write one with --write-config)", configPath)
		return sandbox.DefaultConfig(), nil
	}
	return sandbox.LoadConfig(configPath)
}
