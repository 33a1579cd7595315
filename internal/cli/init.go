// Package cli holds the start-up steps shared by cmd/finvue and
// cmd/finvue-worker.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"finvue/internal/config"
	"finvue/internal/log"
)

// SetupLogger builds the process logger for level and installs it as the
// slog default.
func SetupLogger(level string) *log.Logger {
	logger := log.New(log.Config{Level: log.ParseLevel(level), Component: log.ComponentApp})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and runs validate on it,
// exiting the process on failure.
func LoadAndValidateConfig(logger *log.Logger, validate func(*config.Config) error) *config.Config {
	cfg := config.Load()
	if validate == nil {
		validate = (*config.Config).Validate
	}
	if err := validate(cfg); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
