package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finvue/internal/log"
	"finvue/internal/storage"
	"finvue/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(log.FieldComponent, log.ComponentBackend)
	return &DefaultFactory{logger: logger}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		KV:      repo,
		Health:  repo.HealthCheck,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	kv := memory.NewFromFiles(dataDir)
	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{
		KV:      kv,
		Health:  func(context.Context) error { return nil },
		Cleanup: func() error { return nil },
	}, nil
}
