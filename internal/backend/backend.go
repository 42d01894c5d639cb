// Package backend selects and opens the configured storage backend.
package backend

import (
	"context"
	"fmt"

	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/storage"
	"fintrack/internal/storage/postgres"
	"fintrack/internal/storage/sqlite"
)

// Type represents the type of storage backend.
type Type string

const (
	SQLiteBackend   Type = "sqlite"
	PostgresBackend Type = "postgres"
)

// IsValid returns true if the backend type is valid.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Open creates a storage.Store based on the provided config.
func Open(ctx context.Context, cfg *config.Config, logger *log.Logger) (storage.Store, error) {
	t := Type(cfg.StorageBackend)
	if !t.IsValid() {
		return nil, fmt.Errorf("unsupported storage backend: %s", cfg.StorageBackend)
	}

	switch t {
	case PostgresBackend:
		store, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres backend: %w", err)
		}
		logger.Info("initialized postgres backend")
		return store, nil
	default:
		store, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite backend: %w", err)
		}
		logger.Info("initialized sqlite backend", "db_path", cfg.SQLiteDBPath)
		return store, nil
	}
}
