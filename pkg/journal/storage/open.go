package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mercator-hq/docgate/pkg/config"
	"mercator-hq/docgate/pkg/journal"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Open creates the backend selected by cfg.Backend.
func Open(ctx context.Context, cfg *config.JournalConfig) (journal.Storage, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStorage(), nil
	case BackendSQLite:
		if dir := filepath.Dir(cfg.SQLite.Path); cfg.SQLite.Path != ":memory:" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, journal.NewStorageError("sqlite", "mkdir", err)
			}
		}
		return NewSQLiteStorage(cfg.SQLite)
	case BackendRedis:
		return NewRedisStorage(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unsupported journal backend %q", cfg.Backend)
	}
}
