// Package db opens the ledger store on the configured backend.
package db

import (
	"context"
	"fmt"

	"stream_ledger/internal/config"
	"stream_ledger/internal/ledger"
	"stream_ledger/internal/ledger/memory"
	"stream_ledger/internal/ledger/postgres"
	"stream_ledger/internal/logger"
)

// Open returns a Store on the backend named by cfg.StoreBackend.
func Open(ctx context.Context, cfg *config.Config) (*ledger.Store, error) {
	retry := ledger.DefaultRetryConfig()
	if cfg.LedgerMaxAttempts > 0 {
		retry.MaxAttempts = cfg.LedgerMaxAttempts
	}

	var backend ledger.Backend
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		logger.Warn("using in-memory ledger; data is lost on exit")
		backend = memory.New()
	case config.StoreBackendPostgres:
		pg, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		backend = pg
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	return ledger.New(backend, retry), nil
}

// MustOpen is Open for entry points that cannot continue without a store.
func MustOpen(ctx context.Context, cfg *config.Config) *ledger.Store {
	store, err := Open(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to open ledger", "backend", cfg.StoreBackend, "error", err)
	}
	return store
}
