package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/BrickManager_Go/internal/config"
	"github.com/osse101/BrickManager_Go/internal/database"
	"github.com/osse101/BrickManager_Go/internal/database/memory"
	"github.com/osse101/BrickManager_Go/internal/database/postgres"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// Stores holds the store implementations selected by STORAGE_BACKEND.
// Pool is nil for the in-memory backend.
type Stores struct {
	Catalog   repository.Catalog
	SyncState repository.SyncState
	Inventory repository.Inventory
	Storage   repository.Storage
	Pool      *pgxpool.Pool
}

// HealthPool returns the pool as a database.Pool, or nil when there is none so
// readiness checks treat the memory backend as always ready
func (s *Stores) HealthPool() database.Pool {
	if s.Pool == nil {
		return nil
	}
	return s.Pool
}

// Close releases the database pool, if any
func (s *Stores) Close() {
	if s.Pool != nil {
		slog.Info(LogMsgClosingDatabase)
		s.Pool.Close()
	}
}

// InitializeStores connects to and migrates Postgres, or builds the memory store
func InitializeStores(ctx context.Context, cfg *config.Config) (*Stores, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		slog.Warn(LogMsgUsingMemory)
		store := memory.NewStore()
		return &Stores{Catalog: store, SyncState: store, Inventory: store, Storage: store}, nil

	case config.BackendPostgres:
		pool, err := database.NewPool(ctx, database.PoolConfig{
			ConnString:      cfg.GetDBConnString(),
			MaxConns:        cfg.DBMaxConns,
			MaxIdleTime:     DBMaxConnIdleTime,
			MaxLifetime:     DBMaxConnLifetime,
			ConnectAttempts: DBConnectAttempts,
			RetryDelay:      DBConnectRetryDelay,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
		}
		if err := database.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
		}
		slog.Info(LogMsgMigrationsApplied)
		slog.Info(LogMsgUsingPostgres, "host", cfg.DBHost, "db", cfg.DBName, "max_conns", cfg.DBMaxConns)

		return &Stores{
			Catalog:   postgres.NewCatalogRepository(pool),
			SyncState: postgres.NewSyncStateRepository(pool),
			Inventory: postgres.NewInventoryRepository(pool),
			Storage:   postgres.NewStorageRepository(pool),
			Pool:      pool,
		}, nil
	}
	return nil, fmt.Errorf(ErrMsgUnsupportedBackend, cfg.StorageBackend)
}
