package modules

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/config"
	"geoevents.io/geoevents/internal/infrastructure"
	"geoevents.io/geoevents/internal/pkg/logger"
	"geoevents.io/geoevents/internal/pkg/worker"
	"geoevents.io/geoevents/internal/storage"
)

// Infrastructure holds shared cross-cutting dependencies for all modules.
// It is a provider, not a Module.
type Infrastructure struct {
	Config *config.Config
	DB     *infrastructure.DatabaseClients
	Pools  *worker.Pools
	// Storage is nil when no object store is configured.
	Storage *storage.ObjectStore
}

// NewInfrastructure connects the database, starts the worker pools and
// prepares the object store bucket.
func NewInfrastructure(ctx context.Context, cfg *config.Config) (*Infrastructure, error) {
	db, err := infrastructure.NewDatabaseClients(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := db.AutoMigrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("auto-migrate: %w", err)
		}
	}

	pools, err := worker.NewPools(ctx, worker.PoolConfig{
		ImportPoolSize:     cfg.Worker.ImportPoolSize,
		BackgroundPoolSize: cfg.Worker.BackgroundPoolSize,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init worker pools: %w", err)
	}

	infra := &Infrastructure{Config: cfg, DB: db, Pools: pools}

	if cfg.Storage.Enabled() {
		store, err := storage.NewObjectStore(cfg.Storage)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("init object store: %w", err)
		}
		// An unreachable store only disables uploads; the API still serves.
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn("object store bucket check failed",
				zap.String("bucket", cfg.Storage.Bucket),
				zap.Error(err),
			)
		}
		infra.Storage = store
	} else {
		logger.Info("object storage not configured, video uploads disabled")
	}

	return infra, nil
}

// Close releases infra resources in reverse dependency order.
func (i *Infrastructure) Close() {
	if i == nil {
		return
	}
	if i.Pools != nil {
		i.Pools.Shutdown()
	}
	if i.DB != nil {
		i.DB.Close()
	}
}
