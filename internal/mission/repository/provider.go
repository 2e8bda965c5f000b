package repository

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/missionctl/missionctl/internal/common/config"
	"github.com/missionctl/missionctl/internal/common/logger"
	"github.com/missionctl/missionctl/internal/db"
	"github.com/missionctl/missionctl/internal/mission/repository/sqlite"
)

// Provide creates the mission repository for the configured database driver.
func Provide(cfg *config.Config, log *logger.Logger) (Repository, func() error, error) {
	switch cfg.Database.Driver {
	case "memory":
		repo := NewMemoryRepository()
		if log != nil {
			log.Info("Database initialized", zap.String("db_driver", cfg.Database.Driver))
		}
		return repo, repo.Close, nil

	case "sqlite":
		pool, err := db.OpenSQLitePool(cfg.Database.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		repo, err := sqlite.NewWithDB(pool.Writer(), pool.Reader())
		if err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		if log != nil {
			log.Info("Database initialized", zap.String("db_path", cfg.Database.Path), zap.String("db_driver", cfg.Database.Driver))
		}
		cleanup := func() error {
			// Run PRAGMA optimize before closing to update query planner
			// statistics for tables that need it. This is the SQLite-recommended
			// way to maintain stats and is safe to call on every close.
			_, _ = pool.Writer().Exec("PRAGMA optimize")
			return pool.Close()
		}
		return repo, cleanup, nil

	case "postgres":
		pool, err := db.OpenPostgresPool(cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open postgres database: %w", err)
		}
		repo, err := sqlite.NewWithDB(pool.Writer(), pool.Reader())
		if err != nil {
			_ = pool.Close()
			return nil, nil, err
		}
		if log != nil {
			log.Info("Database initialized", zap.String("db_host", cfg.Database.Host), zap.String("db_driver", cfg.Database.Driver))
		}
		return repo, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}
