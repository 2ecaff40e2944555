package container

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-library/config"
	"github.com/oksasatya/go-ddd-library/internal/domain/repository"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/go-ddd-library/internal/infrastructure/postgres"
	"github.com/oksasatya/go-ddd-library/internal/infrastructure/redisstore"
	"github.com/oksasatya/go-ddd-library/pkg/helpers"
)

// OpenStore builds the collection store named by cfg.StoreDriver and
// registers it, along with the postgres pool or redis client it opened.
// The returned func releases whatever was opened.
func OpenStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.CollectionStore, func(), error) {
	noop := func() {}
	switch cfg.StoreDriver {
	case config.StoreMemory:
		s := memory.NewStore()
		SetStore(s)
		return s, noop, nil

	case config.StoreRedis:
		rdb := GetRedis()
		if rdb == nil {
			rdb = helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err := helpers.PingRedis(ctx, rdb, 3*time.Second); err != nil {
				_ = rdb.Close()
				return nil, noop, fmt.Errorf("redis store: %w", err)
			}
			SetRedis(rdb)
		}
		s := redisstore.NewStore(rdb, cfg.StoreKeyPrefix)
		SetStore(s)
		return s, noop, nil

	case config.StorePostgres:
		if err := RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			return nil, noop, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolConfig{
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("postgres store: %w", err)
		}
		SetPGPool(pool)
		s := pginfra.NewCollectionStore(pool)
		SetStore(s)
		return s, pool.Close, nil

	default:
		return nil, noop, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

// RunMigrations applies db/migrations through database/sql with pgx stdlib.
func RunMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
