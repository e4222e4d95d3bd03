package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/dashboard/internal/config"
	"github.com/spec-kit/dashboard/internal/session"
)

// OpenSessionStore builds the store selected by cfg.Session.Driver. The
// returned close func releases any connection it opened.
func OpenSessionStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (session.Store, func(), error) {
	noop := func() {}

	switch cfg.Session.Driver {
	case config.StoreMemory:
		return session.NewMemoryStore(), noop, nil

	case config.StoreFile, "":
		store := session.NewFileStore(cfg.Session.FileDir, cfg.Session.Key)
		logger.Debug("using file session store", zap.String("path", store.Path()))
		return store, noop, nil

	case config.StoreRedis:
		client, closeClient := openRedis(ctx, cfg.Redis, logger)
		store := session.NewRedisStore(client, cfg.Session.RedisPrefix, cfg.Session.Key, cfg.Session.TTL())
		return store, closeClient, nil

	case config.StorePostgres:
		pool, err := openPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres session store: %w", err)
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pool, session.Migrations, "migrations", logger); err != nil {
				pool.Close()
				return nil, noop, err
			}
		}
		return session.NewPostgresStore(pool, cfg.Session.Key), pool.Close, nil
	}

	return nil, noop, fmt.Errorf("unknown session store %q", cfg.Session.Driver)
}
