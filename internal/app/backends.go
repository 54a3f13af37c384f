package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/modular-admin/modular-admin/internal/platform/cache"
	"github.com/modular-admin/modular-admin/internal/platform/db"
	"github.com/modular-admin/modular-admin/internal/platform/docstore"
)

// Backends holds the connections a process opened for its stores.
type Backends struct {
	Store docstore.Store
	Redis *redis.Client
	Pool  *pgxpool.Pool
}

// OpenBackends connects Redis and, when selected, Postgres. Redis is always
// required because it backs the token denylist and the job queue.
func OpenBackends(ctx context.Context, cfg *Config, logger *slog.Logger) (*Backends, error) {
	redisClient, err := cache.New(ctx, cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	b := &Backends{Redis: redisClient}

	switch cfg.StoreBackend {
	case BackendPostgres:
		pool, err := db.New(ctx, db.Options{DSN: cfg.PGDSN, MaxConns: cfg.PGMaxConns, ApplicationName: "modular-admin"})
		if err != nil {
			b.Close(logger)
			return nil, err
		}
		b.Pool = pool
		err = db.WithLockedTx(ctx, pool, db.MigrationLock, func(tx pgx.Tx) error {
			return docstore.NewPostgres(tx).Migrate(ctx)
		})
		if err != nil {
			b.Close(logger)
			return nil, err
		}
		b.Store = docstore.NewPostgres(pool)
	case BackendRedis:
		b.Store = docstore.NewRedis(redisClient, cfg.RedisPrefix)
	case BackendMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		b.Store = docstore.NewMemory()
	default:
		b.Close(logger)
		return nil, fmt.Errorf("app: unknown store backend %q", cfg.StoreBackend)
	}
	logger.Info("store ready", slog.String("backend", cfg.StoreBackend))
	return b, nil
}

// Close releases every opened connection.
func (b *Backends) Close(logger *slog.Logger) {
	if b == nil {
		return
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}
}
