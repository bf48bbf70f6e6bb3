package infra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/kvstore"
)

// Resources holds the store and the connections opened for it.
type Resources struct {
	Store  *kvstore.Store
	DB     *pgxpool.Pool
	Cache  *redis.Client
	SQLite *sql.DB
}

// Open connects the configured dependencies and builds the key-value store on
// the backend named by cfg.KVBackend. Postgres and Redis are also opened when
// their URLs are set, for health checks and HTTP middleware.
func Open(ctx context.Context, cfg config.Config) (*Resources, error) {
	res := &Resources{}
	fail := func(err error) (*Resources, error) {
		_ = res.Close()
		return nil, err
	}

	if cfg.DatabaseURL != "" {
		pool, err := NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return fail(err)
		}
		res.DB = pool
	}
	cache, err := NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fail(err)
	}
	res.Cache = cache

	var backend kvstore.Backend
	switch cfg.KVBackend {
	case config.BackendMemory, "":
		backend = kvstore.NewMemoryBackend()
	case config.BackendFile:
		fb, err := kvstore.NewFileBackend(cfg.KVPath)
		if err != nil {
			return fail(err)
		}
		backend = fb
	case config.BackendSQLite:
		db, err := OpenSQLite(ctx, cfg.KVPath)
		if err != nil {
			return fail(err)
		}
		res.SQLite = db
		if err := kvstore.Migrate(ctx, db, kvstore.DialectSQLite); err != nil {
			return fail(err)
		}
		backend = kvstore.NewSQLiteBackend(db)
	case config.BackendPostgres:
		if res.DB == nil {
			return fail(errors.New("postgres backend needs DATABASE_URL"))
		}
		pb, err := kvstore.NewPostgresBackend(ctx, res.DB)
		if err != nil {
			return fail(err)
		}
		backend = pb
	case config.BackendRedis:
		if res.Cache == nil {
			return fail(errors.New("redis backend needs REDIS_URL"))
		}
		backend = kvstore.NewRedisBackend(res.Cache, "")
	default:
		return fail(fmt.Errorf("unknown backend %q", cfg.KVBackend))
	}

	res.Store = kvstore.New(backend)
	return res, nil
}

// Close releases every opened connection.
func (r *Resources) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.SQLite != nil {
		errs = append(errs, r.SQLite.Close())
	}
	if r.DB != nil {
		r.DB.Close()
	}
	return errors.Join(errs...)
}
