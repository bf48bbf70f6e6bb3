package kvstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// PostgresBackend keeps slots in the kv_slots table of PostgreSQL.
type PostgresBackend struct {
	db *pgxpool.Pool
}

// NewPostgresBackend migrates the schema over the pool and returns the backend.
func NewPostgresBackend(ctx context.Context, db *pgxpool.Pool) (*PostgresBackend, error) {
	sqlDB := stdlib.OpenDBFromPool(db)
	defer sqlDB.Close()
	if err := Migrate(ctx, sqlDB, DialectPostgres); err != nil {
		return nil, err
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRow(ctx, `SELECT value FROM kv_slots WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (b *PostgresBackend) Set(ctx context.Context, key string, value []byte) error {
	_, err := b.db.Exec(ctx, `INSERT INTO kv_slots (key, value, updated_at) VALUES ($1, $2, now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`, key, value)
	return err
}
