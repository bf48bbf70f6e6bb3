package kvstore

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/fintrack/fintrack/internal/kvstore/migrations"
)

// Dialects accepted by Migrate.
const (
	DialectSQLite   = "sqlite3"
	DialectPostgres = "postgres"
)

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// Migrate creates or upgrades the kv_slots table for the given dialect.
func Migrate(ctx context.Context, db *sql.DB, dialect string) error {
	var (
		fsys fs.FS
		dir  string
	)
	switch dialect {
	case DialectSQLite:
		fsys, dir = migrations.SQLite, "sqlite"
	case DialectPostgres:
		fsys, dir = migrations.Postgres, "postgres"
	default:
		return fmt.Errorf("unsupported migration dialect %q", dialect)
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(fsys)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("run %s migrations: %w", dialect, err)
	}
	return nil
}
