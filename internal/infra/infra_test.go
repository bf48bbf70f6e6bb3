package infra

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/fintrack/fintrack/internal/config"
	"github.com/fintrack/fintrack/internal/kvstore"
)

func TestOpenSQLiteCreatesFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "fintrack.db")

	db, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `CREATE TABLE probe (id INTEGER)`); err != nil {
		t.Fatalf("exec: %v", err)
	}
}

func TestNewRedisClient(t *testing.T) {
	ctx := context.Background()

	client, err := NewRedisClient(ctx, "")
	if err != nil || client != nil {
		t.Fatalf("expected nil client for empty url, got %v %v", client, err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	defer mr.Close()

	client, err = NewRedisClient(ctx, "redis://"+mr.Addr())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cases := []config.Config{
		{KVBackend: config.BackendMemory},
		{KVBackend: config.BackendFile, KVPath: filepath.Join(t.TempDir(), "slots")},
		{KVBackend: config.BackendSQLite, KVPath: filepath.Join(t.TempDir(), "fintrack.db")},
		{KVBackend: config.BackendRedis, RedisURL: "redis://" + mr.Addr()},
	}
	for _, cfg := range cases {
		res, err := Open(ctx, cfg)
		if err != nil {
			t.Fatalf("%s: open: %v", cfg.KVBackend, err)
		}
		if err := kvstore.Write(ctx, res.Store, "probe", map[string]int{"n": 1}); err != nil {
			t.Fatalf("%s: write: %v", cfg.KVBackend, err)
		}
		got, err := kvstore.Read(ctx, res.Store, "probe", map[string]int{})
		if err != nil || got["n"] != 1 {
			t.Fatalf("%s: read back %v, %v", cfg.KVBackend, got, err)
		}
		if err := res.Close(); err != nil {
			t.Fatalf("%s: close: %v", cfg.KVBackend, err)
		}
	}
}

func TestOpenSQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	cfg := config.Config{KVBackend: config.BackendSQLite, KVPath: filepath.Join(t.TempDir(), "fintrack.db")}

	first, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := kvstore.Write(ctx, first.Store, "fintrack.session", "someone"); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = first.Close()

	second, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	got, err := kvstore.Read(ctx, second.Store, "fintrack.session", "")
	if err != nil || got != "someone" {
		t.Fatalf("expected persisted slot, got %q, %v", got, err)
	}
}

func TestOpenRejectsMissingConnections(t *testing.T) {
	ctx := context.Background()
	for _, cfg := range []config.Config{
		{KVBackend: config.BackendPostgres},
		{KVBackend: config.BackendRedis},
		{KVBackend: "etcd"},
	} {
		if _, err := Open(ctx, cfg); err == nil {
			t.Fatalf("%s: expected error", cfg.KVBackend)
		}
	}
}
