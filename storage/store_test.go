package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"passenger-client/config"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get on empty store: err = %v, want ErrNotFound", err)
	}
	if err := s.Set(ctx, "token", "abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "token", "def"); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, err := s.Get(ctx, "token")
	if err != nil || got != "def" {
		t.Fatalf("Get = %q, %v; want def", got, err)
	}
	if err := s.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "token"); err != nil {
		t.Fatalf("Delete of missing key: %v", err)
	}
	if _, err := s.Get(ctx, "token"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: err = %v", err)
	}
}

func TestBadgerInMemory(t *testing.T) {
	s, err := OpenBadger("")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestBadgerPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "store")
	ctx := context.Background()

	s, err := OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "user", `{"_id":"u1"}`); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	got, err := s.Get(ctx, "user")
	if err != nil || got != `{"_id":"u1"}` {
		t.Fatalf("after reopen Get = %q, %v", got, err)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "etcd"}}
	if _, err := Open(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("PASSENGER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PASSENGER_TEST_REDIS_ADDR not set")
	}
	s, err := OpenRedis(context.Background(), config.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("PASSENGER_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("PASSENGER_TEST_POSTGRES_DSN not set")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY, value TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL DEFAULT now())`)
	db.Close()
	if err != nil {
		t.Fatal(err)
	}

	s, err := OpenPostgres(context.Background(), dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStore(t, s)
}
