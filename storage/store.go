// Package storage persists the passenger session between runs. Values are
// opaque strings; callers own the encoding.
package storage

import (
	"context"
	"errors"
	"fmt"

	"passenger-client/config"
)

var ErrNotFound = errors.New("storage: key not found")

// Store is a small persistent key-value store. Delete of a missing key is not
// an error.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open returns the Store selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case "", "badger":
		return OpenBadger(cfg.Storage.Path)
	case "redis":
		return OpenRedis(ctx, cfg.Redis)
	case "postgres":
		return OpenPostgres(ctx, cfg.DB.DSN())
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
