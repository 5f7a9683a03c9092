// Package store provides the key-value backends the storage manager persists
// into. Each key holds one JSON document that is replaced whole on write.
package store

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned by Get for a key that has never been written.
var ErrNotFound = errors.New("key not found")

// KV is a flat key-value store.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Size reports the bytes held by all keys and values.
	Size(ctx context.Context) (int64, error)
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Open picks a backend from location: redis:// and rediss:// URLs select
// Redis, ":memory:" an in-memory SQLite database, anything else a SQLite file
// path. An empty location opens the default database next to the binary.
func Open(ctx context.Context, location string) (KV, error) {
	switch {
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		return OpenRedis(ctx, location)
	case location == "":
		return OpenDefaultSQLite()
	default:
		return OpenSQLite(location)
	}
}
