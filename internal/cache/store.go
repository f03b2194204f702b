// Package cache implements the two-tier cache every catalog, metadata, stream,
// image and session lookup goes through.
//
// A TieredCache always has a local in-process Store and optionally a remote one
// (Redis or a bbolt file). Reads try local first and promote remote hits into
// local in the background; writes land in local synchronously and in remote
// asynchronously. Store failures never reach callers: they are logged and read
// as a miss.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented key/value backend with per-entry TTL.
type Store interface {
	// Name identifies the store in logs.
	Name() string
	// Get returns the value and its remaining TTL (0 when unknown).
	// ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ttl time.Duration, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
