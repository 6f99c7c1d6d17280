// Package cache stores small JSON values with an expiry. It backs the
// tab-scoped bucket configuration and the last-fetched wall snapshots.
package cache

import (
	"context"
	"time"
)

// Store is a JSON value store with per-key TTL.
type Store interface {
	// Get decodes the value under key into out. It reports false when the
	// key is absent or expired.
	Get(ctx context.Context, key string, out any) (bool, error)
	// Set stores v under key. A ttl <= 0 uses the store default.
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// DefaultTTL applies when a caller passes ttl <= 0.
const DefaultTTL = 12 * time.Hour
