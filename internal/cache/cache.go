// Package cache holds small get-or-load caches for lookup tables such as the
// reserved route segments.
package cache

import (
	"context"
	"time"
)

// Loader produces the value for a key on a cache miss.
type Loader func(ctx context.Context) ([]string, error)

// Store is a get-or-load cache of string lists keyed by name.
type Store interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]string, error)
	Invalidate(ctx context.Context, key string) error
}
