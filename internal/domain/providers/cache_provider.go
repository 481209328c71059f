package providers

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// CacheProvider stores opaque snapshots under string keys
type CacheProvider interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl; a non-positive ttl never expires
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
}
