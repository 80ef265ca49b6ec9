package repository

import (
	"context"
	"time"
)

// CacheStore holds short-lived lookup results, such as code previews served
// to the UI before redemption. It is never authoritative: the redemption
// path always goes to PostgreSQL.
// Implementations: Redis (production) or in-memory (local dev / single instance).
type CacheStore interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Get returns nil with no error on a cache miss.
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
