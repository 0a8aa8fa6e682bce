package db

import (
	"context"
	"time"
)

// Store is the key-value facade used by the pricing repository.
type Store interface {
	Pinger
	HashStore
	Expirer
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based key-value operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Expirer sets key time-to-live.
type Expirer interface {
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
