// Package cache provides a best-effort read-through cache for derived views.
// The cache is never a source of truth: every caller must behave correctly
// when it returns ErrMiss or fails outright.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss signals that the key is absent. Callers fall through to the real read.
var ErrMiss = errors.New("cache miss")

// Cache stores JSON-encoded values under string keys with a TTL.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Noop is the cache used when Redis is not configured. Every read misses and
// every write is discarded, which is exactly the degraded mode the service
// must tolerate.
type Noop struct{}

func (Noop) GetJSON(context.Context, string, any) error               { return ErrMiss }
func (Noop) SetJSON(context.Context, string, any, time.Duration) error { return nil }
func (Noop) Invalidate(context.Context, ...string) error              { return nil }
