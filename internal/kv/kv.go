// Package kv narrows the KV store down to exactly the primitives the fraud
// engine and token subsystem need: GET/SET/SETNX-with-TTL/DEL/EXISTS/
// ZADD/ZCOUNT/EXPIRE, plus INCR for the login rate limiter and PING for
// health checks. Rule and auth code talks to this interface only — it
// must never reach for an ad-hoc Redis call of its own.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("kv: key not found")

// Client is the narrow KV contract consumed by the fraud engine and the
// token subsystem.
type Client interface {
	// Get returns the string value stored at key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key with the given TTL. A zero TTL means no expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// SetNX atomically sets key to value with the given TTL only if key is
	// absent. It returns true if the write occurred (key was absent).
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Del deletes key. Deleting an absent key is not an error.
	Del(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// ZAdd adds member to the sorted set at key with the given score
	// (conventionally a unix-millisecond timestamp).
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZCount counts members of the sorted set at key with score in [min, max].
	ZCount(ctx context.Context, key string, min, max float64) (int64, error)

	// Expire resets the TTL on key. Expiring an absent key is not an error.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Incr atomically increments the integer counter at key, setting ttl on
	// the key only the first time it is created, and returns the new value.
	// Used by the login rate limiter's per-IP attempt counter.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Ping checks connectivity to the backing store.
	Ping(ctx context.Context) error
}
