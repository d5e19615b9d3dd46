// Package ratelimit implements the fixed-window counters and escalation
// blocks behind every named limiter in spec §4.8: a durable shared store
// (Redis) is preferred so counts are consistent across every instance of
// the API; a process-local memory store is the fallback when no durable
// store is configured, used mainly in development and in tests.
package ratelimit

import (
	"context"
	"time"
)

// Store is the counter backend a Limiter is built on. Exactly one Store
// backs a given Limiter — the durable/fallback choice is made once at
// construction, not per call, so escalation state (limitReachedCount,
// blocked) always lives in a single place.
//
// Decrement only has an effect on the memory store: spec §9's open
// question preserves the source's memory-path-only post-decrement
// behavior rather than generalizing it to the durable path, so the Redis
// implementation's Decrement is a deliberate no-op.
type Store interface {
	// Increment implements the pseudocontract from spec §4.8: increment the
	// counter for key, set its expiry to window on the first increment of a
	// new window, and return the resulting count plus the key's remaining
	// TTL.
	Increment(ctx context.Context, key string, window time.Duration) (count int64, ttl time.Duration, err error)

	// Decrement reverses one Increment call for key. Used by the
	// conditional-counting feature (post-decrement on success/failure) —
	// see the note on the Store interface above on the durable/memory split.
	Decrement(ctx context.Context, key string) error

	// IncrementLimitReached bumps the escalation counter for key and returns
	// the new count. RedisStore keeps this count across windows until Block
	// clears it; MemoryStore keeps it on the window's counter entry, so it
	// restarts at zero with each new window and Block does not clear it.
	IncrementLimitReached(ctx context.Context, key string) (int64, error)

	// Block marks key as blocked for d. A blocked key short-circuits future
	// Increment decisions at the Limiter level.
	Block(ctx context.Context, key string, d time.Duration) error

	// Blocked reports whether key is currently blocked and, if so, how much
	// longer it remains blocked.
	Blocked(ctx context.Context, key string) (remaining time.Duration, blocked bool, err error)
}
