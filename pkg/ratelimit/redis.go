package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces every key this package writes so a shared Redis
// instance can be inspected without ambiguity.
const keyPrefix = "schoolflow:ratelimit:"

const (
	blockedSuffix      = ":blocked"
	limitReachedSuffix = ":reached"
)

// RedisStore is the durable counter store, shared across every instance of
// the API so a sliding-window decision is consistent no matter which
// instance handles a given request.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an already-connected client. The caller owns the
// client's lifecycle (construction and Close).
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func counterKey(key string) string { return keyPrefix + key }
func blockedKey(key string) string { return keyPrefix + key + blockedSuffix }
func reachedKey(key string) string { return keyPrefix + key + limitReachedSuffix }

// Increment implements the spec's literal pseudocontract: INCR the counter,
// EXPIRE it to window only on the first increment of a new window (count ==
// 1), then read back the remaining TTL.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	k := counterKey(key)

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		return count, window, nil
	}

	ttl, err := s.client.TTL(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		// The key outlived its expiry bookkeeping (e.g. EXPIRE lost to a
		// race or was never set) — re-arm it rather than let it live forever.
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, 0, err
		}
		ttl = window
	}
	return count, ttl, nil
}

// Decrement is a deliberate no-op on the durable store. See the Store
// interface doc for why this split exists.
func (s *RedisStore) Decrement(ctx context.Context, key string) error {
	return nil
}

// IncrementLimitReached implements Store. The escalation counter has no
// expiry of its own: it only ever resets when Block later clears it.
func (s *RedisStore) IncrementLimitReached(ctx context.Context, key string) (int64, error) {
	return s.client.Incr(ctx, reachedKey(key)).Result()
}

// Block implements Store. Blocking a key also clears its escalation counter,
// so the count that triggered the block doesn't carry over into the next
// escalation cycle once the block expires.
func (s *RedisStore) Block(ctx context.Context, key string, d time.Duration) error {
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, blockedKey(key), "1", d)
	pipe.Del(ctx, reachedKey(key))
	_, err := pipe.Exec(ctx)
	return err
}

// Blocked implements Store.
func (s *RedisStore) Blocked(ctx context.Context, key string) (time.Duration, bool, error) {
	ttl, err := s.client.TTL(ctx, blockedKey(key)).Result()
	if err != nil {
		return 0, false, err
	}
	if ttl <= 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}
