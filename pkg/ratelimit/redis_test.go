package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client)
}

func TestRedisStore_IncrementSetsExpiryOnFirstCall(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	count, ttl, err := s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	count, ttl, err = s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, ttl > 0)
}

func TestRedisStore_DecrementIsNoOp(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_, _, _ = s.Increment(ctx, "k1", time.Minute)
	count, _, _ := s.Increment(ctx, "k1", time.Minute)
	require.Equal(t, int64(2), count)

	require.NoError(t, s.Decrement(ctx, "k1"))

	count, _, err := s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count, "Decrement must not affect the durable store")
}

func TestRedisStore_BlockAndBlocked(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	_, blocked, err := s.Blocked(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, blocked)

	_, err = s.IncrementLimitReached(ctx, "k1")
	require.NoError(t, err)

	require.NoError(t, s.Block(ctx, "k1", time.Minute))

	remaining, blocked, err := s.Blocked(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.True(t, remaining > 0)

	reached, err := s.client.Exists(ctx, reachedKey("k1")).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), reached, "Block must clear the escalation counter")
}

func TestRedisStore_IncrementLimitReached(t *testing.T) {
	s := newTestRedisStore(t)
	ctx := context.Background()

	n, err := s.IncrementLimitReached(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.IncrementLimitReached(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
