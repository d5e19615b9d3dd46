package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_IncrementWithinWindow(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	count, ttl, err := s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.True(t, ttl > 0 && ttl <= time.Minute)

	count, _, err = s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStore_ResetsAfterWindowExpires(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	count, _, err := s.Increment(ctx, "k1", 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	time.Sleep(20 * time.Millisecond)

	count, _, err = s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "a fresh window must start the count over")
}

func TestMemoryStore_Decrement(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, _, _ = s.Increment(ctx, "k1", time.Minute)
	count, _, _ := s.Increment(ctx, "k1", time.Minute)
	require.Equal(t, int64(2), count)

	require.NoError(t, s.Decrement(ctx, "k1"))

	count, _, err := s.Increment(ctx, "k1", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestMemoryStore_DecrementDoesNotGoNegative(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.Decrement(ctx, "never-seen"))
}

func TestMemoryStore_BlockAndBlocked(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, blocked, err := s.Blocked(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, blocked)

	require.NoError(t, s.Block(ctx, "k1", 50*time.Millisecond))

	remaining, blocked, err := s.Blocked(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, blocked)
	assert.True(t, remaining > 0)

	time.Sleep(60 * time.Millisecond)

	_, blocked, err = s.Blocked(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestMemoryStore_IncrementLimitReached(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	n, err := s.IncrementLimitReached(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.IncrementLimitReached(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestMemoryStore_Sweep(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	ctx := context.Background()

	_, _, _ = s.Increment(ctx, "short", time.Nanosecond)
	require.NoError(t, s.Block(ctx, "blocked-key", time.Nanosecond))

	time.Sleep(time.Millisecond)
	s.sweep(time.Now())

	s.mu.Lock()
	_, counterExists := s.counters["short"]
	_, blockExists := s.blocked["blocked-key"]
	s.mu.Unlock()

	assert.False(t, counterExists)
	assert.False(t, blockExists)
}
