package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_AllowsUnderBudget(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	limiter := NewLimiter(store).WithRule("test", Rule{Window: time.Minute, Max: 2})

	ctx := context.Background()
	d, err := limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Remaining)

	d, err = limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
}

func TestLimiter_DeniesOverBudgetWithoutEscalation(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	limiter := NewLimiter(store).WithRule("test", Rule{Window: time.Minute, Max: 1})

	ctx := context.Background()
	_, err := limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)

	d, err := limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.False(t, d.Blocked)
	assert.True(t, d.RetryAfter > 0)
}

func TestLimiter_EscalatesToBlockAfterThreshold(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	limiter := NewLimiter(store).WithRule("test", Rule{
		Window:              time.Minute,
		Max:                 1,
		EscalationThreshold: 2,
		BlockWindow:         time.Hour,
	})

	ctx := context.Background()
	_, err := limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)

	d, err := limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.False(t, d.Blocked, "first breach over budget should not yet block")

	d, err = limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.True(t, d.Blocked, "second breach should trip the escalation threshold")
	assert.Equal(t, time.Hour, d.RetryAfter)

	d, err = limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.True(t, d.Blocked, "key must stay blocked on the next call too")
}

func TestLimiter_ReleaseReversesIncrement(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	limiter := NewLimiter(store).WithRule("test", Rule{Window: time.Minute, Max: 5})

	ctx := context.Background()
	d, err := limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Remaining)

	require.NoError(t, limiter.Release(ctx, "test", "user1"))

	d, err = limiter.Allow(ctx, "test", "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(4), d.Remaining, "the released slot should be available again")
}

func TestLimiter_UnknownRulePanics(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	limiter := NewLimiter(store)

	assert.Panics(t, func() {
		_, _ = limiter.Allow(context.Background(), "does-not-exist", "k")
	})
}

func TestDefaultRules_NamesMatchDocumentedLimiters(t *testing.T) {
	rules := DefaultRules()
	for _, name := range []string{
		"auth", "passwordReset", "registration", "import",
		"payment", "api", "tenant", "document", "export",
	} {
		_, ok := rules[name]
		assert.True(t, ok, "missing default rule %q", name)
	}
}
