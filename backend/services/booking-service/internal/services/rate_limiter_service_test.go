package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimitStoreWindow(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store := &memoryRateLimitStore{counters: map[string]*memoryCounter{}, now: func() time.Time { return now }}

	for i := 0; i < 3; i++ {
		ok, err := store.IncrementAndCheck(ctx, "k", 3, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d", i+1)
	}
	ok, _ := store.IncrementAndCheck(ctx, "k", 3, time.Hour)
	assert.False(t, ok)

	now = now.Add(time.Hour)
	ok, _ = store.IncrementAndCheck(ctx, "k", 3, time.Hour)
	assert.True(t, ok, "new window")

	now = now.Add(2 * time.Hour)
	require.NoError(t, store.CleanupExpired(ctx))
	assert.Empty(t, store.counters)
}

func TestRedisRateLimitStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	store := NewRedisRateLimitStore(rdb)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := store.IncrementAndCheck(ctx, "login:ip:1.2.3.4", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.IncrementAndCheck(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Minute, mr.TTL(rateLimitKeyPrefix+"login:ip:1.2.3.4"))

	mr.FastForward(time.Minute + time.Second)
	ok, err = store.IncrementAndCheck(ctx, "login:ip:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRateLimiterLoginPerEmail(t *testing.T) {
	cfg := testConfig(t)
	cfg.LoginLimitPerIPPerHour = 100
	cfg.LoginLimitPerEmailPerHour = 2
	cfg.RateLimitWindow = time.Hour
	rl := NewRateLimiterService(NewMemoryRateLimitStore(), cfg)
	ctx := context.Background()

	require.NoError(t, rl.CheckLoginRateLimits(ctx, "10.0.0.1", "a@example.com"))
	require.NoError(t, rl.CheckLoginRateLimits(ctx, "10.0.0.2", "A@example.com"))
	err := rl.CheckLoginRateLimits(ctx, "10.0.0.3", "a@example.com")
	assert.ErrorIs(t, err, utils.ErrRateLimitExceeded)

	assert.NoError(t, rl.CheckLoginRateLimits(ctx, "10.0.0.3", "b@example.com"))
}

func TestRateLimiterEmailGlobal(t *testing.T) {
	cfg := testConfig(t)
	cfg.GlobalEmailLimitPerHour = 1
	cfg.RateLimitWindow = time.Hour
	rl := NewRateLimiterService(NewMemoryRateLimitStore(), cfg)
	ctx := context.Background()

	require.NoError(t, rl.CheckEmailRateLimits(ctx, "10.0.0.1", "a@example.com"))
	assert.ErrorIs(t, rl.CheckEmailRateLimits(ctx, "10.0.0.2", "b@example.com"), utils.ErrRateLimitExceeded)
}

func TestRateLimiterZeroLimitIsOff(t *testing.T) {
	rl := NewRateLimiterService(NewMemoryRateLimitStore(), testConfig(t))
	for i := 0; i < 50; i++ {
		require.NoError(t, rl.CheckLoginRateLimits(context.Background(), "ip", "x@example.com"))
	}
}

type failingRateLimitStore struct{}

func (failingRateLimitStore) IncrementAndCheck(context.Context, string, int, time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (failingRateLimitStore) CleanupExpired(context.Context) error { return nil }

func TestRateLimiterFailsOpen(t *testing.T) {
	cfg := testConfig(t)
	cfg.LoginLimitPerIPPerHour = 1
	cfg.RateLimitWindow = time.Hour
	rl := NewRateLimiterService(failingRateLimitStore{}, cfg)
	assert.NoError(t, rl.CheckLoginRateLimits(context.Background(), "ip", "x@example.com"))
}
