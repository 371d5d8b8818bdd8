package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRateCache(t *testing.T, ttl time.Duration) (*RateCache, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRateCache(newRedisCacheFromClient(client), ttl), server
}

func TestRateCacheRoundTrip(t *testing.T) {
	cache, _ := newTestRateCache(t, 15*time.Minute)
	ctx := context.Background()

	_, ok, err := cache.GetRate(ctx, "SOL-USD")
	require.NoError(t, err)
	assert.False(t, ok, "empty cache must miss")

	require.NoError(t, cache.SetRate(ctx, "SOL-USD", decimal.RequireFromString("142.53")))

	rate, ok, err := cache.GetRate(ctx, "SOL-USD")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, rate.Equal(decimal.RequireFromString("142.53")))
}

func TestRateCacheExpiry(t *testing.T) {
	cache, server := newTestRateCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetRate(ctx, "SOL-USD", decimal.NewFromInt(150)))
	server.FastForward(2 * time.Minute)

	_, ok, err := cache.GetRate(ctx, "SOL-USD")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must read as a miss")
}

func TestRateCacheCorruptValue(t *testing.T) {
	cache, server := newTestRateCache(t, time.Minute)

	require.NoError(t, server.Set("rate:SOL-USD", "not-a-number"))

	_, _, err := cache.GetRate(context.Background(), "SOL-USD")
	assert.Error(t, err)
}
