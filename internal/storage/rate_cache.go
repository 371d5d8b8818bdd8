package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RateCache caches conversion rates in Redis with a TTL. An expired or
// missing entry reads as a miss, never as an error.
type RateCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewRateCache creates a rate cache with the given TTL
func NewRateCache(cache *RedisCache, ttl time.Duration) *RateCache {
	return &RateCache{cache: cache, ttl: ttl}
}

func rateKey(ticker string) string {
	return fmt.Sprintf("rate:%s", ticker)
}

// GetRate retrieves a cached rate. The boolean is false on a cache miss.
func (c *RateCache) GetRate(ctx context.Context, ticker string) (decimal.Decimal, bool, error) {
	value, err := c.cache.Get(ctx, rateKey(ticker))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read cached rate: %w", err)
	}

	rate, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("invalid cached rate %q: %w", value, err)
	}
	return rate, true, nil
}

// SetRate caches a rate for the configured TTL
func (c *RateCache) SetRate(ctx context.Context, ticker string, value decimal.Decimal) error {
	if err := c.cache.Set(ctx, rateKey(ticker), value.String(), c.ttl); err != nil {
		return fmt.Errorf("failed to cache rate: %w", err)
	}
	return nil
}
