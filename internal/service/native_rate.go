package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/logging"
)

// NativeRateTicker is the conversion instrument pricing the chain's native asset
const NativeRateTicker = "SOL-USD"

// RateCache is a short-lived cache of conversion rates. The cache TTL bounds
// how stale a reused rate may be; an expired entry reads as a miss.
type RateCache interface {
	GetRate(ctx context.Context, ticker string) (decimal.Decimal, bool, error)
	SetRate(ctx context.Context, ticker string, value decimal.Decimal) error
}

// RateHistory reads the most recent persisted observation for an instrument
type RateHistory interface {
	LatestRate(ctx context.Context, ticker string) (decimal.Decimal, bool, error)
}

// NativeRateSource resolves the native asset's USD rate for wallet valuation.
// Resolution order: cache, then the most recent persisted observation, then
// the configured cold-start default. It never fails; a degraded rate beats
// aborting the wallet's valuation.
type NativeRateSource struct {
	cache    RateCache
	history  RateHistory
	fallback decimal.Decimal
}

// NewNativeRateSource creates a native rate source. cache may be nil when no
// cache backend is configured.
func NewNativeRateSource(cache RateCache, history RateHistory, fallback decimal.Decimal) *NativeRateSource {
	return &NativeRateSource{
		cache:    cache,
		history:  history,
		fallback: fallback,
	}
}

// NativeRate returns the USD rate for the native asset
func (s *NativeRateSource) NativeRate(ctx context.Context) decimal.Decimal {
	logger := logging.FromContext(ctx).WithField("ticker", NativeRateTicker)

	if s.cache != nil {
		value, ok, err := s.cache.GetRate(ctx, NativeRateTicker)
		if err != nil {
			logger.WithError(err).Warn("Rate cache read failed")
		} else if ok {
			return value
		}
	}

	value, ok, err := s.history.LatestRate(ctx, NativeRateTicker)
	if err != nil {
		logger.WithError(err).Warn("Rate history read failed")
	} else if ok {
		if s.cache != nil {
			if err := s.cache.SetRate(ctx, NativeRateTicker, value); err != nil {
				logger.WithError(err).Warn("Rate cache write failed")
			}
		}
		return value
	}

	logger.WithField("default", s.fallback.String()).Warn("No native rate observed yet, using default")
	return s.fallback
}
