package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/models"
)

// SettlementCurrency is the common currency all valuations are normalized to
const SettlementCurrency = "USD"

// ErrRateUnavailable indicates no conversion rate to the settlement currency
// could be produced: either the registry has no instrument for the pair
// (a configuration gap) or the instrument's price could not be resolved.
var ErrRateUnavailable = errors.New("conversion rate unavailable")

// ConversionRegistry looks up the tracked instrument converting one currency
// to another. Returns (nil, nil) when no instrument exists for the pair.
type ConversionRegistry interface {
	FindConversion(ctx context.Context, fromCurrency, toCurrency string) (*models.TrackedInstrument, error)
}

// PriceSource resolves an instrument's latest price
type PriceSource interface {
	LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error)
}

// CurrencyConverter produces conversion rates to the settlement currency
type CurrencyConverter struct {
	registry ConversionRegistry
	prices   PriceSource
}

// NewCurrencyConverter creates a converter over the registry and price source
func NewCurrencyConverter(registry ConversionRegistry, prices PriceSource) *CurrencyConverter {
	return &CurrencyConverter{
		registry: registry,
		prices:   prices,
	}
}

// RateToUSD returns the conversion rate from a currency to the settlement
// currency. The settlement currency itself short-circuits to exactly 1
// without touching the registry or the price provider.
func (c *CurrencyConverter) RateToUSD(ctx context.Context, currency string) (decimal.Decimal, error) {
	if currency == SettlementCurrency {
		return decimal.NewFromInt(1), nil
	}

	instrument, err := c.registry.FindConversion(ctx, currency, SettlementCurrency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("registry lookup for %s: %w", currency, err)
	}
	if instrument == nil {
		return decimal.Zero, fmt.Errorf("%w: no instrument for %s/%s", ErrRateUnavailable, currency, SettlementCurrency)
	}

	price, err := c.prices.LatestPrice(ctx, instrument.Ticker)
	if err != nil {
		if errors.Is(err, ErrPriceNotFound) {
			return decimal.Zero, fmt.Errorf("%w: no price for %s", ErrRateUnavailable, instrument.Ticker)
		}
		return decimal.Zero, err
	}

	return price, nil
}
