package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-snapshot/internal/adapter"
)

type mockQuoteSource struct {
	prices map[string][]decimal.Decimal
	errs   map[string]error
	calls  []string
}

func (m *mockQuoteSource) ClosingPrices(_ context.Context, ticker, window string) ([]decimal.Decimal, error) {
	key := ticker + "/" + window
	m.calls = append(m.calls, key)
	if err, ok := m.errs[key]; ok {
		return nil, err
	}
	return m.prices[key], nil
}

func TestLatestPriceFirstWindow(t *testing.T) {
	source := &mockQuoteSource{
		prices: map[string][]decimal.Decimal{
			"BTC-USD/1d": {decimal.NewFromInt(64000), decimal.NewFromInt(65000)},
		},
	}
	resolver := NewPriceResolver(source)

	price, err := resolver.LatestPrice(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(65000)), "expected last close, got %s", price)
	assert.Equal(t, []string{"BTC-USD/1d"}, source.calls, "wider window should not be queried")
}

func TestLatestPriceFallsBackToWiderWindow(t *testing.T) {
	source := &mockQuoteSource{
		prices: map[string][]decimal.Decimal{
			"^IXIC/5d": {decimal.NewFromInt(18000)},
		},
		errs: map[string]error{
			"^IXIC/1d": adapter.ErrNoQuoteData,
		},
	}
	resolver := NewPriceResolver(source)

	price, err := resolver.LatestPrice(context.Background(), "^IXIC")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(18000)))
	assert.Equal(t, []string{"^IXIC/1d", "^IXIC/5d"}, source.calls)
}

func TestLatestPriceExhaustsWindows(t *testing.T) {
	source := &mockQuoteSource{
		errs: map[string]error{
			"NOPE/1d": adapter.ErrNoQuoteData,
			"NOPE/5d": adapter.ErrNoQuoteData,
		},
	}
	resolver := NewPriceResolver(source)

	_, err := resolver.LatestPrice(context.Background(), "NOPE")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPriceNotFound)
}

func TestLatestPriceProviderFailureStillTriesNextWindow(t *testing.T) {
	source := &mockQuoteSource{
		prices: map[string][]decimal.Decimal{
			"ETH-USD/5d": {decimal.NewFromInt(3200)},
		},
		errs: map[string]error{
			"ETH-USD/1d": errors.New("upstream 500"),
		},
	}
	resolver := NewPriceResolver(source)

	price, err := resolver.LatestPrice(context.Background(), "ETH-USD")
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.NewFromInt(3200)))
}
