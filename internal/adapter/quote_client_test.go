package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-snapshot/internal/config"
)

func newTestQuoteClient(serverURL string) *QuoteClient {
	return NewQuoteClient(&config.QuoteConfig{
		BaseURL:           serverURL,
		RequestsPerSecond: 1000,
	})
}

func TestClosingPricesReturnsOrderedSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/EURUSD=X")
		assert.Equal(t, "1d", r.URL.Query().Get("range"))
		fmt.Fprint(w, `{"chart":{"result":[{"indicators":{"quote":[{"close":[1.08,null,1.09]}]}}],"error":null}}`)
	}))
	defer server.Close()

	client := newTestQuoteClient(server.URL)
	prices, err := client.ClosingPrices(context.Background(), "EURUSD=X", "1d")
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.True(t, prices[0].Equal(decimal.NewFromFloat(1.08)))
	assert.True(t, prices[1].Equal(decimal.NewFromFloat(1.09)))
}

func TestClosingPricesEmptyHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[{"indicators":{"quote":[{"close":[null,null]}]}}],"error":null}}`)
	}))
	defer server.Close()

	client := newTestQuoteClient(server.URL)
	_, err := client.ClosingPrices(context.Background(), "NEWLISTING", "1d")
	assert.True(t, errors.Is(err, ErrNoQuoteData))
}

func TestClosingPricesNoResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":[],"error":null}}`)
	}))
	defer server.Close()

	client := newTestQuoteClient(server.URL)
	_, err := client.ClosingPrices(context.Background(), "UNKNOWN", "5d")
	assert.True(t, errors.Is(err, ErrNoQuoteData))
}

func TestClosingPricesProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer server.Close()

	client := newTestQuoteClient(server.URL)
	_, err := client.ClosingPrices(context.Background(), "BOGUS", "1d")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoQuoteData))
}

func TestClosingPricesEmptyTicker(t *testing.T) {
	client := newTestQuoteClient("http://unused")
	_, err := client.ClosingPrices(context.Background(), "", "1d")
	assert.Error(t, err)
}
