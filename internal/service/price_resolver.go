// Package service implements the valuation and reconciliation pipeline.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/adapter"
	"github.com/portfolio-snapshot/internal/logging"
)

// ErrPriceNotFound indicates no price could be resolved for an instrument in
// any lookback window. Callers skip the instrument for the run; this is never
// a fatal pipeline error.
var ErrPriceNotFound = errors.New("price not found")

// defaultWindows is the ordered lookback sequence, shortest first. Newly
// listed or exchange-closed instruments often have no history in the
// narrowest window but do in a wider one.
var defaultWindows = []string{"1d", "5d"}

// QuoteSource provides closing-price history for an instrument
type QuoteSource interface {
	ClosingPrices(ctx context.Context, ticker, window string) ([]decimal.Decimal, error)
}

// PriceResolver resolves an instrument's latest price in its native quoting
// currency, with a tiered fallback across lookback windows.
type PriceResolver struct {
	source  QuoteSource
	windows []string
}

// NewPriceResolver creates a resolver over the given quote source
func NewPriceResolver(source QuoteSource) *PriceResolver {
	return &PriceResolver{
		source:  source,
		windows: defaultWindows,
	}
}

// LatestPrice returns the most recent close from the first window with
// non-empty history. Exhausting every window yields ErrPriceNotFound.
func (r *PriceResolver) LatestPrice(ctx context.Context, ticker string) (decimal.Decimal, error) {
	logger := logging.FromContext(ctx).WithField("ticker", ticker)

	for _, window := range r.windows {
		prices, err := r.source.ClosingPrices(ctx, ticker, window)
		if err != nil {
			if errors.Is(err, adapter.ErrNoQuoteData) {
				logger.WithField("window", window).Warn("No price history in window")
			} else {
				logger.WithField("window", window).WithError(err).Error("Quote provider call failed")
			}
			continue
		}
		if len(prices) == 0 {
			continue
		}

		latest := prices[len(prices)-1]
		logger.WithFields(map[string]interface{}{
			"window": window,
			"price":  latest.String(),
		}).Debug("Resolved latest price")
		return latest, nil
	}

	return decimal.Zero, fmt.Errorf("%w: %s", ErrPriceNotFound, ticker)
}
