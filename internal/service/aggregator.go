package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/logging"
)

// SnapshotLedger reads the latest snapshot from the historical ledger
type SnapshotLedger interface {
	LatestSnapshotTotal(ctx context.Context) (decimal.Decimal, bool, error)
}

// SnapshotAggregator reports the portfolio total of the most recent run
type SnapshotAggregator struct {
	ledger SnapshotLedger
}

// NewSnapshotAggregator creates an aggregator over the ledger
func NewSnapshotAggregator(ledger SnapshotLedger) *SnapshotAggregator {
	return &SnapshotAggregator{ledger: ledger}
}

// LatestTotalUSD sums the USD totals of the rows at the maximum recorded
// timestamp. An empty ledger is reported as zero with a warning, not an error.
func (a *SnapshotAggregator) LatestTotalUSD(ctx context.Context) (decimal.Decimal, error) {
	total, ok, err := a.ledger.LatestSnapshotTotal(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading latest snapshot: %w", err)
	}
	if !ok {
		logging.FromContext(ctx).Warn("No valuation snapshots recorded yet")
		return decimal.Zero, nil
	}
	return total, nil
}
