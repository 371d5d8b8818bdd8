package storage

import (
	"context"
	"fmt"

	"github.com/portfolio-snapshot/internal/models"
)

// HoldingRepository reads manually tracked positions. The table is written by
// an external ledger process; this repository is read-only.
type HoldingRepository struct {
	db *PostgresDB
}

// NewHoldingRepository creates a new holding repository
func NewHoldingRepository(db *PostgresDB) *HoldingRepository {
	return &HoldingRepository{db: db}
}

// ListHoldings retrieves every manually tracked position
func (r *HoldingRepository) ListHoldings(ctx context.Context) ([]models.ManualHolding, error) {
	query := `
		SELECT platform, account_wallet, asset_type, asset_name, ticker, amount, native_currency
		FROM manual_holdings
		ORDER BY platform, ticker
	`

	rows, err := r.db.Pool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}
	defer rows.Close()

	var holdings []models.ManualHolding
	for rows.Next() {
		var holding models.ManualHolding
		err := rows.Scan(
			&holding.Platform,
			&holding.Account,
			&holding.AssetType,
			&holding.AssetName,
			&holding.Ticker,
			&holding.Amount,
			&holding.NativeCurrency,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		holdings = append(holdings, holding)
	}
	return holdings, rows.Err()
}
