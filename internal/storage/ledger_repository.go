package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/models"
)

// LedgerRepository handles the append-only valuation and rate history tables
type LedgerRepository struct {
	db *PostgresDB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *PostgresDB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// InsertValuation appends one valuation record
func (r *LedgerRepository) InsertValuation(ctx context.Context, record *models.ValuationRecord) error {
	query := `
		INSERT INTO asset_valuations (
			platform, account_wallet, asset_type, asset_name, ticker,
			amount, native_currency, native_price, usd_price,
			total_native, total_usd, snapshot_ts, run_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		record.Platform,
		record.Account,
		record.AssetType,
		record.AssetName,
		record.Ticker,
		record.Amount,
		record.NativeCurrency,
		record.NativePrice,
		record.USDPrice,
		record.TotalNative,
		record.TotalUSD,
		record.Timestamp,
		record.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert valuation: %w", err)
	}
	return nil
}

// InsertRateObservation appends one rate observation
func (r *LedgerRepository) InsertRateObservation(ctx context.Context, observation *models.RateObservation) error {
	query := `
		INSERT INTO historical_rates (ticker, price, snapshot_ts, run_id)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Pool().Exec(ctx, query,
		observation.Ticker,
		observation.Price,
		observation.Timestamp,
		observation.RunID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rate observation: %w", err)
	}
	return nil
}

// LatestRate retrieves the most recent observed price for a ticker. The
// boolean is false when no observation exists yet.
func (r *LedgerRepository) LatestRate(ctx context.Context, ticker string) (decimal.Decimal, bool, error) {
	query := `
		SELECT price
		FROM historical_rates
		WHERE ticker = $1
		ORDER BY snapshot_ts DESC
		LIMIT 1
	`

	var price decimal.Decimal
	err := r.db.Pool().QueryRow(ctx, query, ticker).Scan(&price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read latest rate: %w", err)
	}
	return price, true, nil
}

// LatestSnapshotTotal sums total_usd over the rows sharing the maximum
// recorded timestamp. The boolean is false when the ledger is empty.
func (r *LedgerRepository) LatestSnapshotTotal(ctx context.Context) (decimal.Decimal, bool, error) {
	query := `
		SELECT COALESCE(SUM(total_usd), 0)
		FROM asset_valuations
		WHERE snapshot_ts = (SELECT MAX(snapshot_ts) FROM asset_valuations)
	`

	var total decimal.Decimal
	err := r.db.Pool().QueryRow(ctx, query).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		return decimal.Zero, false, fmt.Errorf("failed to read latest snapshot total: %w", err)
	}

	var count int64
	if err := r.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM asset_valuations`).Scan(&count); err != nil {
		return decimal.Zero, false, fmt.Errorf("failed to count valuations: %w", err)
	}
	if count == 0 {
		return decimal.Zero, false, nil
	}
	return total, true, nil
}

// ListSnapshots retrieves per-run summaries, newest first
func (r *LedgerRepository) ListSnapshots(ctx context.Context, limit int) ([]models.SnapshotSummary, error) {
	query := `
		SELECT snapshot_ts, SUM(total_usd), COUNT(*)
		FROM asset_valuations
		GROUP BY snapshot_ts
		ORDER BY snapshot_ts DESC
		LIMIT $1
	`

	rows, err := r.db.Pool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.SnapshotSummary
	for rows.Next() {
		var snapshot models.SnapshotSummary
		if err := rows.Scan(&snapshot.Timestamp, &snapshot.TotalUSD, &snapshot.AssetCount); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}
