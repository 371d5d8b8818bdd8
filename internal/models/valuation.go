package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValuationRecord is one row of the append-only historical ledger: one asset,
// one pipeline run. All records of a run share the same timestamp, so the
// latest snapshot is the set of rows at MAX(timestamp).
type ValuationRecord struct {
	Platform       string          `json:"platform" db:"platform"`
	Account        string          `json:"account" db:"account_wallet"`
	AssetType      string          `json:"assetType" db:"asset_type"`
	AssetName      string          `json:"assetName" db:"asset_name"`
	Ticker         string          `json:"ticker" db:"ticker"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	NativeCurrency string          `json:"nativeCurrency" db:"native_currency"`
	NativePrice    decimal.Decimal `json:"nativePrice" db:"native_price"`
	USDPrice       decimal.Decimal `json:"usdPrice" db:"usd_price"`
	TotalNative    decimal.Decimal `json:"totalNative" db:"total_native"`
	TotalUSD       decimal.Decimal `json:"totalUsd" db:"total_usd"`
	Timestamp      time.Time       `json:"timestamp" db:"snapshot_ts"`
	RunID          string          `json:"runId" db:"run_id"`
}

// RateObservation is one observed price of a tracked conversion instrument,
// appended once per instrument per run.
type RateObservation struct {
	Ticker    string          `json:"ticker" db:"ticker"`
	Price     decimal.Decimal `json:"price" db:"price"`
	Timestamp time.Time       `json:"timestamp" db:"snapshot_ts"`
	RunID     string          `json:"runId" db:"run_id"`
}

// SnapshotSummary is the aggregate view of one pipeline run
type SnapshotSummary struct {
	Timestamp  time.Time       `json:"timestamp" db:"snapshot_ts"`
	TotalUSD   decimal.Decimal `json:"totalUsd" db:"total_usd"`
	AssetCount int64           `json:"assetCount" db:"asset_count"`
}

// NormalizedAsset is the transient unified shape of one wallet-reported asset,
// already valued in USD. Discarded after persistence.
type NormalizedAsset struct {
	Symbol   string          `json:"symbol"`
	Balance  decimal.Decimal `json:"balance"`
	TotalUSD decimal.Decimal `json:"totalUsd"`
}
