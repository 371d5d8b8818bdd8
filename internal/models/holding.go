package models

import "github.com/shopspring/decimal"

// ManualHolding is a manually tracked position (stock, fiat, index). The
// manual_holdings table is maintained by an external ledger process; the
// pipeline only reads it.
type ManualHolding struct {
	Platform       string          `json:"platform" db:"platform"`
	Account        string          `json:"account" db:"account_wallet"`
	AssetType      string          `json:"assetType" db:"asset_type"`
	AssetName      string          `json:"assetName" db:"asset_name"`
	Ticker         string          `json:"ticker" db:"ticker"`
	Amount         decimal.Decimal `json:"amount" db:"amount"`
	NativeCurrency string          `json:"nativeCurrency" db:"native_currency"`
}
