package models

// WalletReference identifies an on-chain wallet to query. Maintained
// externally; the pipeline only reads rows for its platform.
type WalletReference struct {
	Address  string `json:"address" db:"account_wallet"`
	Platform string `json:"platform" db:"platform"`
	Alias    string `json:"alias" db:"alias"`
}
