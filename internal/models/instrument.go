package models

// TrackedInstrument is a conversion instrument whose price is recorded on every
// run. The ticker is globally unique and serves as the join key for currency
// conversion lookups.
type TrackedInstrument struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"index_name"`
	Ticker       string `json:"ticker" db:"ticker"`
	FromCurrency string `json:"fromCurrency" db:"from_currency"`
	ToCurrency   string `json:"toCurrency" db:"to_currency"`
}

// SeedInstruments is the curated registry upserted at startup. At most one
// instrument exists per (from, to) currency pair.
var SeedInstruments = []TrackedInstrument{
	{Name: "USD/NOK", Ticker: "NOK=X", FromCurrency: "USD", ToCurrency: "NOK"},
	{Name: "EUR/USD", Ticker: "EURUSD=X", FromCurrency: "EUR", ToCurrency: "USD"},
	{Name: "SEK/USD", Ticker: "SEKUSD=X", FromCurrency: "SEK", ToCurrency: "USD"},
	{Name: "BTC", Ticker: "BTC-USD", FromCurrency: "BTC", ToCurrency: "USD"},
	{Name: "ETH", Ticker: "ETH-USD", FromCurrency: "ETH", ToCurrency: "USD"},
	{Name: "SOL", Ticker: "SOL-USD", FromCurrency: "SOL", ToCurrency: "USD"},
	{Name: "NASDAQ Composite", Ticker: "^IXIC", FromCurrency: "NASDAQ", ToCurrency: "USD"},
}
