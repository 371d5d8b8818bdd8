package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio-snapshot/internal/adapter"
	"github.com/portfolio-snapshot/internal/models"
)

type mockHoldingStore struct {
	holdings []models.ManualHolding
	err      error
}

func (m *mockHoldingStore) ListHoldings(_ context.Context) ([]models.ManualHolding, error) {
	return m.holdings, m.err
}

type mockWalletStore struct {
	wallets []models.WalletReference
}

func (m *mockWalletStore) ListWalletsByPlatform(_ context.Context, _ string) ([]models.WalletReference, error) {
	return m.wallets, nil
}

type mockInstrumentStore struct {
	instruments []models.TrackedInstrument
}

func (m *mockInstrumentStore) ListInstruments(_ context.Context) ([]models.TrackedInstrument, error) {
	return m.instruments, nil
}

type mockLedger struct {
	valuations   []models.ValuationRecord
	observations []models.RateObservation
	insertErr    error
}

func (m *mockLedger) InsertValuation(_ context.Context, record *models.ValuationRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.valuations = append(m.valuations, *record)
	return nil
}

func (m *mockLedger) InsertRateObservation(_ context.Context, observation *models.RateObservation) error {
	m.observations = append(m.observations, *observation)
	return nil
}

type mockWalletProvider struct {
	owned     *adapter.AssetsByOwnerResult
	ownedErr  error
	search    *adapter.SearchAssetsResult
	searchErr error
}

func (m *mockWalletProvider) GetAssetsByOwner(_ context.Context, _ string) (*adapter.AssetsByOwnerResult, error) {
	return m.owned, m.ownedErr
}

func (m *mockWalletProvider) SearchAssets(_ context.Context, _ string) (*adapter.SearchAssetsResult, error) {
	return m.search, m.searchErr
}

type mockRateSource struct {
	rates map[string]decimal.Decimal
	calls int
}

func (m *mockRateSource) RateToUSD(_ context.Context, currency string) (decimal.Decimal, error) {
	m.calls++
	if currency == SettlementCurrency {
		return decimal.NewFromInt(1), nil
	}
	rate, ok := m.rates[currency]
	if !ok {
		return decimal.Zero, ErrRateUnavailable
	}
	return rate, nil
}

func newTestPipeline(holdings *mockHoldingStore, wallets *mockWalletStore, instruments *mockInstrumentStore, ledger *mockLedger, provider *mockWalletProvider, prices *mockPriceSource, rates *mockRateSource) *Pipeline {
	normalizer := NewWalletNormalizer(&fixedRate{rate: decimal.NewFromInt(20)}, decimal.NewFromInt(10))
	return NewPipeline(holdings, wallets, instruments, ledger, provider, prices, rates, normalizer)
}

func TestRunValuesHoldingExactly(t *testing.T) {
	holdings := &mockHoldingStore{holdings: []models.ManualHolding{
		{
			Platform:       "Nordnet",
			Account:        "ASK",
			AssetType:      "Stock",
			AssetName:      "Equinor",
			Ticker:         "EQNR.OL",
			Amount:         decimal.NewFromInt(100),
			NativeCurrency: "NOK",
		},
	}}
	prices := &mockPriceSource{prices: map[string]decimal.Decimal{
		"EQNR.OL": decimal.RequireFromString("270.10"),
	}}
	rates := &mockRateSource{rates: map[string]decimal.Decimal{
		"NOK": decimal.RequireFromString("0.095"),
	}}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(holdings, &mockWalletStore{}, &mockInstrumentStore{}, ledger, &mockWalletProvider{}, prices, rates)
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.HoldingsValued)

	require.Len(t, ledger.valuations, 1)
	record := ledger.valuations[0]
	// 270.10 * 0.095 = 25.6595, no float drift
	assert.True(t, record.USDPrice.Equal(decimal.RequireFromString("25.6595")), "got %s", record.USDPrice)
	assert.True(t, record.TotalNative.Equal(decimal.RequireFromString("27010")), "got %s", record.TotalNative)
	assert.True(t, record.TotalUSD.Equal(decimal.RequireFromString("2565.95")), "got %s", record.TotalUSD)
}

func TestRunSolanaHoldingSkipsConversion(t *testing.T) {
	holdings := &mockHoldingStore{holdings: []models.ManualHolding{
		{
			Platform:       PlatformSolana,
			Account:        "stake",
			AssetType:      AssetTypeCrypto,
			AssetName:      "Solana",
			Ticker:         "SOL-USD",
			Amount:         decimal.NewFromInt(10),
			NativeCurrency: "SOL",
		},
	}}
	prices := &mockPriceSource{prices: map[string]decimal.Decimal{
		"SOL-USD": decimal.NewFromInt(150),
	}}
	rates := &mockRateSource{}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(holdings, &mockWalletStore{}, &mockInstrumentStore{}, ledger, &mockWalletProvider{}, prices, rates)
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Zero(t, rates.calls, "Solana platform must not consult the converter")
	require.Len(t, ledger.valuations, 1)
	record := ledger.valuations[0]
	assert.Equal(t, SettlementCurrency, record.NativeCurrency)
	assert.True(t, record.USDPrice.Equal(decimal.NewFromInt(150)))
	assert.True(t, record.TotalUSD.Equal(decimal.NewFromInt(1500)))
}

func TestRunSharedTimestampAndRunID(t *testing.T) {
	holdings := &mockHoldingStore{holdings: []models.ManualHolding{
		{Platform: "Bank", Account: "main", AssetType: "Fiat", AssetName: "Euro", Ticker: "EURUSD=X", Amount: decimal.NewFromInt(1000), NativeCurrency: "USD"},
	}}
	instruments := &mockInstrumentStore{instruments: []models.TrackedInstrument{
		{Ticker: "BTC-USD", FromCurrency: "BTC", ToCurrency: "USD"},
		{Ticker: "SOL-USD", FromCurrency: "SOL", ToCurrency: "USD"},
	}}
	prices := &mockPriceSource{prices: map[string]decimal.Decimal{
		"EURUSD=X": decimal.RequireFromString("1.09"),
		"BTC-USD":  decimal.NewFromInt(64000),
		"SOL-USD":  decimal.NewFromInt(150),
	}}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(holdings, &mockWalletStore{}, instruments, ledger, &mockWalletProvider{}, prices, &mockRateSource{})
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ledger.valuations, 1)
	require.Len(t, ledger.observations, 2)
	for _, record := range ledger.valuations {
		assert.True(t, record.Timestamp.Equal(summary.Timestamp))
		assert.Equal(t, summary.RunID, record.RunID)
	}
	for _, observation := range ledger.observations {
		assert.True(t, observation.Timestamp.Equal(summary.Timestamp))
		assert.Equal(t, summary.RunID, observation.RunID)
	}
}

func TestRunSkipsFailingItems(t *testing.T) {
	holdings := &mockHoldingStore{holdings: []models.ManualHolding{
		{Platform: "Nordnet", Ticker: "DEAD", Amount: decimal.NewFromInt(5), NativeCurrency: "NOK"},
		{Platform: "Nordnet", Ticker: "ALIVE", Amount: decimal.NewFromInt(5), NativeCurrency: "USD"},
		{Platform: "Nordnet", Ticker: "NORATE", Amount: decimal.NewFromInt(5), NativeCurrency: "JPY"},
	}}
	prices := &mockPriceSource{prices: map[string]decimal.Decimal{
		"ALIVE":  decimal.NewFromInt(10),
		"NORATE": decimal.NewFromInt(10),
	}}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(holdings, &mockWalletStore{}, &mockInstrumentStore{}, ledger, &mockWalletProvider{}, prices, &mockRateSource{})
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.HoldingsValued)
	assert.Equal(t, 2, summary.Skipped)
	require.Len(t, ledger.valuations, 1)
	assert.Equal(t, "ALIVE", ledger.valuations[0].Ticker)
}

func TestRunWalletNativeQueryFailureKeepsFungibles(t *testing.T) {
	wallets := &mockWalletStore{wallets: []models.WalletReference{
		{Address: "WalletAddr111", Platform: PlatformSolana, Alias: "main"},
	}}
	provider := &mockWalletProvider{
		ownedErr: errors.New("rpc timeout"),
		search: &adapter.SearchAssetsResult{Items: []adapter.AssetItem{
			fungibleItem("USDC", 250000000, 6, "250"),
		}},
	}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(&mockHoldingStore{}, wallets, &mockInstrumentStore{}, ledger, provider, &mockPriceSource{}, &mockRateSource{})
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.WalletAssets)
	require.Len(t, ledger.valuations, 1)
	record := ledger.valuations[0]
	assert.Equal(t, "USDC", record.AssetName)
	assert.Equal(t, "USDC-USD", record.Ticker)
	assert.Equal(t, AssetTypeCrypto, record.AssetType)
	assert.Equal(t, "WalletAddr111", record.Account)
	assert.True(t, record.TotalUSD.Equal(decimal.NewFromInt(250)))
	// 250 USD over 250 tokens
	assert.True(t, record.USDPrice.Equal(decimal.NewFromInt(1)), "got %s", record.USDPrice)
}

func TestRunWalletLamportsValued(t *testing.T) {
	wallets := &mockWalletStore{wallets: []models.WalletReference{
		{Address: "WalletAddr111", Platform: PlatformSolana},
	}}
	provider := &mockWalletProvider{
		owned: &adapter.AssetsByOwnerResult{
			NativeBalance: &adapter.NativeBalance{Lamports: decimal.NewFromInt(1500000000)},
		},
	}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(&mockHoldingStore{}, wallets, &mockInstrumentStore{}, ledger, provider, &mockPriceSource{}, &mockRateSource{})
	_, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, ledger.valuations, 1)
	record := ledger.valuations[0]
	assert.Equal(t, "SOL", record.AssetName)
	assert.True(t, record.Amount.Equal(decimal.RequireFromString("1.5")), "got %s", record.Amount)
	assert.True(t, record.TotalUSD.Equal(decimal.NewFromInt(30)), "got %s", record.TotalUSD)
}

func TestRunListFailureDoesNotAbort(t *testing.T) {
	holdings := &mockHoldingStore{err: errors.New("db down")}
	instruments := &mockInstrumentStore{instruments: []models.TrackedInstrument{
		{Ticker: "BTC-USD"},
	}}
	prices := &mockPriceSource{prices: map[string]decimal.Decimal{
		"BTC-USD": decimal.NewFromInt(64000),
	}}
	ledger := &mockLedger{}

	pipeline := newTestPipeline(holdings, &mockWalletStore{}, instruments, ledger, &mockWalletProvider{}, prices, &mockRateSource{})
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.RatesRecorded)
}

func TestRunTimestampIsUTC(t *testing.T) {
	pipeline := newTestPipeline(&mockHoldingStore{}, &mockWalletStore{}, &mockInstrumentStore{}, &mockLedger{}, &mockWalletProvider{}, &mockPriceSource{}, &mockRateSource{})
	summary, err := pipeline.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, summary.Timestamp.Location())
	assert.NotEmpty(t, summary.RunID)
}
