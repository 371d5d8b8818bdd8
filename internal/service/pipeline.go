package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/adapter"
	"github.com/portfolio-snapshot/internal/logging"
	"github.com/portfolio-snapshot/internal/models"
)

// PlatformSolana marks holdings and wallets valued on the Solana chain. Crypto
// holdings on this platform are already priced in USD terms by the quote
// provider, so their conversion rate is fixed at 1.
const PlatformSolana = "Solana"

// AssetTypeCrypto is the asset type assigned to wallet-derived records
const AssetTypeCrypto = "Crypto"

// HoldingStore reads manually tracked positions
type HoldingStore interface {
	ListHoldings(ctx context.Context) ([]models.ManualHolding, error)
}

// WalletStore reads wallet references for a platform
type WalletStore interface {
	ListWalletsByPlatform(ctx context.Context, platform string) ([]models.WalletReference, error)
}

// InstrumentStore reads the tracked conversion instruments
type InstrumentStore interface {
	ListInstruments(ctx context.Context) ([]models.TrackedInstrument, error)
}

// LedgerWriter appends valuation records and rate observations
type LedgerWriter interface {
	InsertValuation(ctx context.Context, record *models.ValuationRecord) error
	InsertRateObservation(ctx context.Context, observation *models.RateObservation) error
}

// WalletProvider queries on-chain wallet contents
type WalletProvider interface {
	GetAssetsByOwner(ctx context.Context, owner string) (*adapter.AssetsByOwnerResult, error)
	SearchAssets(ctx context.Context, owner string) (*adapter.SearchAssetsResult, error)
}

// RateSource produces conversion rates to the settlement currency
type RateSource interface {
	RateToUSD(ctx context.Context, currency string) (decimal.Decimal, error)
}

// Pipeline runs one full valuation pass: manual holdings, tracked instrument
// rates, then on-chain wallets. Each item is valued independently; one failing
// item is skipped with a log entry and never aborts the run.
type Pipeline struct {
	holdings    HoldingStore
	wallets     WalletStore
	instruments InstrumentStore
	ledger      LedgerWriter
	provider    WalletProvider
	prices      PriceSource
	rates       RateSource
	normalizer  *WalletNormalizer
}

// NewPipeline wires a pipeline from its stores and providers
func NewPipeline(
	holdings HoldingStore,
	wallets WalletStore,
	instruments InstrumentStore,
	ledger LedgerWriter,
	provider WalletProvider,
	prices PriceSource,
	rates RateSource,
	normalizer *WalletNormalizer,
) *Pipeline {
	return &Pipeline{
		holdings:    holdings,
		wallets:     wallets,
		instruments: instruments,
		ledger:      ledger,
		provider:    provider,
		prices:      prices,
		rates:       rates,
		normalizer:  normalizer,
	}
}

// RunSummary reports what one pipeline run produced
type RunSummary struct {
	RunID          string    `json:"runId"`
	Timestamp      time.Time `json:"timestamp"`
	HoldingsValued int       `json:"holdingsValued"`
	RatesRecorded  int       `json:"ratesRecorded"`
	WalletAssets   int       `json:"walletAssets"`
	Skipped        int       `json:"skipped"`
}

// Run executes one valuation pass. The run ID and timestamp are fixed up
// front so every record written by the run carries the same pair; the latest
// snapshot is reconstructed later as the rows at the maximum timestamp.
func (p *Pipeline) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:     uuid.New().String(),
		Timestamp: time.Now().UTC(),
	}

	logger := logging.FromContext(ctx).WithField("run_id", summary.RunID)
	ctx = logging.WithLogger(ctx, logger)
	logger.Info("Starting valuation run")

	p.valueHoldings(ctx, summary)
	p.recordRates(ctx, summary)
	p.valueWallets(ctx, summary)

	logger.WithFields(map[string]interface{}{
		"holdings_valued": summary.HoldingsValued,
		"rates_recorded":  summary.RatesRecorded,
		"wallet_assets":   summary.WalletAssets,
		"skipped":         summary.Skipped,
	}).Info("Valuation run complete")

	return summary, nil
}

func (p *Pipeline) valueHoldings(ctx context.Context, summary *RunSummary) {
	logger := logging.FromContext(ctx)

	holdings, err := p.holdings.ListHoldings(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list holdings")
		return
	}

	for _, holding := range holdings {
		itemLogger := logger.WithFields(map[string]interface{}{
			"ticker":   holding.Ticker,
			"platform": holding.Platform,
		})

		price, err := p.prices.LatestPrice(ctx, holding.Ticker)
		if err != nil {
			itemLogger.WithError(err).Warn("Skipping holding, no price")
			summary.Skipped++
			continue
		}

		rate := decimal.NewFromInt(1)
		currency := holding.NativeCurrency
		if holding.Platform == PlatformSolana {
			// on-chain instruments quote in USD already
			currency = SettlementCurrency
		} else {
			rate, err = p.rates.RateToUSD(ctx, currency)
			if err != nil {
				itemLogger.WithError(err).Warn("Skipping holding, no conversion rate")
				summary.Skipped++
				continue
			}
		}

		usdPrice := price.Mul(rate)
		record := &models.ValuationRecord{
			Platform:       holding.Platform,
			Account:        holding.Account,
			AssetType:      holding.AssetType,
			AssetName:      holding.AssetName,
			Ticker:         holding.Ticker,
			Amount:         holding.Amount,
			NativeCurrency: currency,
			NativePrice:    price,
			USDPrice:       usdPrice,
			TotalNative:    holding.Amount.Mul(price),
			TotalUSD:       holding.Amount.Mul(usdPrice),
			Timestamp:      summary.Timestamp,
			RunID:          summary.RunID,
		}

		if err := p.ledger.InsertValuation(ctx, record); err != nil {
			itemLogger.WithError(err).Error("Failed to persist valuation")
			summary.Skipped++
			continue
		}
		summary.HoldingsValued++
	}
}

func (p *Pipeline) recordRates(ctx context.Context, summary *RunSummary) {
	logger := logging.FromContext(ctx)

	instruments, err := p.instruments.ListInstruments(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to list tracked instruments")
		return
	}

	for _, instrument := range instruments {
		itemLogger := logger.WithField("ticker", instrument.Ticker)

		price, err := p.prices.LatestPrice(ctx, instrument.Ticker)
		if err != nil {
			itemLogger.WithError(err).Warn("Skipping instrument, no price")
			summary.Skipped++
			continue
		}

		observation := &models.RateObservation{
			Ticker:    instrument.Ticker,
			Price:     price,
			Timestamp: summary.Timestamp,
			RunID:     summary.RunID,
		}

		if err := p.ledger.InsertRateObservation(ctx, observation); err != nil {
			itemLogger.WithError(err).Error("Failed to persist rate observation")
			summary.Skipped++
			continue
		}
		summary.RatesRecorded++
	}
}

func (p *Pipeline) valueWallets(ctx context.Context, summary *RunSummary) {
	logger := logging.FromContext(ctx)

	wallets, err := p.wallets.ListWalletsByPlatform(ctx, PlatformSolana)
	if err != nil {
		logger.WithError(err).Error("Failed to list wallets")
		return
	}

	for _, wallet := range wallets {
		walletLogger := logger.WithField("wallet", wallet.Address)

		// the two queries are independent: a failed one contributes nothing
		// and the other still counts
		owned, err := p.provider.GetAssetsByOwner(ctx, wallet.Address)
		if err != nil {
			walletLogger.WithError(err).Warn("Native balance query failed")
			owned = nil
		}
		search, err := p.provider.SearchAssets(ctx, wallet.Address)
		if err != nil {
			walletLogger.WithError(err).Warn("Asset search query failed")
			search = nil
		}

		assets := p.normalizer.Normalize(ctx, owned, search)
		for _, asset := range assets {
			var nativePrice decimal.Decimal
			if !asset.Balance.IsZero() {
				nativePrice = asset.TotalUSD.Div(asset.Balance)
			}

			record := &models.ValuationRecord{
				Platform:       wallet.Platform,
				Account:        wallet.Address,
				AssetType:      AssetTypeCrypto,
				AssetName:      asset.Symbol,
				Ticker:         asset.Symbol + "-USD",
				Amount:         asset.Balance,
				NativeCurrency: SettlementCurrency,
				NativePrice:    nativePrice,
				USDPrice:       nativePrice,
				TotalNative:    asset.TotalUSD,
				TotalUSD:       asset.TotalUSD,
				Timestamp:      summary.Timestamp,
				RunID:          summary.RunID,
			}

			if err := p.ledger.InsertValuation(ctx, record); err != nil {
				walletLogger.WithField("symbol", asset.Symbol).WithError(err).Error("Failed to persist wallet valuation")
				summary.Skipped++
				continue
			}
			summary.WalletAssets++
		}
	}
}
