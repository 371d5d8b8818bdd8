package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/portfolio-snapshot/internal/adapter"
	"github.com/portfolio-snapshot/internal/models"
)

// NativeSymbol is the symbol of the chain's native asset
const NativeSymbol = "SOL"

// lamportDecimals is the fixed scale of the native balance in smallest units
const lamportDecimals = 9

// NativeRateProvider resolves the native asset's USD rate
type NativeRateProvider interface {
	NativeRate(ctx context.Context) decimal.Decimal
}

// WalletNormalizer unifies the two wallet-query responses into one list of
// USD-valued assets and drops dust below the configured threshold.
type WalletNormalizer struct {
	rates         NativeRateProvider
	dustThreshold decimal.Decimal
}

// NewWalletNormalizer creates a normalizer with the given dust threshold
func NewWalletNormalizer(rates NativeRateProvider, dustThreshold decimal.Decimal) *WalletNormalizer {
	return &WalletNormalizer{
		rates:         rates,
		dustThreshold: dustThreshold,
	}
}

// Normalize combines the native-balance listing and the fungible-asset search
// into an ordered asset list: the native entry first, then fungible tokens in
// provider order. Either response may be nil (provider call failed); that
// source then contributes nothing and the other still goes through.
func (n *WalletNormalizer) Normalize(ctx context.Context, owned *adapter.AssetsByOwnerResult, search *adapter.SearchAssetsResult) []models.NormalizedAsset {
	var assets []models.NormalizedAsset

	if native := n.nativeAsset(ctx, owned); native != nil {
		assets = append(assets, *native)
	}
	assets = append(assets, n.fungibleAssets(search)...)

	return n.filterDust(assets)
}

// nativeAsset converts the lamport balance to decimal SOL units and prices it
// with the cached most-recent SOL rate
func (n *WalletNormalizer) nativeAsset(ctx context.Context, owned *adapter.AssetsByOwnerResult) *models.NormalizedAsset {
	if owned == nil || owned.NativeBalance == nil {
		return nil
	}

	balance := owned.NativeBalance.Lamports.Shift(-lamportDecimals)
	rate := n.rates.NativeRate(ctx)

	return &models.NormalizedAsset{
		Symbol:   NativeSymbol,
		Balance:  balance,
		TotalUSD: balance.Mul(rate),
	}
}

// fungibleAssets converts token balances at their reported decimal scale and
// takes the provider-reported USD total directly
func (n *WalletNormalizer) fungibleAssets(search *adapter.SearchAssetsResult) []models.NormalizedAsset {
	if search == nil {
		return nil
	}

	assets := make([]models.NormalizedAsset, 0, len(search.Items))
	for _, item := range search.Items {
		if item.TokenInfo == nil {
			continue
		}

		info := item.TokenInfo
		symbol := info.Symbol
		if symbol == "" {
			symbol = "N/A"
		}

		total := decimal.Zero
		if info.PriceInfo != nil {
			total = info.PriceInfo.TotalPrice
		}

		assets = append(assets, models.NormalizedAsset{
			Symbol:   symbol,
			Balance:  info.Balance.Shift(-info.Decimals),
			TotalUSD: total,
		})
	}

	return assets
}

// filterDust keeps only assets whose USD total strictly exceeds the threshold
func (n *WalletNormalizer) filterDust(assets []models.NormalizedAsset) []models.NormalizedAsset {
	kept := make([]models.NormalizedAsset, 0, len(assets))
	for _, asset := range assets {
		if asset.TotalUSD.GreaterThan(n.dustThreshold) {
			kept = append(kept, asset)
		}
	}
	return kept
}
