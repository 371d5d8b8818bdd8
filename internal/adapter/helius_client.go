package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/portfolio-snapshot/internal/config"
	"github.com/portfolio-snapshot/internal/retry"
)

// HeliusClient queries Solana wallet holdings over the Helius JSON-RPC API.
// Both methods hit the same endpoint, parameterized by API key.
type HeliusClient struct {
	rpcURL  string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHeliusClient creates a new wallet RPC client
func NewHeliusClient(cfg *config.WalletConfig) *HeliusClient {
	return &HeliusClient{
		rpcURL:  cfg.RPCURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// rpcRequest is the JSON-RPC 2.0 request envelope
type rpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      string      `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

// rpcError is the JSON-RPC 2.0 error object
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// TokenInfo carries the fungible-token fields the provider reports per asset.
// Every field is optional on the wire; absent fields stay at their zero value.
type TokenInfo struct {
	Symbol    string          `json:"symbol"`
	Balance   decimal.Decimal `json:"balance"`
	Decimals  int32           `json:"decimals"`
	PriceInfo *PriceInfo      `json:"price_info,omitempty"`
}

// PriceInfo is the provider-reported USD valuation of a token balance
type PriceInfo struct {
	TotalPrice decimal.Decimal `json:"total_price"`
}

// AssetItem is one asset entry in a provider response
type AssetItem struct {
	TokenInfo *TokenInfo `json:"token_info,omitempty"`
}

// NativeBalance is the wallet's native SOL balance in lamports (smallest units)
type NativeBalance struct {
	Lamports decimal.Decimal `json:"lamports"`
}

// AssetsByOwnerResult is the parsed result of getAssetsByOwner
type AssetsByOwnerResult struct {
	NativeBalance *NativeBalance `json:"nativeBalance,omitempty"`
	Items         []AssetItem    `json:"items"`
}

// SearchAssetsResult is the parsed result of searchAssets
type SearchAssetsResult struct {
	Items []AssetItem `json:"items"`
}

// GetAssetsByOwner lists a wallet's assets including the native SOL balance
func (c *HeliusClient) GetAssetsByOwner(ctx context.Context, ownerAddress string) (*AssetsByOwnerResult, error) {
	params := map[string]interface{}{
		"ownerAddress": ownerAddress,
		"displayOptions": map[string]bool{
			"showFungible":      true,
			"showNativeBalance": true,
		},
	}

	var result AssetsByOwnerResult
	if err := c.call(ctx, "getAssetsByOwner", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchAssets lists a wallet's fungible tokens with provider-side pricing
func (c *HeliusClient) SearchAssets(ctx context.Context, ownerAddress string) (*SearchAssetsResult, error) {
	params := map[string]interface{}{
		"ownerAddress": ownerAddress,
		"tokenType":    "all",
	}

	var result SearchAssetsResult
	if err := c.call(ctx, "searchAssets", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// call performs one JSON-RPC round trip and decodes the result into out
func (c *HeliusClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      "portfolio-snapshot",
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", method, err)
	}

	reqURL := fmt.Sprintf("%s/?api-key=%s", c.rpcURL, c.apiKey)

	var body []byte
	err = retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to make request: %w", err)
		}
		defer resp.Body.Close()

		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("HTTP error: %d - %s", resp.StatusCode, string(b))
		}

		body = b
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s failed: %w", method, err)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *rpcError       `json:"error,omitempty"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse %s response: %w", method, err)
	}
	if envelope.Error != nil {
		return fmt.Errorf("wallet RPC error on %s: %d - %s", method, envelope.Error.Code, envelope.Error.Message)
	}
	if len(envelope.Result) == 0 {
		return fmt.Errorf("wallet RPC returned no result for %s", method)
	}

	if err := json.Unmarshal(envelope.Result, out); err != nil {
		return fmt.Errorf("failed to parse %s result: %w", method, err)
	}
	return nil
}
