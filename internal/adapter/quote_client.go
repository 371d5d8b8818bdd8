// Package adapter provides clients for the external data providers.
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"github.com/portfolio-snapshot/internal/config"
	"github.com/portfolio-snapshot/internal/retry"
)

// ErrNoQuoteData indicates the provider answered but had no history for the
// requested ticker and window. Callers distinguish this from transport errors.
var ErrNoQuoteData = errors.New("no quote data")

// QuoteClient fetches closing-price history from the quote provider
// (Yahoo Finance chart API shape).
type QuoteClient struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewQuoteClient creates a new quote provider client
func NewQuoteClient(cfg *config.QuoteConfig) *QuoteClient {
	return &QuoteClient{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// chartResponse mirrors the provider's chart payload. Close values may be null
// for non-trading intervals, so they are parsed as pointers.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *chartError `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ClosingPrices returns the ordered close series for a ticker over a lookback
// window ("1d", "5d", ...). Returns ErrNoQuoteData when the provider has no
// history for that window; any other error is a provider/transport failure.
func (c *QuoteClient) ClosingPrices(ctx context.Context, ticker, window string) ([]decimal.Decimal, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker must not be empty")
	}

	reqURL := fmt.Sprintf("%s/v8/finance/chart/%s?range=%s&interval=1d",
		c.baseURL, url.PathEscape(ticker), url.QueryEscape(window))

	var body []byte
	err := retry.Do(ctx, retry.DefaultConfig(), func(ctx context.Context, attempt int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", "portfolio-snapshot/1.0")

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
		return nil, err
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse chart response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("quote provider error: %s - %s",
			parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 || len(parsed.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, ErrNoQuoteData
	}

	closes := parsed.Chart.Result[0].Indicators.Quote[0].Close
	prices := make([]decimal.Decimal, 0, len(closes))
	for _, close := range closes {
		if close == nil {
			continue
		}
		prices = append(prices, decimal.NewFromFloat(*close))
	}

	if len(prices) == 0 {
		return nil, ErrNoQuoteData
	}

	return prices, nil
}
