package candles

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"uniswap-lp-lab/internal/domain"
)

const (
	// DefaultBaseURL is the Binance spot REST endpoint.
	DefaultBaseURL = "https://api.binance.com"

	klinesPath = "/api/v3/klines"
	interval   = "1h"
	pageLimit  = 1000
)

// BinanceClient fetches hourly klines from the Binance REST API.
type BinanceClient struct {
	baseURL string
	client  *http.Client
	retry   RetryPolicy
	logger  *log.Logger
}

// BinanceOption configures BinanceClient.
type BinanceOption func(*BinanceClient)

// WithBaseURL overrides the API endpoint (tests point this at a local server).
func WithBaseURL(u string) BinanceOption {
	return func(c *BinanceClient) {
		c.baseURL = u
	}
}

// WithRetryPolicy overrides the request retry policy.
func WithRetryPolicy(p RetryPolicy) BinanceOption {
	return func(c *BinanceClient) {
		c.retry = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) BinanceOption {
	return func(c *BinanceClient) {
		c.logger = l
	}
}

// NewBinanceClient creates a klines fetcher with default retry policy.
func NewBinanceClient(opts ...BinanceOption) *BinanceClient {
	c := &BinanceClient{
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		retry:   DefaultRetryPolicy(),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch retrieves the raw candle pages for [start, end] and normalizes
// them onto the hourly grid with gap-fill.
func (c *BinanceClient) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]*domain.Candle, error) {
	raw, err := c.fetchPages(ctx, symbol, start.UnixMilli(), end.UnixMilli())
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	return Normalize(raw, start, end), nil
}

// fetchPages pages through the klines endpoint, resuming each page from
// the last open time + 1. The whole paging pass is retried under the
// bounded fixed-delay policy.
func (c *BinanceClient) fetchPages(ctx context.Context, symbol string, startMs, endMs int64) ([]*domain.Candle, error) {
	var lastErr error

	for attempt := 0; attempt < c.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			c.logger.Printf("klines request failed, retrying in %v (attempt %d/%d): %v",
				2*c.retry.Delay, attempt+1, c.retry.MaxAttempts, lastErr)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * c.retry.Delay):
			}
		}

		candles, err := c.fetchPagesOnce(ctx, symbol, startMs, endMs)
		if err == nil {
			return candles, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("failed to fetch klines after %d attempts: %w", c.retry.MaxAttempts, lastErr)
}

func (c *BinanceClient) fetchPagesOnce(ctx context.Context, symbol string, startMs, endMs int64) ([]*domain.Candle, error) {
	var all []*domain.Candle
	cursor := startMs

	for cursor < endMs {
		page, err := c.fetchPage(ctx, symbol, cursor, endMs)
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		all = append(all, page...)
		cursor = page[len(page)-1].OpenTime + 1

		if len(page) < pageLimit {
			break
		}
		// Pace full pages to stay under the exchange rate limit.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.retry.Delay):
		}
	}

	return all, nil
}

func (c *BinanceClient) fetchPage(ctx context.Context, symbol string, startMs, endMs int64) ([]*domain.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("startTime", strconv.FormatInt(startMs, 10))
	q.Set("endTime", strconv.FormatInt(endMs, 10))
	q.Set("limit", strconv.Itoa(pageLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+klinesPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("klines request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("unmarshal klines: %w", err)
	}

	candles := make([]*domain.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKline(symbol, row)
		if err != nil {
			return nil, err
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// parseKline decodes one kline row:
// [openTime, open, high, low, close, volume, closeTime, ...].
func parseKline(symbol string, row []json.RawMessage) (*domain.Candle, error) {
	if len(row) < 6 {
		return nil, fmt.Errorf("malformed kline row: %d fields", len(row))
	}

	var openTime int64
	if err := json.Unmarshal(row[0], &openTime); err != nil {
		return nil, fmt.Errorf("kline open time: %w", err)
	}

	vals := make([]float64, 5)
	for i := 0; i < 5; i++ {
		var s string
		if err := json.Unmarshal(row[i+1], &s); err != nil {
			return nil, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("kline field %d: %w", i+1, err)
		}
		vals[i] = v
	}

	return &domain.Candle{
		Symbol:   symbol,
		OpenTime: openTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}

// Ensure BinanceClient implements Source
var _ Source = (*BinanceClient)(nil)
