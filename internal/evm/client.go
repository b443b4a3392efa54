package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/big"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"

	"uniswap-lp-lab/internal/domain"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

var twoPow192 = math.Pow(2, 192)

// HTTPClient implements PoolReader over HTTP JSON-RPC 2.0. A circuit
// breaker sits in front of the transport so a flapping node fails fast
// instead of eating the full retry budget on every probe.
type HTTPClient struct {
	endpoint    string
	pool        string // pool contract address
	client      *http.Client
	breaker     *gobreaker.CircuitBreaker
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
	requestID   atomic.Uint64

	// token decimals are immutable pool properties; read once and cached
	decMu     sync.Mutex
	decLoaded bool
	dec0      int
	dec1      int
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a pool reader for one pool contract on one RPC
// endpoint.
func NewHTTPClient(endpoint, poolAddress string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		pool:        poolAddress,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "evm-rpc",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and exponential backoff,
// gated by the circuit breaker.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.doCall(ctx, method, params, result)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUpstream, method, err)
	}
	return nil
}

func (c *HTTPClient) doCall(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
			continue
		}

		var rpcResp rpcResponse
		if err := json.Unmarshal(respBody, &rpcResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}
		if rpcResp.Error != nil {
			// Node answered; a semantic RPC error will not heal on retry.
			return rpcResp.Error
		}

		if result != nil {
			if err := json.Unmarshal(rpcResp.Result, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("after %d attempts: %w", c.maxRetries+1, lastErr)
}

// ethCall performs eth_call against the given contract and returns the raw
// hex return data.
func (c *HTTPClient) ethCall(ctx context.Context, to, data string, block int64) (string, error) {
	var out string
	params := []interface{}{
		map[string]string{"to": to, "data": data},
		blockParam(block),
	}
	if err := c.call(ctx, "eth_call", params, &out); err != nil {
		return "", err
	}
	return out, nil
}

// blockHeader is the subset of eth_getBlockByNumber output we consume.
type blockHeader struct {
	Number    string `json:"number"`
	Timestamp string `json:"timestamp"`
}

func (c *HTTPClient) getBlock(ctx context.Context, block int64) (*blockHeader, error) {
	var header blockHeader
	params := []interface{}{blockParam(block), false}
	if err := c.call(ctx, "eth_getBlockByNumber", params, &header); err != nil {
		return nil, err
	}
	if header.Number == "" {
		return nil, fmt.Errorf("%w: block %s not found", ErrUpstream, blockParam(block))
	}
	return &header, nil
}

// LatestBlock returns the head block number and timestamp.
func (c *HTTPClient) LatestBlock(ctx context.Context) (int64, int64, error) {
	header, err := c.getBlock(ctx, Latest)
	if err != nil {
		return 0, 0, err
	}
	num, err := hexToInt64(header.Number)
	if err != nil {
		return 0, 0, err
	}
	ts, err := hexToInt64(header.Timestamp)
	if err != nil {
		return 0, 0, err
	}
	return num, ts, nil
}

// BlockTimestamp returns the timestamp of a block.
func (c *HTTPClient) BlockTimestamp(ctx context.Context, number int64) (int64, error) {
	header, err := c.getBlock(ctx, number)
	if err != nil {
		return 0, err
	}
	return hexToInt64(header.Timestamp)
}

// Slot0Price reads slot0 and returns the raw squared price ratio.
func (c *HTTPClient) Slot0Price(ctx context.Context, block int64) (float64, error) {
	data, err := c.ethCall(ctx, c.pool, selSlot0, block)
	if err != nil {
		return 0, err
	}
	words, err := decodeWords(data)
	if err != nil {
		return 0, fmt.Errorf("slot0: %w", err)
	}
	if len(words) < 1 {
		return 0, fmt.Errorf("slot0: empty return data")
	}

	sqrtPriceX96, _ := new(big.Float).SetInt(words[0]).Float64()
	return sqrtPriceX96 * sqrtPriceX96 / twoPow192, nil
}

// FeeGrowthGlobals reads both global fee-growth accumulators.
func (c *HTTPClient) FeeGrowthGlobals(ctx context.Context, block int64) (*big.Int, *big.Int, error) {
	g0, err := c.readUint256(ctx, selFeeGrowthGlobal0, block)
	if err != nil {
		return nil, nil, fmt.Errorf("feeGrowthGlobal0X128: %w", err)
	}
	g1, err := c.readUint256(ctx, selFeeGrowthGlobal1, block)
	if err != nil {
		return nil, nil, fmt.Errorf("feeGrowthGlobal1X128: %w", err)
	}
	return g0, g1, nil
}

// TickFeeGrowthOutside reads ticks(tick) and extracts the two
// fee-growth-outside words.
func (c *HTTPClient) TickFeeGrowthOutside(ctx context.Context, block int64, tick int) (domain.TickFeeGrowth, error) {
	data, err := c.ethCall(ctx, c.pool, encodeTicksCall(tick), block)
	if err != nil {
		return domain.TickFeeGrowth{}, err
	}
	words, err := decodeWords(data)
	if err != nil {
		return domain.TickFeeGrowth{}, fmt.Errorf("ticks(%d): %w", tick, err)
	}
	// liquidityGross, liquidityNet, feeGrowthOutside0X128, feeGrowthOutside1X128, ...
	if len(words) < 4 {
		return domain.TickFeeGrowth{}, fmt.Errorf("ticks(%d): %d return words", tick, len(words))
	}
	return domain.TickFeeGrowth{
		Outside0: words[2],
		Outside1: words[3],
	}, nil
}

// TokenDecimals resolves both pool tokens and reads their ERC-20 decimals.
// Cached after the first successful read.
func (c *HTTPClient) TokenDecimals(ctx context.Context) (int, int, error) {
	c.decMu.Lock()
	defer c.decMu.Unlock()

	if c.decLoaded {
		return c.dec0, c.dec1, nil
	}

	d0, err := c.tokenDecimals(ctx, selToken0)
	if err != nil {
		return 0, 0, fmt.Errorf("token0 decimals: %w", err)
	}
	d1, err := c.tokenDecimals(ctx, selToken1)
	if err != nil {
		return 0, 0, fmt.Errorf("token1 decimals: %w", err)
	}

	c.dec0, c.dec1, c.decLoaded = d0, d1, true
	return d0, d1, nil
}

func (c *HTTPClient) tokenDecimals(ctx context.Context, tokenSel string) (int, error) {
	data, err := c.ethCall(ctx, c.pool, tokenSel, Latest)
	if err != nil {
		return 0, err
	}
	addr, err := decodeAddress(data)
	if err != nil {
		return 0, err
	}

	decData, err := c.ethCall(ctx, addr, selDecimals, Latest)
	if err != nil {
		return 0, err
	}
	words, err := decodeWords(decData)
	if err != nil || len(words) != 1 {
		return 0, fmt.Errorf("decimals of %s: malformed return", addr)
	}
	return int(words[0].Int64()), nil
}

func (c *HTTPClient) readUint256(ctx context.Context, selector string, block int64) (*big.Int, error) {
	data, err := c.ethCall(ctx, c.pool, selector, block)
	if err != nil {
		return nil, err
	}
	words, err := decodeWords(data)
	if err != nil {
		return nil, err
	}
	if len(words) != 1 {
		return nil, fmt.Errorf("expected 1 return word, got %d", len(words))
	}
	return words[0], nil
}

// Ensure HTTPClient implements PoolReader
var _ PoolReader = (*HTTPClient)(nil)
