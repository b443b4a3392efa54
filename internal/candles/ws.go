package candles

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"uniswap-lp-lab/internal/domain"
)

// DefaultStreamURL is the Binance spot websocket endpoint.
const DefaultStreamURL = "wss://stream.binance.com:9443/ws"

// StreamConfig tunes the live kline stream.
type StreamConfig struct {
	// ReconnectDelay is the initial delay before a reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay caps the reconnect backoff.
	MaxReconnectDelay time.Duration
	// ReadTimeout bounds a single read; the exchange pings well inside it.
	ReadTimeout time.Duration
}

// DefaultStreamConfig returns the default stream tuning.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		ReadTimeout:       90 * time.Second,
	}
}

// Stream tails closed hourly klines for one symbol over websocket. Used
// to extend a cached series while a long backtest is being re-run against
// fresh data.
type Stream struct {
	endpoint string
	symbol   string
	config   StreamConfig
	logger   *log.Logger
	closed   atomic.Bool
}

// NewStream creates a kline stream for symbol (e.g. "ETHUSDT").
func NewStream(endpoint, symbol string, config StreamConfig, logger *log.Logger) *Stream {
	if logger == nil {
		logger = log.Default()
	}
	return &Stream{
		endpoint: endpoint,
		symbol:   symbol,
		config:   config,
		logger:   logger,
	}
}

// klineEvent is the exchange kline payload.
type klineEvent struct {
	EventType string `json:"e"`
	Kline     struct {
		OpenTime int64  `json:"t"`
		Symbol   string `json:"s"`
		Interval string `json:"i"`
		Open     string `json:"o"`
		Close    string `json:"c"`
		High     string `json:"h"`
		Low      string `json:"l"`
		Volume   string `json:"v"`
		Closed   bool   `json:"x"`
	} `json:"k"`
}

// Run connects and delivers closed hourly candles to out until ctx is
// cancelled or Close is called. Reconnects with capped backoff.
func (s *Stream) Run(ctx context.Context, out chan<- *domain.Candle) error {
	defer close(out)

	streamURL := fmt.Sprintf("%s/%s@kline_1h", s.endpoint, strings.ToLower(s.symbol))
	delay := s.config.ReconnectDelay

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.closed.Load() {
			return nil
		}

		err := s.readUntilError(ctx, streamURL, out)
		if err == nil || s.closed.Load() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		s.logger.Printf("kline stream disconnected, reconnecting in %v: %v", delay, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > s.config.MaxReconnectDelay {
			delay = s.config.MaxReconnectDelay
		}
	}
}

// Close stops the stream after the current read returns.
func (s *Stream) Close() {
	s.closed.Store(true)
}

func (s *Stream) readUntilError(ctx context.Context, streamURL string, out chan<- *domain.Candle) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, streamURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	defer conn.Close()

	for {
		if s.closed.Load() || ctx.Err() != nil {
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout)); err != nil {
			return fmt.Errorf("set read deadline: %w", err)
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		var event klineEvent
		if err := json.Unmarshal(msg, &event); err != nil {
			s.logger.Printf("skipping malformed stream message: %v", err)
			continue
		}
		if event.EventType != "kline" || !event.Kline.Closed {
			continue
		}

		candle, err := candleFromEvent(&event)
		if err != nil {
			s.logger.Printf("skipping malformed kline: %v", err)
			continue
		}

		select {
		case out <- candle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func candleFromEvent(event *klineEvent) (*domain.Candle, error) {
	fields := []string{event.Kline.Open, event.Kline.High, event.Kline.Low, event.Kline.Close, event.Kline.Volume}
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("kline field %q: %w", f, err)
		}
		vals[i] = v
	}
	return &domain.Candle{
		Symbol:   event.Kline.Symbol,
		OpenTime: event.Kline.OpenTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
	}, nil
}
