package domain

// Candle represents one OHLCV bar from the exchange price source.
// Corresponds to the candles table in ClickHouse.
type Candle struct {
	Symbol   string  // exchange symbol, e.g. "ETHUSDT"
	OpenTime int64   // bar open, Unix timestamp in milliseconds
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// CandleIntervalMs is the fixed hourly cadence of the price series.
const CandleIntervalMs = int64(3600 * 1000)
