package options

import (
	"fmt"
	"math"

	"uniswap-lp-lab/internal/domain"
)

// Config holds the synthetic chain parameters.
type Config struct {
	// StrikePcts are strike prices as fractions of spot.
	StrikePcts []float64
	// ExpirationDays is the time to expiry for every quote.
	ExpirationDays float64
	// RiskFreeRate is the annualized risk-free rate.
	RiskFreeRate float64
	// VolatilityWindow caps the rolling window for realized volatility.
	VolatilityWindow int
	// VolatilityFallback is used where the window has too few returns.
	VolatilityFallback float64
}

// DefaultConfig returns the default chain parameters.
func DefaultConfig() Config {
	return Config{
		StrikePcts:         []float64{0.9, 0.95, 1.0, 1.05, 1.1},
		ExpirationDays:     30,
		RiskFreeRate:       0.01,
		VolatilityWindow:   20,
		VolatilityFallback: 0.8,
	}
}

// Quote is one priced put at a strike.
type Quote struct {
	StrikePct float64
	Strike    float64
	Put       float64
}

// Point is the chain at one candle.
type Point struct {
	OpenTime   int64 // unix ms
	Spot       float64
	Volatility float64
	Quotes     []Quote
}

// GenerateChain prices puts at each configured strike over the candle series.
// Volatility is the rolling sample standard deviation of hourly log returns,
// annualized by sqrt(252), with the fallback applied where the window is not
// yet full.
func GenerateChain(candles []*domain.Candle, cfg Config) ([]Point, error) {
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: empty candle series", ErrInvalidInput)
	}

	vols := rollingVolatility(candles, cfg)
	T := cfg.ExpirationDays / 365.0

	points := make([]Point, len(candles))
	for i, c := range candles {
		spot := c.Close
		point := Point{
			OpenTime:   c.OpenTime,
			Spot:       spot,
			Volatility: vols[i],
			Quotes:     make([]Quote, 0, len(cfg.StrikePcts)),
		}

		for _, pct := range cfg.StrikePcts {
			strike := spot * pct
			put, err := Put(spot, strike, T, cfg.RiskFreeRate, vols[i])
			if err != nil {
				return nil, fmt.Errorf("price put at %d strike %.2f: %w", c.OpenTime, pct, err)
			}
			point.Quotes = append(point.Quotes, Quote{
				StrikePct: pct,
				Strike:    strike,
				Put:       put,
			})
		}

		points[i] = point
	}

	return points, nil
}

// rollingVolatility computes annualized realized volatility per candle.
func rollingVolatility(candles []*domain.Candle, cfg Config) []float64 {
	n := len(candles)

	// returns[i] is the log return into candle i; index 0 has none.
	returns := make([]float64, n)
	valid := make([]bool, n)
	for i := 1; i < n; i++ {
		prev, cur := candles[i-1].Close, candles[i].Close
		if prev > 0 && cur > 0 {
			returns[i] = math.Log(cur / prev)
			valid[i] = true
		}
	}

	window := cfg.VolatilityWindow
	if n-1 < window {
		window = n - 1
	}
	if window < 2 {
		window = 2
	}

	vols := make([]float64, n)
	for i := range vols {
		vols[i] = cfg.VolatilityFallback

		lo := i - window + 1
		if lo < 1 {
			continue // window not full yet
		}

		var sum float64
		count := 0
		for j := lo; j <= i; j++ {
			if !valid[j] {
				count = 0
				break
			}
			sum += returns[j]
			count++
		}
		if count < window {
			continue
		}

		mean := sum / float64(count)
		var ss float64
		for j := lo; j <= i; j++ {
			d := returns[j] - mean
			ss += d * d
		}
		// Sample standard deviation, annualized.
		vols[i] = math.Sqrt(ss/float64(count-1)) * math.Sqrt(252)
	}

	return vols
}
