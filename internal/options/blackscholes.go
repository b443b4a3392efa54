// Package options prices a synthetic option chain over the candle series,
// used to cost hedges against the LP position's downside.
package options

import (
	"errors"
	"math"
)

// ErrInvalidInput is returned for non-positive spot, strike, or expiry.
var ErrInvalidInput = errors.New("invalid option input")

// normCDF is the standard normal cumulative distribution function.
func normCDF(x float64) float64 {
	return 0.5 * math.Erfc(-x/math.Sqrt2)
}

// Put prices a European put under Black-Scholes.
// S spot, K strike, T years to expiry, r risk-free rate, sigma annualized vol.
func Put(S, K, T, r, sigma float64) (float64, error) {
	if S <= 0 || K <= 0 || T <= 0 {
		return 0, ErrInvalidInput
	}
	if sigma <= 0 {
		// Zero-vol limit: discounted intrinsic value.
		return math.Max(K*math.Exp(-r*T)-S, 0), nil
	}

	d1 := (math.Log(S/K) + (r+sigma*sigma/2)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)
	return K*math.Exp(-r*T)*normCDF(-d2) - S*normCDF(-d1), nil
}

// Call prices a European call under Black-Scholes.
func Call(S, K, T, r, sigma float64) (float64, error) {
	if S <= 0 || K <= 0 || T <= 0 {
		return 0, ErrInvalidInput
	}
	if sigma <= 0 {
		return math.Max(S-K*math.Exp(-r*T), 0), nil
	}

	d1 := (math.Log(S/K) + (r+sigma*sigma/2)*T) / (sigma * math.Sqrt(T))
	d2 := d1 - sigma*math.Sqrt(T)
	return S*normCDF(d1) - K*math.Exp(-r*T)*normCDF(d2), nil
}
