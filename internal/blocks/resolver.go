// Package blocks resolves wall-clock timestamps to chain block numbers by
// bisection over block timestamps.
package blocks

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Resolver errors.
var (
	// ErrInvalidInput is returned for an unset target time.
	ErrInvalidInput = errors.New("invalid input: target time is not set")

	// ErrFutureTarget is returned when the target is beyond the latest
	// known block.
	ErrFutureTarget = errors.New("target time is in the future relative to latest block")

	// ErrNoConvergence is returned when the search exhausts its probe
	// budget without reaching tolerance.
	ErrNoConvergence = errors.New("block search exceeded maximum iterations without converging")
)

// Source supplies the two chain reads the resolver needs.
type Source interface {
	LatestBlock(ctx context.Context) (number, timestamp int64, err error)
	BlockTimestamp(ctx context.Context, number int64) (int64, error)
}

// Options tune the search. Zero values are honored literally; use
// DefaultOptions for the standard tolerances.
type Options struct {
	// ApproxBlockTime is the chain's average seconds per block (13 for
	// Ethereum mainnet, 2 for Base). When positive it pre-narrows the
	// bisection bracket; each saved step is one network round-trip.
	ApproxBlockTime float64

	// ToleranceSeconds is the acceptable timestamp error for early exit.
	ToleranceSeconds int64

	// MaxTries bounds the number of bisection probes.
	MaxTries int
}

// DefaultOptions returns the standard search tuning.
func DefaultOptions() Options {
	return Options{
		ToleranceSeconds: 5,
		MaxTries:         50,
	}
}

// Resolve returns the first block whose timestamp is >= target, within
// opts.ToleranceSeconds. Plain bisection over the whole chain needs ~25
// probes; a decent ApproxBlockTime estimate cuts that to a handful.
func Resolve(ctx context.Context, src Source, target time.Time, opts Options) (int64, error) {
	if target.IsZero() {
		return 0, ErrInvalidInput
	}
	targetTS := target.Unix()

	latestNum, latestTS, err := src.LatestBlock(ctx)
	if err != nil {
		return 0, fmt.Errorf("latest block: %w", err)
	}

	if targetTS > latestTS {
		return 0, ErrFutureTarget
	}

	// Quick exit if the head is already close enough.
	if abs(latestTS-targetTS) <= opts.ToleranceSeconds {
		return latestNum, nil
	}

	low, high := int64(0), latestNum
	if opts.ApproxBlockTime > 0 {
		blocksBack := int64(float64(latestTS-targetTS) / opts.ApproxBlockTime)
		guess := clamp(latestNum-blocksBack, 0, latestNum)

		// Window of +-2x the estimate around the guess, for safety.
		low = clamp(guess-2*blocksBack, 0, latestNum)
		high = clamp(guess+2*blocksBack, 0, latestNum)
		if low >= high {
			low, high = 0, latestNum
		}
	}

	tries := 0
	for low < high && tries < opts.MaxTries {
		mid := (low + high) / 2
		midTS, err := src.BlockTimestamp(ctx, mid)
		if err != nil {
			return 0, fmt.Errorf("block %d timestamp: %w", mid, err)
		}

		if midTS < targetTS {
			low = mid + 1
		} else {
			high = mid
		}

		if abs(midTS-targetTS) <= opts.ToleranceSeconds {
			return mid, nil
		}

		tries++
	}

	if tries >= opts.MaxTries {
		return 0, ErrNoConvergence
	}

	return low, nil
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
