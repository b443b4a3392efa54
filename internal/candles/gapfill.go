package candles

import (
	"sort"
	"time"

	"uniswap-lp-lab/internal/domain"
)

// Normalize buckets raw candles onto the hourly grid covering
// [start, end] and fills gaps: each hour aggregates its candles (first
// open, max high, min low, last close, summed volume); empty hours are
// forward-filled from the previous bar, with a backward fill for a
// leading gap. A midnight end date extends to the end of that day.
func Normalize(raw []*domain.Candle, start, end time.Time) []*domain.Candle {
	if len(raw) == 0 {
		return nil
	}

	sorted := make([]*domain.Candle, len(raw))
	copy(sorted, raw)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].OpenTime < sorted[j].OpenTime })

	buckets := make(map[int64][]*domain.Candle)
	for _, c := range sorted {
		hour := c.OpenTime - c.OpenTime%domain.CandleIntervalMs
		buckets[hour] = append(buckets[hour], c)
	}

	startMs := start.UnixMilli()
	endMs := end.UnixMilli()
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 {
		endMs = end.Add(24*time.Hour - time.Second).UnixMilli()
	}
	firstHour := startMs - startMs%domain.CandleIntervalMs

	var out []*domain.Candle
	var prev *domain.Candle
	for hour := firstHour; hour <= endMs; hour += domain.CandleIntervalMs {
		group, ok := buckets[hour]
		if !ok {
			if prev == nil {
				// Leading gap, back-filled after the loop.
				out = append(out, nil)
				continue
			}
			filled := *prev
			filled.OpenTime = hour
			filled.Volume = 0
			out = append(out, &filled)
			prev = out[len(out)-1]
			continue
		}

		agg := aggregate(hour, group)
		out = append(out, agg)
		prev = agg
	}

	backfill(out)

	// Drop hours before the requested start (the grid starts on the
	// hour containing start).
	trimmed := out[:0]
	for _, c := range out {
		if c != nil && c.OpenTime >= firstHour && c.OpenTime <= endMs {
			trimmed = append(trimmed, c)
		}
	}
	return trimmed
}

// aggregate folds one hour's candles into a single bar.
func aggregate(hour int64, group []*domain.Candle) *domain.Candle {
	agg := &domain.Candle{
		Symbol:   group[0].Symbol,
		OpenTime: hour,
		Open:     group[0].Open,
		High:     group[0].High,
		Low:      group[0].Low,
		Close:    group[len(group)-1].Close,
	}
	for _, c := range group {
		if c.High > agg.High {
			agg.High = c.High
		}
		if c.Low < agg.Low {
			agg.Low = c.Low
		}
		agg.Volume += c.Volume
	}
	return agg
}

// backfill replaces leading nil slots with a copy of the first real bar.
func backfill(series []*domain.Candle) {
	var first *domain.Candle
	var firstIdx int
	for i, c := range series {
		if c != nil {
			first, firstIdx = c, i
			break
		}
	}
	if first == nil {
		return
	}
	for i := 0; i < firstIdx; i++ {
		filled := *first
		filled.OpenTime = first.OpenTime - int64(firstIdx-i)*domain.CandleIntervalMs
		filled.Volume = 0
		series[i] = &filled
	}
}
