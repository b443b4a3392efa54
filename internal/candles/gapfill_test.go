package candles

import (
	"testing"
	"time"

	"uniswap-lp-lab/internal/domain"
)

var gridStart = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func bar(hourOffset int64, close float64) *domain.Candle {
	return &domain.Candle{
		Symbol:   "ETHUSDT",
		OpenTime: gridStart.UnixMilli() + hourOffset*domain.CandleIntervalMs,
		Open:     close,
		High:     close,
		Low:      close,
		Close:    close,
		Volume:   1,
	}
}

func TestNormalize_Empty(t *testing.T) {
	if got := Normalize(nil, gridStart, gridStart.Add(5*time.Hour)); got != nil {
		t.Errorf("expected nil for empty input, got %d rows", len(got))
	}
}

func TestNormalize_FullGrid(t *testing.T) {
	raw := []*domain.Candle{bar(0, 100), bar(1, 101), bar(2, 102)}
	out := Normalize(raw, gridStart, gridStart.Add(2*time.Hour))

	if len(out) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(out))
	}
	for i, c := range out {
		want := gridStart.UnixMilli() + int64(i)*domain.CandleIntervalMs
		if c.OpenTime != want {
			t.Errorf("bar %d open time = %d, want %d", i, c.OpenTime, want)
		}
	}
}

func TestNormalize_ForwardFillsGap(t *testing.T) {
	// Hour 1 is missing; it must carry hour 0's close with zero volume.
	raw := []*domain.Candle{bar(0, 100), bar(2, 102)}
	out := Normalize(raw, gridStart, gridStart.Add(2*time.Hour))

	if len(out) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(out))
	}
	filled := out[1]
	if filled.Close != 100 {
		t.Errorf("filled close = %v, want carried 100", filled.Close)
	}
	if filled.Volume != 0 {
		t.Errorf("filled volume = %v, want 0", filled.Volume)
	}
	if filled.OpenTime != gridStart.UnixMilli()+domain.CandleIntervalMs {
		t.Errorf("filled open time = %d", filled.OpenTime)
	}
}

func TestNormalize_BackfillsLeadingGap(t *testing.T) {
	// Data starts two hours into the window; the leading slots copy the
	// first real bar backward.
	raw := []*domain.Candle{bar(2, 102), bar(3, 103)}
	out := Normalize(raw, gridStart, gridStart.Add(3*time.Hour))

	if len(out) != 4 {
		t.Fatalf("expected 4 bars, got %d", len(out))
	}
	for i := 0; i < 2; i++ {
		if out[i].Close != 102 {
			t.Errorf("backfilled bar %d close = %v, want 102", i, out[i].Close)
		}
		if out[i].Volume != 0 {
			t.Errorf("backfilled bar %d volume = %v, want 0", i, out[i].Volume)
		}
		want := gridStart.UnixMilli() + int64(i)*domain.CandleIntervalMs
		if out[i].OpenTime != want {
			t.Errorf("backfilled bar %d open time = %d, want %d", i, out[i].OpenTime, want)
		}
	}
}

func TestNormalize_AggregatesWithinHour(t *testing.T) {
	h := gridStart.UnixMilli()
	raw := []*domain.Candle{
		{Symbol: "ETHUSDT", OpenTime: h, Open: 100, High: 105, Low: 99, Close: 103, Volume: 2},
		{Symbol: "ETHUSDT", OpenTime: h + 15*60*1000, Open: 103, High: 110, Low: 101, Close: 108, Volume: 3},
		{Symbol: "ETHUSDT", OpenTime: h + 30*60*1000, Open: 108, High: 109, Low: 95, Close: 97, Volume: 1},
	}
	out := Normalize(raw, gridStart, gridStart)

	if len(out) == 0 {
		t.Fatal("expected at least one bar")
	}
	agg := out[0]
	if agg.Open != 100 || agg.High != 110 || agg.Low != 95 || agg.Close != 97 {
		t.Errorf("aggregate OHLC = (%v, %v, %v, %v)", agg.Open, agg.High, agg.Low, agg.Close)
	}
	if agg.Volume != 6 {
		t.Errorf("aggregate volume = %v, want 6", agg.Volume)
	}
}

func TestNormalize_MidnightEndCoversWholeDay(t *testing.T) {
	// An end date at midnight means "through that day", so the grid runs
	// to 23:00 of the end day.
	raw := []*domain.Candle{bar(0, 100)}
	out := Normalize(raw, gridStart, gridStart.AddDate(0, 0, 1))

	if len(out) != 48 {
		t.Fatalf("expected 48 hourly bars over two days, got %d", len(out))
	}
	last := out[len(out)-1]
	wantLast := gridStart.AddDate(0, 0, 1).Add(23 * time.Hour).UnixMilli()
	if last.OpenTime != wantLast {
		t.Errorf("last bar open time = %d, want %d", last.OpenTime, wantLast)
	}
}
