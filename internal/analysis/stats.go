package analysis

import (
	"math"
	"sort"
	"time"

	"dca-backtest/internal/model"
)

// TickStats is a summary of a tick stream, used to sanity-check a dataset
// before backtesting it.
type TickStats struct {
	Count int `json:"count"`

	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
	NDays    float64   `json:"n_days"`

	Volume float64 `json:"volume"`

	MinPrice  float64 `json:"min_price"`
	MaxPrice  float64 `json:"max_price"`
	MeanPrice float64 `json:"mean_price"`
	P05Price  float64 `json:"p05_price"`
	P95Price  float64 `json:"p95_price"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`
	// MaxGapSeconds is the longest time between consecutive ticks.
	MaxGapSeconds float64 `json:"max_gap_seconds"`
}

func ComputeTickStats(ticks []model.Tick) TickStats {
	s := TickStats{}
	if len(ticks) == 0 {
		return s
	}
	s.Count = len(ticks)
	s.StartUTC = time.UnixMilli(ticks[0].Timestamp).UTC()
	s.EndUTC = time.UnixMilli(ticks[len(ticks)-1].Timestamp).UTC()
	s.NDays = NDays(ticks[0].Timestamp, ticks[len(ticks)-1].Timestamp)

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	var maxGap int64
	vals := make([]float64, 0, len(ticks))
	for i, t := range ticks {
		v := t.Price
		vals = append(vals, v)
		sum += v
		s.Volume += t.Qty
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
		if i > 0 {
			if gap := t.Timestamp - ticks[i-1].Timestamp; gap > maxGap {
				maxGap = gap
			}
		}
	}
	sort.Float64s(vals)
	s.MinPrice = minv
	s.MaxPrice = maxv
	s.MeanPrice = sum / float64(len(vals))
	s.P05Price = percentileSorted(vals, 0.05)
	s.P95Price = percentileSorted(vals, 0.95)
	s.SpreadP95P05 = s.P95Price - s.P05Price
	s.MaxGapSeconds = float64(maxGap) / 1000
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
