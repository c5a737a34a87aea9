package model

import (
	"encoding/json"
	"fmt"
	"math"
)

// Tick is one recorded trade: millisecond timestamp, traded quantity and price.
//
// On the wire a tick is the dense triple [timestamp_ms, quantity, price].
type Tick struct {
	Timestamp int64
	Qty       float64
	Price     float64
}

func (t Tick) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{float64(t.Timestamp), t.Qty, t.Price})
}

func (t *Tick) UnmarshalJSON(b []byte) error {
	var raw []float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("tick must have 3 elements, got %d", len(raw))
	}
	t.Timestamp = int64(raw[0])
	t.Qty = raw[1]
	t.Price = raw[2]
	return nil
}

// ValidateTicks checks that a stream is non-empty, time-ascending and carries
// usable prices. Equal timestamps are allowed (several trades in one ms).
func ValidateTicks(ticks []Tick) error {
	if len(ticks) == 0 {
		return ErrEmptyTicks
	}
	prev := ticks[0].Timestamp
	for i, t := range ticks {
		if t.Timestamp < prev {
			return fmt.Errorf("%w: tick %d at %d precedes %d", ErrUnsortedTicks, i, t.Timestamp, prev)
		}
		if math.IsNaN(t.Price) || math.IsInf(t.Price, 0) || t.Price <= 0 {
			return DataError("tick %d has invalid price %v", i, t.Price)
		}
		if math.IsNaN(t.Qty) || t.Qty < 0 {
			return DataError("tick %d has invalid quantity %v", i, t.Qty)
		}
		prev = t.Timestamp
	}
	return nil
}

// SpanDays returns the covered time span in days.
func SpanDays(ticks []Tick) float64 {
	if len(ticks) < 2 {
		return 0
	}
	return float64(ticks[len(ticks)-1].Timestamp-ticks[0].Timestamp) / (1000 * 60 * 60 * 24)
}
