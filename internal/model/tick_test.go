package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickJSON(t *testing.T) {
	var ticks []Tick
	require.NoError(t, json.Unmarshal([]byte(`[[1600000000000, 0.5, 100.25]]`), &ticks))
	require.Len(t, ticks, 1)
	assert.Equal(t, Tick{Timestamp: 1600000000000, Qty: 0.5, Price: 100.25}, ticks[0])

	b, err := json.Marshal(ticks[0])
	require.NoError(t, err)
	assert.JSONEq(t, `[1600000000000, 0.5, 100.25]`, string(b))

	var bad Tick
	assert.Error(t, json.Unmarshal([]byte(`[1, 2]`), &bad))
}

func TestValidateTicks(t *testing.T) {
	tests := []struct {
		name  string
		ticks []Tick
		want  error
	}{
		{name: "empty", ticks: nil, want: ErrEmptyTicks},
		{name: "unsorted", ticks: []Tick{{Timestamp: 2, Price: 1}, {Timestamp: 1, Price: 1}}, want: ErrUnsortedTicks},
		{name: "zero price", ticks: []Tick{{Timestamp: 1, Price: 0}}, want: ErrInvalidData},
		{name: "nan price", ticks: []Tick{{Timestamp: 1, Price: math.NaN()}}, want: ErrInvalidData},
		{name: "negative qty", ticks: []Tick{{Timestamp: 1, Qty: -1, Price: 1}}, want: ErrInvalidData},
		{name: "equal timestamps", ticks: []Tick{{Timestamp: 1, Price: 1}, {Timestamp: 1, Price: 2}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTicks(tt.ticks)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidData)
		})
	}
}

func TestSpanDays(t *testing.T) {
	assert.Zero(t, SpanDays([]Tick{{Timestamp: 5}}))
	assert.Equal(t, 2.0, SpanDays([]Tick{{Timestamp: 0}, {Timestamp: 2 * 24 * 60 * 60 * 1000}}))
}

func TestOrderCrosses(t *testing.T) {
	buy := Order{Side: SideBuy, Price: 100}
	assert.True(t, buy.Crosses(100), "inclusive boundary")
	assert.True(t, buy.Crosses(99))
	assert.False(t, buy.Crosses(100.01))

	sell := Order{Side: SideSell, Price: 100}
	assert.True(t, sell.Crosses(100))
	assert.False(t, sell.Crosses(99.99))
}

func TestParamsValidate(t *testing.T) {
	good := Params{StartingBalance: 100, MaxPosition: 1}
	assert.NoError(t, good.Validate())

	for name, mutate := range map[string]func(*Params){
		"zero balance":      func(p *Params) { p.StartingBalance = 0 },
		"negative latency":  func(p *Params) { p.LatencyMS = -1 },
		"fee too large":     func(p *Params) { p.MakerFee = 1 },
		"zero max position": func(p *Params) { p.MaxPosition = 0 },
		"threshold one":     func(p *Params) { p.BankruptcyThreshold = 1 },
		"negative qty step": func(p *Params) { p.QtyStep = -0.1 },
		"nan min cost":      func(p *Params) { p.MinCost = math.NaN() },
	} {
		p := good
		mutate(&p)
		assert.ErrorIs(t, p.Validate(), ErrInvalidConfig, name)
	}

	assert.False(t, Params{DoShort: true, Spot: true}.ShortsAllowed())
	assert.True(t, Params{DoShort: true}.ShortsAllowed())
}
