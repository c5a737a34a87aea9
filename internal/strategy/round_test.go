package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRounding(t *testing.T) {
	tests := []struct {
		name string
		fn   func(x, step float64) float64
		x    float64
		step float64
		want float64
	}{
		{"down", RoundDown, 0.123456, 0.001, 0.123},
		{"down exact", RoundDown, 0.3, 0.1, 0.3},
		{"down float noise", RoundDown, 0.1 + 0.2, 0.1, 0.3},
		{"down no step", RoundDown, 1.2345, 0, 1.2345},
		{"up", RoundUp, 0.1201, 0.01, 0.13},
		{"up exact", RoundUp, 12.5, 0.5, 12.5},
		{"nearest half up", Round, 0.125, 0.01, 0.13},
		{"nearest", Round, 101.26, 0.5, 101.5},
		{"nearest no step", Round, 3.14159, 0, 3.14159},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, tt.fn(tt.x, tt.step), 1e-12)
		})
	}
}

func TestRemainder(t *testing.T) {
	assert.Equal(t, 0.1, Remainder(1, 0.3, 3))
	assert.Equal(t, 0.4, Remainder(1, 0.3, 2))
	assert.Equal(t, 2.5, Remainder(2.5, 1, 0))
}
