package sweep

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-backtest/internal/backtest"
	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
)

func ticks() []model.Tick {
	out := make([]model.Tick, 500)
	for i := range out {
		out[i] = model.Tick{Timestamp: int64(i) * 1000, Qty: 1, Price: 100 + 20*math.Sin(float64(i)/10)}
	}
	return out
}

func scalp(qtyPct float64) strategy.Variant {
	return strategy.Variant{
		Type: strategy.TypeScalp,
		Scalp: strategy.ScalpParams{
			EntrySpacing: 0.01,
			QtyPct:       qtyPct,
			MinMarkup:    0.005,
			MarkupRange:  0.01,
			NCloseOrders: 2,
		},
	}
}

func TestRun_MatchesSequential(t *testing.T) {
	data := ticks()
	params := model.Params{StartingBalance: 1000, LatencyMS: 1000, MakerFee: 0.0002, DoLong: true, MaxPosition: 100}

	jobs := []Job{
		{Name: "small", Ticks: data, Params: params, Variant: scalp(0.01)},
		{Name: "medium", Ticks: data, Params: params, Variant: scalp(0.05)},
		{Name: "large", Ticks: data, Params: params, Variant: scalp(0.1)},
		{Name: "broken", Ticks: data, Params: params, Variant: strategy.Variant{Type: "nope"}},
	}

	outcomes, err := Run(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, outcomes, len(jobs))

	for i, job := range jobs[:3] {
		require.NoError(t, outcomes[i].Err, job.Name)
		assert.Equal(t, job.Name, outcomes[i].Name)

		want, err := backtest.New().Run(job.Ticks, job.Params, job.Variant)
		require.NoError(t, err)
		assert.Equal(t, want, outcomes[i].Result, job.Name)
	}
	assert.ErrorIs(t, outcomes[3].Err, model.ErrUnknownConfigType)
	assert.Nil(t, outcomes[3].Result)

	ranked := Rank(outcomes)
	assert.Len(t, ranked, 3)
	for i := 1; i < len(ranked); i++ {
		assert.Equal(t, i+1, ranked[i].Rank)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, []Job{{Name: "x"}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_DefaultParallelism(t *testing.T) {
	params := model.Params{StartingBalance: 1000, DoLong: true, MaxPosition: 100}
	outcomes, err := Run(context.Background(), []Job{{Name: "only", Ticks: ticks(), Params: params, Variant: scalp(0.05)}}, 0)
	require.NoError(t, err, "finishing every job is not a cancellation")
	require.Len(t, outcomes, 1)
	assert.NoError(t, outcomes[0].Err)
	assert.NotNil(t, outcomes[0].Result)
}
