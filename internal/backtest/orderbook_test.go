package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-backtest/internal/model"
)

func buy(price, qty float64) model.Order {
	return model.Order{Side: model.SideBuy, Kind: model.KindEntry, Price: price, Qty: qty}
}

func TestOrderBook_PlacementVisibleAfterLatency(t *testing.T) {
	b := NewOrderBook(100)
	id := b.Submit(buy(99, 1), 1000)
	assert.Equal(t, uint64(1), id)

	assert.False(t, b.Advance(1099))
	assert.Empty(t, b.Live())
	assert.Equal(t, 1, b.Pending())

	b.Advance(1100)
	require.Len(t, b.Live(), 1)
	assert.Equal(t, id, b.Live()[0].ID)
	assert.Equal(t, int64(1000), b.Live()[0].PlacedAt)
	assert.Zero(t, b.Pending())
}

func TestOrderBook_CancelPendingIsImmediate(t *testing.T) {
	b := NewOrderBook(100)
	id := b.Submit(buy(99, 1), 0)

	assert.True(t, b.Cancel(id, 10))
	assert.Zero(t, b.Pending())
	assert.Empty(t, b.Working(nil))

	b.Advance(1000)
	assert.Empty(t, b.Live())
	assert.Equal(t, 1, b.cancelled)
}

func TestOrderBook_CancelLiveWaitsForLatency(t *testing.T) {
	b := NewOrderBook(50)
	id := b.Submit(buy(99, 1), 0)
	b.Advance(50)

	assert.True(t, b.Cancel(id, 60))
	assert.False(t, b.Cancel(id, 61), "second cancel of the same order")
	assert.Len(t, b.Live(), 1, "still on the market")
	assert.Empty(t, b.Working(nil), "not working once a cancel is in flight")

	b.Advance(109)
	assert.Len(t, b.Live(), 1)
	b.Advance(110)
	assert.Empty(t, b.Live())
}

func TestOrderBook_CancelUnknown(t *testing.T) {
	b := NewOrderBook(0)
	assert.False(t, b.Cancel(42, 0))
}

func TestOrderBook_WorkingOrder(t *testing.T) {
	b := NewOrderBook(10)
	first := b.Submit(buy(99, 1), 0)
	b.Advance(10)

	ids := make([]uint64, 0, 8)
	for i := 0; i < 6; i++ {
		ids = append(ids, b.Submit(buy(90-float64(i), 1), 20))
	}

	working := b.Working(nil)
	require.Len(t, working, 7)
	assert.Equal(t, first, working[0].ID)
	for i, id := range ids {
		assert.Equal(t, id, working[i+1].ID)
	}
}

func TestOrderBook_SameTimeActionsKeepDecisionOrder(t *testing.T) {
	b := NewOrderBook(0)
	b.Submit(buy(99, 1), 0)
	b.Submit(buy(98, 1), 0)
	b.Submit(buy(97, 1), 0)
	b.Advance(0)

	live := b.Live()
	require.Len(t, live, 3)
	assert.Equal(t, []float64{99, 98, 97}, []float64{live[0].Price, live[1].Price, live[2].Price})
}

func TestOrderBook_CloseAll(t *testing.T) {
	b := NewOrderBook(100)
	b.CloseAll(0)
	assert.False(t, b.Advance(99))
	assert.True(t, b.Advance(100))
	assert.True(t, b.Advance(200), "close-all stays visible")
}

func TestOrderBook_Fill(t *testing.T) {
	b := NewOrderBook(0)
	a := b.Submit(buy(99, 1), 0)
	c := b.Submit(buy(98, 1), 0)
	b.Advance(0)

	b.Fill(a)
	require.Len(t, b.Live(), 1)
	assert.Equal(t, c, b.Live()[0].ID)
}
