package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dca-backtest/internal/model"
)

func testParams() model.Params {
	return model.Params{
		StartingBalance: 1000,
		DoLong:          true,
		MaxPosition:     1000,
	}
}

func flatAccount(t *testing.T, balance float64) model.Account {
	t.Helper()
	a, err := model.NewAccount(balance)
	require.NoError(t, err)
	return *a
}

func longAccount(t *testing.T, balance, price, qty float64) model.Account {
	t.Helper()
	a := flatAccount(t, balance)
	a.ApplyFill(model.SideBuy, price, qty, 0)
	return a
}

func places(actions []Action) []model.Order {
	var out []model.Order
	for _, a := range actions {
		if a.Type == ActionPlace {
			out = append(out, a.Order)
		}
	}
	return out
}

func TestNew(t *testing.T) {
	p, err := New(Variant{Type: TypeVanilla, Vanilla: VanillaParams{GridSpacing: 0.01, MaxEntryLevels: 1, InitialQtyPct: 0.1, Markup: 0.01}})
	require.NoError(t, err)
	assert.Equal(t, TypeVanilla, p.Name())

	p, err = New(Variant{Type: TypeScalp, Scalp: ScalpParams{EntrySpacing: 0.01, QtyPct: 0.1, MinMarkup: 0.01}})
	require.NoError(t, err)
	assert.Equal(t, TypeScalp, p.Name())

	_, err = New(Variant{Type: "martingale"})
	assert.ErrorIs(t, err, model.ErrUnknownConfigType)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	_, err = New(Variant{Type: TypeVanilla})
	assert.ErrorIs(t, err, model.ErrInvalidConfig)
}

func TestActionTypeString(t *testing.T) {
	assert.Equal(t, "place", ActionPlace.String())
	assert.Equal(t, "cancel", ActionCancel.String())
	assert.Equal(t, "close_all", ActionCloseAll.String())
	assert.Equal(t, "reanchor", ActionReanchor.String())
	assert.Equal(t, "action(9)", ActionType(9).String())
}

func TestReconcile(t *testing.T) {
	a := model.Order{ID: 1, Side: model.SideBuy, Kind: model.KindEntry, Price: 99, Qty: 1}
	b := model.Order{ID: 2, Side: model.SideBuy, Kind: model.KindEntry, Price: 98, Qty: 1}
	c := model.Order{Side: model.SideSell, Kind: model.KindClose, Price: 101, Qty: 1}

	got := reconcile([]model.Order{a, b}, []model.Order{{Side: model.SideBuy, Kind: model.KindEntry, Price: 98, Qty: 1}, c}, nil)
	require.Len(t, got, 2)
	assert.Equal(t, Action{Type: ActionCancel, Order: a}, got[0])
	assert.Equal(t, Action{Type: ActionPlace, Order: c}, got[1])

	// duplicates are matched one to one
	dup := a
	dup.ID = 3
	got = reconcile([]model.Order{a, dup}, []model.Order{{Side: model.SideBuy, Kind: model.KindEntry, Price: 99, Qty: 1}}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, ActionCancel, got[0].Type)
	assert.Equal(t, uint64(3), got[0].Order.ID)

	assert.Empty(t, reconcile(nil, nil, nil))
}

func TestMakerPrice(t *testing.T) {
	assert.Equal(t, 99.5, makerPrice(model.SideBuy, 99.6, 100, 0.5))
	assert.Equal(t, 100.0, makerPrice(model.SideBuy, 101, 100, 0.5), "buy never rests above the last trade")
	assert.Equal(t, 100.0, makerPrice(model.SideSell, 99, 100, 0.5), "sell never rests below the last trade")
	assert.Equal(t, 100.5, makerPrice(model.SideSell, 99.9, 100.2, 0.5))
	assert.Equal(t, 101.3, makerPrice(model.SideSell, 101.3, 100, 0))
}

func TestEntryQty(t *testing.T) {
	p := model.Params{QtyStep: 0.01, MinQty: 0.02, MinCost: 10}
	assert.InDelta(t, 0.1, entryQty(p, 100, 0.05), 1e-12, "raised to min cost")
	assert.InDelta(t, 0.25, entryQty(p, 100, 0.259), 1e-12)
	p.MinCost = 0
	assert.InDelta(t, 0.02, entryQty(p, 100, 0.001), 1e-12, "raised to min qty")
}

func TestEntryBudget(t *testing.T) {
	p := testParams()
	p.MaxPosition = 3
	b := newEntryBudget(p, longAccount(t, 1000, 100, 1), model.SideBuy)

	q, ok := b.take(90, 1.5)
	assert.True(t, ok)
	assert.Equal(t, 1.5, q)
	_, ok = b.take(80, 1)
	assert.False(t, ok, "1 + 1.5 + 1 exceeds 3")

	short := newEntryBudget(p, longAccount(t, 1000, 100, 1), model.SideSell)
	_, ok = short.take(110, 3)
	assert.True(t, ok, "a long position does not use the short budget")

	p.Spot = true
	spot := newEntryBudget(p, flatAccount(t, 100), model.SideBuy)
	_, ok = spot.take(50, 1.5)
	assert.True(t, ok)
	_, ok = spot.take(50, 1)
	assert.False(t, ok, "spot entries are limited by cash")
}

func TestForceClose(t *testing.T) {
	p := testParams()
	p.BankruptcyThreshold = 0.5
	working := []model.Order{{ID: 7, Side: model.SideBuy, Kind: model.KindEntry, Price: 45, Qty: 1}}
	ctx := Context{
		Tick:    model.Tick{Timestamp: 1, Price: 60},
		Params:  p,
		Account: longAccount(t, 1000, 100, 10),
		Working: working,
	}

	_, done := forceClose(ctx, nil)
	assert.False(t, done, "equity 600 is above the 500 threshold")

	ctx.Tick.Price = 50
	got, done := forceClose(ctx, nil)
	require.True(t, done)
	require.Len(t, got, 2)
	assert.Equal(t, Action{Type: ActionCancel, Order: working[0]}, got[0])
	assert.Equal(t, ActionCloseAll, got[1].Type)

	// flat after losing 600 of the 1000 starting balance
	ctx.Account = flatAccount(t, 1000)
	ctx.Account.Balance = 400
	got, done = forceClose(ctx, nil)
	assert.True(t, done)
	assert.Len(t, got, 1, "flat accounts only cancel")
}

func TestFlatAnchor(t *testing.T) {
	p := testParams()
	at := func(price, anchor float64, p model.Params) (float64, []Action) {
		return flatAnchor(Context{Tick: model.Tick{Price: price}, Params: p, Anchor: anchor}, 0.05, nil)
	}

	a, got := at(100, 0, p)
	assert.Equal(t, 100.0, a)
	require.Len(t, got, 1)
	assert.Equal(t, ActionReanchor, got[0].Type)

	a, got = at(104, 100, p)
	assert.Equal(t, 100.0, a)
	assert.Empty(t, got)

	a, got = at(80, 100, p)
	assert.Equal(t, 100.0, a, "a long ladder keeps its anchor on a drop")
	assert.Empty(t, got)

	p.DoLong = false
	p.DoShort = true
	a, got = at(94, 100, p)
	assert.Equal(t, 94.0, a, "a short ladder follows a drop")
	assert.Len(t, got, 1)
}
