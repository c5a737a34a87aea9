package strategy

import (
	"math"

	"dca-backtest/internal/model"
)

// makerPrice snaps a target price to the price step and keeps it on the
// passive side of the last trade, so the order rests instead of crossing.
func makerPrice(side model.Side, target, last, step float64) float64 {
	p := Round(target, step)
	if side == model.SideBuy {
		if p > last {
			p = RoundDown(last, step)
		}
		return p
	}
	if p < last {
		p = RoundUp(last, step)
	}
	return p
}

// entryQty applies the qty step and raises the size to the exchange minimums.
func entryQty(p model.Params, price, qty float64) float64 {
	q := RoundDown(qty, p.QtyStep)
	minQty := p.MinQty
	if p.MinCost > 0 && price > 0 {
		minQty = math.Max(minQty, RoundUp(p.MinCost/price, p.QtyStep))
	}
	if q < minQty {
		q = minQty
	}
	return q
}

// entryBudget tracks how much more position one side may take on.
type entryBudget struct {
	params    model.Params
	remaining float64
	spot      bool
	cash      float64
}

func newEntryBudget(p model.Params, a model.Account, side model.Side) entryBudget {
	held := 0.0
	if a.PositionSize != 0 && (a.PositionSize > 0) == (side == model.SideBuy) {
		held = math.Abs(a.PositionSize)
	}
	return entryBudget{
		params:    p,
		remaining: p.MaxPosition - held,
		spot:      p.Spot,
		cash:      a.Balance - held*a.PositionPrice,
	}
}

// take sizes an entry and charges it against the budget. It reports false
// once the entry would break max_position (or, on spot, the cash balance).
func (b *entryBudget) take(price, qty float64) (float64, bool) {
	if price <= 0 || qty <= 0 {
		return 0, false
	}
	q := entryQty(b.params, price, qty)
	if q <= 0 || q > b.remaining+1e-12 {
		return 0, false
	}
	if b.spot {
		if q*price > b.cash {
			return 0, false
		}
		b.cash -= q * price
	}
	b.remaining -= q
	return q, true
}

// forceClose emits a cancel-everything plus close-all once equity falls to
// the bankruptcy threshold. It reports whether it took over the decision.
func forceClose(ctx Context, dst []Action) ([]Action, bool) {
	a := ctx.Account
	limit := ctx.Params.BankruptcyThreshold * a.StartingBalance
	if a.EquityAt(ctx.Tick.Price) > limit {
		return dst, false
	}
	for _, o := range ctx.Working {
		dst = append(dst, Action{Type: ActionCancel, Order: o})
	}
	if a.PositionSize != 0 {
		dst = append(dst, Action{Type: ActionCloseAll})
	}
	return dst, true
}

// flatAnchor returns the price flat-state entries hang from. The anchor sticks
// until the price runs more than band away from it on the side no entry
// can catch, then it is moved to the current price.
func flatAnchor(ctx Context, band float64, dst []Action) (float64, []Action) {
	last := ctx.Tick.Price
	a := ctx.Anchor
	drifted := a <= 0 ||
		(ctx.Params.DoLong && last > a*(1+band)) ||
		(ctx.Params.ShortsAllowed() && last < a*(1-band))
	if drifted {
		return last, append(dst, Action{Type: ActionReanchor})
	}
	return a, dst
}

// reconcile turns a desired order set into cancels for working orders that
// are no longer wanted and placements for wanted orders not yet working.
func reconcile(working, desired []model.Order, dst []Action) []Action {
	var buf [32]bool
	var matched []bool
	if len(desired) <= len(buf) {
		matched = buf[:len(desired)]
	} else {
		matched = make([]bool, len(desired))
	}
	for _, w := range working {
		found := false
		for j, d := range desired {
			if !matched[j] && w.SameIntent(d) {
				matched[j] = true
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, Action{Type: ActionCancel, Order: w})
		}
	}
	for j, d := range desired {
		if !matched[j] {
			dst = append(dst, Action{Type: ActionPlace, Order: d})
		}
	}
	return dst
}

// closeSide is the side that reduces a position of the given sign.
func closeSide(position float64) model.Side {
	if position > 0 {
		return model.SideSell
	}
	return model.SideBuy
}
