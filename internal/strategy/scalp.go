package strategy

import (
	"math"

	"dca-backtest/internal/model"
)

// ScalpParams describe a single trailing entry with a spread of closes.
//
// The next entry rests EntrySpacing away from min(last, position price),
// widened by SpacingWeight times the current exposure. Every entry has the
// same size, QtyPct*balance/price. The position is closed by NCloseOrders
// orders spread evenly between MinMarkup and MinMarkup+MarkupRange.
type ScalpParams struct {
	EntrySpacing  float64
	SpacingWeight float64
	QtyPct        float64
	MinMarkup     float64
	MarkupRange   float64
	NCloseOrders  int
}

func (p ScalpParams) Validate() error {
	if p.EntrySpacing <= 0 || p.EntrySpacing >= 1 {
		return model.ConfigError("scalp.entry_spacing must be in (0, 1), got %v", p.EntrySpacing)
	}
	if p.SpacingWeight < 0 {
		return model.ConfigError("scalp.spacing_weight must be >= 0, got %v", p.SpacingWeight)
	}
	if p.QtyPct <= 0 {
		return model.ConfigError("scalp.qty_pct must be > 0, got %v", p.QtyPct)
	}
	if p.MinMarkup <= 0 {
		return model.ConfigError("scalp.min_markup must be > 0, got %v", p.MinMarkup)
	}
	if p.MarkupRange < 0 {
		return model.ConfigError("scalp.markup_range must be >= 0, got %v", p.MarkupRange)
	}
	if p.NCloseOrders < 0 {
		return model.ConfigError("scalp.n_close_orders must be >= 0, got %d", p.NCloseOrders)
	}
	return nil
}

type Scalp struct {
	Params ScalpParams
}

func NewScalp(p ScalpParams) (*Scalp, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.NCloseOrders == 0 {
		p.NCloseOrders = 1
	}
	return &Scalp{Params: p}, nil
}

func (s *Scalp) Name() string { return TypeScalp }

func (s *Scalp) Decide(ctx Context, dst []Action) []Action {
	if out, done := forceClose(ctx, dst); done {
		return out
	}

	var buf [16]model.Order
	desired := buf[:0]
	a := ctx.Account
	last := ctx.Tick.Price

	switch {
	case a.PositionSize == 0:
		var anchor float64
		anchor, dst = flatAnchor(ctx, s.Params.EntrySpacing, dst)
		if ctx.Params.DoLong {
			desired = s.entry(ctx, model.SideBuy, anchor, 0, desired)
		}
		if ctx.Params.ShortsAllowed() {
			desired = s.entry(ctx, model.SideSell, anchor, 0, desired)
		}
	default:
		side := closeSide(a.PositionSize).Opposite()
		if (side == model.SideBuy && ctx.Params.DoLong) || (side == model.SideSell && ctx.Params.ShortsAllowed()) {
			ref := math.Min(last, a.PositionPrice)
			if side == model.SideSell {
				ref = math.Max(last, a.PositionPrice)
			}
			desired = s.entry(ctx, side, ref, a.Exposure(), desired)
		}
		desired = s.closes(ctx, desired)
	}
	return reconcile(ctx.Working, desired, dst)
}

func (s *Scalp) entry(ctx Context, side model.Side, ref, exposure float64, dst []model.Order) []model.Order {
	if math.IsInf(exposure, 0) {
		return dst
	}
	spacing := s.Params.EntrySpacing * (1 + s.Params.SpacingWeight*exposure)
	target := ref * (1 - spacing)
	if side == model.SideSell {
		target = ref * (1 + spacing)
	}
	if target <= 0 {
		return dst
	}
	price := makerPrice(side, target, ctx.Tick.Price, ctx.Params.PriceStep)
	if price <= 0 {
		return dst
	}
	budget := newEntryBudget(ctx.Params, ctx.Account, side)
	qty, ok := budget.take(price, s.Params.QtyPct*ctx.Account.Balance/price)
	if !ok {
		return dst
	}
	return append(dst, model.Order{Side: side, Kind: model.KindEntry, Price: price, Qty: qty, Level: ctx.EntryLevels})
}

// closes splits the position into up to NCloseOrders reduce orders. Each
// piece respects min_qty; the last piece takes the remainder.
func (s *Scalp) closes(ctx Context, dst []model.Order) []model.Order {
	a := ctx.Account
	side := closeSide(a.PositionSize)
	size := math.Abs(a.PositionSize)

	n := s.Params.NCloseOrders
	unit := RoundDown(size/float64(n), ctx.Params.QtyStep)
	if ctx.Params.MinQty > 0 && unit < ctx.Params.MinQty {
		n = int(size / ctx.Params.MinQty)
		if n < 1 {
			n = 1
		}
		unit = RoundDown(size/float64(n), ctx.Params.QtyStep)
	}
	if unit <= 0 {
		n, unit = 1, size
	}

	for i := 0; i < n; i++ {
		frac := 0.0
		if n > 1 {
			frac = float64(i) / float64(n-1)
		}
		markup := s.Params.MinMarkup + s.Params.MarkupRange*frac
		target := a.PositionPrice * (1 + markup)
		if side == model.SideBuy {
			target = a.PositionPrice * (1 - markup)
		}
		qty := unit
		if i == n-1 {
			qty = Remainder(size, unit, n-1)
		}
		if qty <= 0 {
			continue
		}
		dst = append(dst, model.Order{
			Side:  side,
			Kind:  model.KindClose,
			Price: makerPrice(side, target, ctx.Tick.Price, ctx.Params.PriceStep),
			Qty:   qty,
			Level: i,
		})
	}
	return dst
}
