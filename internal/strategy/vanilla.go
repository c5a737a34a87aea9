package strategy

import (
	"math"

	"dca-backtest/internal/model"
)

type SpacingMode string

const (
	SpacingGeometric  SpacingMode = "geometric"
	SpacingArithmetic SpacingMode = "arithmetic"
)

// VanillaParams describe a fixed entry ladder with one take-profit close.
//
// Level k (0-based) below the anchor A for a long:
//   - geometric:  A*(1-GridSpacing)^(k+1)
//   - arithmetic: A*(1-GridSpacing*(k+1))
//
// and mirrored above A for a short. Level k is sized
// InitialQtyPct*balance/price * QtyMultiplier^k.
type VanillaParams struct {
	GridSpacing    float64
	SpacingMode    SpacingMode
	MaxEntryLevels int
	InitialQtyPct  float64
	QtyMultiplier  float64
	Markup         float64
}

func (p VanillaParams) Validate() error {
	if p.GridSpacing <= 0 || p.GridSpacing >= 1 {
		return model.ConfigError("vanilla.grid_spacing must be in (0, 1), got %v", p.GridSpacing)
	}
	switch p.SpacingMode {
	case "", SpacingGeometric, SpacingArithmetic:
	default:
		return model.ConfigError("vanilla.spacing_mode %q is not geometric or arithmetic", p.SpacingMode)
	}
	if p.MaxEntryLevels < 1 {
		return model.ConfigError("vanilla.max_entry_levels must be >= 1, got %d", p.MaxEntryLevels)
	}
	if p.InitialQtyPct <= 0 {
		return model.ConfigError("vanilla.initial_qty_pct must be > 0, got %v", p.InitialQtyPct)
	}
	if p.QtyMultiplier < 0 {
		return model.ConfigError("vanilla.qty_multiplier must be >= 0, got %v", p.QtyMultiplier)
	}
	if p.Markup <= 0 {
		return model.ConfigError("vanilla.markup must be > 0, got %v", p.Markup)
	}
	return nil
}

type Vanilla struct {
	Params VanillaParams
}

func NewVanilla(p VanillaParams) (*Vanilla, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.SpacingMode == "" {
		p.SpacingMode = SpacingGeometric
	}
	if p.QtyMultiplier == 0 {
		p.QtyMultiplier = 1
	}
	return &Vanilla{Params: p}, nil
}

func (s *Vanilla) Name() string { return TypeVanilla }

func (s *Vanilla) Decide(ctx Context, dst []Action) []Action {
	if out, done := forceClose(ctx, dst); done {
		return out
	}

	var buf [16]model.Order
	desired := buf[:0]
	a := ctx.Account

	switch {
	case a.PositionSize == 0:
		var anchor float64
		anchor, dst = flatAnchor(ctx, s.Params.GridSpacing, dst)
		if ctx.Params.DoLong {
			desired = s.ladder(ctx, model.SideBuy, anchor, anchor, 0, desired)
		}
		if ctx.Params.ShortsAllowed() {
			desired = s.ladder(ctx, model.SideSell, anchor, anchor, 0, desired)
		}
	default:
		side := closeSide(a.PositionSize).Opposite()
		if (side == model.SideBuy && ctx.Params.DoLong) || (side == model.SideSell && ctx.Params.ShortsAllowed()) {
			anchor := ctx.LastEntryPrice
			if anchor <= 0 {
				anchor = a.PositionPrice
			}
			desired = s.ladder(ctx, side, anchor, a.PositionPrice, ctx.EntryLevels, desired)
		}
		desired = append(desired, s.close(ctx))
	}
	return reconcile(ctx.Working, desired, dst)
}

// LevelPrice is the ladder price j steps away from anchor.
func (s *Vanilla) LevelPrice(side model.Side, anchor float64, j int) float64 {
	sp := s.Params.GridSpacing
	n := float64(j + 1)
	if s.Params.SpacingMode == SpacingArithmetic {
		if side == model.SideBuy {
			return anchor * (1 - sp*n)
		}
		return anchor * (1 + sp*n)
	}
	if side == model.SideBuy {
		return anchor * math.Pow(1-sp, n)
	}
	return anchor * math.Pow(1+sp, n)
}

// ladder appends the remaining entry levels from startLevel on. ref is the
// price the base quantity is sized against.
func (s *Vanilla) ladder(ctx Context, side model.Side, anchor, ref float64, startLevel int, dst []model.Order) []model.Order {
	if ref <= 0 {
		return dst
	}
	budget := newEntryBudget(ctx.Params, ctx.Account, side)
	base := s.Params.InitialQtyPct * ctx.Account.Balance / ref
	for k := startLevel; k < s.Params.MaxEntryLevels; k++ {
		level := s.LevelPrice(side, anchor, k-startLevel)
		if level <= 0 {
			break
		}
		price := makerPrice(side, level, ctx.Tick.Price, ctx.Params.PriceStep)
		if price <= 0 {
			break
		}
		qty, ok := budget.take(price, base*math.Pow(s.Params.QtyMultiplier, float64(k)))
		if !ok {
			break
		}
		dst = append(dst, model.Order{Side: side, Kind: model.KindEntry, Price: price, Qty: qty, Level: k})
	}
	return dst
}

func (s *Vanilla) close(ctx Context) model.Order {
	a := ctx.Account
	side := closeSide(a.PositionSize)
	target := a.PositionPrice * (1 + s.Params.Markup)
	if side == model.SideBuy {
		target = a.PositionPrice * (1 - s.Params.Markup)
	}
	return model.Order{
		Side:  side,
		Kind:  model.KindClose,
		Price: makerPrice(side, target, ctx.Tick.Price, ctx.Params.PriceStep),
		Qty:   math.Abs(a.PositionSize),
	}
}
