package model

import "math"

// Params are the market and risk parameters shared by every strategy variant.
// They are immutable for the duration of one run.
type Params struct {
	StartingBalance float64
	LatencyMS       int64
	// MakerFee is a fraction of notional; negative values are rebates.
	MakerFee float64

	// Spot markets have no shorts and no leverage.
	Spot    bool
	DoLong  bool
	DoShort bool

	QtyStep   float64
	PriceStep float64
	MinQty    float64
	MinCost   float64

	// MaxPosition bounds abs(position size) in base quantity.
	MaxPosition float64
	// BankruptcyThreshold is the equity/starting balance ratio at or below
	// which the open position is force-closed.
	BankruptcyThreshold float64
}

// ShortsAllowed is false for spot runs regardless of DoShort.
func (p Params) ShortsAllowed() bool {
	return p.DoShort && !p.Spot
}

func (p Params) Validate() error {
	if !finite(p.StartingBalance) || p.StartingBalance <= 0 {
		return ConfigError("starting_balance must be > 0, got %v", p.StartingBalance)
	}
	if p.LatencyMS < 0 {
		return ConfigError("latency_simulation_ms must be >= 0, got %d", p.LatencyMS)
	}
	if !finite(p.MakerFee) || p.MakerFee <= -1 || p.MakerFee >= 1 {
		return ConfigError("maker_fee must be in (-1, 1), got %v", p.MakerFee)
	}
	if !finite(p.MaxPosition) || p.MaxPosition <= 0 {
		return ConfigError("max_position must be > 0, got %v", p.MaxPosition)
	}
	if !finite(p.BankruptcyThreshold) || p.BankruptcyThreshold < 0 || p.BankruptcyThreshold >= 1 {
		return ConfigError("bankruptcy_threshold must be in [0, 1), got %v", p.BankruptcyThreshold)
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"qty_step", p.QtyStep},
		{"price_step", p.PriceStep},
		{"min_qty", p.MinQty},
		{"min_cost", p.MinCost},
	} {
		if !finite(f.v) || f.v < 0 {
			return ConfigError("%s must be >= 0, got %v", f.name, f.v)
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
