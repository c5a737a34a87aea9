package strategy

import "github.com/shopspring/decimal"

// snapTolerance absorbs binary float noise such as 2.9999999999999996 steps.
var snapTolerance = decimal.New(1, -9)

func steps(x, step float64) (decimal.Decimal, decimal.Decimal) {
	s := decimal.NewFromFloat(step)
	return decimal.NewFromFloat(x).Div(s), s
}

func snapped(n decimal.Decimal) (decimal.Decimal, bool) {
	r := n.Round(0)
	if r.Sub(n).Abs().LessThan(snapTolerance) {
		return r, true
	}
	return n, false
}

// RoundDown rounds x down to a multiple of step. step <= 0 leaves x as is.
func RoundDown(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	n, s := steps(x, step)
	if r, ok := snapped(n); ok {
		return r.Mul(s).InexactFloat64()
	}
	return n.Floor().Mul(s).InexactFloat64()
}

// RoundUp rounds x up to a multiple of step.
func RoundUp(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	n, s := steps(x, step)
	if r, ok := snapped(n); ok {
		return r.Mul(s).InexactFloat64()
	}
	return n.Ceil().Mul(s).InexactFloat64()
}

// Round rounds x to the nearest multiple of step.
func Round(x, step float64) float64 {
	if step <= 0 {
		return x
	}
	n, s := steps(x, step)
	return n.Round(0).Mul(s).InexactFloat64()
}

// Remainder returns total - n*unit computed in decimal, so that the last
// piece of a split quantity does not pick up float residue.
func Remainder(total, unit float64, n int) float64 {
	used := decimal.NewFromFloat(unit).Mul(decimal.NewFromInt(int64(n)))
	return decimal.NewFromFloat(total).Sub(used).InexactFloat64()
}
