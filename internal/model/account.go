package model

import (
	"errors"
	"math"
)

// positionEpsilon snaps float residue left by split closes back to flat.
const positionEpsilon = 1e-9

// Account is the authoritative balance/position bookkeeping for one run.
// Units:
// - Balance, Equity, fees and PnL: quote currency
// - PositionSize: base quantity, signed (+long, -short)
// - PositionPrice: average entry price of the open position
type Account struct {
	StartingBalance float64

	Balance       float64
	PositionSize  float64
	PositionPrice float64
	Equity        float64

	RealizedPnL float64
	FeesPaid    float64

	// Running minima over the whole run, never reset.
	LowestEquityRatio float64
	ClosestBankruptcy float64
}

func NewAccount(startingBalance float64) (*Account, error) {
	if math.IsNaN(startingBalance) || math.IsInf(startingBalance, 0) || startingBalance <= 0 {
		return nil, errors.New("starting balance must be > 0")
	}
	return &Account{
		StartingBalance:   startingBalance,
		Balance:           startingBalance,
		Equity:            startingBalance,
		LowestEquityRatio: 1,
		ClosestBankruptcy: 1,
	}, nil
}

func (a *Account) UnrealizedPnL(price float64) float64 {
	if a.PositionSize == 0 {
		return 0
	}
	return a.PositionSize * (price - a.PositionPrice)
}

// EquityAt is balance plus unrealized PnL marked at price.
func (a *Account) EquityAt(price float64) float64 {
	return a.Balance + a.UnrealizedPnL(price)
}

// Exposure is the position notional at entry price relative to balance.
func (a *Account) Exposure() float64 {
	if a.Balance <= 0 {
		return math.Inf(1)
	}
	return math.Abs(a.PositionSize) * a.PositionPrice / a.Balance
}

// ApplyFill books one fill: the position is netted (add, reduce or flip),
// PnL on the reduced part is realized and the fee is taken from the balance.
// A negative fee is a rebate. Returns the realized PnL.
func (a *Account) ApplyFill(side Side, price, qty, fee float64) float64 {
	if qty <= 0 {
		return 0
	}
	delta := side.Sign() * qty
	pos := a.PositionSize
	realized := 0.0

	switch {
	case pos == 0 || (pos > 0) == (delta > 0):
		size := math.Abs(pos)
		a.PositionPrice = (size*a.PositionPrice + qty*price) / (size + qty)
		a.PositionSize = pos + delta
	default:
		closed := math.Min(math.Abs(pos), qty)
		if pos > 0 {
			realized = closed * (price - a.PositionPrice)
		} else {
			realized = closed * (a.PositionPrice - price)
		}
		next := pos + delta
		if math.Abs(next) <= positionEpsilon*math.Max(1, qty) {
			next = 0
		}
		switch {
		case next == 0:
			a.PositionPrice = 0
		case (next > 0) != (pos > 0):
			// flipped; the remainder opens at the fill price
			a.PositionPrice = price
		}
		a.PositionSize = next
	}

	a.RealizedPnL += realized
	a.FeesPaid += fee
	a.Balance += realized - fee
	return realized
}

// Mark recomputes equity at price and folds it into the running minima.
// The equity/balance ratio is not updated while balance <= 0.
func (a *Account) Mark(price float64) {
	a.Equity = a.EquityAt(price)
	if a.Balance > 0 {
		if r := a.Equity / a.Balance; r < a.LowestEquityRatio {
			a.LowestEquityRatio = r
		}
	}
	if d := a.Equity / a.StartingBalance; d < a.ClosestBankruptcy {
		a.ClosestBankruptcy = d
	}
}

// Bankrupt reports whether the account has lost all its capital.
func (a *Account) Bankrupt() bool {
	return a.Equity <= 0 || a.Balance <= 0
}
