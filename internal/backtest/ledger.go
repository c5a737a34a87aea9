package backtest

import (
	"errors"
	"fmt"

	"dca-backtest/internal/model"
)

// Fill is one executed simulated order. This is the primary artifact for
// "what happened" in a backtest.
type Fill struct {
	Index     int
	TickIndex int
	Timestamp int64

	OrderID  uint64
	PlacedAt int64
	Side     model.Side
	Kind     model.OrderKind
	Level    int

	Price   float64
	Qty     float64
	FeePaid float64
	PNL     float64

	BalanceAfter       float64
	PositionAfter      float64
	PositionPriceAfter float64
	EquityAfter        float64
}

// Ledger is the append-only record of fills in execution order.
type Ledger struct {
	fills []Fill
}

func NewLedger(capacity int) *Ledger {
	return &Ledger{fills: make([]Fill, 0, capacity)}
}

// ErrOutOfOrder is returned when a fill is older than the last one recorded.
var ErrOutOfOrder = errors.New("fill appended out of chronological order")

// Append records f and assigns its index. Fills must arrive in
// chronological order; an older fill is rejected and not recorded.
func (l *Ledger) Append(f Fill) error {
	if n := len(l.fills); n > 0 && f.Timestamp < l.fills[n-1].Timestamp {
		return fmt.Errorf("%w: %d after %d", ErrOutOfOrder, f.Timestamp, l.fills[n-1].Timestamp)
	}
	f.Index = len(l.fills)
	l.fills = append(l.fills, f)
	return nil
}

func (l *Ledger) Len() int { return len(l.fills) }

func (l *Ledger) Fills() []Fill { return l.fills }
