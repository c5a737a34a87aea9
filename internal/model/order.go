package model

// Side is the direction of an order or fill.
// Keep these values stable; they are written to CSV output.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Sign is +1 for buys and -1 for sells.
func (s Side) Sign() float64 {
	if s == SideSell {
		return -1
	}
	return 1
}

func (s Side) Opposite() Side {
	if s == SideSell {
		return SideBuy
	}
	return SideSell
}

// OrderKind tells whether an order adds to the position or reduces it.
type OrderKind string

const (
	KindEntry       OrderKind = "ENTRY"
	KindClose       OrderKind = "CLOSE"
	KindLiquidation OrderKind = "LIQUIDATION"
)

// Order is a simulated resting limit order.
type Order struct {
	ID       uint64
	Side     Side
	Kind     OrderKind
	Price    float64
	Qty      float64
	PlacedAt int64
	// Level is the grid level for entries and the close index for closes.
	Level int
}

// Crosses reports whether a trade at price would fill the order as a maker.
// The boundary is inclusive: a trade exactly at the order price fills it.
func (o Order) Crosses(price float64) bool {
	if o.Side == SideBuy {
		return price <= o.Price
	}
	return price >= o.Price
}

// SameIntent compares everything but identity and placement time.
func (o Order) SameIntent(other Order) bool {
	return o.Side == other.Side &&
		o.Kind == other.Kind &&
		o.Price == other.Price &&
		o.Qty == other.Qty
}
