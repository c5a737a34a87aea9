package backtest

import (
	"math"

	"dca-backtest/internal/model"
	"dca-backtest/internal/strategy"
)

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run replays ticks against the strategy variant. Configuration problems
// (unknown variant, invalid params) are reported before the tick stream is
// looked at; data problems before the first tick is simulated.
func (e *Engine) Run(ticks []model.Tick, params model.Params, variant strategy.Variant) (*Result, error) {
	policy, err := strategy.New(variant)
	if err != nil {
		return nil, err
	}
	return e.RunPolicy(ticks, params, policy)
}

// RunPolicy is Run with an already resolved policy.
func (e *Engine) RunPolicy(ticks []model.Tick, params model.Params, policy strategy.Policy) (*Result, error) {
	if policy == nil {
		return nil, model.ConfigError("strategy is nil")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := model.ValidateTicks(ticks); err != nil {
		return nil, err
	}
	acct, err := model.NewAccount(params.StartingBalance)
	if err != nil {
		return nil, model.ConfigError("%v", err)
	}

	r := &run{
		params:  params,
		policy:  policy,
		acct:    acct,
		book:    NewOrderBook(params.LatencyMS),
		ledger:  NewLedger(len(ticks)/64 + 16),
		working: make([]model.Order, 0, 32),
		actions: make([]strategy.Action, 0, 32),
	}
	res := r.replay(ticks)
	if r.err != nil {
		return nil, r.err
	}
	return res, nil
}

// run is the mutable state of a single replay. It is never shared.
type run struct {
	params model.Params
	policy strategy.Policy
	acct   *model.Account
	book   *OrderBook
	ledger *Ledger
	stats  Stats

	lastEntryPrice float64
	entryLevels    int
	anchor         float64
	closing        bool
	closeAllAt     int64

	// nextUpdate is the earliest timestamp of the next regular decision:
	// orders are revised at most once per latency window, and after fills.
	nextUpdate int64

	working []model.Order
	actions []strategy.Action

	err error
}

func (r *run) replay(ticks []model.Tick) *Result {
	r.stats.Ticks = len(ticks)
	r.stats.FirstTimestamp = ticks[0].Timestamp
	r.stats.LastTimestamp = ticks[len(ticks)-1].Timestamp
	r.nextUpdate = ticks[0].Timestamp

	for i, t := range ticks {
		r.stats.ProcessedTicks = i + 1

		if r.book.Advance(t.Timestamp) {
			r.liquidate(i, t)
			r.acct.Mark(t.Price)
			r.stop(StopCloseAll, t.Timestamp)
			break
		}
		filled := r.matchFills(i, t)
		if r.err != nil {
			break
		}
		if !r.closing && (filled || t.Timestamp >= r.nextUpdate) {
			r.decide(i, t)
		}
		r.acct.Mark(t.Price)
		r.stats.MaxAbsPosition = math.Max(r.stats.MaxAbsPosition, math.Abs(r.acct.PositionSize))

		if r.acct.Balance <= 0 && r.acct.PositionSize == 0 {
			r.stop(StopBankruptcy, t.Timestamp)
			break
		}
	}
	return r.result()
}

// matchFills executes every live order the tick trades through, oldest
// order first. Fills happen at the order price. Reports whether anything
// was executed.
func (r *run) matchFills(i int, t model.Tick) bool {
	filled := false
	live := r.book.Live()
	for j := 0; j < len(live); {
		o := live[j]
		if !o.Crosses(t.Price) {
			j++
			continue
		}
		r.book.removeAt(j)
		live = r.book.Live()

		qty := r.fillQty(o)
		if qty <= 0 {
			r.stats.RejectedFills++
			continue
		}
		r.execute(i, t, o, o.Price, qty)
		filled = true
	}
	return filled
}

// fillQty is the quantity the simulated exchange accepts for o: closes are
// reduce-only, entries may not open against the current position and are
// clamped so that abs(position) never exceeds max_position.
func (r *run) fillQty(o model.Order) float64 {
	pos := r.acct.PositionSize
	if o.Kind == model.KindClose {
		if pos == 0 || (pos > 0) == (o.Side == model.SideBuy) {
			return 0
		}
		return math.Min(o.Qty, math.Abs(pos))
	}

	if pos != 0 && (pos > 0) != (o.Side == model.SideBuy) {
		return 0
	}
	if pos == 0 && o.Side == model.SideSell && !r.params.ShortsAllowed() {
		return 0
	}
	capacity := r.params.MaxPosition - math.Abs(pos)
	if o.Qty <= capacity+1e-12 {
		return o.Qty
	}
	q := strategy.RoundDown(capacity, r.params.QtyStep)
	if q <= 0 || q < r.params.MinQty {
		return 0
	}
	return q
}

func (r *run) execute(i int, t model.Tick, o model.Order, price, qty float64) {
	fee := price * qty * r.params.MakerFee
	pnl := r.acct.ApplyFill(o.Side, price, qty, fee)

	switch o.Kind {
	case model.KindEntry:
		r.stats.Entries++
		r.entryLevels = max(r.entryLevels+1, o.Level+1)
		if r.lastEntryPrice == 0 ||
			(o.Side == model.SideBuy && price < r.lastEntryPrice) ||
			(o.Side == model.SideSell && price > r.lastEntryPrice) {
			r.lastEntryPrice = price
		}
	case model.KindClose:
		r.stats.Closes++
	case model.KindLiquidation:
		r.stats.Liquidations++
	}
	if r.acct.PositionSize == 0 {
		r.lastEntryPrice = 0
		r.entryLevels = 0
		// the next cycle starts where this one was closed
		r.anchor = price
	}

	if err := r.ledger.Append(Fill{
		TickIndex:          i,
		Timestamp:          t.Timestamp,
		OrderID:            o.ID,
		PlacedAt:           o.PlacedAt,
		Side:               o.Side,
		Kind:               o.Kind,
		Level:              o.Level,
		Price:              price,
		Qty:                qty,
		FeePaid:            fee,
		PNL:                pnl,
		BalanceAfter:       r.acct.Balance,
		PositionAfter:      r.acct.PositionSize,
		PositionPriceAfter: r.acct.PositionPrice,
		EquityAfter:        r.acct.EquityAt(t.Price),
	}); err != nil && r.err == nil {
		r.err = err
	}
}

// liquidate closes the whole position at the tick price once a forced
// close-all has reached the market.
func (r *run) liquidate(i int, t model.Tick) {
	pos := r.acct.PositionSize
	if pos == 0 {
		return
	}
	side := model.SideSell
	if pos < 0 {
		side = model.SideBuy
	}
	o := model.Order{Side: side, Kind: model.KindLiquidation, Price: t.Price, Qty: math.Abs(pos), PlacedAt: r.closeAllAt}
	r.execute(i, t, o, t.Price, o.Qty)
}

func (r *run) decide(i int, t model.Tick) {
	r.working = r.book.Working(r.working[:0])
	ctx := strategy.Context{
		Index:          i,
		Tick:           t,
		Params:         r.params,
		Account:        *r.acct,
		Working:        r.working,
		Anchor:         r.anchor,
		LastEntryPrice: r.lastEntryPrice,
		EntryLevels:    r.entryLevels,
	}
	r.actions = r.policy.Decide(ctx, r.actions[:0])
	r.nextUpdate = t.Timestamp + r.params.LatencyMS
	for _, a := range r.actions {
		switch a.Type {
		case strategy.ActionPlace:
			r.book.Submit(a.Order, t.Timestamp)
		case strategy.ActionCancel:
			r.book.Cancel(a.Order.ID, t.Timestamp)
		case strategy.ActionCloseAll:
			if !r.closing {
				r.book.CloseAll(t.Timestamp)
				r.closing = true
				r.closeAllAt = t.Timestamp
			}
		case strategy.ActionReanchor:
			r.anchor = t.Price
		}
	}
}

func (r *run) stop(reason string, ts int64) {
	r.stats.StopReason = reason
	r.stats.StoppedAt = ts
}

func (r *run) result() *Result {
	a := r.acct
	s := &r.stats
	s.OrdersPlaced = r.book.placed
	s.OrdersCancelled = r.book.cancelled
	s.FeesPaid = a.FeesPaid
	s.RealizedPNL = a.RealizedPnL
	s.FinalBalance = a.Balance
	s.FinalEquity = a.Equity
	s.FinalPosition = a.PositionSize
	s.FinalPositionPrice = a.PositionPrice
	s.Bankrupt = r.closing || s.StopReason == StopBankruptcy || a.ClosestBankruptcy <= 0

	return &Result{
		Fills: r.ledger.Fills(),
		Info: Info{
			Completed:         s.StopReason == StopNone,
			LowestEquityRatio: a.LowestEquityRatio,
			ClosestBankruptcy: a.ClosestBankruptcy,
		},
		Stats:   *s,
		Account: *a,
	}
}
