package backtest

import (
	"container/heap"

	"dca-backtest/internal/model"
)

// OrderBook holds the simulated orders of one run: those live on the market
// and the placements/cancellations still travelling through latency.
type OrderBook struct {
	latency int64
	nextID  uint64
	seq     uint64

	queue actionQueue
	live  []model.Order

	pendingPlace  map[uint64]*pendingAction
	pendingCancel map[uint64]struct{}
	closeAll      bool

	free []*pendingAction

	placed    int
	cancelled int
}

func NewOrderBook(latencyMS int64) *OrderBook {
	return &OrderBook{
		latency:       latencyMS,
		live:          make([]model.Order, 0, 16),
		pendingPlace:  make(map[uint64]*pendingAction),
		pendingCancel: make(map[uint64]struct{}),
	}
}

func (b *OrderBook) alloc() *pendingAction {
	if n := len(b.free); n > 0 {
		a := b.free[n-1]
		b.free = b.free[:n-1]
		return a
	}
	return &pendingAction{}
}

func (b *OrderBook) release(a *pendingAction) {
	*a = pendingAction{}
	b.free = append(b.free, a)
}

func (b *OrderBook) push(kind actionKind, o model.Order, now int64) *pendingAction {
	a := b.alloc()
	a.visibleAt = now + b.latency
	a.seq = b.seq
	a.kind = kind
	a.order = o
	b.seq++
	heap.Push(&b.queue, a)
	return a
}

// Submit queues a placement decided at now and returns the new order id.
func (b *OrderBook) Submit(o model.Order, now int64) uint64 {
	b.nextID++
	o.ID = b.nextID
	o.PlacedAt = now
	b.pendingPlace[o.ID] = b.push(placeOrder, o, now)
	b.placed++
	return o.ID
}

// Cancel withdraws an order. A placement that has not reached the market
// yet is dropped locally at once; a live order gets a cancel that arrives
// after the latency. Returns false for unknown or already-cancelling ids.
func (b *OrderBook) Cancel(id uint64, now int64) bool {
	if a, ok := b.pendingPlace[id]; ok {
		heap.Remove(&b.queue, a.index)
		delete(b.pendingPlace, id)
		b.release(a)
		b.cancelled++
		return true
	}
	if _, ok := b.pendingCancel[id]; ok {
		return false
	}
	if b.liveIndex(id) < 0 {
		return false
	}
	b.pendingCancel[id] = struct{}{}
	b.push(cancelOrder, model.Order{ID: id}, now)
	return true
}

// CloseAll queues a forced close of the whole position.
func (b *OrderBook) CloseAll(now int64) {
	b.push(closeAll, model.Order{Kind: model.KindLiquidation}, now)
}

// Advance applies every queued action visible at ts, in (visibleAt, seq)
// order. It reports whether a close-all reached the market.
func (b *OrderBook) Advance(ts int64) bool {
	for {
		a := b.queue.peek()
		if a == nil || a.visibleAt > ts {
			return b.closeAll
		}
		heap.Pop(&b.queue)
		switch a.kind {
		case placeOrder:
			delete(b.pendingPlace, a.order.ID)
			b.live = append(b.live, a.order)
		case cancelOrder:
			delete(b.pendingCancel, a.order.ID)
			if i := b.liveIndex(a.order.ID); i >= 0 {
				b.removeAt(i)
				b.cancelled++
			}
		case closeAll:
			b.closeAll = true
		}
		b.release(a)
	}
}

// Live returns the orders resting on the simulated market, oldest first.
// The slice is only valid until the book is next modified.
func (b *OrderBook) Live() []model.Order {
	return b.live
}

// Working appends to dst what a strategy should consider open: live orders
// without a pending cancel, then placements still in flight.
func (b *OrderBook) Working(dst []model.Order) []model.Order {
	for _, o := range b.live {
		if _, cancelling := b.pendingCancel[o.ID]; !cancelling {
			dst = append(dst, o)
		}
	}
	start := len(dst)
	for _, a := range b.queue {
		if a.kind == placeOrder {
			dst = append(dst, a.order)
		}
	}
	// heap layout is deterministic but not chronological; restore decision order
	inFlight := dst[start:]
	for i := 1; i < len(inFlight); i++ {
		for j := i; j > 0 && inFlight[j].ID < inFlight[j-1].ID; j-- {
			inFlight[j], inFlight[j-1] = inFlight[j-1], inFlight[j]
		}
	}
	return dst
}

// Fill removes a live order after it traded.
func (b *OrderBook) Fill(id uint64) {
	if i := b.liveIndex(id); i >= 0 {
		b.removeAt(i)
	}
}

// Pending is the number of queued actions.
func (b *OrderBook) Pending() int {
	return len(b.queue)
}

func (b *OrderBook) liveIndex(id uint64) int {
	for i := range b.live {
		if b.live[i].ID == id {
			return i
		}
	}
	return -1
}

func (b *OrderBook) removeAt(i int) {
	copy(b.live[i:], b.live[i+1:])
	b.live = b.live[:len(b.live)-1]
}
