package backtest

import "dca-backtest/internal/model"

type actionKind int

const (
	placeOrder actionKind = iota
	cancelOrder
	closeAll
)

// pendingAction is a decision that the simulated market sees only from
// visibleAt = decided-at + latency on.
type pendingAction struct {
	visibleAt int64
	seq       uint64
	kind      actionKind
	order     model.Order
	index     int
}

// actionQueue is a min-heap on (visibleAt, seq). seq keeps actions decided
// at the same time in decision order.
type actionQueue []*pendingAction

func (q actionQueue) Len() int { return len(q) }

func (q actionQueue) Less(i, j int) bool {
	if q[i].visibleAt != q[j].visibleAt {
		return q[i].visibleAt < q[j].visibleAt
	}
	return q[i].seq < q[j].seq
}

func (q actionQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *actionQueue) Push(x any) {
	a := x.(*pendingAction)
	a.index = len(*q)
	*q = append(*q, a)
}

func (q *actionQueue) Pop() any {
	old := *q
	n := len(old)
	a := old[n-1]
	old[n-1] = nil
	a.index = -1
	*q = old[:n-1]
	return a
}

func (q actionQueue) peek() *pendingAction {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
