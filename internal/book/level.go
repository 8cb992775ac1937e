package book

import (
	"container/list"

	"github.com/saiputravu/lobex/internal/common"
)

// PriceLevel is a FIFO queue of resting orders at one price (spec §4.1,
// C2). It is backed by container/list so that a cancel anywhere in the
// level is O(1) via a stable *list.Element handle, unlike the teacher's
// original slice-backed []*Order (slice indices shift on a middle
// removal — spec §9 explicitly rules this representation out).
type PriceLevel struct {
	Price       int64
	orders      *list.List // of *common.Order
	TotalVolume uint64
}

func newPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		orders: list.New(),
	}
}

// Append pushes an order to the tail of the level and returns a stable
// handle usable with CancelAt. Increases TotalVolume by the order's
// remaining quantity.
func (l *PriceLevel) Append(order *common.Order) *list.Element {
	l.TotalVolume += order.RemainingQuantity
	return l.orders.PushBack(order)
}

// MatchAgainst consumes up to qty units from the head of the level,
// applying the fill to the resting (maker) order. Returns the maker order
// and the quantity actually matched. If the maker's remaining quantity
// reaches zero it is popped from the level and marked Filled; otherwise it
// is left in place (still at the head) and marked PartiallyFilled.
//
// Caller contract: only call when !IsEmpty().
func (l *PriceLevel) MatchAgainst(qty uint64) (maker *common.Order, matched uint64) {
	front := l.orders.Front()
	maker = front.Value.(*common.Order)

	matched = qty
	if maker.RemainingQuantity < matched {
		matched = maker.RemainingQuantity
	}

	maker.RemainingQuantity -= matched
	maker.FilledQuantity += matched
	l.TotalVolume -= matched

	if maker.RemainingQuantity == 0 {
		maker.Status = common.Filled
		l.orders.Remove(front)
	} else {
		maker.Status = common.PartiallyFilled
	}

	return maker, matched
}

// CancelAt removes the order referenced by handle from the level,
// decrementing TotalVolume by its remaining quantity, and returns it with
// status set to Cancelled.
func (l *PriceLevel) CancelAt(handle *list.Element) *common.Order {
	order := handle.Value.(*common.Order)
	l.TotalVolume -= order.RemainingQuantity
	l.orders.Remove(handle)
	order.Status = common.Cancelled
	return order
}

// IsEmpty reports whether the level has no resting orders.
func (l *PriceLevel) IsEmpty() bool {
	return l.orders.Len() == 0
}

// Front returns the oldest resting order at this level, or nil if empty.
func (l *PriceLevel) Front() *common.Order {
	front := l.orders.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*common.Order)
}

// OrderCount returns the number of resting orders at this level.
func (l *PriceLevel) OrderCount() int {
	return l.orders.Len()
}

// Orders returns the resting orders in FIFO order. Used by snapshot/test
// code; callers must not mutate the returned orders' book-owned fields.
func (l *PriceLevel) Orders() []*common.Order {
	out := make([]*common.Order, 0, l.orders.Len())
	for e := l.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*common.Order))
	}
	return out
}

// checkInvariant verifies I1: TotalVolume == sum of resting remaining
// quantities. Used by tests and by the engine's post-command invariant
// sweep, which runs only when the process logs at debug level.
func (l *PriceLevel) checkInvariant() bool {
	var sum uint64
	for e := l.orders.Front(); e != nil; e = e.Next() {
		sum += e.Value.(*common.Order).RemainingQuantity
	}
	return sum == l.TotalVolume
}
