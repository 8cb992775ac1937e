package engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/saiputravu/lobex/internal/book"
	"github.com/saiputravu/lobex/internal/common"
)

// matchLimit implements the Submit(Limit) algorithm of spec §4.4. It walks
// the opposite side book while the incoming order's remaining quantity is
// positive and the opposite best price crosses the incoming limit price,
// sweeping one or more resting orders per level in FIFO order, and rests
// any unfilled remainder on the incoming side.
//
// Trade price is always the resting (maker) order's price: price
// improvement goes to the aggressor (spec §4.4 step 2, law "Price
// improvement to aggressor").
func matchLimit(ob *book.OrderBook, order *common.Order) []common.Execution {
	return sweep(ob, order, false)
}

// matchMarket implements the Submit(Market) algorithm: identical to
// matchLimit except there is no price bound, and any unfilled remainder
// once the opposite book is exhausted is dropped (implicit IOC) rather
// than rested (spec §4.4 "Market-order algorithm").
func matchMarket(ob *book.OrderBook, order *common.Order) []common.Execution {
	execs := sweep(ob, order, true)
	if order.RemainingQuantity > 0 {
		// Drop the remainder: it never rests and never fills. Leave
		// RemainingQuantity as the dropped amount so FilledQuantity stays
		// exactly the sum of executed quantities (spec §9 "Conservation of
		// quantity") and I4 (OriginalQuantity == RemainingQuantity +
		// FilledQuantity) holds; Status still records Cancelled per spec
		// §4.4's market-order algorithm.
		order.Status = common.Cancelled
	} else {
		order.Status = common.Filled
	}
	return execs
}

// sweep is the shared walk used by both limit and market matching. It
// mutates order.RemainingQuantity/FilledQuantity and the book in place,
// and returns the executions produced. unbounded=true selects the market
// order's "no price bound" behavior. The incoming order is never rested
// by sweep itself — that is the caller's job for limit orders only.
func sweep(ob *book.OrderBook, order *common.Order, unbounded bool) []common.Execution {
	opposite := ob.OppositeSideBook(order.Side)
	var executions []common.Execution

	for order.RemainingQuantity > 0 {
		level, ok := opposite.TopLevel()
		if !ok {
			break
		}

		if !opposite.Crosses(level.Price, order.Price, order.Side, unbounded) {
			break
		}

		for order.RemainingQuantity > 0 && !level.IsEmpty() {
			maker, matched := level.MatchAgainst(order.RemainingQuantity)

			order.RemainingQuantity -= matched
			order.FilledQuantity += matched

			executions = append(executions, common.Execution{
				ExecID:           uuid.NewString(),
				Symbol:           ob.Symbol,
				AggressorOrderID: order.OrderID,
				MakerOrderID:     maker.OrderID,
				AggressorSide:    order.Side,
				Price:            level.Price,
				Quantity:         matched,
				TransactionTime:  time.Now(),
			})

			if maker.Status == common.Filled {
				ob.RemoveIndexEntry(maker.OrderID)
			}
		}

		if level.IsEmpty() {
			// Popping the top level invalidates the cached best price;
			// remove it from the index and re-derive best before the next
			// iteration (spec §4.2).
			opposite.RemoveLevel(level)
		}
	}

	return executions
}
