package book

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/saiputravu/lobex/internal/common"
)

var (
	// ErrOrderNotFound is returned by Cancel for an unknown order id. Not
	// fatal: the sequencer/engine treat this as a non-fatal NotFound result
	// (spec §7).
	ErrOrderNotFound = errors.New("order not found")
	// ErrAlreadyTerminal is returned by Cancel for an order that has
	// already reached a terminal state.
	ErrAlreadyTerminal = errors.New("order already in a terminal state")
)

// InvariantViolation is raised (via panic) when an internal bookkeeping
// invariant is found to be broken. Per spec §4.4/§7 this indicates a bug,
// not a market condition, and is fatal: the engine's run loop recovers
// exactly one of these and aborts the process with a diagnostic.
type InvariantViolation struct {
	Component string
	Detail    string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", e.Component, e.Detail)
}

// indexEntry mirrors a resting order's location for O(1) cancel (spec §3,
// §4.3, I2). Grounded on the orderEntry/list.Element handle idiom in
// other_examples' container/list-based order book, combined with the
// teacher's btree-indexed side books.
type indexEntry struct {
	side    common.Side
	price   int64
	handle  *list.Element
	level   *PriceLevel
	sideBk  *SideBook
}

// OrderBook is the two-sided book for one symbol (spec §4.3, C4): a Buy
// side book, a Sell side book, and an order index giving O(1) lookup for
// cancel. The OrderBook is exclusively owned by the matching engine;
// external readers only ever see point-in-time snapshots (C9).
type OrderBook struct {
	Symbol string

	Bids *SideBook
	Asks *SideBook

	index map[string]*indexEntry
}

// NewOrderBook constructs an empty order book for symbol.
func NewOrderBook(symbol string) *OrderBook {
	return &OrderBook{
		Symbol: symbol,
		Bids:   newSideBook(common.Buy),
		Asks:   newSideBook(common.Sell),
		index:  make(map[string]*indexEntry),
	}
}

// sideBookFor returns the resting side book an order of the given side
// belongs on.
func (b *OrderBook) sideBookFor(side common.Side) *SideBook {
	if side == common.Buy {
		return b.Bids
	}
	return b.Asks
}

// OppositeSideBook returns the side book that an incoming order of side
// crosses against (Buy crosses Asks, Sell crosses Bids). Used by the
// matching engine (C5) to walk the opposing book.
func (b *OrderBook) OppositeSideBook(side common.Side) *SideBook {
	if side == common.Buy {
		return b.Asks
	}
	return b.Bids
}

// Insert rests order on the correct side at its limit price and registers
// it in the order index (spec §4.3 Insert). The caller (matching engine)
// must have already run any crossing logic; Insert never matches.
func (b *OrderBook) Insert(order *common.Order) {
	sb := b.sideBookFor(order.Side)
	level := sb.levelAtOrCreate(order.Price)
	handle := level.Append(order)
	sb.refreshBest()

	b.index[order.OrderID] = &indexEntry{
		side:   order.Side,
		price:  order.Price,
		handle: handle,
		level:  level,
		sideBk: sb,
	}
}

// Cancel removes a resting order by id in O(1) via the index (spec §4.3
// Cancel). Returns ErrOrderNotFound if the id is unknown (idempotent,
// non-fatal per spec §7), or ErrAlreadyTerminal defensively — in practice
// terminal orders are always removed from the index in the same step that
// terminates them, so this path mirrors I2 rather than ever firing.
func (b *OrderBook) Cancel(orderID string) (*common.Order, error) {
	entry, ok := b.index[orderID]
	if !ok {
		return nil, ErrOrderNotFound
	}
	if entry.handle.Value.(*common.Order).Status.IsTerminal() {
		return nil, ErrAlreadyTerminal
	}

	cancelled := entry.level.CancelAt(entry.handle)
	delete(b.index, orderID)

	if entry.level.IsEmpty() {
		entry.sideBk.removeLevel(entry.level)
	}
	entry.sideBk.refreshBest()

	return cancelled, nil
}

// RemoveIndexEntry drops the index entry for an order that the matching
// engine has just fully filled. The PriceLevel itself is popped by
// PriceLevel.MatchAgainst; this keeps the index consistent with it (I2).
func (b *OrderBook) RemoveIndexEntry(orderID string) {
	delete(b.index, orderID)
}

// RefreshSide re-derives a side's cached best price (spec §4.2: "After any
// mutation removes the top level, best_price is re-derived"). The matching
// engine's sweep does not call it: SideBook.RemoveLevel refreshes the best
// price itself when it pops an emptied top level.
func (b *OrderBook) RefreshSide(side common.Side) {
	b.sideBookFor(side).refreshBest()
}

// IndexSize returns the number of live index entries; used by invariant
// checks and tests.
func (b *OrderBook) IndexSize() int {
	return len(b.index)
}

// TopOfBook returns the best bid and best ask (spec §4.3). The returned
// bool is false where no resting liquidity exists on that side.
func (b *OrderBook) TopOfBook() (bestBid LevelView, hasBid bool, bestAsk LevelView, hasAsk bool) {
	if price, ok := b.Bids.BestPrice(); ok {
		level, _ := b.Bids.levelAt(price)
		bestBid = LevelView{Price: price, Volume: level.TotalVolume, OrderCount: level.OrderCount()}
		hasBid = true
	}
	if price, ok := b.Asks.BestPrice(); ok {
		level, _ := b.Asks.levelAt(price)
		bestAsk = LevelView{Price: price, Volume: level.TotalVolume, OrderCount: level.OrderCount()}
		hasAsk = true
	}
	return
}

// Snapshot is a pure, consistent point-in-time view of the book truncated
// to depth (spec §4.3, C9). Callers of Snapshot never observe a torn
// mid-match state because the matching engine runs commands to completion
// before yielding (spec §5).
type Snapshot struct {
	Symbol string
	Bids   []LevelView // descending price
	Asks   []LevelView // ascending price
}

// Snapshot builds a depth-D view of the book. depth<=0 means unbounded.
func (b *OrderBook) Snapshot(depth int) Snapshot {
	return Snapshot{
		Symbol: b.Symbol,
		Bids:   b.Bids.snapshotLevels(depth),
		Asks:   b.Asks.snapshotLevels(depth),
	}
}

// CheckInvariants verifies I1 (per-level volume), I2 (index completeness
// and consistency), I3 (no crossed book), I4 (per-order quantity
// bookkeeping), and I5 (best price agreement). It is intended for tests
// and debug assertions, not the hot path.
func (b *OrderBook) CheckInvariants() error {
	for _, sb := range []*SideBook{b.Bids, b.Asks} {
		var broken *PriceLevel
		sb.levels.Scan(func(level *PriceLevel) bool {
			if !level.checkInvariant() {
				broken = level
				return false
			}
			return true
		})
		if broken != nil {
			return &InvariantViolation{Component: "PriceLevel", Detail: fmt.Sprintf("total_volume mismatch at price %d", broken.Price)}
		}
	}

	for orderID, entry := range b.index {
		level, ok := entry.sideBk.levelAt(entry.price)
		if !ok {
			return &InvariantViolation{Component: "OrderIndex", Detail: fmt.Sprintf("order %s references missing level at price %d", orderID, entry.price)}
		}
		var indexed *common.Order
		for _, o := range level.Orders() {
			if o.OrderID == orderID {
				indexed = o
				break
			}
		}
		if indexed == nil {
			return &InvariantViolation{Component: "OrderIndex", Detail: fmt.Sprintf("order %s not present in its indexed level", orderID)}
		}
		if !indexed.CheckQuantityInvariant() {
			return &InvariantViolation{Component: "Order", Detail: fmt.Sprintf("order %s: original != remaining+filled", orderID)}
		}
	}

	for _, sb := range []*SideBook{b.Bids, b.Asks} {
		top, hasTop := sb.levels.Min()
		best, hasBest := sb.BestPrice()
		if hasTop != hasBest || (hasTop && top.Price != best) {
			return &InvariantViolation{Component: "SideBook", Detail: fmt.Sprintf("cached best price %d disagrees with top level", best)}
		}
	}

	if bestBid, hasBid := b.Bids.BestPrice(); hasBid {
		if bestAsk, hasAsk := b.Asks.BestPrice(); hasAsk {
			if bestBid >= bestAsk {
				return &InvariantViolation{Component: "OrderBook", Detail: fmt.Sprintf("crossed book: bid %d >= ask %d", bestBid, bestAsk)}
			}
		}
	}

	return nil
}
