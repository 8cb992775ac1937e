package book

import (
	"github.com/tidwall/btree"

	"github.com/saiputravu/lobex/internal/common"
)

// priceLevels is the ordered price -> PriceLevel index for one side. Buy
// sides compare greatest-first so the btree's minimum is always the best
// bid; Sell sides compare least-first so the minimum is always the best
// ask. This lets SideBook's matching walk use Min()/MinMut() uniformly for
// either side, mirroring the teacher's internal/engine/orderbook.go.
type priceLevels = btree.BTreeG[*PriceLevel]

// SideBook is the ordered map price -> PriceLevel for one side of one
// symbol's book (spec §4.2, C3), with a cached best price re-derived
// whenever the front level empties.
type SideBook struct {
	side      common.Side
	levels    *priceLevels
	bestPrice int64
	hasBest   bool
}

func newSideBook(side common.Side) *SideBook {
	var less func(a, b *PriceLevel) bool
	if side == common.Buy {
		// Highest price first.
		less = func(a, b *PriceLevel) bool { return a.Price > b.Price }
	} else {
		// Lowest price first.
		less = func(a, b *PriceLevel) bool { return a.Price < b.Price }
	}
	return &SideBook{
		side:   side,
		levels: btree.NewBTreeG(less),
	}
}

// BestPrice returns the best resting price on this side and whether one
// exists (I5: agrees with the side's ordering — min for Sell, max for Buy).
func (s *SideBook) BestPrice() (int64, bool) {
	return s.bestPrice, s.hasBest
}

// Len returns the number of distinct price levels.
func (s *SideBook) Len() int {
	return s.levels.Len()
}

// levelAt fetches (without creating) the level at price, if any.
func (s *SideBook) levelAt(price int64) (*PriceLevel, bool) {
	return s.levels.GetMut(&PriceLevel{Price: price})
}

// levelAtOrCreate fetches the level at price, creating an empty one if
// absent. Caller is responsible for calling refreshBest afterwards if the
// level is later drained.
func (s *SideBook) levelAtOrCreate(price int64) *PriceLevel {
	level, ok := s.levels.GetMut(&PriceLevel{Price: price})
	if ok {
		return level
	}
	level = newPriceLevel(price)
	s.levels.Set(level)
	return level
}

// removeLevel drops an emptied level from the index.
func (s *SideBook) removeLevel(level *PriceLevel) {
	s.levels.Delete(level)
}

// refreshBest recomputes bestPrice from the ordered map in O(log n): the
// btree's Min is always the best level for either side given the
// comparator chosen in newSideBook.
func (s *SideBook) refreshBest() {
	top, ok := s.levels.Min()
	if !ok {
		s.hasBest = false
		s.bestPrice = 0
		return
	}
	s.hasBest = true
	s.bestPrice = top.Price
}

// topLevel returns the best (top-of-book) level, if any.
func (s *SideBook) topLevel() (*PriceLevel, bool) {
	return s.levels.MinMut()
}

// TopLevel, Crosses and RemoveLevel expose the sweep primitives to the
// matching engine (internal/engine). RemoveLevel also re-derives the cached
// best price, since the level it drops is the top one (spec §4.2).
func (s *SideBook) TopLevel() (*PriceLevel, bool) { return s.topLevel() }

func (s *SideBook) Crosses(levelPrice, referencePrice int64, incomingSide common.Side, unbounded bool) bool {
	return s.crosses(levelPrice, referencePrice, incomingSide, unbounded)
}

func (s *SideBook) RemoveLevel(level *PriceLevel) {
	s.removeLevel(level)
	s.refreshBest()
}

// crosses reports whether a level at the given price crosses against an
// incoming order walking this book with the given reference price bound.
// For a Buy order walking the Sell book, the predicate is "level.Price <=
// referencePrice"; for a Sell order walking the Buy book it is
// "level.Price >= referencePrice". Market orders pass unbounded=true and
// always cross while the book has liquidity.
func (s *SideBook) crosses(levelPrice, referencePrice int64, incomingSide common.Side, unbounded bool) bool {
	if unbounded {
		return true
	}
	if incomingSide == common.Buy {
		// Walking the sell book ascending: stop when level.Price > reference.
		return levelPrice <= referencePrice
	}
	// Walking the buy book descending: stop when level.Price < reference.
	return levelPrice >= referencePrice
}

// snapshotLevels returns up to depth levels in this side's priority order:
// descending for Buy, ascending for Sell (spec §4.3 snapshot contract).
func (s *SideBook) snapshotLevels(depth int) []LevelView {
	capHint := depth
	if capHint < 0 {
		capHint = 0
	}
	out := make([]LevelView, 0, capHint)
	s.levels.Scan(func(level *PriceLevel) bool {
		if depth > 0 && len(out) >= depth {
			return false
		}
		out = append(out, LevelView{
			Price:      level.Price,
			Volume:     level.TotalVolume,
			OrderCount: level.OrderCount(),
		})
		return true
	})
	return out
}

// LevelView is a read-only aggregated view of a price level for the
// snapshot/query surface (C9).
type LevelView struct {
	Price      int64
	Volume     uint64
	OrderCount int
}
