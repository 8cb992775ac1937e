package marketdata

import (
	"sync"
	"time"
)

// windowLength is the rolling statistics horizon (spec §4.7).
const windowLength = 24 * time.Hour

// Stats is the rolling 24-hour window for one symbol (spec §4.7, C8). Its
// "reset on first post-24h execution" policy yields a piecewise-constant
// window rather than a true sliding window — an intentional simplification
// for the core (spec §4.7 note, §9 design note).
type Stats struct {
	Open24h        int64
	High24h        int64
	Low24h         int64
	LastPrice      int64
	Volume24h      uint64
	PriceChangePct float64
	WindowStart    time.Time
}

// StatsTracker holds per-symbol Stats behind its own mutex (spec §5: "The
// Candlestick Aggregator and Market Statistics are behind their own
// mutual-exclusion").
type StatsTracker struct {
	mu   sync.RWMutex
	byID map[string]*Stats
}

// NewStatsTracker constructs an empty tracker.
func NewStatsTracker() *StatsTracker {
	return &StatsTracker{byID: make(map[string]*Stats)}
}

// Ingest updates a symbol's rolling window with one execution (spec §4.7:
// "On each execution...").
func (t *StatsTracker) Ingest(symbol string, price int64, qty uint64, txTime time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.byID[symbol]
	if !ok || txTime.Sub(s.WindowStart) > windowLength {
		s = &Stats{
			Open24h:     price,
			High24h:     price,
			Low24h:      price,
			LastPrice:   price,
			Volume24h:   0,
			WindowStart: txTime,
		}
		t.byID[symbol] = s
	}

	if price > s.High24h {
		s.High24h = price
	}
	if price < s.Low24h {
		s.Low24h = price
	}
	s.LastPrice = price
	s.Volume24h += qty

	if s.Open24h != 0 {
		s.PriceChangePct = (float64(s.LastPrice) - float64(s.Open24h)) / float64(s.Open24h) * 100
	}
}

// Get returns a copy of symbol's current rolling statistics and whether
// any execution has been observed for it yet. Top-of-book prices are
// deliberately not stored here: the query handler pulls them from the
// order book snapshot at query time (spec §4.7 "Top-of-book prices are
// taken from the Order Book snapshot at query time, not stored
// per-execution").
func (t *StatsTracker) Get(symbol string) (Stats, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s, ok := t.byID[symbol]
	if !ok {
		return Stats{}, false
	}
	return *s, true
}
