package marketdata

import "sync"

// CandleAggregator maintains, per (symbol, interval), a current open
// candle and a bounded circular buffer of completed candles (spec §4.6,
// C7). Updates arrive from the post-match fan-out goroutine; reads come
// from query handlers. The critical section is O(len(AllIntervals)) = 8
// per execution (spec §5).
type CandleAggregator struct {
	mu     sync.RWMutex
	bySym  map[string]map[Interval]*series
}

// NewCandleAggregator constructs an empty aggregator.
func NewCandleAggregator() *CandleAggregator {
	return &CandleAggregator{bySym: make(map[string]map[Interval]*series)}
}

// Ingest folds one execution into every interval's series for its symbol.
func (a *CandleAggregator) Ingest(symbol string, price int64, qty uint64, txTimeUnix int64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	bySymbol, ok := a.bySym[symbol]
	if !ok {
		bySymbol = make(map[Interval]*series, len(AllIntervals))
		for _, iv := range AllIntervals {
			bySymbol[iv] = newSeries(iv)
		}
		a.bySym[symbol] = bySymbol
	}

	for _, iv := range AllIntervals {
		bySymbol[iv].ingest(iv, price, qty, txTimeUnix)
	}
}

// GetCandles returns up to limit completed candles for (symbol, interval),
// oldest first, optionally with the current provisional candle appended.
func (a *CandleAggregator) GetCandles(symbol string, interval Interval, limit int, includeCurrent bool) []Candle {
	a.mu.RLock()
	defer a.mu.RUnlock()

	bySymbol, ok := a.bySym[symbol]
	if !ok {
		return nil
	}
	s, ok := bySymbol[interval]
	if !ok {
		return nil
	}
	return s.snapshot(limit, includeCurrent)
}
