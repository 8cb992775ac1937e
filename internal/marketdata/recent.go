package marketdata

import (
	"sync"

	"github.com/saiputravu/lobex/internal/common"
)

// recentCapacity is the baseline ring size for recent executions (spec
// §4.8: "N=1,000 baseline").
const recentCapacity = 1000

// execRing is a mutex-guarded bounded ring of the most recent executions
// for one symbol, O(1) amortized per operation (spec §5).
type execRing struct {
	buf   []common.Execution
	head  int
	count int
}

func newExecRing() *execRing {
	return &execRing{buf: make([]common.Execution, recentCapacity)}
}

func (r *execRing) push(e common.Execution) {
	if r.count < len(r.buf) {
		r.buf[(r.head+r.count)%len(r.buf)] = e
		r.count++
		return
	}
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
}

func (r *execRing) last(n int) []common.Execution {
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]common.Execution, n)
	start := (r.head + r.count - n + len(r.buf)) % len(r.buf)
	for i := 0; i < n; i++ {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}
	return out
}

// RecentExecutions tracks the last N executions per symbol (spec §4.8,
// C9).
type RecentExecutions struct {
	mu    sync.RWMutex
	byID  map[string]*execRing
}

// NewRecentExecutions constructs an empty tracker.
func NewRecentExecutions() *RecentExecutions {
	return &RecentExecutions{byID: make(map[string]*execRing)}
}

// Push records one execution for its symbol.
func (r *RecentExecutions) Push(e common.Execution) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ring, ok := r.byID[e.Symbol]
	if !ok {
		ring = newExecRing()
		r.byID[e.Symbol] = ring
	}
	ring.push(e)
}

// Last returns up to limit most recent executions for symbol, oldest
// first.
func (r *RecentExecutions) Last(symbol string, limit int) []common.Execution {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ring, ok := r.byID[symbol]
	if !ok {
		return nil
	}
	return ring.last(limit)
}
