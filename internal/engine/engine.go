// Package engine implements the matching engine (spec §4.4, C5): it
// consumes a single ordered stream of commands per symbol, mutates that
// symbol's order book in place, and emits an ordered stream of executions
// and order-status events.
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/lobex/internal/book"
	"github.com/saiputravu/lobex/internal/common"
)

// inboundCapacity bounds each symbol's command channel. Reused from the
// teacher's internal/worker.go TASK_CHAN_SIZE idiom and matches spec §5's
// "baseline capacity 100" for inbound command channels.
const inboundCapacity = 100

// SymbolEngine is the single-threaded cooperative consumer for one
// symbol's order book (spec §5 "Scheduling model"). Its only suspension
// points are awaiting the next inbound command and handing executions and
// status events to the outbound streams; no suspension happens mid-match.
// Both outbound streams must be read promptly, or matching blocks.
type SymbolEngine struct {
	symbol string
	book   *book.OrderBook

	inbound chan Command

	executions chan common.Execution
	statuses   chan common.StatusEvent

	t *tomb.Tomb
}

func newSymbolEngine(symbol string) *SymbolEngine {
	return &SymbolEngine{
		symbol:     symbol,
		book:       book.NewOrderBook(symbol),
		inbound:    make(chan Command, inboundCapacity),
		executions: make(chan common.Execution, inboundCapacity),
		statuses:   make(chan common.StatusEvent, inboundCapacity),
	}
}

// Executions returns the outbound execution stream for this symbol.
// Consumers (market-data fan-out, subscribers) must read promptly: a
// blocked reader back-pressures matching by design (spec §5).
func (se *SymbolEngine) Executions() <-chan common.Execution { return se.executions }

// Utilization reports the fraction of the inbound command channel's
// capacity currently in use, for metrics sampling.
func (se *SymbolEngine) Utilization() float64 {
	return float64(len(se.inbound)) / float64(cap(se.inbound))
}

// Statuses returns the outbound order-status event stream.
func (se *SymbolEngine) Statuses() <-chan common.StatusEvent { return se.statuses }

// Snapshot returns a consistent, depth-truncated view of the book.
func (se *SymbolEngine) Snapshot(depth int) book.Snapshot { return se.book.Snapshot(depth) }

// TopOfBook returns the current best bid/ask.
func (se *SymbolEngine) TopOfBook() (bid book.LevelView, hasBid bool, ask book.LevelView, hasAsk bool) {
	return se.book.TopOfBook()
}

// enqueue is the sequencer's single point of entry into this symbol's
// command stream (spec §4.5: "The sequencer is the only writer"). It
// attempts a non-blocking send and reports ErrTooBusy on a full channel so
// the sequencer can surface TooBusy to the producer (spec §7).
func (se *SymbolEngine) enqueue(cmd Command) error {
	select {
	case se.inbound <- cmd:
		return nil
	default:
		return ErrTooBusy
	}
}

// run is the per-symbol matching loop. It processes exactly one command to
// completion (empties or rests) before dequeuing the next, guaranteeing
// observers never see a torn mid-match book state (spec §5).
func (se *SymbolEngine) run(t *tomb.Tomb) error {
	log.Info().Str("symbol", se.symbol).Msg("matching engine started")
	defer log.Info().Str("symbol", se.symbol).Msg("matching engine stopped")

	for {
		select {
		case <-t.Dying():
			return nil
		case cmd := <-se.inbound:
			se.process(cmd)
		}
	}
}

// process dispatches one command and recovers a single InvariantViolation
// panic, converting it into a fatal log + process abort (spec §4.4
// "Internal invariant violations... are fatal and must abort the engine
// with a diagnostic").
func (se *SymbolEngine) process(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			if iv, ok := r.(*book.InvariantViolation); ok {
				log.Fatal().
					Str("symbol", se.symbol).
					Str("component", iv.Component).
					Str("detail", iv.Detail).
					Msg("invariant violation: aborting matching engine")
			}
			panic(r)
		}
	}()

	switch cmd.Kind {
	case Submit:
		executions := se.handleSubmit(cmd.Order)
		se.fanOut(cmd.Order, executions)
		if cmd.Ack != nil {
			cmd.Ack <- CommandResult{Order: cmd.Order, Executions: executions}
		}
	case Cancel:
		cancelled, err := se.book.Cancel(cmd.OrderID)
		if err == nil {
			se.statuses <- common.StatusEvent{OrderID: cmd.OrderID, Symbol: se.symbol, Status: common.Cancelled}
		}
		if cmd.Ack != nil {
			cmd.Ack <- CommandResult{Order: cancelled, Err: err}
		}
	}
}

// handleSubmit runs the admit -> match -> rest/drop steps of spec §4.4 for
// one order and returns the executions produced.
func (se *SymbolEngine) handleSubmit(order *common.Order) []common.Execution {
	var executions []common.Execution

	switch order.OrderType {
	case common.LimitOrder:
		executions = matchLimit(se.book, order)
		if order.RemainingQuantity > 0 {
			if order.FilledQuantity > 0 {
				order.Status = common.PartiallyFilled
			} else {
				order.Status = common.New
			}
			se.book.Insert(order)
		} else {
			order.Status = common.Filled
		}
	case common.MarketOrder:
		executions = matchMarket(se.book, order)
	}

	// CheckInvariants is a debug/test assertion (internal/book.OrderBook.
	// CheckInvariants' own doc comment: "not the hot path"), so it only
	// runs when the process is logging at debug level, not on every
	// command in production.
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		if err := se.book.CheckInvariants(); err != nil {
			panic(err)
		}
	}

	return executions
}

// fanOut publishes this command's executions and the aggressor's final
// status, in emission order, to the outbound streams. Executions within
// one aggressor order are emitted in the order their maker orders appeared
// in the book (spec §5 "Ordering guarantees").
func (se *SymbolEngine) fanOut(order *common.Order, executions []common.Execution) {
	for _, exec := range executions {
		se.executions <- exec
	}
	se.statuses <- common.StatusEvent{OrderID: order.OrderID, Symbol: se.symbol, Status: order.Status}
}

// Engine composes one SymbolEngine per configured symbol (spec §2: "A
// single matching engine instance per symbol is the design unit;
// multi-symbol operation composes N independent engines").
type Engine struct {
	symbols map[string]*SymbolEngine
	t       *tomb.Tomb
}

// New constructs an Engine with one matching loop per symbol. Symbols not
// registered here are rejected at sequencer admission (spec §4.5).
func New(symbols ...string) *Engine {
	e := &Engine{symbols: make(map[string]*SymbolEngine, len(symbols))}
	for _, sym := range symbols {
		e.symbols[sym] = newSymbolEngine(sym)
	}
	return e
}

// Symbols lists the symbols this engine instance serves.
func (e *Engine) Symbols() []string {
	out := make([]string, 0, len(e.symbols))
	for s := range e.symbols {
		out = append(out, s)
	}
	return out
}

// HasSymbol reports whether symbol is registered with this engine.
func (e *Engine) HasSymbol(symbol string) bool {
	_, ok := e.symbols[symbol]
	return ok
}

// Symbol returns the per-symbol engine, or nil if unregistered.
func (e *Engine) Symbol(symbol string) *SymbolEngine {
	return e.symbols[symbol]
}

// Utilization reports a symbol's inbound channel fill ratio, or 0 if the
// symbol is unregistered.
func (e *Engine) Utilization(symbol string) float64 {
	se, ok := e.symbols[symbol]
	if !ok {
		return 0
	}
	return se.Utilization()
}

// Run starts every symbol's matching loop under a shared tomb, supervising
// their lifecycles together (spec §5: engines are independent across
// symbols and may run in parallel).
func (e *Engine) Run(ctx context.Context) error {
	t, ctx := tomb.WithContext(ctx)
	e.t = t
	for symbol, se := range e.symbols {
		se := se
		symbol := symbol
		t.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					log.Fatal().Str("symbol", symbol).Interface("panic", r).Msg("matching loop panicked")
				}
			}()
			return se.run(t)
		})
	}
	<-ctx.Done()
	t.Kill(nil)
	return t.Wait()
}

// Enqueue is the single admission point used by internal/sequencer to
// forward an already-validated command to the named symbol's matching
// loop. It is the only writer to that symbol's inbound channel.
func (e *Engine) Enqueue(symbol string, cmd Command) error {
	se, ok := e.symbols[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return se.enqueue(cmd)
}
