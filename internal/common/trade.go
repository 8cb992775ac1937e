package common

import (
	"fmt"
	"time"
)

// Execution is an immutable trade print (spec §3). It is handed off by
// copy to every downstream consumer (candles, stats, subscribers) — no
// consumer shares mutable state with the order book.
type Execution struct {
	ExecID           string
	Symbol           string
	AggressorOrderID string
	MakerOrderID     string
	AggressorSide    Side
	Price            int64
	Quantity         uint64
	TransactionTime  time.Time

	// Fee is a decimal monetary amount computed post-trade by a downstream
	// consumer (internal/marketdata), never on the matching hot path.
	// Zero-valued for executions that have not yet passed through fee
	// computation.
	Fee string
}

func (e Execution) String() string {
	return fmt.Sprintf(
		"Execution{id=%s symbol=%s aggressor=%s maker=%s side=%v price=%d qty=%d at=%v}",
		e.ExecID, e.Symbol, e.AggressorOrderID, e.MakerOrderID, e.AggressorSide,
		e.Price, e.Quantity, e.TransactionTime.Format(time.RFC3339Nano),
	)
}

// StatusEvent reports an order's status after the matching engine processed
// a command for it: New (rested, nothing filled), PartiallyFilled, Filled or
// Cancelled. There is no Accepted or Rejected status: admission rejections
// are returned as errors by the sequencer and produce no StatusEvent.
type StatusEvent struct {
	OrderID string
	Symbol  string
	Status  OrderStatus
	Reason  string // not set by the matching engine
}

func (s StatusEvent) String() string {
	return fmt.Sprintf("StatusEvent{order=%s symbol=%s status=%v reason=%q}", s.OrderID, s.Symbol, s.Status, s.Reason)
}
