package engine

import "github.com/saiputravu/lobex/internal/common"

// CommandKind distinguishes the two inbound command shapes the sequencer
// forwards to a per-symbol matching loop (spec §4.4).
type CommandKind int

const (
	Submit CommandKind = iota
	Cancel
)

// Command is the unit of work flowing through the sequencer -> engine
// pipeline (spec §2 data/control flow). The sequencer is the only writer
// to a symbol's command channel, which is what makes each symbol's engine
// single-threaded by construction (spec §4.5).
type Command struct {
	Kind CommandKind

	// Populated for Submit.
	Order *common.Order

	// Populated for Cancel.
	OrderID string
	Symbol  string

	// Ack, if non-nil, receives the outcome of processing this command.
	// The sequencer uses this to produce its admission acknowledgement
	// (spec §4.5) without itself blocking matching.
	Ack chan CommandResult
}

// CommandResult reports what happened to a processed command.
type CommandResult struct {
	// For Submit: the (possibly mutated) order after matching, and any
	// executions produced.
	Order      *common.Order
	Executions []common.Execution

	// For Cancel: the cancelled order, or Err = ErrOrderNotFound.
	Err error
}
