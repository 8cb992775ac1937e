package common

import "fmt"

// Order is both the inbound command and the resting book entity (spec §3).
// Prices and quantities are integer-only: prices in ticks, quantities in
// the smallest tradable unit. There is no floating-point arithmetic on the
// hot path (spec §4.4).
type Order struct {
	OrderID   string    // server-assigned on acceptance
	Symbol    string    // opaque partitioning key
	AssetType AssetType // instrument class metadata, not used for matching
	Side      Side
	OrderType OrderType
	Price     int64 // ticks; ignored by Market orders
	Owner     string

	OriginalQuantity  uint64
	RemainingQuantity uint64
	FilledQuantity    uint64

	Status OrderStatus

	// EntryTime is the sequencer-assigned monotonic admission counter used
	// as the tie-break within a price level (spec §3, §9). It is NOT wall
	// clock time: wall clock risks ties and regressions across a single
	// symbol's command stream.
	EntryTime uint64
}

// CheckQuantityInvariant verifies I4: OriginalQuantity == RemainingQuantity
// + FilledQuantity.
func (o *Order) CheckQuantityInvariant() bool {
	return o.OriginalQuantity == o.RemainingQuantity+o.FilledQuantity
}

func (o Order) String() string {
	return fmt.Sprintf(
		"Order{id=%s symbol=%s side=%v type=%v price=%d remaining=%d filled=%d status=%v entry=%d owner=%s}",
		o.OrderID, o.Symbol, o.Side, o.OrderType, o.Price,
		o.RemainingQuantity, o.FilledQuantity, o.Status, o.EntryTime, o.Owner,
	)
}
