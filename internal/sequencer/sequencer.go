// Package sequencer implements the single-writer admission funnel in
// front of each per-symbol matching engine (spec §4.5, C6). It validates
// inbound commands, assigns order ids and monotonic entry times, and
// forwards admitted commands to the matching engine in strict admission
// order — this is what makes a symbol's matching engine single-threaded
// by construction (spec §4.5, §5).
package sequencer

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/saiputravu/lobex/internal/common"
	"github.com/saiputravu/lobex/internal/engine"
	"github.com/saiputravu/lobex/internal/metrics"
)

var (
	ErrZeroQuantity   = errors.New("quantity must be non-zero")
	ErrInvalidPrice   = errors.New("limit order price must be positive")
	ErrUnknownSide    = errors.New("unknown order side")
	ErrUnknownType    = errors.New("unknown order type")
	ErrUnknownSymbol  = errors.New("unknown symbol")
)

// SubmitRequest is the inbound command shape arriving from the external
// boundary (spec §6 "SubmitOrder"). Price is ignored for Market orders.
type SubmitRequest struct {
	Symbol    string
	Side      common.Side
	OrderType common.OrderType
	Price     int64
	Quantity  uint64
	Owner     string
	AssetType common.AssetType
}

// SubmitResponse is returned to the submitter once the matching engine has
// processed the order, whatever its fill outcome (spec §4.5); Status is the
// order's status after matching.
type SubmitResponse struct {
	OrderID string
	Status  common.OrderStatus
}

// symbolState holds the monotonically-increasing entry-time counter and
// serialization lock for one symbol. A per-symbol mutex around "assign
// entry_time, then enqueue" is what guarantees entry_time order equals
// the admission order the matching engine observes.
type symbolState struct {
	mu        sync.Mutex
	entryTime uint64
}

// Sequencer is the single writer into the wrapped Engine's per-symbol
// command channels.
type Sequencer struct {
	eng     *engine.Engine
	symbols map[string]*symbolState
}

// New builds a Sequencer admitting only the given symbols; any other
// symbol is rejected with ErrUnknownSymbol before it ever reaches the
// matching engine (spec §4.5 "unknown symbol").
func New(eng *engine.Engine, symbols ...string) *Sequencer {
	s := &Sequencer{
		eng:     eng,
		symbols: make(map[string]*symbolState, len(symbols)),
	}
	for _, sym := range symbols {
		s.symbols[sym] = &symbolState{}
	}
	return s
}

// Submit validates and admits a new order, assigns its order id and entry
// time, and forwards it to the matching engine, returning an acknowledgement
// once the engine has finished processing it. This is a deliberate choice,
// not an accidental widening of the sequencer's "admission funnel" role
// (spec §4.5): Submit blocks on the full match (including fan-out) rather
// than returning the instant the command is enqueued, because
// SubmitResponse.Status must report the order's final resting/terminal
// status rather than just "admitted". The admission step itself — id/
// entry-time assignment and the single-writer enqueue under the per-symbol
// mutex — still completes, and releases the next Submit/Cancel for this
// symbol, before this wait begins.
func (s *Sequencer) Submit(req SubmitRequest) (SubmitResponse, error) {
	if req.Quantity == 0 {
		metrics.OrdersRejected.WithLabelValues("zero_quantity").Inc()
		return SubmitResponse{}, ErrZeroQuantity
	}
	if req.OrderType == common.LimitOrder && req.Price <= 0 {
		metrics.OrdersRejected.WithLabelValues("invalid_price").Inc()
		return SubmitResponse{}, ErrInvalidPrice
	}
	if req.Side != common.Buy && req.Side != common.Sell {
		metrics.OrdersRejected.WithLabelValues("unknown_side").Inc()
		return SubmitResponse{}, ErrUnknownSide
	}
	if req.OrderType != common.LimitOrder && req.OrderType != common.MarketOrder {
		metrics.OrdersRejected.WithLabelValues("unknown_type").Inc()
		return SubmitResponse{}, ErrUnknownType
	}
	state, ok := s.symbols[req.Symbol]
	if !ok {
		metrics.OrdersRejected.WithLabelValues("unknown_symbol").Inc()
		return SubmitResponse{}, ErrUnknownSymbol
	}

	order := &common.Order{
		OrderID:           uuid.NewString(),
		Symbol:            req.Symbol,
		AssetType:         req.AssetType,
		Side:              req.Side,
		OrderType:         req.OrderType,
		Price:             req.Price,
		Owner:             req.Owner,
		OriginalQuantity:  req.Quantity,
		RemainingQuantity: req.Quantity,
		Status:            common.New,
	}

	ack := make(chan engine.CommandResult, 1)

	state.mu.Lock()
	state.entryTime++
	order.EntryTime = state.entryTime
	err := s.eng.Enqueue(req.Symbol, engine.Command{Kind: engine.Submit, Order: order, Ack: ack})
	state.mu.Unlock()

	if err != nil {
		metrics.OrdersRejected.WithLabelValues("too_busy").Inc()
		log.Error().Err(err).Str("symbol", req.Symbol).Msg("admission rejected: engine too busy")
		return SubmitResponse{}, err
	}

	metrics.OrdersAdmitted.WithLabelValues(req.Symbol, req.Side.String()).Inc()

	result := <-ack
	return SubmitResponse{OrderID: order.OrderID, Status: result.Order.Status}, nil
}

// CancelResponse is returned for a Cancel command.
type CancelResponse struct {
	Found bool
}

// Cancel validates the symbol and forwards a cancel command to the
// matching engine, waiting for the outcome. An unknown order id is
// reported to the caller as "not found" and is not an error condition
// (spec §4.4 "Cancel algorithm", §7 "Not-found").
func (s *Sequencer) Cancel(symbol, orderID string) (CancelResponse, error) {
	state, ok := s.symbols[symbol]
	if !ok {
		return CancelResponse{}, ErrUnknownSymbol
	}

	ack := make(chan engine.CommandResult, 1)

	state.mu.Lock()
	err := s.eng.Enqueue(symbol, engine.Command{Kind: engine.Cancel, Symbol: symbol, OrderID: orderID, Ack: ack})
	state.mu.Unlock()

	if err != nil {
		return CancelResponse{}, err
	}

	result := <-ack
	if result.Err != nil {
		return CancelResponse{Found: false}, nil
	}
	return CancelResponse{Found: true}, nil
}
