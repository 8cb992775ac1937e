package engine

import "errors"

var (
	// ErrTooBusy is returned when a symbol's inbound command channel is
	// saturated (spec §7 "Capacity" row). The sequencer surfaces this to
	// the producer, who may retry with backoff.
	ErrTooBusy = errors.New("matching engine too busy")

	// ErrUnknownSymbol is returned when a command targets a symbol this
	// engine instance does not serve.
	ErrUnknownSymbol = errors.New("unknown symbol")
)
