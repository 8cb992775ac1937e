package sequencer

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/lobex/internal/common"
	"github.com/saiputravu/lobex/internal/engine"
)

// newRunningEngine starts an Engine for the given symbols and registers a
// t.Cleanup that stops it. Submit/Cancel both block on the matching loop
// acknowledging the command, so the engine must actually be running.
func newRunningEngine(t *testing.T, symbols ...string) *engine.Engine {
	t.Helper()
	eng := engine.New(symbols...)
	ctx, cancel := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = eng.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return eng
}

func TestSequencer_SubmitRejectsZeroQuantity(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	_, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.LimitOrder, Price: 10000, Quantity: 0})
	assert.ErrorIs(t, err, ErrZeroQuantity)
}

func TestSequencer_SubmitRejectsInvalidLimitPrice(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	_, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.LimitOrder, Price: 0, Quantity: 10})
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestSequencer_SubmitRejectsUnknownSide(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	_, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Side(99), OrderType: common.LimitOrder, Price: 10000, Quantity: 10})
	assert.ErrorIs(t, err, ErrUnknownSide)
}

func TestSequencer_SubmitRejectsUnknownType(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	_, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.OrderType(99), Price: 10000, Quantity: 10})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestSequencer_SubmitRejectsUnknownSymbol(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	_, err := seq.Submit(SubmitRequest{Symbol: "MSFT", Side: common.Buy, OrderType: common.LimitOrder, Price: 10000, Quantity: 10})
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSequencer_SubmitAdmitsAndReturnsOrderID(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	resp, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.LimitOrder, Price: 10000, Quantity: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.OrderID)
	assert.Equal(t, common.New, resp.Status)
}

func TestSequencer_SubmitAssignsMonotonicEntryTimes(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	state := seq.symbols["AAPL"]
	for i := 0; i < 5; i++ {
		_, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.LimitOrder, Price: 10000, Quantity: 1})
		require.NoError(t, err)
	}
	assert.Equal(t, uint64(5), state.entryTime)
}

func TestSequencer_CancelUnknownOrderReportsNotFound(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	resp, err := seq.Cancel("AAPL", "does-not-exist")
	require.NoError(t, err)
	assert.False(t, resp.Found)
}

func TestSequencer_CancelKnownOrder(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	submitResp, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.LimitOrder, Price: 10000, Quantity: 10})
	require.NoError(t, err)

	cancelResp, err := seq.Cancel("AAPL", submitResp.OrderID)
	require.NoError(t, err)
	assert.True(t, cancelResp.Found)
}

func TestSequencer_CancelUnknownSymbol(t *testing.T) {
	eng := newRunningEngine(t, "AAPL")
	seq := New(eng, "AAPL")

	_, err := seq.Cancel("MSFT", "whatever")
	assert.ErrorIs(t, err, ErrUnknownSymbol)
}

func TestSequencer_SubmitTooBusyWhenChannelSaturated(t *testing.T) {
	eng := engine.New("AAPL")
	seq := New(eng, "AAPL")
	// Deliberately never run the engine: fill its inbound channel to
	// capacity directly, so the next admission must see TooBusy without
	// blocking (Submit's own enqueue is non-blocking; it only blocks on
	// the ack after a successful enqueue).
	for i := 0; i < 100; i++ {
		err := eng.Enqueue("AAPL", engine.Command{Kind: engine.Cancel, OrderID: "filler"})
		require.NoError(t, err)
	}

	_, err := seq.Submit(SubmitRequest{Symbol: "AAPL", Side: common.Buy, OrderType: common.LimitOrder, Price: 10000, Quantity: 1})
	assert.ErrorIs(t, err, engine.ErrTooBusy)
}
