package net

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/lobex/internal/book"
	"github.com/saiputravu/lobex/internal/common"
	"github.com/saiputravu/lobex/internal/marketdata"
)

func TestToOrderBookView(t *testing.T) {
	snap := book.Snapshot{
		Symbol: "AAPL",
		Bids:   []book.LevelView{{Price: 10000, Volume: 50, OrderCount: 2}},
		Asks:   []book.LevelView{{Price: 10100, Volume: 30, OrderCount: 1}},
	}

	view := toOrderBookView(snap)
	require.NotNil(t, view)
	assert.Equal(t, "AAPL", view.Symbol)
	require.Len(t, view.Bids, 1)
	assert.Equal(t, int64(10000), view.Bids[0].Price)
	assert.Equal(t, uint64(50), view.Bids[0].Volume)
	assert.Equal(t, 2, view.Bids[0].OrderCount)
}

func TestToExecutionViews(t *testing.T) {
	execs := []common.Execution{{
		ExecID:           "e1",
		AggressorOrderID: "a1",
		MakerOrderID:     "m1",
		AggressorSide:    common.Sell,
		Price:            9900,
		Quantity:         10,
		TransactionTime:  time.Unix(500, 0),
		Fee:              "1.00000000",
	}}

	views := toExecutionViews(execs)
	require.Len(t, views, 1)
	assert.Equal(t, "e1", views[0].ExecID)
	assert.Equal(t, int(common.Sell), views[0].Side)
	assert.Equal(t, int64(500), views[0].TransactionUnix)
	assert.Equal(t, "1.00000000", views[0].Fee)
}

func TestToCandleViews(t *testing.T) {
	candles := []marketdata.Candle{{OpenTime: 0, CloseTime: 60, Open: 100, High: 110, Low: 90, Close: 105, Volume: 20, TradeCount: 3}}
	views := toCandleViews(candles)
	require.Len(t, views, 1)
	assert.Equal(t, int64(105), views[0].Close)
	assert.Equal(t, uint64(3), views[0].TradeCount)
}

func TestToExecutionViews_Empty(t *testing.T) {
	assert.Empty(t, toExecutionViews(nil))
}
