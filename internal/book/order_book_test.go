package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/lobex/internal/common"
)

func TestSideBook_BestPriceOrdering(t *testing.T) {
	bids := newSideBook(common.Buy)
	bids.levelAtOrCreate(9900)
	bids.levelAtOrCreate(10100)
	bids.levelAtOrCreate(10000)
	bids.refreshBest()

	price, ok := bids.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(10100), price)

	asks := newSideBook(common.Sell)
	asks.levelAtOrCreate(10300)
	asks.levelAtOrCreate(10050)
	asks.levelAtOrCreate(10200)
	asks.refreshBest()

	price, ok = asks.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(10050), price)
}

func TestSideBook_RefreshBestAfterRemoveLevel(t *testing.T) {
	sb := newSideBook(common.Buy)
	top := sb.levelAtOrCreate(10100)
	sb.levelAtOrCreate(9900)
	sb.refreshBest()

	price, ok := sb.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(10100), price)

	sb.removeLevel(top)
	sb.refreshBest()

	price, ok = sb.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(9900), price)
}

func TestSideBook_BestPriceEmpty(t *testing.T) {
	sb := newSideBook(common.Sell)
	_, ok := sb.BestPrice()
	assert.False(t, ok)
}

func TestOrderBook_InsertAndTopOfBook(t *testing.T) {
	b := NewOrderBook("AAPL")

	b.Insert(newTestOrder("bid-1", common.Buy, 10000, 100))
	b.Insert(newTestOrder("bid-2", common.Buy, 10100, 50))
	b.Insert(newTestOrder("ask-1", common.Sell, 10200, 75))

	bestBid, hasBid, bestAsk, hasAsk := b.TopOfBook()
	require.True(t, hasBid)
	require.True(t, hasAsk)
	assert.Equal(t, int64(10100), bestBid.Price)
	assert.Equal(t, uint64(50), bestBid.Volume)
	assert.Equal(t, int64(10200), bestAsk.Price)
	assert.Equal(t, uint64(75), bestAsk.Volume)
	assert.Equal(t, 3, b.IndexSize())
}

func TestOrderBook_CancelRemovesIndexAndEmptiesLevel(t *testing.T) {
	b := NewOrderBook("AAPL")
	b.Insert(newTestOrder("bid-1", common.Buy, 10000, 100))

	cancelled, err := b.Cancel("bid-1")
	require.NoError(t, err)
	require.NotNil(t, cancelled)
	assert.Equal(t, "bid-1", cancelled.OrderID)
	assert.Equal(t, common.Cancelled, cancelled.Status)
	assert.Equal(t, 0, b.IndexSize())

	_, hasBid := b.Bids.BestPrice()
	assert.False(t, hasBid)
}

func TestOrderBook_CancelUnknownOrder(t *testing.T) {
	b := NewOrderBook("AAPL")
	_, err := b.Cancel("missing")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderBook_CancelLeavesLevelWithRemainingOrders(t *testing.T) {
	b := NewOrderBook("AAPL")
	b.Insert(newTestOrder("bid-1", common.Buy, 10000, 100))
	b.Insert(newTestOrder("bid-2", common.Buy, 10000, 50))

	_, err := b.Cancel("bid-1")
	require.NoError(t, err)

	price, ok := b.Bids.BestPrice()
	require.True(t, ok)
	assert.Equal(t, int64(10000), price)
	assert.Equal(t, 1, b.IndexSize())
}

func TestOrderBook_SnapshotOrdering(t *testing.T) {
	b := NewOrderBook("AAPL")
	b.Insert(newTestOrder("bid-1", common.Buy, 9900, 10))
	b.Insert(newTestOrder("bid-2", common.Buy, 10100, 10))
	b.Insert(newTestOrder("ask-1", common.Sell, 10300, 10))
	b.Insert(newTestOrder("ask-2", common.Sell, 10200, 10))

	snap := b.Snapshot(0)
	require.Len(t, snap.Bids, 2)
	require.Len(t, snap.Asks, 2)
	assert.Equal(t, int64(10100), snap.Bids[0].Price)
	assert.Equal(t, int64(9900), snap.Bids[1].Price)
	assert.Equal(t, int64(10200), snap.Asks[0].Price)
	assert.Equal(t, int64(10300), snap.Asks[1].Price)
}

func TestOrderBook_SnapshotDepthLimit(t *testing.T) {
	b := NewOrderBook("AAPL")
	b.Insert(newTestOrder("bid-1", common.Buy, 9900, 10))
	b.Insert(newTestOrder("bid-2", common.Buy, 10100, 10))
	b.Insert(newTestOrder("bid-3", common.Buy, 10000, 10))

	snap := b.Snapshot(1)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, int64(10100), snap.Bids[0].Price)
}

func TestOrderBook_CheckInvariantsClean(t *testing.T) {
	b := NewOrderBook("AAPL")
	b.Insert(newTestOrder("bid-1", common.Buy, 9900, 10))
	b.Insert(newTestOrder("ask-1", common.Sell, 10100, 10))
	assert.NoError(t, b.CheckInvariants())
}

func TestOrderBook_CheckInvariantsDetectsQuantityMismatch(t *testing.T) {
	b := NewOrderBook("AAPL")
	order := newTestOrder("bid-1", common.Buy, 10000, 100)
	b.Insert(order)

	// Corrupt the order directly to simulate a bookkeeping bug (I4):
	// OriginalQuantity no longer equals RemainingQuantity + FilledQuantity.
	order.FilledQuantity = 50

	err := b.CheckInvariants()
	require.Error(t, err)
	var violation *InvariantViolation
	assert.ErrorAs(t, err, &violation)
	assert.Equal(t, "Order", violation.Component)
}

func TestOrderBook_CheckInvariantsDetectsCrossedBook(t *testing.T) {
	b := NewOrderBook("AAPL")
	b.Insert(newTestOrder("bid-1", common.Buy, 10200, 10))
	b.Insert(newTestOrder("ask-1", common.Sell, 10100, 10))

	err := b.CheckInvariants()
	require.Error(t, err)
	var violation *InvariantViolation
	assert.ErrorAs(t, err, &violation)
}
