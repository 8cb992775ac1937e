package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saiputravu/lobex/internal/common"
)

func newTestOrder(id string, side common.Side, price int64, qty uint64) *common.Order {
	return &common.Order{
		OrderID:           id,
		Symbol:            "AAPL",
		Side:              side,
		OrderType:         common.LimitOrder,
		Price:             price,
		OriginalQuantity:  qty,
		RemainingQuantity: qty,
		Status:            common.New,
	}
}

func TestPriceLevel_AppendAndMatch(t *testing.T) {
	level := newPriceLevel(10000)

	level.Append(newTestOrder("a", common.Sell, 10000, 100))
	level.Append(newTestOrder("b", common.Sell, 10000, 50))

	assert.Equal(t, uint64(150), level.TotalVolume)
	assert.Equal(t, 2, level.OrderCount())

	maker, matched := level.MatchAgainst(120)
	require.NotNil(t, maker)
	assert.Equal(t, "a", maker.OrderID)
	assert.Equal(t, uint64(100), matched)
	assert.Equal(t, common.Filled, maker.Status)
	assert.Equal(t, uint64(50), level.TotalVolume)
	assert.Equal(t, 1, level.OrderCount())

	maker, matched = level.MatchAgainst(20)
	require.NotNil(t, maker)
	assert.Equal(t, "b", maker.OrderID)
	assert.Equal(t, uint64(20), matched)
	assert.Equal(t, common.PartiallyFilled, maker.Status)
	assert.Equal(t, uint64(30), level.TotalVolume)
	assert.False(t, level.IsEmpty())
}

func TestPriceLevel_CancelAt(t *testing.T) {
	level := newPriceLevel(10000)
	handle := level.Append(newTestOrder("a", common.Buy, 10000, 100))
	level.Append(newTestOrder("b", common.Buy, 10000, 50))

	cancelled := level.CancelAt(handle)
	require.NotNil(t, cancelled)
	assert.Equal(t, "a", cancelled.OrderID)
	assert.Equal(t, uint64(50), level.TotalVolume)
	assert.Equal(t, 1, level.OrderCount())
}

func TestPriceLevel_CheckInvariant(t *testing.T) {
	level := newPriceLevel(10000)
	level.Append(newTestOrder("a", common.Buy, 10000, 100))
	level.Append(newTestOrder("b", common.Buy, 10000, 50))
	assert.True(t, level.checkInvariant())
}
