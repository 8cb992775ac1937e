package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInterval_RoundTrip(t *testing.T) {
	for _, iv := range AllIntervals {
		parsed, ok := ParseInterval(iv.String())
		require.True(t, ok)
		assert.Equal(t, iv, parsed)
	}
}

func TestParseInterval_Unknown(t *testing.T) {
	_, ok := ParseInterval("3m")
	assert.False(t, ok)
}

func TestRing_PushAndLastOldestFirst(t *testing.T) {
	r := newRing(3)
	r.push(Candle{OpenTime: 1})
	r.push(Candle{OpenTime: 2})
	r.push(Candle{OpenTime: 3})

	last := r.last(0)
	require.Len(t, last, 3)
	assert.Equal(t, int64(1), last[0].OpenTime)
	assert.Equal(t, int64(3), last[2].OpenTime)
}

func TestRing_EvictsOldestOnOverflow(t *testing.T) {
	r := newRing(2)
	r.push(Candle{OpenTime: 1})
	r.push(Candle{OpenTime: 2})
	r.push(Candle{OpenTime: 3})

	last := r.last(0)
	require.Len(t, last, 2)
	assert.Equal(t, int64(2), last[0].OpenTime)
	assert.Equal(t, int64(3), last[1].OpenTime)
}

func TestRing_LastLimitsCount(t *testing.T) {
	r := newRing(5)
	for i := int64(1); i <= 5; i++ {
		r.push(Candle{OpenTime: i})
	}
	last := r.last(2)
	require.Len(t, last, 2)
	assert.Equal(t, int64(4), last[0].OpenTime)
	assert.Equal(t, int64(5), last[1].OpenTime)
}

func TestSeries_IngestSameBucketAccumulates(t *testing.T) {
	s := newSeries(OneMinute)

	s.ingest(OneMinute, 10000, 10, 0)
	s.ingest(OneMinute, 10100, 5, 30)
	s.ingest(OneMinute, 9900, 7, 59)

	snap := s.snapshot(0, true)
	require.Len(t, snap, 1)
	c := snap[0]
	assert.Equal(t, int64(10000), c.Open)
	assert.Equal(t, int64(10100), c.High)
	assert.Equal(t, int64(9900), c.Low)
	assert.Equal(t, int64(9900), c.Close)
	assert.Equal(t, uint64(22), c.Volume)
	assert.Equal(t, uint64(3), c.TradeCount)
}

func TestSeries_IngestNewBucketClosesPrevious(t *testing.T) {
	s := newSeries(OneMinute)

	s.ingest(OneMinute, 10000, 10, 0)
	s.ingest(OneMinute, 10200, 5, 65) // next 60s bucket

	completed := s.snapshot(0, false)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(10000), completed[0].Open)
	assert.Equal(t, int64(10000), completed[0].Close)

	withCurrent := s.snapshot(0, true)
	require.Len(t, withCurrent, 2)
	assert.Equal(t, int64(10200), withCurrent[1].Open)
}

func TestSeries_SnapshotWithoutCurrentOmitsProvisional(t *testing.T) {
	s := newSeries(OneMinute)
	s.ingest(OneMinute, 10000, 10, 0)

	assert.Empty(t, s.snapshot(0, false))
	assert.Len(t, s.snapshot(0, true), 1)
}

func TestCandleAggregator_IngestUpdatesAllIntervals(t *testing.T) {
	agg := NewCandleAggregator()
	agg.Ingest("AAPL", 10000, 10, 0)

	for _, iv := range AllIntervals {
		candles := agg.GetCandles("AAPL", iv, 0, true)
		require.Lenf(t, candles, 1, "interval %s", iv)
		assert.Equal(t, int64(10000), candles[0].Open)
	}
}

func TestCandleAggregator_UnknownSymbolReturnsNil(t *testing.T) {
	agg := NewCandleAggregator()
	assert.Nil(t, agg.GetCandles("MSFT", OneMinute, 0, true))
}
