package net

import (
	"github.com/saiputravu/lobex/internal/book"
	"github.com/saiputravu/lobex/internal/common"
	"github.com/saiputravu/lobex/internal/marketdata"
)

// toOrderBookView, toExecutionViews and toCandleViews translate core
// snapshot types into their wire-shaped mirrors (see internal/net/query.go).

func toOrderBookView(snap book.Snapshot) *OrderBookView {
	return &OrderBookView{
		Symbol: snap.Symbol,
		Bids:   toLevelViews(snap.Bids),
		Asks:   toLevelViews(snap.Asks),
	}
}

func toLevelViews(levels []book.LevelView) []LevelView {
	out := make([]LevelView, len(levels))
	for i, l := range levels {
		out[i] = LevelView{Price: l.Price, Volume: l.Volume, OrderCount: l.OrderCount}
	}
	return out
}

func toExecutionViews(execs []common.Execution) []ExecutionView {
	out := make([]ExecutionView, len(execs))
	for i, e := range execs {
		out[i] = ExecutionView{
			ExecID:           e.ExecID,
			AggressorOrderID: e.AggressorOrderID,
			MakerOrderID:     e.MakerOrderID,
			Side:             int(e.AggressorSide),
			Price:            e.Price,
			Quantity:         e.Quantity,
			TransactionUnix:  e.TransactionTime.Unix(),
			Fee:              e.Fee,
		}
	}
	return out
}

func toCandleViews(candles []marketdata.Candle) []CandleView {
	out := make([]CandleView, len(candles))
	for i, c := range candles {
		out[i] = CandleView{
			OpenTime:   c.OpenTime,
			CloseTime:  c.CloseTime,
			Open:       c.Open,
			High:       c.High,
			Low:        c.Low,
			Close:      c.Close,
			Volume:     c.Volume,
			TradeCount: c.TradeCount,
		}
	}
	return out
}
