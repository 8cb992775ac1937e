package marketdata

import (
	"context"

	"github.com/rs/zerolog/log"

	tomb "gopkg.in/tomb.v2"

	"github.com/saiputravu/lobex/internal/common"
	"github.com/saiputravu/lobex/internal/metrics"
)

// Feed is the post-match fan-out: it drives the candle aggregator, the
// rolling stats tracker, and the recent-executions ring from a symbol's
// execution stream (spec §2 "fan-out" box: "Candles", "Stats",
// "subscribers"), and republishes fee-annotated executions to any
// subscribers registered via Subscribe (the external collaborator
// boundary, e.g. internal/net's websocket push).
type Feed struct {
	Candles *CandleAggregator
	Stats   *StatsTracker
	Recent  *RecentExecutions

	subscribers []chan<- common.Execution
}

// NewFeed constructs a Feed with fresh, empty aggregation state.
func NewFeed() *Feed {
	return &Feed{
		Candles: NewCandleAggregator(),
		Stats:   NewStatsTracker(),
		Recent:  NewRecentExecutions(),
	}
}

// Subscribe registers a channel to receive every fee-annotated execution.
// Sends are non-blocking: a slow subscriber misses executions rather than
// stalling the fan-out (the fan-out itself must stay prompt so it never
// back-pressures the matching engine's own outbound channel — spec §5).
func (f *Feed) Subscribe(ch chan<- common.Execution) {
	f.subscribers = append(f.subscribers, ch)
}

// Run consumes executions until ctx is cancelled, applying each to the
// candle aggregator, stats tracker, and recent-executions ring, then
// broadcasting the fee-annotated copy to subscribers.
func (f *Feed) Run(ctx context.Context, t *tomb.Tomb, symbol string, executions <-chan common.Execution) error {
	log.Info().Str("symbol", symbol).Msg("market-data feed started")
	defer log.Info().Str("symbol", symbol).Msg("market-data feed stopped")

	for {
		select {
		case <-t.Dying():
			return nil
		case <-ctx.Done():
			return nil
		case exec := <-executions:
			exec.Fee = ComputeFee(exec.Price, exec.Quantity)

			f.Candles.Ingest(exec.Symbol, exec.Price, exec.Quantity, exec.TransactionTime.Unix())
			f.Stats.Ingest(exec.Symbol, exec.Price, exec.Quantity, exec.TransactionTime)
			f.Recent.Push(exec)
			metrics.ExecutionsTotal.WithLabelValues(exec.Symbol).Inc()

			for _, sub := range f.subscribers {
				select {
				case sub <- exec:
				default:
				}
			}
		}
	}
}
