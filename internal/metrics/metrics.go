// Package metrics exposes Prometheus collectors for the matching engine
// and net boundary, grounded on DimaJoyti-ai-agentic-crypto-browser's
// prometheus/client_golang usage (collectors registered once at startup,
// incremented at call sites) — the teacher has no metrics layer of its
// own (see DESIGN.md).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersAdmitted counts orders that passed sequencer admission.
	OrdersAdmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lobex",
		Name:      "orders_admitted_total",
		Help:      "Orders accepted by the sequencer, by symbol and side.",
	}, []string{"symbol", "side"})

	// OrdersRejected counts admission rejections, by reason.
	OrdersRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lobex",
		Name:      "orders_rejected_total",
		Help:      "Orders rejected at sequencer admission, by reason.",
	}, []string{"reason"})

	// ExecutionsTotal counts trade prints emitted by the matching engine.
	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lobex",
		Name:      "executions_total",
		Help:      "Executions emitted by the matching engine, by symbol.",
	}, []string{"symbol"})

	// BookDepth reports the current number of distinct price levels per
	// side and symbol, sampled periodically by internal/server's metrics
	// sampler.
	BookDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lobex",
		Name:      "book_depth_levels",
		Help:      "Number of distinct resting price levels, by symbol and side.",
	}, []string{"symbol", "side"})

	// InboundChannelUtilization reports per-symbol command channel fill
	// ratio, useful for spotting back-pressure before TooBusy fires.
	InboundChannelUtilization = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lobex",
		Name:      "inbound_channel_utilization_ratio",
		Help:      "Fraction of a symbol's inbound command channel capacity in use.",
	}, []string{"symbol"})
)
