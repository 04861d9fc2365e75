// Package metrics exposes Prometheus instrumentation for the
// simulation engines.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tradesim/tradesim/internal/fill"
)

// Registry holds all Prometheus metrics. A nil *Registry is valid and
// records nothing, so instrumentation stays optional.
type Registry struct {
	*prometheus.Registry

	ordersEvaluated  *prometheus.CounterVec
	barsReplayed     prometheus.Counter
	backtestsTotal   prometheus.Counter
	backtestDuration prometheus.Histogram
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		ordersEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradesim_orders_evaluated_total",
				Help: "Total fill evaluations by order type and outcome",
			},
			[]string{"type", "outcome"},
		),
		barsReplayed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradesim_bars_replayed_total",
				Help: "Total bars replayed across backtests",
			},
		),
		backtestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tradesim_backtests_total",
				Help: "Total completed backtest runs",
			},
		),
		backtestDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tradesim_backtest_duration_seconds",
				Help:    "Backtest run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	reg.MustRegister(r.ordersEvaluated)
	reg.MustRegister(r.barsReplayed)
	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.backtestDuration)

	return r
}

// OrderEvaluated records one fill evaluation.
func (r *Registry) OrderEvaluated(typ fill.OrderType, outcome fill.Outcome) {
	if r == nil {
		return
	}
	r.ordersEvaluated.WithLabelValues(string(typ), string(outcome)).Inc()
}

// BarReplayed records one replayed bar.
func (r *Registry) BarReplayed() {
	if r == nil {
		return
	}
	r.barsReplayed.Inc()
}

// BacktestCompleted records a finished run and its duration.
func (r *Registry) BacktestCompleted(d time.Duration) {
	if r == nil {
		return
	}
	r.backtestsTotal.Inc()
	r.backtestDuration.Observe(d.Seconds())
}
