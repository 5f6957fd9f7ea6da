// Package metrics exposes Prometheus counters for the API server. The
// backtest engine itself stays metric-free; instrumentation lives at the
// service boundary.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts completed engine invocations by kind and outcome.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mm_backtest",
		Name:      "runs_total",
		Help:      "Completed backtest runs by kind (backtest|sweep) and status (ok|error).",
	}, []string{"kind", "status"})

	// RunDuration observes wall-clock seconds per engine invocation.
	RunDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mm_backtest",
		Name:      "run_duration_seconds",
		Help:      "Backtest run duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"kind"})

	// TicksReplayed counts ticks fed through the replay loop.
	TicksReplayed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mm_backtest",
		Name:      "ticks_replayed_total",
		Help:      "Total ticks replayed across all runs.",
	})
)
