// Package metrics exposes the poller's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	reg *prometheus.Registry

	BestBid       *prometheus.GaugeVec
	BestAsk       *prometheus.GaugeVec
	UnrealizedPct *prometheus.GaugeVec
	BarrierAlerts *prometheus.CounterVec
	Ticks         prometheus.Counter
	TickDuration  prometheus.Histogram
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		BestBid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depthwatch_best_bid",
			Help: "Best bid price of the last fetched book.",
		}, []string{"symbol"}),
		BestAsk: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depthwatch_best_ask",
			Help: "Best ask price of the last fetched book.",
		}, []string{"symbol"}),
		UnrealizedPct: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "depthwatch_unrealized_pnl_pct",
			Help: "Unrealized P&L of the open buy, in percent.",
		}, []string{"symbol"}),
		BarrierAlerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "depthwatch_barrier_alerts_total",
			Help: "Barrier notifications sent.",
		}, []string{"symbol", "side"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "depthwatch_ticks_total",
			Help: "Completed poll ticks.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "depthwatch_tick_duration_seconds",
			Help:    "Time spent fetching and processing one tick.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.reg.MustRegister(
		m.BestBid,
		m.BestAsk,
		m.UnrealizedPct,
		m.BarrierAlerts,
		m.Ticks,
		m.TickDuration,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) ObserveBook(symbol string, bid, ask float64) {
	m.BestBid.WithLabelValues(symbol).Set(bid)
	m.BestAsk.WithLabelValues(symbol).Set(ask)
}

func (m *Metrics) ObservePnL(symbol string, pct float64) {
	m.UnrealizedPct.WithLabelValues(symbol).Set(pct)
}

// ClearPnL drops the gauge once the position is closed.
func (m *Metrics) ClearPnL(symbol string) {
	m.UnrealizedPct.DeleteLabelValues(symbol)
}

func (m *Metrics) BarrierAlert(symbol, side string) {
	m.BarrierAlerts.WithLabelValues(symbol, side).Inc()
}

func (m *Metrics) TickDone(started time.Time) {
	m.Ticks.Inc()
	m.TickDuration.Observe(time.Since(started).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
