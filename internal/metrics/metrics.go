// Package metrics exposes Prometheus counters for tick processing and order
// flow, plus a helper to serve the scrape endpoint.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TicksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "ticks_total", Help: "Count of tick requests processed"},
	)
	InstrumentsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "instruments_skipped_total", Help: "Instruments skipped per tick (crossed or empty book)"},
		[]string{"symbol", "reason"},
	)
	OrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "orders_total", Help: "Orders emitted"},
		[]string{"symbol", "side"},
	)
	TakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "takes_total", Help: "Resting orders consumed"},
		[]string{"symbol", "side"},
	)
	ArbLegsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "arb_legs_total", Help: "Arbitrage leg orders emitted"},
		[]string{"group"},
	)
	StateDecodeFailures = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "state_decode_failures_total", Help: "Trader data blobs that failed to decode"},
	)
)

func init() {
	prometheus.MustRegister(TicksTotal, InstrumentsSkipped, OrdersTotal, TakesTotal, ArbLegsTotal, StateDecodeFailures)
}

// Serve starts the /metrics endpoint on its own listener.
func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
