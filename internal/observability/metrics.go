// Package observability provides Prometheus metrics for the long-running
// candle fetcher.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the candle pipeline metrics.
type Metrics struct {
	CandlesBackfilled   prometheus.Counter
	CandlesStreamed     prometheus.Counter
	CandlePersistErrors prometheus.Counter

	// LastCandleOpenTime is the open time of the newest candle seen, Unix
	// seconds. Alerting on staleness catches a silently dead stream.
	LastCandleOpenTime prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "uniswap_lp_lab"
	}

	return &Metrics{
		CandlesBackfilled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "backfilled_total",
			Help:      "Total number of candles fetched during REST backfill",
		}),
		CandlesStreamed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "streamed_total",
			Help:      "Total number of closed candles delivered by the websocket stream",
		}),
		CandlePersistErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "persist_errors_total",
			Help:      "Total number of candle store write failures",
		}),
		LastCandleOpenTime: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "candles",
			Name:      "last_open_time_seconds",
			Help:      "Open time of the newest candle seen, Unix seconds",
		}),
	}
}

// Handler returns the /metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr. Blocks until the server fails.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}
