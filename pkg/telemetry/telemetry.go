package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roundbuy_client_requests_total",
		Help: "API requests by method and outcome (ok or error_code).",
	}, []string{"method", "outcome"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "roundbuy_client_request_duration_seconds",
		Help:    "API request latency.",
		Buckets: prometheus.DefBuckets,
	})

	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "roundbuy_client_token_refresh_total",
		Help: "Silent token refresh attempts by result.",
	}, []string{"result"})

	syncRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "roundbuy_client_sync_runs_total",
		Help: "Background inbox refresh runs.",
	})
)

// IncRequest records one API request. outcome is "ok" or the
// normalized error_code.
func IncRequest(method, outcome string) {
	requestsTotal.WithLabelValues(method, outcome).Inc()
}

// ObserveRequest records the wall-clock duration of one API request.
func ObserveRequest(d time.Duration) {
	requestDuration.Observe(d.Seconds())
}

// IncRefresh records a token refresh attempt; result is "ok" or "failed".
func IncRefresh(result string) {
	refreshTotal.WithLabelValues(result).Inc()
}

// IncSyncRun records one background sync run.
func IncSyncRun() {
	syncRunsTotal.Inc()
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
