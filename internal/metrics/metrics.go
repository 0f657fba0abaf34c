// Package metrics holds the Prometheus collectors shared by the service and
// HTTP layers. Collectors register with the default registry on import and
// are served by promhttp.Handler.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsActive tracks sessions currently held in memory
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gridpath_sessions_active",
		Help: "Number of search sessions held in memory",
	})

	// AdvanceSteps counts Advance calls that did work
	AdvanceSteps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridpath_advance_steps_total",
		Help: "Total search expansion steps performed",
	})

	// SearchesTotal counts searches reaching a terminal status
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpath_searches_total",
		Help: "Total searches finished by outcome",
	}, []string{"outcome"})

	// PathLength tracks edge counts of found paths
	PathLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridpath_path_length",
		Help:    "Length in moves of paths found",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 to 512
	})

	// SearchExpansions tracks cells closed per finished search
	SearchExpansions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gridpath_search_expansions",
		Help:    "Cells expanded per finished search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
	})

	// HTTPRequests counts API requests by route template, method and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridpath_http_requests_total",
		Help: "Total HTTP requests by route, method and status code",
	}, []string{"route", "method", "code"})

	// HTTPDuration tracks API latency by route template
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridpath_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
	}, []string{"route"})
)

// ObserveSearch records a search that just reached a terminal status.
// pathLength is ignored unless the search succeeded.
func ObserveSearch(outcome string, expansions, pathLength int) {
	SearchesTotal.WithLabelValues(outcome).Inc()
	SearchExpansions.Observe(float64(expansions))
	if outcome == "succeeded" {
		PathLength.Observe(float64(pathLength))
	}
}

// ObserveRequest records one HTTP request
func ObserveRequest(route, method string, code int, elapsed time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
