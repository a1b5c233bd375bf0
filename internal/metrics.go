package internal

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric naming:
//   - gurubase_ prefix
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
var (
	// BackendRequestsTotal counts backend calls by dispatcher mode and status code.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gurubase_backend_requests_total",
			Help: "Total backend requests by mode (authenticated, public, raw) and status code.",
		},
		[]string{"mode", "code"},
	)

	// BackendRequestDurationSeconds is a histogram of backend round trips.
	BackendRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gurubase_backend_request_duration_seconds",
			Help:    "Duration of backend requests in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"mode"},
	)

	// LoginRedirectsTotal counts calls that ended in a login redirect.
	LoginRedirectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gurubase_login_redirects_total",
			Help: "Total login redirects by reason.",
		},
		[]string{"reason"},
	)

	// ActionResultsTotal counts catalog results by action and outcome.
	ActionResultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gurubase_action_results_total",
			Help: "Total catalog action results by action and outcome.",
		},
		[]string{"action", "outcome"},
	)

	// ResponseCacheHitsTotal counts revalidate-hinted GETs served from disk.
	ResponseCacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gurubase_response_cache_hits_total",
			Help: "Total backend responses served from the local response cache.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BackendRequestsTotal,
		BackendRequestDurationSeconds,
		LoginRedirectsTotal,
		ActionResultsTotal,
		ResponseCacheHitsTotal,
	)
}

// RecordBackendRequest records one completed backend round trip. code 0 means
// the request never got a response.
func RecordBackendRequest(mode string, code int, duration time.Duration) {
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	BackendRequestsTotal.WithLabelValues(mode, label).Inc()
	BackendRequestDurationSeconds.WithLabelValues(mode).Observe(duration.Seconds())
}

// RecordLoginRedirect records a redirect to the login route.
func RecordLoginRedirect(reason string) {
	LoginRedirectsTotal.WithLabelValues(reason).Inc()
}

// RecordActionResult records the outcome of a catalog call.
func RecordActionResult(action string, outcome Outcome) {
	ActionResultsTotal.WithLabelValues(action, outcome.String()).Inc()
}
