// Package metrics contains middlewares and counters for metrics gathering.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTP Requests total counter
var totalRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "HTTP Requests.",
	},
	[]string{"method", "route", "status"},
)

// HTTP Response duration
var duration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_duration_seconds",
		Help:    "HTTP Requests Duration",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"method", "route"},
)

var gridResults = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "schedule_grid_results_total",
		Help: "Grids built, by result state.",
	},
	[]string{"state"},
)

var eligibleStaff = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "staffing_eligible_candidates",
		Help:    "Number of candidates returned by an eligibility query.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	},
)

var bookingTransitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "booking_transitions_total",
		Help: "Booking lifecycle transitions, by action and outcome.",
	},
	[]string{"action", "outcome"},
)

func init() {
	for _, collector := range []prometheus.Collector{totalRequests, duration, gridResults, eligibleStaff, bookingTransitions} {
		if err := prometheus.Register(collector); err != nil {
			panic(err)
		}
	}
}

// PrometheusMiddleware instruments the given request and register metrics.
// Requests are labelled by chi route pattern so path parameters do not explode the series.
func PrometheusMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		timer := prometheus.NewTimer(prometheus.ObserverFunc(func(v float64) {
			duration.WithLabelValues(r.Method, routePattern(r)).Observe(v)
		}))
		next.ServeHTTP(ww, r)
		timer.ObserveDuration()
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		totalRequests.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(status)).Inc()
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// ObserveGrid counts a grid result by its state.
func ObserveGrid(state string) {
	gridResults.WithLabelValues(state).Inc()
}

// ObserveEligibility records how many candidates an eligibility query returned.
func ObserveEligibility(candidates int) {
	eligibleStaff.Observe(float64(candidates))
}

// ObserveTransition counts a lifecycle transition attempt.
func ObserveTransition(action, outcome string) {
	bookingTransitions.WithLabelValues(action, outcome).Inc()
}
