// Package metrics holds the application's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dailyweight",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dailyweight",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dailyweight",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "route"},
	)

	weightsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "dailyweight",
			Subsystem: "weights",
			Name:      "recorded_total",
			Help:      "Total number of weight entries saved.",
		},
	)

	goalNotifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dailyweight",
			Subsystem: "notifications",
			Name:      "goal_reached_total",
			Help:      "Goal-reached notifications by outcome.",
		},
		[]string{"outcome"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		weightsRecorded,
		goalNotifications,
	)
}

// Handler exposes the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHTTP wraps next, recording in-flight requests, counts and
// durations. route should be a low-cardinality pattern.
func InstrumentHTTP(route func(*http.Request) string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		name := route(r)
		httpRequests.WithLabelValues(r.Method, name, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, name).Observe(time.Since(start).Seconds())
	})
}

// RecordWeightSaved counts a saved weight entry.
func RecordWeightSaved() {
	weightsRecorded.Inc()
}

// RecordGoalNotification counts a goal notification attempt by outcome,
// e.g. "posted" or "denied".
func RecordGoalNotification(outcome string) {
	goalNotifications.WithLabelValues(outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
