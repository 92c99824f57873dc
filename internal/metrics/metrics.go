package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharehub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status.",
		},
		[]string{"endpoint", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sharehub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	bookingOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharehub",
			Name:      "booking_outcomes_total",
			Help:      "Booking create/approve outcomes.",
		},
		[]string{"outcome"},
	)

	searchCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharehub",
			Name:      "search_cache_total",
			Help:      "Search cache lookups by result.",
		},
		[]string{"result"},
	)

	exportTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sharehub",
			Name:      "export_tasks_total",
			Help:      "Ledger export tasks by final status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, bookingOutcomes, searchCache, exportTasks)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// ObserveHTTP records the latency of one request.
func ObserveHTTP(endpoint string, d time.Duration) {
	httpDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// IncBookingOutcome counts a booking decision: created, approved, rejected,
// overlap, invalid.
func IncBookingOutcome(outcome string) {
	bookingOutcomes.WithLabelValues(outcome).Inc()
}

// IncSearchCache counts a cache lookup result: hit or miss.
func IncSearchCache(result string) {
	searchCache.WithLabelValues(result).Inc()
}

// IncExportTask counts a processed ledger task by its final status.
func IncExportTask(status string) {
	exportTasks.WithLabelValues(status).Inc()
}
