package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "equiprent"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route"},
	)

	rentalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rental_transitions_total",
			Help:      "Rental status transitions.",
		},
		[]string{"from", "to"},
	)

	equipmentStatusChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "equipment_status_changes_total",
			Help:      "Equipment status changes written by reconciliation.",
		},
		[]string{"to"},
	)

	jobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by result.",
		},
		[]string{"job", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, rentalTransitions, equipmentStatusChanges, jobRuns)
	})
}

func ObserveHTTP(route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func IncRentalTransition(from, to string) {
	rentalTransitions.WithLabelValues(from, to).Inc()
}

func IncEquipmentStatusChange(to string) {
	equipmentStatusChanges.WithLabelValues(to).Inc()
}

func IncJobRun(job string, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	jobRuns.WithLabelValues(job, result).Inc()
}
