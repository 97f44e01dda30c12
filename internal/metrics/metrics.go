// Package metrics provides Prometheus metrics for the staff dashboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PageLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_mis_page_loads_total",
			Help: "Total number of MIS report page loads by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)
	PageLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_mis_page_load_duration_seconds",
			Help:    "Time spent fetching and merging one MIS report page",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"kind"},
	)
	RemoteFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_remote_fetch_failures_total",
			Help: "Total number of failed calls to the remote data source",
		},
		[]string{"op", "category"},
	)
	StaleResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "taskboard_mis_stale_responses_total",
			Help: "Total number of page responses dropped because the filter changed while in flight",
		},
	)
	MergedRecords = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "taskboard_mis_merged_records",
			Help:    "Number of staff records produced per merged page",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
	)
	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_tasks_completed_total",
			Help: "Total number of tasks marked completed through the dashboard",
		},
		[]string{"category"},
	)
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "taskboard_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "taskboard_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
	UsersTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskboard_users",
			Help: "Current number of dashboard users",
		},
	)
	StaffTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "taskboard_staff",
			Help: "Current number of staff members with tasks, by category",
		},
		[]string{"category"},
	)
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "taskboard_mis_sessions_active",
			Help: "Number of MIS report sessions held in memory",
		},
	)
)

func pageKind(page int) string {
	if page <= 1 {
		return "first"
	}
	return "next"
}

func RecordPageLoad(page int, records int, duration time.Duration) {
	kind := pageKind(page)
	PageLoads.WithLabelValues(kind, "success").Inc()
	PageLoadDuration.WithLabelValues(kind).Observe(duration.Seconds())
	MergedRecords.Observe(float64(records))
}

func RecordPageLoadFailed(page int, duration time.Duration) {
	kind := pageKind(page)
	PageLoads.WithLabelValues(kind, "failure").Inc()
	PageLoadDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func RecordRemoteFetchFailure(op, category string) {
	RemoteFetchFailures.WithLabelValues(op, category).Inc()
}

func RecordStaleResponse() {
	StaleResponses.Inc()
}

func RecordTaskCompleted(category string) {
	TasksCompleted.WithLabelValues(category).Inc()
}

func UpdateUsersTotal(count int) {
	UsersTotal.Set(float64(count))
}

func UpdateStaffTotal(category string, count int) {
	StaffTotal.WithLabelValues(category).Set(float64(count))
}

func UpdateActiveSessions(count int) {
	SessionsActive.Set(float64(count))
}

func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
