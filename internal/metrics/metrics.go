package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	turnsTotal         *prometheus.CounterVec
	turnDuration       prometheus.Histogram
	stepEventsTotal    *prometheus.CounterVec
	busyRejectionTotal prometheus.Counter
	historyTurns       prometheus.Gauge
	resetsTotal        prometheus.Counter

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
	registry    *prometheus.Registry
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		registry = prometheus.NewRegistry()

		m := &moduleMetrics{
			turnsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "turns_total",
					Help: "Total conversation turns by terminal status.",
				},
				[]string{"status"},
			),
			turnDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "turn_duration_seconds",
					Help:    "Turn execution duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			stepEventsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "step_events_total",
					Help: "Total reasoning step events by type.",
				},
				[]string{"type"},
			),
			busyRejectionTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "busy_rejections_total",
					Help: "Total submissions rejected because a turn was in flight.",
				},
			),
			historyTurns: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "history_turns",
					Help: "Current conversation history length in turns.",
				},
			),
			resetsTotal: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "session_resets_total",
					Help: "Total successful session resets.",
				},
			),
			httpRequestsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "http_requests_total",
					Help: "Total HTTP requests by endpoint and status code.",
				},
				[]string{"endpoint", "status"},
			),
			httpRequestDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "http_request_duration_seconds",
					Help:    "HTTP request duration in seconds by endpoint.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"endpoint"},
			),
		}

		registry.MustRegister(
			m.turnsTotal,
			m.turnDuration,
			m.stepEventsTotal,
			m.busyRejectionTotal,
			m.historyTurns,
			m.resetsTotal,
			m.httpRequestsTotal,
			m.httpRequestDuration,
		)

		metricsInst = m
	})
	return metricsInst
}

// EnsureRegistered forces metric registration. Safe to call from any
// package init path.
func EnsureRegistered() {
	getMetrics()
}

// Handler returns an HTTP handler for the metrics endpoint
func Handler() http.Handler {
	getMetrics()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordTurn records a finished turn with its terminal status
func RecordTurn(status string, duration time.Duration) {
	m := getMetrics()
	m.turnsTotal.WithLabelValues(status).Inc()
	m.turnDuration.Observe(duration.Seconds())
}

// RecordStepEvent counts one emitted step event
func RecordStepEvent(eventType string) {
	getMetrics().stepEventsTotal.WithLabelValues(eventType).Inc()
}

// RecordBusyRejection counts a submission rejected while a turn was active
func RecordBusyRejection() {
	getMetrics().busyRejectionTotal.Inc()
}

// SetHistoryTurns updates the history length gauge
func SetHistoryTurns(count int) {
	getMetrics().historyTurns.Set(float64(count))
}

// RecordReset counts a successful session reset
func RecordReset() {
	getMetrics().resetsTotal.Inc()
}

// RecordHTTPRequest records one served HTTP request
func RecordHTTPRequest(endpoint string, status string, duration time.Duration) {
	m := getMetrics()
	m.httpRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.httpRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
