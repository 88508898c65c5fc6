// Package metrics exposes the Prometheus collectors of a spadesk process.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spadesk"

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	ledgerOperations *prometheus.CounterVec
	ledgerAmount     *prometheus.CounterVec

	kafkaMessages *prometheus.CounterVec
	kafkaDuration *prometheus.HistogramVec

	reconcileMismatches prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ledgerOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by kind and outcome.",
		}, []string{"operation", "outcome"}),
		ledgerAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "amount_total",
			Help:      "Sum of amounts moved by successful ledger operations.",
		}, []string{"operation"}),
		kafkaMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "messages_total",
			Help:      "Kafka messages by direction and outcome.",
		}, []string{"direction", "outcome"}),
		kafkaDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "message_duration_seconds",
			Help:      "Time spent publishing or handling a Kafka message.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"direction"}),
		reconcileMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "reconcile_mismatches_total",
			Help:      "Customers whose stored balance disagreed with their ledger.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.ledgerOperations,
		m.ledgerAmount,
		m.kafkaMessages,
		m.kafkaDuration,
		m.reconcileMismatches,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveLedger(operation string, amount int64, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.ledgerOperations.WithLabelValues(operation, OutcomeError).Inc()
		return
	}
	m.ledgerOperations.WithLabelValues(operation, OutcomeSuccess).Inc()
	m.ledgerAmount.WithLabelValues(operation).Add(float64(amount))
}

func (m *Metrics) ObserveKafka(direction string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.kafkaMessages.WithLabelValues(direction, outcome).Inc()
	m.kafkaDuration.WithLabelValues(direction).Observe(d.Seconds())
}

func (m *Metrics) ObserveReconcileMismatch() {
	if m == nil {
		return
	}
	m.reconcileMismatches.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and latency per route.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := Route(r.URL.Path)
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Route collapses the identifier following an "id" segment so that label
// cardinality stays bounded.
func Route(path string) string {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if segments[i-1] == "id" && segments[i] != "" {
			segments[i] = ":id"
		}
	}
	if len(segments) > 1 && segments[len(segments)-2] == "export" {
		segments[len(segments)-1] = ":type"
	}
	return strings.Join(segments, "/")
}
