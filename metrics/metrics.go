// Package metrics exports service metrics in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors for one registry. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	pipelineRuns    *prometheus.CounterVec
	pipelineLatency prometheus.Histogram

	recordsCreated     *prometheus.CounterVec
	recordsDeleted     prometheus.Counter
	recordsReprocessed prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hcplog",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hcplog",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hcplog",
			Name:      "pipeline_runs_total",
			Help:      "Chat pipeline runs by outcome (ok, fallback).",
		}, []string{"outcome"}),
		pipelineLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hcplog",
			Name:      "pipeline_duration_seconds",
			Help:      "Chat pipeline latency.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		recordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hcplog",
			Name:      "interactions_created_total",
			Help:      "Interactions stored by source (log, chat).",
		}, []string{"source"}),
		recordsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hcplog",
			Name:      "interactions_deleted_total",
			Help:      "Interactions deleted.",
		}),
		recordsReprocessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hcplog",
			Name:      "interactions_reprocessed_total",
			Help:      "Fallback interactions repaired by the reprocessor.",
		}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpLatency,
		m.pipelineRuns,
		m.pipelineLatency,
		m.recordsCreated,
		m.recordsDeleted,
		m.recordsReprocessed,
	)
	return m
}

// Registry returns the underlying registry for gathering in tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObservePipeline(d time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "fallback"
	}
	m.pipelineRuns.WithLabelValues(outcome).Inc()
	m.pipelineLatency.Observe(d.Seconds())
}

func (m *Metrics) RecordCreated(source string) {
	if m == nil {
		return
	}
	m.recordsCreated.WithLabelValues(source).Inc()
}

func (m *Metrics) RecordDeleted() {
	if m == nil {
		return
	}
	m.recordsDeleted.Inc()
}

func (m *Metrics) RecordReprocessed(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.recordsReprocessed.Add(float64(n))
}
