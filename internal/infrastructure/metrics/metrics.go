// Package metrics exposes Prometheus collectors for Lumen Hub Core.
//
// Collectors live on a private registry owned by Metrics rather than the
// global default, so tests can create as many instances as they like.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lumenhub"

// Metrics holds every collector the service reports.
type Metrics struct {
	registry *prometheus.Registry

	bridgeRequests *prometheus.CounterVec
	bridgeLatency  *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	eventsOut      *prometheus.CounterVec
	eventsLagged   prometheus.Counter
	streamClients  *prometheus.GaugeVec
}

// New creates and registers all collectors, plus the Go runtime and
// process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		bridgeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bridge_requests_total",
			Help:      "Bridge API calls by provider, operation and outcome.",
		}, []string{"provider", "op", "outcome"}),
		bridgeLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bridge_request_duration_seconds",
			Help:      "Bridge API call latency.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"provider", "op"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		eventsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "State-change events published to the bus.",
		}, []string{"kind"}),
		eventsLagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_lagged_total",
			Help:      "Events skipped by subscribers that fell behind.",
		}),
		streamClients: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "stream_clients",
			Help:      "Connected event stream clients by transport.",
		}, []string{"transport"}),
	}

	m.registry.MustRegister(
		m.bridgeRequests,
		m.bridgeLatency,
		m.httpRequests,
		m.eventsOut,
		m.eventsLagged,
		m.streamClients,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBridgeRequest records one bridge call.
func (m *Metrics) ObserveBridgeRequest(provider, op, outcome string, elapsed time.Duration) {
	m.bridgeRequests.WithLabelValues(provider, op, outcome).Inc()
	m.bridgeLatency.WithLabelValues(provider, op).Observe(elapsed.Seconds())
}

// ObserveHTTPRequest records one served request.
func (m *Metrics) ObserveHTTPRequest(method, route, status string) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
}

// EventPublished counts one bus publish.
func (m *Metrics) EventPublished(kind string) {
	m.eventsOut.WithLabelValues(kind).Inc()
}

// EventsLagged counts events a slow subscriber skipped.
func (m *Metrics) EventsLagged(n uint64) {
	m.eventsLagged.Add(float64(n))
}

// StreamOpened increments the client gauge for transport.
func (m *Metrics) StreamOpened(transport string) {
	m.streamClients.WithLabelValues(transport).Inc()
}

// StreamClosed decrements the client gauge for transport.
func (m *Metrics) StreamClosed(transport string) {
	m.streamClients.WithLabelValues(transport).Dec()
}
