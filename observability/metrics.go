package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "toolquery"

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Model call phases.
const (
	PhaseSelection = "selection"
	PhaseSynthesis = "synthesis"
)

// Metrics holds the orchestrator's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	queries           *prometheus.CounterVec
	toolCalls         *prometheus.CounterVec
	modelLatency      *prometheus.HistogramVec
	queryLatency      prometheus.Histogram
	connectedBackends prometheus.Gauge
}

// NewMetrics registers the collectors with reg. A nil reg means
// prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Total number of processed queries",
		}, []string{"status"}),

		toolCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "tool_calls_total",
			Help:      "Total number of dispatched tool calls",
		}, []string{"backend", "status"}),

		modelLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "model_latency_seconds",
			Help:      "Language model call latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
		}, []string{"phase"}),

		queryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_latency_seconds",
			Help:      "End-to-end query latency in seconds",
			Buckets:   []float64{0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
		}),

		connectedBackends: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "connected_backends",
			Help:      "Number of backends in the connected state",
		}),
	}
}

func status(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusError
}

// RecordQuery records the end of a query.
func (m *Metrics) RecordQuery(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.queries.WithLabelValues(status(ok)).Inc()
	m.queryLatency.Observe(d.Seconds())
}

// RecordToolCall records one dispatched tool call. An empty backend is
// reported as "unresolved".
func (m *Metrics) RecordToolCall(backend string, ok bool) {
	if m == nil {
		return
	}
	if backend == "" {
		backend = "unresolved"
	}
	m.toolCalls.WithLabelValues(backend, status(ok)).Inc()
}

// ObserveModel records the latency of one model call.
func (m *Metrics) ObserveModel(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.WithLabelValues(phase).Observe(d.Seconds())
}

// SetConnectedBackends sets the connected backends gauge.
func (m *Metrics) SetConnectedBackends(n int) {
	if m == nil {
		return
	}
	m.connectedBackends.Set(float64(n))
}

// Handler serves the metrics gathered by g. A nil g means
// prometheus.DefaultGatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
