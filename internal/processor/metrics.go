package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the processor's Prometheus collectors.
type Metrics struct {
	buildTotal    *prometheus.CounterVec
	parseTotal    *prometheus.CounterVec
	parseDuration *prometheus.HistogramVec
}

// NewMetrics registers the processor collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests to keep them hermetic.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		buildTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connector_build_total",
			Help: "Wire requests built per connector and operation, by result.",
		}, []string{"connector", "operation", "result"}),
		parseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "connector_parse_total",
			Help: "Connector responses classified per connector and operation, by outcome.",
		}, []string{"connector", "operation", "outcome"}),
		parseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connector_parse_duration_seconds",
			Help:    "Time spent classifying a connector response.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		}, []string{"connector", "operation"}),
	}
}

// BuildTotal returns the build counter.
func (m *Metrics) BuildTotal() *prometheus.CounterVec { return m.buildTotal }

// ParseTotal returns the parse counter.
func (m *Metrics) ParseTotal() *prometheus.CounterVec { return m.parseTotal }

// ParseDuration returns the parse latency histogram.
func (m *Metrics) ParseDuration() *prometheus.HistogramVec { return m.parseDuration }
