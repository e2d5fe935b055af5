package app

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "specz"

// Metrics counts what a single CLI run did. The registry is private to the
// run and is written out as a node-exporter textfile.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	fallbacks  *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	samples    prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "operations_total",
			Help:      "Commands executed, by name and outcome.",
		}, []string{"operation", "status"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "catalog_fallbacks_total",
			Help:      "Catalog queries answered from example data after the primary source failed.",
		}, []string{"capability"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of each command.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
		samples: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "samples_written_total",
			Help:      "Spectral samples written to files or the library.",
		}),
	}
	m.registry.MustRegister(m.operations, m.fallbacks, m.duration, m.samples)
	return m
}

// Observe records the outcome of one operation.
func (m *Metrics) Observe(operation string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(operation, status).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Fallback(capability string) {
	m.fallbacks.WithLabelValues(capability).Inc()
}

func (m *Metrics) SamplesWritten(n int) {
	m.samples.Add(float64(n))
}

// WriteToFile writes all metrics in the text exposition format.
func (m *Metrics) WriteToFile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics file: %w", err)
	}
	return nil
}
