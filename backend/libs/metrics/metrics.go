package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for calibration requests.
const (
	OutcomeCalibrated = "calibrated"
	OutcomeFallback   = "fallback"
	OutcomeError      = "error"
)

// Calibration holds the collectors recorded around each calibration call.
type Calibration struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	stream   *prometheus.CounterVec
}

// NewCalibration builds collectors on a private registry with Go and process collectors attached.
func NewCalibration() *Calibration {
	m := &Calibration{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calibration_requests_total",
			Help: "Total number of calibration lookups by outcome",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "calibration_request_duration_seconds",
			Help:    "Duration of calibration lookups in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "calibration_stream_entries_total",
			Help: "Stream entries handled by the calibration worker by result",
		}, []string{"result"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.stream,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one calibration lookup.
func (m *Calibration) ObserveRequest(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// ObserveStreamEntry records one stream entry handled by the worker.
func (m *Calibration) ObserveStreamEntry(result string) {
	if m == nil {
		return
	}
	m.stream.WithLabelValues(result).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Calibration) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Calibration) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
