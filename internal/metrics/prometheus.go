package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Namespace for all portprobe metrics
	namespace = "portprobe"

	// Subsystems
	subsystemProbe  = "probe"
	subsystemBatch  = "batch"
	subsystemExpand = "expand"
	subsystemAPI    = "http"
)

// PrometheusMetrics holds all Prometheus metric collectors
type PrometheusMetrics struct {
	// Probe metrics
	probesTotal   *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	activeProbes  prometheus.Gauge

	// Batch metrics
	batchesTotal  prometheus.Counter
	batchSize     prometheus.Histogram
	batchDuration prometheus.Histogram

	expandTotal *prometheus.CounterVec

	// API metrics
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// NewPrometheusMetrics creates a metrics instance with its own registry,
// including the standard Go and process collectors.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()

	pm := &PrometheusMetrics{registry: registry}

	pm.initProbeMetrics()
	pm.initBatchMetrics()
	pm.initAPIMetrics()

	pm.registerMetrics()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return pm
}

func (pm *PrometheusMetrics) initProbeMetrics() {
	pm.probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "total",
			Help:      "Total number of probes by protocol and resulting port state",
		},
		[]string{"protocol", "state"},
	)

	pm.probeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "duration_seconds",
			Help:      "Duration of single probes in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 1.5, 2.0},
		},
		[]string{"protocol"},
	)

	pm.activeProbes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystemProbe,
			Name:      "active",
			Help:      "Number of probes currently in flight",
		},
	)
}

func (pm *PrometheusMetrics) initBatchMetrics() {
	pm.batchesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemBatch,
			Name:      "total",
			Help:      "Total number of dispatched batches",
		},
	)

	pm.batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemBatch,
			Name:      "size",
			Help:      "Number of targets per dispatched batch",
			Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000, 10000},
		},
	)

	pm.batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemBatch,
			Name:      "duration_seconds",
			Help:      "Wall clock duration of dispatched batches in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
	)

	pm.expandTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemExpand,
			Name:      "total",
			Help:      "Total number of target expansions by outcome",
		},
		[]string{"status"},
	)
}

func (pm *PrometheusMetrics) initAPIMetrics() {
	pm.httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	pm.httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystemAPI,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0, 30.0},
		},
		[]string{"method", "route"},
	)
}

func (pm *PrometheusMetrics) registerMetrics() {
	pm.registry.MustRegister(
		pm.probesTotal,
		pm.probeDuration,
		pm.activeProbes,
		pm.batchesTotal,
		pm.batchSize,
		pm.batchDuration,
		pm.expandTotal,
		pm.httpRequests,
		pm.httpDuration,
	)
}

// GetRegistry returns the Prometheus registry backing these metrics.
func (pm *PrometheusMetrics) GetRegistry() *prometheus.Registry {
	return pm.registry
}

// Handler returns an HTTP handler serving the registry in exposition format.
func (pm *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(pm.registry, promhttp.HandlerOpts{Registry: pm.registry})
}

// ProbeStarted implements Recorder.
func (pm *PrometheusMetrics) ProbeStarted() {
	pm.activeProbes.Inc()
}

// ObserveProbe implements Recorder.
func (pm *PrometheusMetrics) ObserveProbe(protocol, state string, duration time.Duration) {
	pm.activeProbes.Dec()
	pm.probesTotal.WithLabelValues(protocol, state).Inc()
	pm.probeDuration.WithLabelValues(protocol).Observe(duration.Seconds())
}

// ObserveBatch implements Recorder.
func (pm *PrometheusMetrics) ObserveBatch(size int, duration time.Duration) {
	pm.batchesTotal.Inc()
	pm.batchSize.Observe(float64(size))
	pm.batchDuration.Observe(duration.Seconds())
}

// IncrementExpand implements Recorder.
func (pm *PrometheusMetrics) IncrementExpand(status string) {
	pm.expandTotal.WithLabelValues(status).Inc()
}

// ObserveHTTPRequest implements Recorder.
func (pm *PrometheusMetrics) ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	pm.httpRequests.WithLabelValues(method, route, status).Inc()
	pm.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// StatusLabel renders an HTTP status code as a metric label value.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

var (
	globalMetrics *PrometheusMetrics
	globalOnce    sync.Once
)

// GetGlobalMetrics returns the process wide metrics instance, creating it on
// first use.
func GetGlobalMetrics() *PrometheusMetrics {
	globalOnce.Do(func() {
		globalMetrics = NewPrometheusMetrics()
	})
	return globalMetrics
}
