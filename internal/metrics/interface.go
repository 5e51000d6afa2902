// Package metrics provides Prometheus-based instrumentation for the probe
// engine and the HTTP API.
package metrics

import "time"

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks . Recorder

// Recorder receives instrumentation events. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// ProbeStarted marks a probe as in flight.
	ProbeStarted()

	// ObserveProbe records a finished probe and marks it no longer in flight.
	ObserveProbe(protocol, state string, duration time.Duration)

	// ObserveBatch records a completed dispatch of size targets.
	ObserveBatch(size int, duration time.Duration)

	// IncrementExpand counts an expansion attempt by outcome.
	IncrementExpand(status string)

	// ObserveHTTPRequest records a served API request.
	ObserveHTTPRequest(method, route, status string, duration time.Duration)
}

// Nop discards every event.
type Nop struct{}

func (Nop) ProbeStarted() {}
func (Nop) ObserveProbe(string, string, time.Duration) {}
func (Nop) ObserveBatch(int, time.Duration) {}
func (Nop) IncrementExpand(string) {}
func (Nop) ObserveHTTPRequest(string, string, string, time.Duration) {}

var (
	_ Recorder = Nop{}
	_ Recorder = (*PrometheusMetrics)(nil)
)
