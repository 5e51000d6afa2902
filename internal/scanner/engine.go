// Package scanner ties target expansion, probing and batch dispatch together
// behind the Engine used by the HTTP API and the CLI.
package scanner

import (
	"context"

	"github.com/anstrom/portprobe/internal/errors"
	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/services"
	"github.com/anstrom/portprobe/internal/targets"
	"github.com/anstrom/portprobe/internal/workers"
)

const expandStatusSuccess = "success"

// Config holds the engine settings.
type Config struct {
	Concurrency int
	MaxHosts    int
	MaxPorts    int
	// RateLimit caps probe starts per second (0 = unlimited).
	RateLimit float64
	Probe     probe.Config
}

// DefaultConfig returns the standard engine settings.
func DefaultConfig() Config {
	return Config{
		Concurrency: workers.DefaultSize,
		MaxHosts:    targets.DefaultMaxHosts,
		MaxPorts:    targets.DefaultMaxPorts,
		Probe:       probe.DefaultConfig(),
	}
}

// Engine is the stateless scanning façade. It is safe for concurrent use.
type Engine struct {
	expander   *targets.Expander
	dispatcher *Dispatcher
	metrics    metrics.Recorder
	logger     *logging.Logger
}

// NewEngine builds an engine that probes through the system network stack.
func NewEngine(cfg Config, rec metrics.Recorder, logger *logging.Logger) *Engine {
	return NewEngineWithProber(cfg, probe.New(cfg.Probe), rec, logger)
}

// NewEngineWithProber builds an engine around a custom prober.
func NewEngineWithProber(cfg Config, p Prober, rec metrics.Recorder, logger *logging.Logger) *Engine {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Engine{
		expander: targets.NewExpander(cfg.MaxHosts, cfg.MaxPorts),
		dispatcher: NewDispatcher(p, workers.Config{
			Size:      cfg.Concurrency,
			RateLimit: cfg.RateLimit,
		}, rec, logger),
		metrics: rec,
		logger:  logger.WithComponent("engine"),
	}
}

// Expand turns an address and port specification into concrete targets.
func (e *Engine) Expand(ipSpec, portSpec, protocol string) (*targets.Expansion, error) {
	exp, err := e.expander.Expand(ipSpec, portSpec, protocol)
	if err != nil {
		e.metrics.IncrementExpand(string(errors.GetCode(err)))
		e.logger.WithError(err).Debug("Expansion rejected",
			"ip_range", ipSpec,
			"port_range", portSpec)
		return nil, err
	}

	e.metrics.IncrementExpand(expandStatusSuccess)
	e.logger.Debug("Expanded targets",
		"ip_range", ipSpec,
		"port_range", portSpec,
		"protocol", protocol,
		"total", exp.Total)
	return exp, nil
}

// Scan probes every target and returns the results in completion order.
func (e *Engine) Scan(ctx context.Context, batch []targets.Target) []probe.Result {
	return e.dispatcher.Scan(ctx, batch)
}

// Stream probes every target and delivers results as they complete.
func (e *Engine) Stream(ctx context.Context, batch []targets.Target) <-chan probe.Result {
	return e.dispatcher.Stream(ctx, batch)
}

// ServiceTable returns the well-known port to service mapping.
func (e *Engine) ServiceTable() services.Table {
	return services.Common()
}

// Presets returns the named port presets.
func (e *Engine) Presets() []services.Preset {
	return services.Presets()
}
