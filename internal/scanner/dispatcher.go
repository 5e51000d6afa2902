package scanner

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/anstrom/portprobe/internal/logging"
	"github.com/anstrom/portprobe/internal/metrics"
	"github.com/anstrom/portprobe/internal/probe"
	"github.com/anstrom/portprobe/internal/targets"
	"github.com/anstrom/portprobe/internal/workers"
)

// Prober probes a single target. *probe.Prober satisfies it.
type Prober interface {
	Probe(ctx context.Context, t targets.Target) probe.Result
}

// Dispatcher fans a batch of targets out over a bounded worker pool.
type Dispatcher struct {
	prober  Prober
	pool    *workers.Pool[targets.Target, probe.Result]
	metrics metrics.Recorder
	logger  *logging.Logger
}

// NewDispatcher creates a dispatcher running at most pool.Size probes at
// once. A nil recorder or logger falls back to a no-op recorder and the
// default logger.
func NewDispatcher(p Prober, pool workers.Config, rec metrics.Recorder, logger *logging.Logger) *Dispatcher {
	if rec == nil {
		rec = metrics.Nop{}
	}
	if logger == nil {
		logger = logging.Default()
	}

	d := &Dispatcher{
		prober:  p,
		metrics: rec,
		logger:  logger.WithComponent("dispatcher"),
	}
	d.pool = workers.New(pool, d.probe)
	return d
}

// Concurrency returns the maximum number of probes in flight per batch.
func (d *Dispatcher) Concurrency() int {
	return d.pool.Size()
}

// Scan probes every target and returns one result per target in completion
// order. An empty batch yields an empty, non-nil slice.
func (d *Dispatcher) Scan(ctx context.Context, batch []targets.Target) []probe.Result {
	out := make([]probe.Result, 0, len(batch))
	for r := range d.Stream(ctx, batch) {
		out = append(out, r)
	}
	return out
}

// Stream probes every target and delivers each result as soon as its probe
// completes. The channel is closed after the last result. Probes are
// detached from ctx cancellation: once dispatched, every target runs to its
// own timeout and yields exactly one result.
func (d *Dispatcher) Stream(ctx context.Context, batch []targets.Target) <-chan probe.Result {
	out := make(chan probe.Result, len(batch))
	if len(batch) == 0 {
		d.metrics.ObserveBatch(0, 0)
		close(out)
		return out
	}

	batchID := uuid.NewString()
	log := d.logger.WithBatchID(batchID)
	start := time.Now()

	log.Info("Dispatching batch",
		"targets", len(batch),
		"concurrency", d.pool.Size())

	in := d.pool.Run(context.WithoutCancel(ctx), batch)

	go func() {
		defer close(out)

		states := make(map[probe.State]int)
		for r := range in {
			states[r.State]++
			out <- r
		}

		elapsed := time.Since(start)
		d.metrics.ObserveBatch(len(batch), elapsed)
		log.Info("Batch complete",
			"targets", len(batch),
			"open", states[probe.StateOpen],
			"closed", states[probe.StateClosed],
			"filtered", states[probe.StateFiltered]+states[probe.StateOpenFiltered],
			"errors", states[probe.StateError],
			"duration", elapsed)
	}()

	return out
}

func (d *Dispatcher) probe(ctx context.Context, t targets.Target) probe.Result {
	d.metrics.ProbeStarted()
	start := time.Now()

	res := d.prober.Probe(ctx, t)

	d.metrics.ObserveProbe(t.Protocol.String(), string(res.State), time.Since(start))
	if res.State == probe.StateError {
		d.logger.WithTarget(t.String()).Warn("Probe failed", "error", res.Error)
	} else {
		d.logger.WithTarget(t.String()).Debug("Probe finished", "state", res.State)
	}
	return res
}
