// Package workers provides the bounded worker pool that runs one batch of
// jobs to completion. A pool holds no goroutines between runs: each Run
// starts its workers, drains the batch and tears them down again.
package workers

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/anstrom/portprobe/internal/logging"
)

// DefaultSize is the number of workers used when none is configured.
const DefaultSize = 20

// Config holds configuration for the worker pool.
type Config struct {
	// Size is the maximum number of jobs executing at once.
	Size int
	// RateLimit caps job starts per second within one run (0 = no limit).
	// Each run gets its own token bucket, so concurrent runs do not share it.
	RateLimit float64
	// Burst is the number of jobs that may start back to back before the
	// rate limit applies. Defaults to Size.
	Burst int
}

// DefaultConfig returns a default worker pool configuration.
func DefaultConfig() Config {
	return Config{Size: DefaultSize}
}

// Func executes one job and returns its result. It must not panic and must
// return within a bounded time.
type Func[J, R any] func(ctx context.Context, job J) R

// Pool executes batches of jobs with bounded concurrency.
type Pool[J, R any] struct {
	config Config
	fn     Func[J, R]
}

// New creates a pool that runs fn for every job.
func New[J, R any](config Config, fn Func[J, R]) *Pool[J, R] {
	if config.Size <= 0 {
		config.Size = DefaultSize
	}
	if config.Burst <= 0 {
		config.Burst = config.Size
	}

	return &Pool[J, R]{config: config, fn: fn}
}

// newLimiter returns the token bucket for one run, or nil when unlimited.
func (p *Pool[J, R]) newLimiter() *rate.Limiter {
	if p.config.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(p.config.RateLimit), p.config.Burst)
}

// Size returns the concurrency ceiling.
func (p *Pool[J, R]) Size() int {
	return p.config.Size
}

// Run executes every job and delivers exactly one result per job on the
// returned channel, in completion order. The channel is closed once all jobs
// have finished. It is buffered for the whole batch, so a slow reader never
// stalls the workers.
func (p *Pool[J, R]) Run(ctx context.Context, jobs []J) <-chan R {
	results := make(chan R, len(jobs))
	if len(jobs) == 0 {
		close(results)
		return results
	}

	queue := make(chan J, len(jobs))
	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	workerCount := p.config.Size
	if len(jobs) < workerCount {
		workerCount = len(jobs)
	}

	logging.Debug("Starting worker pool",
		"worker_count", workerCount,
		"jobs", len(jobs),
		"rate_limit", p.config.RateLimit)

	limiter := p.newLimiter()

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func() {
			defer wg.Done()
			for job := range queue {
				wait(ctx, limiter)
				results <- p.fn(ctx, job)
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// Collect runs the batch and gathers the results in completion order.
func (p *Pool[J, R]) Collect(ctx context.Context, jobs []J) []R {
	out := make([]R, 0, len(jobs))
	for r := range p.Run(ctx, jobs) {
		out = append(out, r)
	}
	return out
}

// wait blocks until the rate limiter admits another job. A limiter error
// never drops the job.
func wait(ctx context.Context, limiter *rate.Limiter) {
	if limiter == nil {
		return
	}
	if err := limiter.Wait(ctx); err != nil {
		logging.Debug("Rate limiter wait aborted", "error", err)
	}
}
