// Package task runs fire-and-forget background work outside the request path.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/folio/internal/config"
	"github.com/rs/zerolog"
)

// Job is a named unit of background work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Enqueuer accepts jobs without blocking the caller.
type Enqueuer interface {
	Enqueue(job Job) bool
}

// Dispatcher feeds a bounded queue to a fixed pool of workers. Job failures
// and panics are logged and never reach the code that enqueued the job.
type Dispatcher struct {
	log     zerolog.Logger
	jobs    chan Job
	workers int

	mu      sync.RWMutex
	started bool
	closed  bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher sized by cfg. Call Start before jobs can run.
func NewDispatcher(cfg config.TaskConfig, log zerolog.Logger) *Dispatcher {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		log:     log.With().Str("component", "tasks").Logger(),
		jobs:    make(chan Job, queueSize),
		workers: workers,
	}
}

// Start launches the workers. Jobs receive ctx; calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for job := range d.jobs {
				d.run(ctx, job)
			}
		}()
	}
}

// Enqueue queues job and reports whether it was accepted. It never blocks:
// a full queue or a stopped dispatcher drops the job.
func (d *Dispatcher) Enqueue(job Job) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn().Str("job", job.Name).Msg("dispatcher stopped, job dropped")
		return false
	}
	select {
	case d.jobs <- job:
		return true
	default:
		d.log.Warn().Str("job", job.Name).Msg("task queue full, job dropped")
		return false
	}
}

// Stop refuses new jobs, lets the workers drain the queue and waits for them.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) run(ctx context.Context, job Job) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			d.log.Error().Str("job", job.Name).Str("panic", fmt.Sprint(rec)).Msg("task panicked")
		}
	}()

	if err := job.Run(ctx); err != nil {
		d.log.Error().Err(err).Str("job", job.Name).Dur("took", time.Since(start)).Msg("task failed")
		return
	}
	d.log.Info().Str("job", job.Name).Dur("took", time.Since(start)).Msg("task finished")
}
