package sched

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Handler executes one dequeued job. Long-running handlers must poll the
// token and bail out once it reports cancellation; a result produced after
// cancellation must be discarded, not published.
type Handler func(job Job, token Token)

// Pool runs worker goroutines that drain a Scheduler in priority order.
// Rendering is CPU-bound and bursty, so the pool blocks workers on a
// submit notification instead of spinning on an empty queue.
//
// Pool is safe for concurrent use.
type Pool struct {
	scheduler *Scheduler
	registry  *Registry
	handler   Handler

	workers int
	wake    chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
}

// NewPool creates a worker pool over the given scheduler and registry.
// If workers is 0 or negative, GOMAXPROCS is used. The pool is created
// stopped; call Start.
func NewPool(s *Scheduler, r *Registry, workers int, handler Handler) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Pool{
		scheduler: s,
		registry:  r,
		handler:   handler,
		workers:   workers,
	}
}

// Start launches the worker goroutines. Calling Start on a running pool
// is a no-op.
func (p *Pool) Start() {
	if !p.running.CompareAndSwap(false, true) {
		return
	}

	// Buffer one wakeup per worker so a burst of submits during a long
	// render is not lost.
	p.wake = make(chan struct{}, p.workers)
	p.done = make(chan struct{})
	p.scheduler.Notify(p.wake)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.worker(i)
	}
	slogger().Debug("worker pool started", "workers", p.workers)
}

// Stop shuts the pool down gracefully: workers finish their current job
// and exit. Queued jobs stay in the scheduler. Stop blocks until all
// workers have returned.
func (p *Pool) Stop() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
	slogger().Debug("worker pool stopped")
}

// Workers returns the configured worker count.
func (p *Pool) Workers() int {
	return p.workers
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		job, ok := p.scheduler.NextJob()
		if !ok {
			select {
			case <-p.done:
				return
			case <-p.wake:
				continue
			}
		}

		select {
		case <-p.done:
			// Shutting down: the popped job will never run. Count it
			// completed so pending accounting stays balanced.
			p.dropJob(job)
			return
		default:
		}

		p.runJob(id, job)
	}
}

// runJob executes one job with its registry token and records completion.
// A job whose token was cancelled before it started is dropped without
// invoking the handler.
func (p *Pool) runJob(worker int, job Job) {
	token := p.registry.Register(job.ID)
	defer p.registry.Unregister(job.ID)

	if token.Cancelled() {
		p.scheduler.CompleteJob(job.ID)
		return
	}

	slogger().Debug("job start", "worker", worker, "job", uint64(job.ID), "priority", job.Priority.String())
	p.handler(job, token)
	p.scheduler.CompleteJob(job.ID)
}

// dropJob accounts for a job popped during shutdown that will never run.
func (p *Pool) dropJob(job Job) {
	p.scheduler.CompleteJob(job.ID)
	p.registry.Unregister(job.ID)
}
