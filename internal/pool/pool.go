// Package pool runs an unbounded, dynamically growing stream of independent
// tasks with a fixed amount of parallelism. Tasks may submit further tasks
// to the same pool, which is how a recursive directory walk fans out.
package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"emperror.dev/errors"
	"github.com/apex/log"
	"github.com/cenkalti/backoff/v4"
	"github.com/gammazero/workerpool"
)

// ErrStopped is returned by Wait when the pool was stopped before every
// submitted task finished.
var ErrStopped = errors.Sentinel("pool: stopped with tasks outstanding")

// DefaultPollInterval is how often Wait checks whether the pool has drained.
const DefaultPollInterval = 25 * time.Millisecond

// Task is a single unit of work. A returned error is logged and dropped; it
// never affects other tasks or the pool itself.
type Task func() error

// Pool is a fixed-size worker pool with an unbounded queue.
type Pool struct {
	wp      *workerpool.WorkerPool
	workers int

	// running counts tasks that have started but not finished. pending counts
	// tasks that have been submitted but not finished, and is incremented
	// before the task is queued so it can never be observed as zero while a
	// running task is still handing off more work.
	running atomic.Int64
	pending atomic.Int64
	failed  atomic.Int64

	mu      sync.RWMutex
	stopped bool
}

// New returns a pool running at most workers tasks at once. A value less
// than one uses twice the number of CPUs.
func New(workers int) *Pool {
	if workers < 1 {
		workers = DefaultWorkers()
	}
	return &Pool{
		wp:      workerpool.New(workers),
		workers: workers,
	}
}

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU() * 2
}

// Size returns the maximum number of tasks that run concurrently.
func (p *Pool) Size() int {
	return p.workers
}

// Submit queues a task to be run by some worker at an unspecified time.
// Submitting to a stopped pool is a no-op.
func (p *Pool) Submit(t Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return
	}
	p.pending.Add(1)
	p.wp.Submit(func() {
		p.run(t)
	})
}

func (p *Pool) run(t Task) {
	p.running.Add(1)
	defer p.pending.Add(-1)
	defer p.running.Add(-1)

	if err := p.call(t); err != nil {
		p.failed.Add(1)
		log.WithField("error", err).Debug("pool: task failed")
	}
}

// call runs the task, converting a panic into an error so a single bad task
// cannot take every other worker down with it.
func (p *Pool) call(t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("pool: task panicked: %v", r)
		}
	}()
	return t()
}

// Active returns the number of tasks that have started but not finished.
//
// Observing zero does not mean the pool is finished: a task may be queued
// and not yet picked up by a worker. Use Idle for completion checks.
func (p *Pool) Active() int64 {
	return p.running.Load()
}

// Pending returns the number of tasks that have been submitted but have not
// finished, whether queued or running.
func (p *Pool) Pending() int64 {
	return p.pending.Load()
}

// Failed returns the number of tasks that returned an error or panicked.
func (p *Pool) Failed() int64 {
	return p.failed.Load()
}

// Queued returns the number of tasks waiting for a free worker.
func (p *Pool) Queued() int {
	return p.wp.WaitingQueueSize()
}

// Idle reports whether every submitted task has finished. Because tasks
// only submit follow-up work before they return, once Idle is true no task
// exists that could submit more.
func (p *Pool) Idle() bool {
	return p.pending.Load() == 0
}

// Wait blocks until the pool is idle, the pool is stopped, or the context is
// cancelled.
func (p *Pool) Wait(ctx context.Context) error {
	b := backoff.WithContext(backoff.NewConstantBackOff(DefaultPollInterval), ctx)
	err := backoff.Retry(func() error {
		if p.Idle() {
			return nil
		}
		if p.Stopped() {
			return backoff.Permanent(ErrStopped)
		}
		return errors.New("pool: tasks outstanding")
	}, b)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// Stop stops the pool. Tasks that are already running are allowed to finish;
// queued tasks are abandoned and never run.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()
	p.wp.Stop()
}

// Stopped reports whether Stop has been called.
func (p *Pool) Stopped() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.stopped
}
