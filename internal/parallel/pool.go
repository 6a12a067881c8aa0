// Package parallel provides a small worker pool for independent jobs such as
// rendering one output texture per combination.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// Job is one unit of work. ctx is cancelled once any job in the pool fails.
type Job func(ctx context.Context) error

// Pool runs jobs on a fixed number of goroutines and stops taking work after the
// first failure. A pool with one worker runs every job inline on the caller's
// goroutine.
type Pool struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	jobs   chan Job
	wg     sync.WaitGroup
	inline bool
	close  func()
}

// Start creates a pool bound to ctx. numWorkers below 1 means one worker per
// available CPU.
func Start(ctx context.Context, numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{inline: numWorkers == 1, close: func() {}}
	p.ctx, p.cancel = context.WithCancelCause(ctx)
	if p.inline {
		return p
	}

	p.jobs = make(chan Job, numWorkers)
	p.close = sync.OnceFunc(func() { close(p.jobs) })
	for range numWorkers {
		p.wg.Go(func() {
			for job := range p.jobs {
				// drain without running once stopped
				if p.ctx.Err() != nil {
					continue
				}
				p.run(job)
			}
		})
	}
	return p
}

func (p *Pool) run(job Job) {
	if err := job(p.ctx); err != nil {
		p.cancel(err)
	}
}

// Go schedules job. It returns false once the pool has stopped, either because a
// job failed or the parent context was cancelled; callers should stop submitting.
func (p *Pool) Go(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	if p.inline {
		p.run(job)
		return p.ctx.Err() == nil
	}
	select {
	case p.jobs <- job:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Wait closes the pool to new work, waits for running jobs and returns the first
// job error, or the parent context's error if it was cancelled first.
func (p *Pool) Wait() error {
	p.close()
	p.wg.Wait()
	err := context.Cause(p.ctx)
	p.cancel(nil)
	return err
}
