// Package background runs best-effort side effects that must neither block the
// caller nor fail the request that spawned them.
package background

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/observability"
)

const defaultTimeout = 30 * time.Second

// Task is one unit of best-effort work.
type Task func(ctx context.Context) error

type Runner struct {
	sem      *semaphore.Weighted
	wg       sync.WaitGroup
	reporter observability.Reporter
	metrics  *observability.Metrics
	timeout  time.Duration
}

func NewRunner(concurrency int64, reporter observability.Reporter, metrics *observability.Metrics) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{
		sem:      semaphore.NewWeighted(concurrency),
		reporter: reporter,
		metrics:  metrics,
		timeout:  defaultTimeout,
	}
}

// Spawn schedules task on a context detached from ctx's cancellation and returns
// immediately. Failures and panics go to the reporter with ev's identifying fields.
func (r *Runner) Spawn(ctx context.Context, name string, ev observability.Event, task Task) {
	detached := context.WithoutCancel(ctx)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		if err := r.sem.Acquire(detached, 1); err != nil {
			r.fail(detached, name, ev, err)
			return
		}
		defer r.sem.Release(1)

		runCtx, cancel := context.WithTimeout(detached, r.timeout)
		defer cancel()

		if err := r.run(runCtx, task); err != nil {
			r.fail(detached, name, ev, err)
			return
		}
		r.count(name, "ok")
	}()
}

func (r *Runner) run(ctx context.Context, task Task) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return task(ctx)
}

func (r *Runner) fail(ctx context.Context, name string, ev observability.Event, err error) {
	r.count(name, "failed")
	if r.reporter == nil {
		return
	}
	if ev.Message == "" {
		ev.Message = name + " failed"
	}
	ev.Err = err
	r.reporter.Report(ctx, ev)
}

func (r *Runner) count(name, result string) {
	if r.metrics != nil {
		r.metrics.BackgroundTasks.WithLabelValues(name, result).Inc()
	}
}

// Wait blocks until every spawned task has finished.
func (r *Runner) Wait() {
	r.wg.Wait()
}
