package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is background work. The context is detached from the request that
// scheduled it and bounded by the pool's task timeout.
type Task func(ctx context.Context) error

type job struct {
	name string
	task Task
	ctx  context.Context
}

// Pool runs tasks on a fixed set of workers reading a bounded queue.
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
	timeout time.Duration
	log     *slog.Logger
}

type PoolOption func(*Pool)

func WithTaskTimeout(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithPoolLogger(log *slog.Logger) PoolOption {
	return func(p *Pool) {
		if log != nil {
			p.log = log
		}
	}
}

// NewPool starts workers goroutines sharing a queue of size queueSize.
func NewPool(workers, queueSize int, opts ...PoolOption) *Pool {
	p := &Pool{
		jobs:    make(chan job, max(queueSize, 1)),
		timeout: 30 * time.Second,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	for range max(workers, 1) {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	ctx, cancel := context.WithTimeout(j.ctx, p.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "background task panicked",
				slog.String("task", j.name),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	if err := j.task(ctx); err != nil {
		p.log.WarnContext(ctx, "background task failed",
			slog.String("task", j.name),
			slog.String("error", err.Error()),
		)
	}
}

// Submit queues task without blocking. Values carried by ctx (request id,
// principal) stay available to the task, its cancellation does not.
func (p *Pool) Submit(ctx context.Context, name string, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}
	select {
	case p.jobs <- job{name: name, task: task, ctx: context.WithoutCancel(ctx)}:
		return nil
	default:
		return ErrPoolFull
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish or
// for ctx to expire.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
