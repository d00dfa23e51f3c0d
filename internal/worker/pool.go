package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/neshyamekala/Medicall/internal"
)

// Task is one unit of fire-and-forget work, typically a single send.
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Pool runs submitted tasks on a fixed number of goroutines. Submit never
// blocks the caller; results are only logged.
type Pool struct {
	tasks  chan job
	logger internal.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

func NewPool(workers, queueSize int, logger internal.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		tasks:  make(chan job, queueSize),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.tasks {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Errorf("worker: task %s panicked: %v", j.name, r)
		}
	}()
	if err := j.run(p.ctx); err != nil {
		p.logger.Errorf("worker: task %s failed: %v", j.name, err)
		return
	}
	p.logger.Debugf("worker: task %s done", j.name)
}

// Submit queues a task. It returns false when the queue is full or the pool
// is stopped; the task is dropped in that case.
func (p *Pool) Submit(name string, t Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warnf("worker: pool stopped, dropping task %s", name)
		return false
	}
	select {
	case p.tasks <- job{name: name, run: t}:
		return true
	default:
		p.logger.Warnf("worker: queue full, dropping task %s", name)
		return false
	}
}

// Stop refuses new tasks and waits for queued ones to finish. If ctx ends
// first, running tasks see their context cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("worker: stop: %w", ctx.Err())
	}
}
