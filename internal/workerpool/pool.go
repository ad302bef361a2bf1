// Package workerpool runs submitted work items on a fixed set of goroutines.
//
// Items are dispatched in submission order. Shutdown drains the queue: every
// item accepted by Submit is started before the workers exit.
package workerpool

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
)

// ErrPoolClosed is returned by Submit once shutdown has begun.
var ErrPoolClosed = errors.New("worker pool is closed")

type state uint8

const (
	stateRunning state = iota
	stateDraining
	stateStopped
)

func (s state) String() string {
	switch s {
	case stateRunning:
		return "running"
	case stateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// Stats is a snapshot of pool counters.
type Stats struct {
	Size      int
	Queued    int
	Running   int
	Submitted uint64
	Started   uint64
	Completed uint64
	Panicked  uint64
}

// Option configures a Pool.
type Option func(*Pool)

// WithLogger sets the logger used for lifecycle and panic events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPanicHandler installs a callback invoked with the recovered value when
// an item panics. The worker survives the panic either way.
func WithPanicHandler(fn func(any)) Option {
	return func(p *Pool) { p.onPanic = fn }
}

// Pool owns a fixed number of worker goroutines pulling from a FIFO queue.
type Pool struct {
	size    int
	logger  *slog.Logger
	onPanic func(any)

	mu      sync.Mutex
	cond    *sync.Cond // signalled on submit, dequeue and state changes
	queue   []func()
	head    int
	state   state
	running int

	submitted uint64
	started   uint64
	completed uint64
	panicked  uint64

	workers      sync.WaitGroup
	shutdownOnce sync.Once
	closing      chan struct{}
	stopped      chan struct{}
}

// DefaultSize returns the default degree of parallelism: one less than the
// number of CPUs, but at least one.
func DefaultSize() int {
	return max(runtime.NumCPU()-1, 1)
}

// New starts a pool of size workers. size <= 0 selects DefaultSize.
func New(size int, opts ...Option) *Pool {
	if size <= 0 {
		size = DefaultSize()
	}
	p := &Pool{
		size:    size,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		closing: make(chan struct{}),
		stopped: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "workerpool")
	p.cond = sync.NewCond(&p.mu)

	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	p.logger.Debug("worker pool started", "size", size)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit enqueues item for asynchronous execution.
func (p *Pool) Submit(item func()) error {
	if item == nil {
		return errors.New("workerpool: nil work item")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != stateRunning {
		return fmt.Errorf("%w (%s)", ErrPoolClosed, p.state)
	}
	p.queue = append(p.queue, item)
	p.submitted++
	p.cond.Signal()
	return nil
}

// Done returns a channel that is closed as soon as shutdown begins.
func (p *Pool) Done() <-chan struct{} { return p.closing }

// Shutdown stops accepting work, waits until every queued item has started,
// then stops the workers and waits for them to exit. Items that are still
// running finish before Shutdown returns. Calling Shutdown again, or
// concurrently, waits for the first call to complete.
func (p *Pool) Shutdown() {
	p.shutdownOnce.Do(func() {
		p.mu.Lock()
		p.state = stateDraining
		close(p.closing)
		p.cond.Broadcast()
		for p.pending() > 0 {
			p.cond.Wait()
		}
		p.state = stateStopped
		p.cond.Broadcast()
		p.mu.Unlock()

		p.workers.Wait()
		p.logger.Debug("worker pool stopped",
			"completed", p.completedCount(), "panicked", p.panickedCount())
		close(p.stopped)
	})
	<-p.stopped
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Size:      p.size,
		Queued:    p.pending(),
		Running:   p.running,
		Submitted: p.submitted,
		Started:   p.started,
		Completed: p.completed,
		Panicked:  p.panicked,
	}
}

// pending must be called with mu held.
func (p *Pool) pending() int { return len(p.queue) - p.head }

func (p *Pool) completedCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed
}

func (p *Pool) panickedCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.panicked
}

// next blocks until an item is available or the pool has stopped. The
// dequeue and the running count change together under mu.
func (p *Pool) next() (func(), bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending() == 0 {
		if p.state == stateStopped {
			return nil, false
		}
		p.cond.Wait()
	}
	item := p.queue[p.head]
	p.queue[p.head] = nil
	p.head++
	if p.head == len(p.queue) {
		p.queue = p.queue[:0]
		p.head = 0
	}
	p.running++
	p.started++
	if p.state == stateDraining && p.pending() == 0 {
		// wake Shutdown
		p.cond.Broadcast()
	}
	return item, true
}

func (p *Pool) worker(id int) {
	defer p.workers.Done()
	for {
		item, ok := p.next()
		if !ok {
			return
		}
		panicked := p.run(id, item)

		p.mu.Lock()
		p.running--
		p.completed++
		if panicked {
			p.panicked++
		}
		p.mu.Unlock()
	}
}

func (p *Pool) run(id int, item func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			p.logger.Error("work item panicked", "worker", id, "panic", r)
			if p.onPanic != nil {
				p.onPanic(r)
			}
		}
	}()
	item()
	return false
}
