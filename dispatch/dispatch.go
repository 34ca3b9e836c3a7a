// Package dispatch runs named queries on a bounded worker pool. Work
// arrives on two queues, primary submissions and continuations scheduled by
// running handlers; each worker waits on both with a single select, so
// neither queue can starve the other and a burst of fresh submissions
// cannot stall pipelines that are already in flight.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrPoolClosed is returned when submitting to a closed pool.
var ErrPoolClosed = errors.New("dispatch: pool closed")

// ErrUnknownQuery indicates a submission naming a query that was never
// registered. It is delivered on the request's reply channel like any other
// failure.
type ErrUnknownQuery struct {
	Name string
}

func (e *ErrUnknownQuery) Error() string {
	return fmt.Sprintf("dispatch: unknown query %q", e.Name)
}

// Handler executes one named query.
type Handler func(ctx context.Context, arg any) (any, error)

// Result is delivered exactly once on a request's reply channel, which is
// closed afterwards.
type Result struct {
	Value any
	Err   error
}

// Options configures the pool.
type Options struct {
	// Workers is the number of workers. Defaults to GOMAXPROCS.
	Workers int
	// QueueDepth bounds each of the two queues. Defaults to 4x Workers.
	QueueDepth int
}

// DefaultOptions are the options used when none are given.
var DefaultOptions = Options{}

type task struct {
	ctx   context.Context
	fn    func(ctx context.Context) (any, error)
	reply chan Result
}

// Pool is the worker pool. Register every query before the first Submit;
// registration is not synchronized against running workers.
type Pool struct {
	handlers map[string]Handler

	primary chan task
	cont    chan task

	group  *errgroup.Group
	cancel context.CancelFunc

	// mu orders enqueues against Close: enqueuers hold the read side
	// across the closed check and the send, Close takes the write side
	// before draining.
	mu     sync.RWMutex
	closed bool
}

// New starts a pool with one goroutine per worker.
func New(optFns ...func(o *Options)) *Pool {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.QueueDepth <= 0 {
		opts.QueueDepth = 4 * opts.Workers
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)

	p := &Pool{
		handlers: make(map[string]Handler),
		primary:  make(chan task, opts.QueueDepth),
		cont:     make(chan task, opts.QueueDepth),
		group:    g,
		cancel:   cancel,
	}
	for i := 0; i < opts.Workers; i++ {
		g.Go(func() error {
			p.worker(ctx)
			return nil
		})
	}
	return p
}

// Register binds a handler to a query name, replacing any previous binding.
func (p *Pool) Register(name string, h Handler) {
	p.handlers[name] = h
}

// Submit enqueues a named query on the primary queue and returns its reply
// channel. The channel receives exactly one Result and is then closed; an
// unknown query name arrives as an error on that same channel. Submit
// blocks while the primary queue is full.
func (p *Pool) Submit(ctx context.Context, name string, arg any) (<-chan Result, error) {
	h, ok := p.handlers[name]
	if !ok {
		reply := make(chan Result, 1)
		reply <- Result{Err: &ErrUnknownQuery{Name: name}}
		close(reply)
		return reply, nil
	}
	return p.enqueue(ctx, p.primary, func(ctx context.Context) (any, error) {
		return h(ctx, arg)
	})
}

// Continue enqueues follow-up work on the continuation queue. Handlers use
// it to split long pipelines into stages without re-entering the primary
// queue behind fresh submissions.
func (p *Pool) Continue(ctx context.Context, fn func(ctx context.Context) (any, error)) (<-chan Result, error) {
	return p.enqueue(ctx, p.cont, fn)
}

// enqueue holds the read lock from the closed check through the send, so a
// task that clears the check is in the queue before Close can start its
// drain; nothing can be stranded in the buffer with no one left to deliver
// its result. Blocking on a full queue under the read lock is safe: the
// workers keep draining until Close acquires the write lock, which it
// cannot do while the send is pending.
func (p *Pool) enqueue(ctx context.Context, q chan task, fn func(ctx context.Context) (any, error)) (<-chan Result, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	t := task{ctx: ctx, fn: fn, reply: make(chan Result, 1)}
	select {
	case q <- t:
		return t.reply, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// worker drains both queues until the pool shuts down. A single select
// over both channels is the fairness mechanism: when both are ready the
// runtime picks uniformly, so primary load and continuation load interleave.
func (p *Pool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-p.primary:
			p.run(t)
		case t := <-p.cont:
			p.run(t)
		}
	}
}

func (p *Pool) run(t task) {
	if err := t.ctx.Err(); err != nil {
		t.reply <- Result{Err: err}
		close(t.reply)
		return
	}
	v, err := t.fn(t.ctx)
	t.reply <- Result{Value: v, Err: err}
	close(t.reply)
}

// Close stops accepting work, cancels the workers and waits for them to
// exit. Queued tasks that never ran receive ErrPoolClosed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	err := p.group.Wait()

	for {
		select {
		case t := <-p.primary:
			t.reply <- Result{Err: ErrPoolClosed}
			close(t.reply)
		case t := <-p.cont:
			t.reply <- Result{Err: ErrPoolClosed}
			close(t.reply)
		default:
			return err
		}
	}
}
