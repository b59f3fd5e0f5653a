// Package engine owns the single embedded engine connection and serializes every call on it.
//
// Requests are queued in submission order and run one at a time by a dispatcher goroutine,
// so overlapping callers complete in the order they submitted and rows are never attributed
// across calls. A request whose context is already done when the dispatcher reaches it is
// skipped; once dispatched a request runs to completion regardless of its caller's context,
// bounded only by Options.QueryTimeout.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andrew2loo/RethinkBI/internal/adapters/database"
	"github.com/andrew2loo/RethinkBI/internal/apierr"
	"github.com/andrew2loo/RethinkBI/internal/core/query/domain"
	"github.com/andrew2loo/RethinkBI/internal/debug"
)

// ErrClosed is returned for requests submitted after Close.
var ErrClosed = errors.New("engine closed")

// Options configures an Engine.
type Options struct {
	// Name identifies the engine in status reports, e.g. "duckdb".
	Name string
	// QueryTimeout bounds each dispatched request, 0 for no bound.
	QueryTimeout time.Duration
	Logger       *slog.Logger
}

// Engine is the explicit handle to the one engine connection.
type Engine struct {
	adapter database.Adapter
	opts    Options
	log     *slog.Logger

	initMu      sync.Mutex
	initialized bool

	mu      sync.Mutex
	cond    *sync.Cond
	queue   []*task
	closed  bool
	stopped chan struct{}
	// closeErr is the adapter's Disconnect error, set before stopped is closed.
	closeErr error

	seq      atomic.Uint64
	inFlight atomic.Int64
}

// New creates an engine over adapter. The adapter is not touched until Init.
func New(adapter database.Adapter, opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = debug.With("component", "engine")
	}
	if opts.Name == "" {
		opts.Name = string(adapter.GetDialect())
	}

	e := &Engine{
		adapter: adapter,
		opts:    opts,
		log:     log,
		stopped: make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)
	return e
}

// Init connects the adapter and starts the dispatcher. Calling it again is a no-op.
func (e *Engine) Init(ctx context.Context) error {
	e.initMu.Lock()
	defer e.initMu.Unlock()

	if e.initialized {
		return nil
	}

	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return apierr.Wrap(apierr.Internal, ErrClosed, "failed to initialize engine")
	}

	if err := e.adapter.Connect(ctx); err != nil {
		return apierr.Wrap(apierr.Internal, err, "failed to initialize engine")
	}

	go e.dispatch()
	e.initialized = true
	e.log.Debug("engine initialized", "dialect", e.adapter.GetDialect())
	return nil
}

// Initialized reports whether Init has succeeded.
func (e *Engine) Initialized() bool {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	return e.initialized
}

// Name returns the engine name used in status reports.
func (e *Engine) Name() string { return e.opts.Name }

// Dialect returns the adapter's SQL dialect.
func (e *Engine) Dialect() database.SQLDialect { return e.adapter.GetDialect() }

// Busy reports whether any request is queued or running.
func (e *Engine) Busy() bool { return e.inFlight.Load() > 0 }

// InFlight returns the number of queued or running requests.
func (e *Engine) InFlight() int { return int(e.inFlight.Load()) }

// Submit queues a query and returns its future.
func (e *Engine) Submit(ctx context.Context, q domain.SQL) *Pending[*domain.Result] {
	return submit(e, ctx, "query", func(ctx context.Context, a database.Adapter) (*domain.Result, error) {
		rows, err := a.Query(ctx, q.Query, q.Args...)
		if err != nil {
			return nil, err
		}
		return database.ScanRows(rows, q.MaxRows, a.ConvertValue)
	})
}

// Run executes q and waits for its rows.
func (e *Engine) Run(ctx context.Context, q domain.SQL) (*domain.Result, error) {
	return e.Submit(ctx, q).Wait()
}

// Execute runs query text with bound arguments and returns its rows.
func (e *Engine) Execute(ctx context.Context, query string, args ...any) (*domain.Result, error) {
	return e.Run(ctx, domain.SQL{Query: query, Args: args})
}

// Exec runs a statement that returns no rows and reports the affected row count when the
// driver knows it, -1 otherwise.
func (e *Engine) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return submit(e, ctx, "exec", func(ctx context.Context, a database.Adapter) (int64, error) {
		res, err := a.Execute(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return -1, nil
		}
		return n, nil
	}).Wait()
}

// Do runs fn on the dispatcher with exclusive use of the adapter. fn must not retain a.
func (e *Engine) Do(ctx context.Context, fn func(ctx context.Context, a database.Adapter) error) error {
	_, err := submit(e, ctx, "do", func(ctx context.Context, a database.Adapter) (struct{}, error) {
		return struct{}{}, fn(ctx, a)
	}).Wait()
	return err
}

// Version returns the engine's version string.
func (e *Engine) Version(ctx context.Context) (string, error) {
	return submit(e, ctx, "version", func(ctx context.Context, a database.Adapter) (string, error) {
		return a.Version(ctx)
	}).Wait()
}

// Close stops accepting requests, drains the queue and disconnects the adapter. If ctx ends
// before the queue drains Close returns early; the dispatcher still disconnects the adapter
// once the last queued request finishes.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	if !e.Initialized() {
		return nil
	}

	select {
	case <-e.stopped:
	case <-ctx.Done():
		return fmt.Errorf("failed to drain engine queue: %w", ctx.Err())
	}

	if e.closeErr != nil {
		return fmt.Errorf("failed to close engine: %w", e.closeErr)
	}
	return nil
}

func submit[T any](e *Engine, ctx context.Context, op string, fn func(context.Context, database.Adapter) (T, error)) *Pending[T] {
	t := &task{
		ctx:  ctx,
		op:   op,
		done: make(chan struct{}),
	}
	t.fn = func(ctx context.Context, a database.Adapter) (any, error) {
		return fn(ctx, a)
	}
	p := &Pending[T]{t: t}

	if err := e.Init(ctx); err != nil {
		t.finish(nil, err)
		return p
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		t.finish(nil, apierr.Wrap(apierr.Internal, ErrClosed, "request rejected"))
		return p
	}
	t.seq = e.seq.Add(1)
	e.inFlight.Add(1)
	e.queue = append(e.queue, t)
	e.cond.Signal()
	e.mu.Unlock()

	return p
}

// dispatch drains the queue in FIFO order until Close, then disconnects the adapter.
func (e *Engine) dispatch() {
	defer close(e.stopped)

	for {
		e.mu.Lock()
		for len(e.queue) == 0 && !e.closed {
			e.cond.Wait()
		}
		if len(e.queue) == 0 {
			e.mu.Unlock()
			e.closeErr = e.adapter.Disconnect(context.Background())
			e.log.Debug("engine closed")
			return
		}
		t := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()

		e.run(t)
		e.inFlight.Add(-1)
	}
}

func (e *Engine) run(t *task) {
	if err := t.ctx.Err(); err != nil {
		e.log.Debug("skipped cancelled request", "seq", t.seq, "op", t.op)
		t.finish(nil, apierr.Wrap(apierr.Internal, err, "request cancelled before dispatch").
			WithDetail("cancelled", true))
		return
	}

	ctx := context.WithoutCancel(t.ctx)
	if e.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	value, err := e.call(ctx, t)
	e.log.Debug("request finished", "seq", t.seq, "op", t.op, "duration", time.Since(start), "error", err)

	if err != nil {
		var apiErr *apierr.Error
		if !errors.As(err, &apiErr) {
			err = apierr.Wrap(apierr.Internal, err, "engine error")
		}
		t.finish(nil, err)
		return
	}
	t.finish(value, nil)
}

func (e *Engine) call(ctx context.Context, t *task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", t.op, r)
		}
	}()
	return t.fn(ctx, e.adapter)
}

type task struct {
	ctx context.Context
	seq uint64
	op  string
	fn  func(context.Context, database.Adapter) (any, error)

	done  chan struct{}
	value any
	err   error
}

func (t *task) finish(value any, err error) {
	t.value = value
	t.err = err
	close(t.done)
}

// Pending is the future of a submitted request.
type Pending[T any] struct {
	t *task
}

// Done is closed once the request has completed or been skipped.
func (p *Pending[T]) Done() <-chan struct{} { return p.t.done }

// Seq returns the submission sequence number, 0 when the request was never queued.
func (p *Pending[T]) Seq() uint64 { return p.t.seq }

// Wait blocks until the request completes and returns its outcome.
func (p *Pending[T]) Wait() (T, error) {
	<-p.t.done
	var zero T
	if p.t.err != nil {
		return zero, p.t.err
	}
	v, _ := p.t.value.(T)
	return v, nil
}
