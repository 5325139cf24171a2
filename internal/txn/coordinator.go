package txn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/dbconduit/internal/engine"
	"github.com/example/dbconduit/internal/logging"
)

// Work is a unit of work executed within a transaction scope. Statements are
// issued through the Tx handle; returning an error rolls the scope back and
// the same error is delivered to the caller unchanged.
type Work func(ctx context.Context, tx *Tx) error

// Tx gives a unit of work statement access to the engine for the duration of
// its transaction scope.
type Tx struct {
	c *Coordinator
}

// Execute runs a statement that returns no rows.
func (t *Tx) Execute(ctx context.Context, query string, args ...any) (engine.Result, error) {
	return t.c.engine.Execute(ctx, query, args...)
}

// Query runs a statement and materializes its result set.
func (t *Tx) Query(ctx context.Context, query string, args ...any) (*engine.Rows, error) {
	return t.c.engine.Query(ctx, query, args...)
}

// entry is a queued top-level transaction awaiting the drain loop.
type entry struct {
	id       string
	work     Work
	future   *Future
	ctx      context.Context
	enqueued time.Time
}

// Coordinator owns the engine handle and serializes top-level transactions
// through a FIFO queue drained by at most one worker goroutine at a time.
// Nested transactions run inline as savepoints and never touch the queue.
type Coordinator struct {
	engine engine.Engine
	logger *slog.Logger

	mu       sync.Mutex
	queue    []*entry
	draining bool
	closed   bool
	idle     *sync.Cond

	// Session state below is touched only from the drain goroutine while it
	// is executing an entry, so it needs no locking of its own.
	depth      int
	savepoints []string
	spCounter  uint64
}

// New creates a coordinator owning the given engine handle.
func New(eng engine.Engine, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{engine: eng, logger: logger}
	c.idle = sync.NewCond(&c.mu)
	return c
}

// Submit appends a top-level transaction to the FIFO queue and schedules the
// drain loop. The returned Future settles once the transaction has committed
// or rolled back. Admission order is the order Submit calls are made, and
// commit order follows admission order regardless of how long each unit of
// work takes.
//
// A Submit made from inside a running unit of work executes inline as a
// savepoint and returns an already settled Future.
func (c *Coordinator) Submit(ctx context.Context, work Work) *Future {
	if sessionFrom(ctx) == c && c.depth > 0 {
		fut := newFuture()
		fut.settle(c.nested(ctx, work))
		return fut
	}

	fut := newFuture()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		fut.settle(ErrClosed)
		return fut
	}
	e := &entry{
		id:       uuid.NewString(),
		work:     work,
		future:   fut,
		ctx:      ctx,
		enqueued: time.Now(),
	}
	c.queue = append(c.queue, e)
	scheduled := !c.draining
	if scheduled {
		c.draining = true
	}
	c.mu.Unlock()

	c.logger.Debug("transaction queued", "tx", e.id)
	if scheduled {
		go c.drain()
	}
	return fut
}

// Transaction executes work in a transaction scope and blocks until it has
// settled. When the context carries this coordinator's active session the
// work runs inline as a nested savepoint; otherwise it is queued as a
// top-level transaction.
func (c *Coordinator) Transaction(ctx context.Context, work Work) error {
	if sessionFrom(ctx) == c && c.depth > 0 {
		return c.nested(ctx, work)
	}
	return c.Submit(ctx, work).Wait(ctx)
}

// InTransaction reports whether the context is inside one of this
// coordinator's transaction scopes.
func (c *Coordinator) InTransaction(ctx context.Context) bool {
	return sessionFrom(ctx) == c && c.depth > 0
}

// Close rejects every still-queued entry with ErrClosed, waits for an
// in-flight transaction to finish, and releases the engine handle. Queued
// entries are never executed after Close. Closing twice returns ErrClosed.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.closed = true
	pending := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, e := range pending {
		c.logger.Warn("rejecting queued transaction on close", "tx", e.id)
		e.future.settle(ErrClosed)
	}

	c.mu.Lock()
	for c.draining {
		c.idle.Wait()
	}
	c.mu.Unlock()

	return c.engine.Close()
}

// drain pops queued entries one at a time until the queue is empty or the
// coordinator closes. Exactly one drain goroutine is live at any moment; the
// draining flag is the re-entrancy guard.
func (c *Coordinator) drain() {
	for {
		c.mu.Lock()
		if c.closed || len(c.queue) == 0 {
			c.draining = false
			c.idle.Broadcast()
			c.mu.Unlock()
			return
		}
		e := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		c.run(e)
	}
}

// run frames one queued entry with BEGIN and COMMIT or ROLLBACK. The unit of
// work's own error is delivered unchanged; a rollback failure is logged and
// never replaces it. One entry failing must not stall the queue, so run never
// panics outward.
func (c *Coordinator) run(e *entry) {
	logger := c.logger.With("tx", e.id)
	ctx := withSession(logging.WithLogger(e.ctx, logger), c)

	logger.Debug("transaction starting", "queued_for", time.Since(e.enqueued))

	if _, err := c.engine.Execute(ctx, "BEGIN"); err != nil {
		logger.Error("begin failed", "error", err)
		e.future.settle(err)
		return
	}
	c.depth = 1

	err := runWork(ctx, &Tx{c: c}, e.work)

	c.depth = 0
	c.savepoints = c.savepoints[:0]

	if err != nil {
		if _, rbErr := c.engine.Execute(ctx, "ROLLBACK"); rbErr != nil {
			logger.Error("rollback failed", "error", rbErr)
		}
		logger.Debug("transaction rolled back", "error", err)
		e.future.settle(err)
		return
	}

	if _, err := c.engine.Execute(ctx, "COMMIT"); err != nil {
		logger.Error("commit failed", "error", err)
		if _, rbErr := c.engine.Execute(ctx, "ROLLBACK"); rbErr != nil {
			logger.Error("rollback after failed commit failed", "error", rbErr)
		}
		e.future.settle(err)
		return
	}

	logger.Debug("transaction committed")
	e.future.settle(nil)
}

// runWork invokes the unit of work, converting a panic into an error so the
// scope is still rolled back and the queue keeps moving.
func runWork(ctx context.Context, tx *Tx, work Work) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("unit of work panicked: %v", p)
		}
	}()
	return work(ctx, tx)
}
