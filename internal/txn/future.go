package txn

import "context"

// Future is the pending outcome of a submitted transaction.
type Future struct {
	done chan struct{}
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// settle records the outcome exactly once and releases all waiters.
func (f *Future) settle(err error) {
	f.err = err
	close(f.done)
}

// Wait blocks until the transaction has committed or rolled back and returns
// its outcome. Cancelling the context detaches the waiter only; a transaction
// already admitted to the queue still executes.
func (f *Future) Wait(ctx context.Context) error {
	select {
	case <-f.done:
		return f.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed once the transaction has settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}
