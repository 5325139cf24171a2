// Package txn serializes logically concurrent callers onto a single
// synchronous SQL engine.
//
// Top-level transactions are admitted into a FIFO queue and drained one at a
// time by a single worker goroutine, each framed with BEGIN and COMMIT or
// ROLLBACK. A Transaction call made from inside a running unit of work is
// detected through the context and runs inline as a named savepoint instead
// of being queued.
//
// The coordinator is the only component that may emit transaction-control
// statements; everything else goes through the Tx handle passed to the unit
// of work.
package txn
