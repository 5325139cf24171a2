// Package engine provides the synchronous SQL execution facade that the
// transaction coordinator drives. Implementations execute exactly one
// statement at a time and perform no concurrency control of their own;
// serializing callers onto the statement stream is the coordinator's job.
package engine

import "context"

// Result reports the outcome of a statement that does not return rows.
type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Rows holds a fully materialized result set. The facade is synchronous, so
// results are read eagerly rather than streamed.
type Rows struct {
	Columns []string
	Values  [][]any
}

// Len returns the number of result rows.
func (r *Rows) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Values)
}

// Engine is the execution surface required by the coordinator and the
// migration engine.
type Engine interface {
	// Execute runs a statement that returns no rows.
	Execute(ctx context.Context, query string, args ...any) (Result, error)

	// Query runs a statement and materializes its result set.
	Query(ctx context.Context, query string, args ...any) (*Rows, error)

	// Close releases the underlying connection.
	Close() error
}
