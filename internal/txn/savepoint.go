package txn

import (
	"context"
	"fmt"

	"github.com/example/dbconduit/internal/logging"
)

// nested runs work inside a named savepoint. It is invoked only from within
// an already-executing unit of work, on the drain goroutine, so it runs
// inline and never touches the queue.
//
// Savepoint names are unique for the connection's lifetime; the counter is
// never reused even after release.
func (c *Coordinator) nested(ctx context.Context, work Work) error {
	c.spCounter++
	name := fmt.Sprintf("sp_%d", c.spCounter)

	logger := c.logger
	if l := logging.FromContext(ctx); l != nil {
		logger = l
	}
	logger = logger.With("savepoint", name)

	if _, err := c.engine.Execute(ctx, "SAVEPOINT "+name); err != nil {
		return err
	}
	c.savepoints = append(c.savepoints, name)
	c.depth++

	err := runWork(ctx, &Tx{c: c}, work)

	// The stack entry is popped on every exit path, success or failure.
	c.depth--
	c.savepoints = c.savepoints[:len(c.savepoints)-1]

	if err != nil {
		// Both statements are best effort; their failures are logged and must
		// not replace the unit of work's own error.
		if _, rbErr := c.engine.Execute(ctx, "ROLLBACK TO "+name); rbErr != nil {
			logger.Error("rollback to savepoint failed", "error", rbErr)
		}
		if _, relErr := c.engine.Execute(ctx, "RELEASE "+name); relErr != nil {
			logger.Error("release after rollback failed", "error", relErr)
		}
		logger.Debug("savepoint rolled back", "error", err)
		return err
	}

	if _, err := c.engine.Execute(ctx, "RELEASE "+name); err != nil {
		logger.Error("release failed", "error", err)
		return err
	}

	logger.Debug("savepoint released")
	return nil
}
