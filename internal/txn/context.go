package txn

import "context"

type sessionKey struct{}

// withSession marks the context as running inside the coordinator's active
// transaction. The drain loop attaches it before invoking a unit of work so
// that re-entrant Transaction calls are routed to the savepoint path.
func withSession(ctx context.Context, c *Coordinator) context.Context {
	return context.WithValue(ctx, sessionKey{}, c)
}

func sessionFrom(ctx context.Context) *Coordinator {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(sessionKey{}).(*Coordinator)
	return c
}
