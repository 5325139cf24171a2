package engine

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite executes statements against a single pinned SQLite connection.
//
// The connection is pinned because transaction control is expressed as plain
// statements (BEGIN, SAVEPOINT, ...) and those only make sense when every
// statement of a session reaches the same underlying connection. database/sql
// pooling would otherwise scatter them.
type SQLite struct {
	db     *sql.DB
	conn   *sql.Conn
	closed bool
}

// Open opens a SQLite database using the modernc.org/sqlite driver and pins a
// single connection for the engine's lifetime. For file-based databases pass a
// path or file: DSN; pass ":memory:" for an in-memory database.
func Open(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", dsn, err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pin connection for %q: %w", dsn, err)
	}

	return &SQLite{db: db, conn: conn}, nil
}

// Execute runs a statement that returns no rows.
func (s *SQLite) Execute(ctx context.Context, query string, args ...any) (Result, error) {
	if s.closed {
		return Result{}, ErrClosed
	}

	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, NewError("execute", query, err)
	}

	// SQLite always reports both values; errors here would indicate a driver
	// defect, so they are folded into zero counts.
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()

	return Result{RowsAffected: affected, LastInsertID: lastID}, nil
}

// Query runs a statement and materializes the full result set.
func (s *SQLite) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewError("query", query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, NewError("query", query, err)
	}

	result := &Rows{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, NewError("query", query, err)
		}
		result.Values = append(result.Values, values)
	}
	if err := rows.Err(); err != nil {
		return nil, NewError("query", query, err)
	}

	return result, nil
}

// Close releases the pinned connection and the database handle.
func (s *SQLite) Close() error {
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	connErr := s.conn.Close()
	dbErr := s.db.Close()
	if connErr != nil {
		return fmt.Errorf("close connection: %w", connErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close database: %w", dbErr)
	}
	return nil
}
