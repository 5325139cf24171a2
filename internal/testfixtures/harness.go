// Package testfixtures provides shared helpers for integration-style tests
// against a temporary SQLite database.
package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/dbconduit/internal/engine"
	"github.com/example/dbconduit/internal/migrate"
	"github.com/example/dbconduit/internal/txn"
)

// Harness wires an engine, coordinator and migration engine over a temporary
// database file.
type Harness struct {
	Engine  *engine.SQLite
	Coord   *txn.Coordinator
	Migrate *migrate.Engine

	closed bool
}

// Close shuts the coordinator down, which also releases the engine handle.
// Safe to call after a test already closed the coordinator itself.
func (h *Harness) Close() {
	if h == nil || h.closed {
		return
	}
	h.closed = true
	_ = h.Coord.Close()
}

// NewHarness builds a harness over a fresh database file in a temp directory.
// Cleanup is registered with the provided testing.TB.
func NewHarness(tb testing.TB) *Harness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "dbconduit.db")

	eng, err := engine.Open(context.Background(), path)
	if err != nil {
		tb.Fatalf("failed to open engine: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := txn.New(eng, logger)

	harness := &Harness{
		Engine:  eng,
		Coord:   coord,
		Migrate: migrate.New(coord, NewClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)).Now, logger),
	}

	tb.Cleanup(harness.Close)
	return harness
}
