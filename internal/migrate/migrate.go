// Package migrate tracks schema versions in a reserved table and applies or
// rolls back caller-supplied migration definitions, one coordinator
// transaction per version.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/dbconduit/internal/txn"
)

// TrackingTable is the reserved table recording applied migration versions.
// It never appears in user-facing table listings.
const TrackingTable = "schema_migrations"

const createTrackingTableSQL = `CREATE TABLE IF NOT EXISTS ` + TrackingTable + ` (
	version INTEGER PRIMARY KEY,
	applied_at TEXT NOT NULL
)`

// Engine applies and rolls back versioned migrations through the transaction
// coordinator. It keeps no durable state of its own; the tracking rows are
// the sole source of truth for the current version.
type Engine struct {
	coord  *txn.Coordinator
	now    func() time.Time
	logger *slog.Logger
}

// New creates a migration engine. A nil now defaults to time.Now and a nil
// logger to slog.Default.
func New(coord *txn.Coordinator, now func() time.Time, logger *slog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{coord: coord, now: now, logger: logger}
}

// CurrentVersion returns the highest version recorded in the tracking table.
// A missing or empty table yields 0.
func (m *Engine) CurrentVersion(ctx context.Context) (int, error) {
	var current int
	err := m.coord.Transaction(ctx, func(ctx context.Context, tx *txn.Tx) error {
		rows, err := tx.Query(ctx, `SELECT COALESCE(MAX(version), 0) FROM `+TrackingTable)
		if err != nil {
			if isMissingTable(err) {
				return nil
			}
			return err
		}
		if rows.Len() > 0 {
			current = intValue(rows.Values[0][0])
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return current, nil
}

// Migrate applies every definition with a version above the current one, in
// ascending version order regardless of input order. Each migration commits
// in its own transaction together with its tracking row; a failure aborts the
// run but leaves earlier migrations committed. The returned slice lists the
// versions actually applied, ascending.
func (m *Engine) Migrate(ctx context.Context, defs []Definition) ([]int, error) {
	applied := []int{}

	if err := Validate(defs); err != nil {
		return applied, err
	}
	if len(defs) == 0 {
		return applied, nil
	}

	if err := m.ensureTrackingTable(ctx); err != nil {
		return applied, err
	}
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return applied, err
	}

	for _, def := range sortedByVersion(defs) {
		if def.Version <= current {
			continue
		}

		start := time.Now()
		version := def.Version
		up := def.Up
		appliedAt := m.now().UTC().Format(time.RFC3339)

		err := m.coord.Transaction(ctx, func(ctx context.Context, tx *txn.Tx) error {
			for _, stmt := range splitStatements(up) {
				if _, err := tx.Execute(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Execute(ctx,
				`INSERT INTO `+TrackingTable+` (version, applied_at) VALUES (?, ?)`,
				version, appliedAt)
			return err
		})
		if err != nil {
			m.logger.Error("migration failed", "version", version, "error", err)
			return applied, NewMigrationError(version, "apply", err)
		}

		m.logger.Info("migration applied",
			"version", version, "name", def.Name, "elapsed", time.Since(start))
		if def.Checksum != "" {
			m.logger.Debug("migration source", "version", version,
				"file", def.Source, "checksum", def.Checksum)
		}
		applied = append(applied, version)
	}

	return applied, nil
}

// Rollback reverts every tracked version above target, highest first. Each
// step runs its down script and deletes the tracking row in one transaction;
// a failure aborts the run but leaves earlier steps rolled back. The returned
// slice lists the versions rolled back, descending.
func (m *Engine) Rollback(ctx context.Context, target int, defs []Definition) ([]int, error) {
	rolled := []int{}

	if target < 0 {
		return rolled, NewValidationError(target,
			fmt.Errorf("%w: target %d is negative", ErrTargetOutOfRange, target))
	}
	if err := Validate(defs); err != nil {
		return rolled, err
	}

	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return rolled, err
	}
	if target > current {
		return rolled, NewValidationError(target,
			fmt.Errorf("%w: target %d is above current version %d", ErrTargetOutOfRange, target, current))
	}

	tracked, err := m.trackedVersionsAbove(ctx, target)
	if err != nil {
		return rolled, err
	}
	if len(tracked) == 0 {
		return rolled, nil
	}

	index := byVersion(defs)
	hasDown := false
	for _, def := range defs {
		if strings.TrimSpace(def.Down) != "" {
			hasDown = true
			break
		}
	}
	if !hasDown {
		return rolled, NewMigrationError(tracked[0], "rollback", ErrMissingDownScript)
	}

	for _, version := range tracked {
		def, ok := index[version]
		if !ok || strings.TrimSpace(def.Down) == "" {
			return rolled, NewMigrationError(version, "rollback", ErrMissingDownScript)
		}

		down := def.Down
		v := version
		err := m.coord.Transaction(ctx, func(ctx context.Context, tx *txn.Tx) error {
			for _, stmt := range splitStatements(down) {
				if _, err := tx.Execute(ctx, stmt); err != nil {
					return err
				}
			}
			_, err := tx.Execute(ctx, `DELETE FROM `+TrackingTable+` WHERE version = ?`, v)
			return err
		})
		if err != nil {
			m.logger.Error("rollback failed", "version", version, "error", err)
			return rolled, NewMigrationError(version, "rollback", err)
		}

		m.logger.Info("migration rolled back", "version", version, "name", def.Name)
		rolled = append(rolled, version)
	}

	return rolled, nil
}

// Tables lists user tables, excluding the tracking table and SQLite
// internals.
func (m *Engine) Tables(ctx context.Context) ([]string, error) {
	var tables []string
	err := m.coord.Transaction(ctx, func(ctx context.Context, tx *txn.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT name FROM sqlite_schema
			 WHERE type = 'table' AND name NOT LIKE 'sqlite_%' AND name <> ?
			 ORDER BY name`, TrackingTable)
		if err != nil {
			return err
		}
		for _, row := range rows.Values {
			if name, ok := row[0].(string); ok {
				tables = append(tables, name)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tables, nil
}

func (m *Engine) ensureTrackingTable(ctx context.Context) error {
	return m.coord.Transaction(ctx, func(ctx context.Context, tx *txn.Tx) error {
		_, err := tx.Execute(ctx, createTrackingTableSQL)
		return err
	})
}

func (m *Engine) trackedVersionsAbove(ctx context.Context, target int) ([]int, error) {
	var versions []int
	err := m.coord.Transaction(ctx, func(ctx context.Context, tx *txn.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT version FROM `+TrackingTable+` WHERE version > ? ORDER BY version DESC`,
			target)
		if err != nil {
			if isMissingTable(err) {
				return nil
			}
			return err
		}
		for _, row := range rows.Values {
			versions = append(versions, intValue(row[0]))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// splitStatements breaks a script into individual statements, dropping
// comment-only lines, so multi-statement scripts run one statement per
// engine call.
func splitStatements(script string) []string {
	var statements []string
	for _, raw := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}

// isMissingTable matches the driver's "no such table" report for the
// tracking table, which callers treat as version 0 rather than an error.
func isMissingTable(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table: "+TrackingTable)
}

func intValue(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
