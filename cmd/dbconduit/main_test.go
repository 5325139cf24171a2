package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/dbconduit/internal/config"
	"github.com/example/dbconduit/internal/engine"
	"github.com/example/dbconduit/internal/migrate"
	"github.com/example/dbconduit/internal/txn"
)

func setupTool(t *testing.T) (config.Config, *migrate.Engine) {
	t.Helper()

	tempDir := t.TempDir()
	migrationsDir := filepath.Join(tempDir, "migrations")
	if err := os.MkdirAll(migrationsDir, 0o755); err != nil {
		t.Fatalf("failed to create migrations dir: %v", err)
	}

	migration1 := `-- +migrate Up
CREATE TABLE users (id INTEGER PRIMARY KEY);

-- +migrate Down
DROP TABLE users;
`
	if err := os.WriteFile(filepath.Join(migrationsDir, "001_create_users.sql"), []byte(migration1), 0o644); err != nil {
		t.Fatalf("failed to write migration file: %v", err)
	}

	cfg := config.Config{
		DSN:           filepath.Join(tempDir, "tool.db"),
		MigrationsDir: migrationsDir,
		LogLevel:      "error",
	}

	eng, err := engine.Open(context.Background(), cfg.DSN)
	if err != nil {
		t.Fatalf("failed to open engine: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	coord := txn.New(eng, logger)
	t.Cleanup(func() { _ = coord.Close() })

	return cfg, migrate.New(coord, time.Now, logger)
}

func TestRunCommand_MigrateThenVersionAndRollback(t *testing.T) {
	cfg, migrator := setupTool(t)
	ctx := context.Background()
	target := 0

	if err := runCommand(ctx, "migrate", cfg, migrator, &target); err != nil {
		t.Fatalf("migrate command failed: %v", err)
	}

	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 1 {
		t.Fatalf("expected schema version 1 after migrate, got %d", version)
	}

	if err := runCommand(ctx, "status", cfg, migrator, &target); err != nil {
		t.Fatalf("status command failed: %v", err)
	}

	if err := runCommand(ctx, "rollback", cfg, migrator, &target); err != nil {
		t.Fatalf("rollback command failed: %v", err)
	}
	version, err = migrator.CurrentVersion(ctx)
	if err != nil {
		t.Fatalf("CurrentVersion failed: %v", err)
	}
	if version != 0 {
		t.Fatalf("expected schema version 0 after rollback, got %d", version)
	}
}

func TestRunCommand_UnknownCommand(t *testing.T) {
	cfg, migrator := setupTool(t)
	target := 0

	if err := runCommand(context.Background(), "vacuum", cfg, migrator, &target); err == nil {
		t.Fatal("expected an error for an unknown command")
	}
}
