// Command dbconduit applies and rolls back versioned schema migrations
// against a SQLite database file.
//
// Usage:
//
//	dbconduit [-config file] [-target N] <migrate|rollback|version|status>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/dbconduit/internal/config"
	"github.com/example/dbconduit/internal/engine"
	"github.com/example/dbconduit/internal/logging"
	"github.com/example/dbconduit/internal/migrate"
	"github.com/example/dbconduit/internal/txn"
)

func main() {
	flags := flag.NewFlagSet("dbconduit", flag.ExitOnError)
	configPath := flags.String("config", "", "optional YAML configuration file")
	target := flags.Int("target", 0, "rollback target version")
	flags.Usage = func() {
		fmt.Fprintln(flags.Output(), "usage: dbconduit [-config file] [-target N] <migrate|rollback|version|status>")
		flags.PrintDefaults()
	}
	_ = flags.Parse(os.Args[1:])

	if flags.NArg() != 1 {
		flags.Usage()
		os.Exit(2)
	}
	command := flags.Arg(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dbconduit: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stderr, cfg.LogLevel)

	eng, err := engine.Open(ctx, cfg.DSN)
	if err != nil {
		logger.Error("failed to open database", "dsn", cfg.DSN, "error", err)
		os.Exit(1)
	}

	coord := txn.New(eng, logger)
	defer func() {
		if cerr := coord.Close(); cerr != nil && cerr != txn.ErrClosed {
			logger.Error("failed to close coordinator", "error", cerr)
		}
	}()

	migrator := migrate.New(coord, time.Now, logger)

	if err := runCommand(ctx, command, cfg, migrator, target); err != nil {
		logger.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func runCommand(ctx context.Context, command string, cfg config.Config, migrator *migrate.Engine, target *int) error {
	switch command {
	case "migrate":
		defs, err := migrate.ScanDir(cfg.MigrationsDir)
		if err != nil {
			return err
		}
		applied, err := migrator.Migrate(ctx, defs)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s): %v\n", len(applied), applied)
		return nil

	case "rollback":
		defs, err := migrate.ScanDir(cfg.MigrationsDir)
		if err != nil {
			return err
		}
		rolled, err := migrator.Rollback(ctx, *target, defs)
		if err != nil {
			return err
		}
		fmt.Printf("rolled back %d migration(s): %v\n", len(rolled), rolled)
		return nil

	case "version":
		version, err := migrator.CurrentVersion(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("current schema version: %d\n", version)
		return nil

	case "status":
		return printStatus(ctx, cfg, migrator)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func printStatus(ctx context.Context, cfg config.Config, migrator *migrate.Engine) error {
	version, err := migrator.CurrentVersion(ctx)
	if err != nil {
		return err
	}
	defs, err := migrate.ScanDir(cfg.MigrationsDir)
	if err != nil {
		return err
	}
	tables, err := migrator.Tables(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("current schema version: %d\n", version)
	pending := 0
	for _, def := range defs {
		if def.Version <= version {
			continue
		}
		pending++
		fmt.Printf("pending: %d %s (checksum %s)\n", def.Version, def.Name, def.Checksum)
	}
	if pending == 0 {
		fmt.Println("no pending migrations")
	}
	fmt.Printf("tables: %v\n", tables)
	return nil
}
