package migrate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeMigrationFile(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write migration file %s: %v", name, err)
	}
}

func TestScanDir_ParsesUpAndDownSections(t *testing.T) {
	dir := t.TempDir()

	writeMigrationFile(t, dir, "001_create_users.sql", `-- +migrate Up
CREATE TABLE users (id INTEGER PRIMARY KEY);

-- +migrate Down
DROP TABLE users;
`)
	writeMigrationFile(t, dir, "002_add_rooms.sql", `CREATE TABLE rooms (id INTEGER PRIMARY KEY);`)
	writeMigrationFile(t, dir, "notes.txt", "not a migration")

	defs, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}

	first := defs[0]
	if first.Version != 1 {
		t.Errorf("expected version 1 first, got %d", first.Version)
	}
	if first.Name != "create users" {
		t.Errorf("expected name %q, got %q", "create users", first.Name)
	}
	if !strings.Contains(first.Up, "CREATE TABLE users") {
		t.Errorf("up section missing create statement: %q", first.Up)
	}
	if !strings.Contains(first.Down, "DROP TABLE users") {
		t.Errorf("down section missing drop statement: %q", first.Down)
	}
	if len(first.Checksum) != 64 {
		t.Errorf("expected 64-char hex checksum, got %q", first.Checksum)
	}

	second := defs[1]
	if second.Version != 2 {
		t.Errorf("expected version 2 second, got %d", second.Version)
	}
	if strings.TrimSpace(second.Down) != "" {
		t.Errorf("expected empty down section without marker, got %q", second.Down)
	}
	if !strings.Contains(second.Up, "CREATE TABLE rooms") {
		t.Errorf("expected whole file as up section, got %q", second.Up)
	}
}

func TestScanDir_SortsByVersionNotFileOrder(t *testing.T) {
	dir := t.TempDir()

	writeMigrationFile(t, dir, "010_later.sql", "SELECT 10;")
	writeMigrationFile(t, dir, "2_earlier.sql", "SELECT 2;")

	defs, err := ScanDir(dir)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	if len(defs) != 2 || defs[0].Version != 2 || defs[1].Version != 10 {
		t.Fatalf("expected versions [2 10], got %+v", defs)
	}
}

func TestScanDir_DuplicateVersionIsRejected(t *testing.T) {
	dir := t.TempDir()

	writeMigrationFile(t, dir, "002_first.sql", "SELECT 1;")
	writeMigrationFile(t, dir, "2_second.sql", "SELECT 2;")

	_, err := ScanDir(dir)
	var vErr *ValidationError
	if !errors.As(err, &vErr) || !errors.Is(err, ErrDuplicateVersion) {
		t.Fatalf("expected ValidationError wrapping ErrDuplicateVersion, got %v", err)
	}
	if vErr.Version != 2 {
		t.Fatalf("expected version 2 to be named, got %d", vErr.Version)
	}
}

func TestScanDir_InvalidFileNameIsRejected(t *testing.T) {
	dir := t.TempDir()

	writeMigrationFile(t, dir, "no_version_prefix.sql", "SELECT 1;")

	_, err := ScanDir(dir)
	if !errors.Is(err, ErrInvalidFileName) {
		t.Fatalf("expected ErrInvalidFileName, got %v", err)
	}
}

func TestScanDir_MissingDirectory(t *testing.T) {
	_, err := ScanDir(filepath.Join(t.TempDir(), "does-not-exist"))
	if err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestScanDir_ChecksumIsStable(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	content := "CREATE TABLE t (id INTEGER);"

	writeMigrationFile(t, dirA, "001_t.sql", content)
	writeMigrationFile(t, dirB, "001_t.sql", content)

	defsA, err := ScanDir(dirA)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	defsB, err := ScanDir(dirB)
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	if defsA[0].Checksum != defsB[0].Checksum {
		t.Fatalf("identical content produced different checksums: %q vs %q",
			defsA[0].Checksum, defsB[0].Checksum)
	}
}
