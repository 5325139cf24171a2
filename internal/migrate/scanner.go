package migrate

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Migration files follow {version}_{description}.sql. The up script comes
// first or under an explicit "-- +migrate Up" marker; an optional
// "-- +migrate Down" marker introduces the down script.
var fileNamePattern = regexp.MustCompile(`^(\d+)_([a-zA-Z0-9_-]+)\.sql$`)

const (
	upMarker   = "-- +migrate Up"
	downMarker = "-- +migrate Down"
)

// ScanDir reads every .sql file in dir into a Definition list sorted
// ascending by version. A duplicate version or malformed file name is a
// ValidationError.
func ScanDir(dir string) ([]Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir %s: %w", dir, err)
	}

	var defs []Definition
	sources := make(map[int]string) // version -> file, for duplicate reporting

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		def, err := parseFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}

		if existing, dup := sources[def.Version]; dup {
			return nil, NewValidationError(def.Version,
				fmt.Errorf("%w: version %d found in both %s and %s",
					ErrDuplicateVersion, def.Version, existing, entry.Name()))
		}
		sources[def.Version] = entry.Name()

		defs = append(defs, def)
	}

	return sortedByVersion(defs), nil
}

func parseFile(path string) (Definition, error) {
	name := filepath.Base(path)

	matches := fileNamePattern.FindStringSubmatch(name)
	if matches == nil {
		return Definition{}, NewValidationError(0,
			fmt.Errorf("%w: %q does not match {version}_{description}.sql", ErrInvalidFileName, name))
	}

	version, err := strconv.Atoi(matches[1])
	if err != nil || version <= 0 {
		return Definition{}, NewValidationError(version,
			fmt.Errorf("%w: file %s", ErrInvalidVersion, name))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, fmt.Errorf("read migration %s: %w", name, err)
	}

	up, down := splitSections(string(content))

	sum := blake2b.Sum256(content)

	return Definition{
		Version:  version,
		Name:     strings.ReplaceAll(matches[2], "_", " "),
		Up:       up,
		Down:     down,
		Source:   path,
		Checksum: hex.EncodeToString(sum[:]),
	}, nil
}

// splitSections divides file content at the Up/Down markers. Content without
// an Up marker is treated entirely as the up script.
func splitSections(content string) (up, down string) {
	downIdx := strings.Index(content, downMarker)
	upIdx := strings.Index(content, upMarker)

	if downIdx == -1 {
		if upIdx == -1 {
			return content, ""
		}
		return content[upIdx+len(upMarker):], ""
	}

	down = content[downIdx+len(downMarker):]
	if upIdx == -1 || upIdx > downIdx {
		return content[:downIdx], down
	}
	return content[upIdx+len(upMarker) : downIdx], down
}
