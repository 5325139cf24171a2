package migrate

import (
	"fmt"
	"sort"
	"strings"
)

// Definition is a caller-supplied schema migration. Definitions are not
// persisted; only the tracking rows of applied versions are.
type Definition struct {
	Version int    // unique positive integer
	Name    string // optional human-readable label
	Up      string // schema change, required
	Down    string // inverse change, optional

	// Populated by the file scanner, zero for programmatic definitions.
	Source   string // originating file path
	Checksum string // BLAKE2b-256 of the file contents, hex encoded
}

// Validate checks a definition list before any transaction is opened: every
// version positive, no duplicates, an up script on every definition.
func Validate(defs []Definition) error {
	seen := make(map[int]struct{}, len(defs))
	for _, def := range defs {
		if def.Version <= 0 {
			return NewValidationError(def.Version, ErrInvalidVersion)
		}
		if _, dup := seen[def.Version]; dup {
			return NewValidationError(def.Version,
				fmt.Errorf("%w: version %d supplied more than once", ErrDuplicateVersion, def.Version))
		}
		seen[def.Version] = struct{}{}
		if strings.TrimSpace(def.Up) == "" {
			return NewValidationError(def.Version, ErrMissingUpScript)
		}
	}
	return nil
}

// sortedByVersion returns a copy of defs ordered ascending by version, so the
// caller's slice is never reordered.
func sortedByVersion(defs []Definition) []Definition {
	sorted := make([]Definition, len(defs))
	copy(sorted, defs)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Version < sorted[j].Version
	})
	return sorted
}

// byVersion indexes definitions for rollback lookup.
func byVersion(defs []Definition) map[int]Definition {
	index := make(map[int]Definition, len(defs))
	for _, def := range defs {
		index[def.Version] = def
	}
	return index
}
