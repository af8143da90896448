package config

import "fmt"

// migrations maps "from version" to a function that mutates settings in
// place to become valid at version+1. Forward-only: there is no downgrade
// path, matching the teacher's versioned-config convention.
var migrations = map[int]func(map[string]any) error{}

// Migrate applies every migration from fromVersion up to CurrentSchemaVersion,
// in order, and returns the mutated settings map.
func Migrate(settings map[string]any, fromVersion int) (map[string]any, error) {
	for ver := fromVersion; ver < CurrentSchemaVersion; ver++ {
		fn, ok := migrations[ver]
		if !ok {
			return nil, fmt.Errorf("no migration registered for version %d -> %d", ver, ver+1)
		}
		if err := fn(settings); err != nil {
			return nil, fmt.Errorf("migration %d -> %d: %w", ver, ver+1, err)
		}
	}
	settings["version"] = CurrentSchemaVersion
	return settings, nil
}
