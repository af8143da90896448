package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// ExportTOML writes the current effective settings to path in TOML, an
// escape hatch for editing config outside the JSON/package.json surface.
func ExportTOML(path string) error {
	settings := AllSettings()
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(settings); err != nil {
		return fmt.Errorf("encoding config as toml: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ImportTOML reads a TOML file previously produced by ExportTOML (or
// hand-edited) and applies its keys as overrides onto the live config.
func ImportTOML(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var settings map[string]any
	if _, err := toml.Decode(string(raw), &settings); err != nil {
		return fmt.Errorf("parsing toml %s: %w", path, err)
	}
	for k, val := range settings {
		Set(k, val)
	}
	return nil
}
