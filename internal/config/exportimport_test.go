package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExportImportTOML_RoundTrips(t *testing.T) {
	if err := Initialize(t.TempDir()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Set("cliTool", "codex")

	path := filepath.Join(t.TempDir(), "azedarach.toml")
	if err := ExportTOML(path); err != nil {
		t.Fatalf("unexpected error exporting: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected the exported file to exist: %v", err)
	}

	Set("cliTool", "claude")
	if err := ImportTOML(path); err != nil {
		t.Fatalf("unexpected error importing: %v", err)
	}
	if got := GetString("cliTool"); got != "codex" {
		t.Fatalf("expected import to restore exported cliTool, got %q", got)
	}
}

func TestImportTOML_MissingFile(t *testing.T) {
	if err := ImportTOML(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("expected an error importing a nonexistent file")
	}
}
