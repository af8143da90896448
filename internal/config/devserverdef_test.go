package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDevServerSidecar_MissingFileIsNotAnError(t *testing.T) {
	defs, err := LoadDevServerSidecar(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error for a missing sidecar: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil defs for a missing sidecar, got %v", defs)
	}
}

func TestLoadDevServerSidecar_ParsesServers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "devservers.yaml")
	doc := "servers:\n  - name: web\n    command: npm run dev\n    environment:\n      PORT: \"3000\"\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	defs, err := LoadDevServerSidecar(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(defs) != 1 || defs[0].Name != "web" || defs[0].Command != "npm run dev" {
		t.Fatalf("expected one parsed server def, got %+v", defs)
	}
	if defs[0].Environment["PORT"] != "3000" {
		t.Fatalf("expected environment map parsed, got %+v", defs[0].Environment)
	}
}

func TestMergeDevServerDefs_SidecarOverridesSameName(t *testing.T) {
	fromJSON := []DevServerDef{{Name: "web", Command: "old"}}
	fromSidecar := []DevServerDef{{Name: "web", Command: "new"}}
	merged := MergeDevServerDefs(fromJSON, fromSidecar)
	if len(merged) != 1 || merged[0].Command != "new" {
		t.Fatalf("expected sidecar definition to win for the same name, got %+v", merged)
	}
}

func TestMergeDevServerDefs_PreservesFirstSeenOrder(t *testing.T) {
	fromJSON := []DevServerDef{{Name: "web"}, {Name: "api"}}
	fromSidecar := []DevServerDef{{Name: "worker"}, {Name: "api", Command: "override"}}
	merged := MergeDevServerDefs(fromJSON, fromSidecar)
	names := make([]string, len(merged))
	for i, d := range merged {
		names[i] = d.Name
	}
	want := []string{"web", "api", "worker"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, names)
		}
	}
}
