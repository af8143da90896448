package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/azedarach/azedarach/internal/projectregistry"
)

func mkdirGit(dir string) error {
	return os.Mkdir(filepath.Join(dir, ".git"), 0o755)
}

func newTestRegistry(t *testing.T) *projectregistry.Registry {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	r, err := projectregistry.New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestResolveProject_FlagSelectsRegisteredProjectByName(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(projectregistry.Entry{Name: "demo", Path: "/repos/demo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	projectFlag = "demo"
	defer func() { projectFlag = "" }()

	name, path, err := resolveProject(r, "/elsewhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "demo" || path != "/repos/demo" {
		t.Fatalf("expected the registered project to be selected, got name=%q path=%q", name, path)
	}
}

func TestResolveProject_FlagFallsBackToPathWhenUnregistered(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	projectFlag = dir
	defer func() { projectFlag = "" }()

	name, path, err := resolveProject(r, "/elsewhere")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	abs, _ := filepath.Abs(dir)
	if path != abs || name != filepath.Base(abs) {
		t.Fatalf("expected an unregistered --project path to resolve directly, got name=%q path=%q", name, path)
	}
}

func TestResolveProject_ResolvesByCWDPrefix(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(projectregistry.Entry{Name: "demo", Path: "/repos/demo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	name, path, err := resolveProject(r, "/repos/demo/src")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "demo" || path != "/repos/demo" {
		t.Fatalf("expected cwd-prefix match to win, got name=%q path=%q", name, path)
	}
}

func TestResolveProject_AutoRegistersGitWorkingDirectory(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	if err := mkdirGit(dir); err != nil {
		t.Fatalf("mkdir .git: %v", err)
	}
	name, path, err := resolveProject(r, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != dir || name != filepath.Base(dir) {
		t.Fatalf("expected the git working directory to auto-resolve, got name=%q path=%q", name, path)
	}

	entries, err := r.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, e := range entries {
		if e.Path == dir {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the git working directory to be auto-registered")
	}
}

func TestResolveProject_FallsBackToBareCWD(t *testing.T) {
	r := newTestRegistry(t)
	dir := t.TempDir()
	name, path, err := resolveProject(r, dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != dir || name != filepath.Base(dir) {
		t.Fatalf("expected bare cwd fallback, got name=%q path=%q", name, path)
	}
}
