package projectregistry

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	r, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func TestRegister_AddsAndListsProject(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(Entry{Name: "demo", Path: "/repos/demo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := r.List()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "demo" {
		t.Fatalf("expected one registered project 'demo', got %+v", entries)
	}
}

func TestRegister_ReplacesSameName(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(Entry{Name: "demo", Path: "/repos/demo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Register(Entry{Name: "demo", Path: "/repos/demo2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, _ := r.List()
	if len(entries) != 1 || entries[0].Path != "/repos/demo2" {
		t.Fatalf("expected re-registering to replace the entry, got %+v", entries)
	}
}

func TestRegister_FirstRegisteredBecomesDefault(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(Entry{Name: "demo", Path: "/repos/demo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, ok, err := r.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok || def.Name != "demo" {
		t.Fatalf("expected 'demo' to become the default project, got %+v ok=%v", def, ok)
	}
}

func TestUnregister_ClearsDefaultIfItWasDefault(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.Register(Entry{Name: "demo", Path: "/repos/demo"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Unregister("demo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, ok, err := r.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no default project after unregistering the only project")
	}
}

func TestSetDefault_RejectsUnregisteredProject(t *testing.T) {
	r := newTestRegistry(t)
	if err := r.SetDefault("ghost"); err == nil {
		t.Fatalf("expected an error setting default to an unregistered project")
	}
}

func TestDefault_NoneSetReturnsFalse(t *testing.T) {
	r := newTestRegistry(t)
	_, ok, err := r.Default()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false with an empty registry")
	}
}

func TestResolveByCWD_LongestPrefixWins(t *testing.T) {
	projects := []Entry{
		{Name: "outer", Path: "/repos"},
		{Name: "inner", Path: "/repos/demo"},
	}
	got, ok := ResolveByCWD(projects, "/repos/demo/src")
	if !ok || got.Name != "inner" {
		t.Fatalf("expected the longer-prefix project 'inner' to win, got %+v ok=%v", got, ok)
	}
}

func TestResolveByCWD_ExactMatch(t *testing.T) {
	projects := []Entry{{Name: "demo", Path: "/repos/demo"}}
	got, ok := ResolveByCWD(projects, "/repos/demo")
	if !ok || got.Name != "demo" {
		t.Fatalf("expected exact path match to resolve, got %+v ok=%v", got, ok)
	}
}

func TestResolveByCWD_NoMatch(t *testing.T) {
	projects := []Entry{{Name: "demo", Path: "/repos/demo"}}
	if _, ok := ResolveByCWD(projects, "/elsewhere"); ok {
		t.Fatalf("expected no match outside any registered project path")
	}
}

func TestResolveByCWD_DoesNotMatchSiblingWithSharedPrefix(t *testing.T) {
	projects := []Entry{{Name: "demo", Path: "/repos/demo"}}
	if _, ok := ResolveByCWD(projects, "/repos/demo-other"); ok {
		t.Fatalf("expected a sibling directory sharing a string prefix not to match")
	}
}

func TestIsGitWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	if IsGitWorkingDirectory(dir) {
		t.Fatalf("expected a plain directory to not be a git working directory")
	}
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if !IsGitWorkingDirectory(dir) {
		t.Fatalf("expected a directory containing .git to be recognized")
	}
}

func TestIsGitWorkingDirectory_GitAsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".git"), []byte("gitdir: ../.git/worktrees/x"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if !IsGitWorkingDirectory(dir) {
		t.Fatalf("expected a .git file (worktree pointer) to be recognized")
	}
}
