// Package projectregistry manages the cross-process registry of known
// projects: `{projects: [{name, path}], defaultProject}`, guarded by a
// file lock for its read-modify-write cycle.
package projectregistry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Entry is one registered project.
type Entry struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type document struct {
	Projects       []Entry `json:"projects"`
	DefaultProject string  `json:"defaultProject"`
}

// Registry manages ~/.config/azedarach/projects.json.
type Registry struct {
	path     string
	lockPath string
	mu       sync.Mutex
}

// New opens the registry at the standard location, creating its parent
// directory if needed.
func New() (*Registry, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolving user config dir: %w", err)
	}
	azDir := filepath.Join(dir, "azedarach")
	if err := os.MkdirAll(azDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating registry dir: %w", err)
	}
	return &Registry{
		path:     filepath.Join(azDir, "projects.json"),
		lockPath: filepath.Join(azDir, "projects.lock"),
	}, nil
}

func (r *Registry) withLock(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	fl := flock.New(r.lockPath)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquiring registry lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	return fn()
}

func (r *Registry) readLocked() (document, error) {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("reading registry: %w", err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return document{}, nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		// A corrupted registry is treated as Fatal per §7 — callers
		// surface this during startup, not silently rebuilt, since
		// losing a user's project list is worse than refusing to start.
		return document{}, fmt.Errorf("registry corrupted: %w", err)
	}
	return doc, nil
}

func (r *Registry) writeLocked(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, "projects-*.json.tmp")
	if err != nil {
		return fmt.Errorf("creating temp registry file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp registry file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing temp registry file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp registry file: %w", err)
	}
	return nil
}

// List returns all registered projects.
func (r *Registry) List() ([]Entry, error) {
	var out []Entry
	err := r.withLock(func() error {
		doc, err := r.readLocked()
		if err != nil {
			return err
		}
		out = doc.Projects
		return nil
	})
	return out, err
}

// Register adds or replaces the project with the given name.
func (r *Registry) Register(e Entry) error {
	return r.withLock(func() error {
		doc, err := r.readLocked()
		if err != nil {
			return err
		}
		filtered := doc.Projects[:0]
		for _, p := range doc.Projects {
			if p.Name != e.Name {
				filtered = append(filtered, p)
			}
		}
		doc.Projects = append(filtered, e)
		if doc.DefaultProject == "" {
			doc.DefaultProject = e.Name
		}
		return r.writeLocked(doc)
	})
}

// Unregister removes the named project. Idempotent.
func (r *Registry) Unregister(name string) error {
	return r.withLock(func() error {
		doc, err := r.readLocked()
		if err != nil {
			return err
		}
		filtered := doc.Projects[:0]
		for _, p := range doc.Projects {
			if p.Name != name {
				filtered = append(filtered, p)
			}
		}
		doc.Projects = filtered
		if doc.DefaultProject == name {
			doc.DefaultProject = ""
		}
		return r.writeLocked(doc)
	})
}

// SetDefault marks name as the default project. The name must already be
// registered.
func (r *Registry) SetDefault(name string) error {
	return r.withLock(func() error {
		doc, err := r.readLocked()
		if err != nil {
			return err
		}
		found := false
		for _, p := range doc.Projects {
			if p.Name == name {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("project %q is not registered", name)
		}
		doc.DefaultProject = name
		return r.writeLocked(doc)
	})
}

// Default returns the default project entry, or false if none is set.
func (r *Registry) Default() (Entry, bool, error) {
	doc, err := r.read()
	if err != nil {
		return Entry{}, false, err
	}
	for _, p := range doc.Projects {
		if p.Name == doc.DefaultProject {
			return p, true, nil
		}
	}
	return Entry{}, false, nil
}

func (r *Registry) read() (document, error) {
	var doc document
	err := r.withLock(func() error {
		var err error
		doc, err = r.readLocked()
		return err
	})
	return doc, err
}

// ResolveByCWD returns the registered project whose Path is the longest
// prefix of cwd, per §3's Project detection rule.
func ResolveByCWD(projects []Entry, cwd string) (Entry, bool) {
	cwd = filepath.Clean(cwd)
	best := Entry{}
	bestLen := -1
	found := false
	for _, p := range projects {
		path := filepath.Clean(p.Path)
		if cwd != path && !strings.HasPrefix(cwd, path+string(filepath.Separator)) {
			continue
		}
		if len(path) > bestLen {
			best = p
			bestLen = len(path)
			found = true
		}
	}
	return best, found
}

// IsGitWorkingDirectory reports whether path contains a .git entry
// (directory or file, the latter for worktrees and submodules).
func IsGitWorkingDirectory(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}
