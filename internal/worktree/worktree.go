// Package worktree implements the Worktree Manager (C2): deterministic
// naming, worktree lifecycle, dirty/behind checks, and a read-only
// merge-conflict probe over git.
package worktree

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/azedarach/azedarach/internal/errs"
)

// NameTemplate renders a worktree directory name from a template string
// containing "{project}" and "{beadID}" placeholders. Default:
// "{project}-{beadID}".
type NameTemplate string

const DefaultNameTemplate NameTemplate = "{project}-{beadID}"

func (t NameTemplate) Render(project, beadID string) string {
	tpl := string(t)
	if tpl == "" {
		tpl = string(DefaultNameTemplate)
	}
	tpl = strings.ReplaceAll(tpl, "{project}", project)
	tpl = strings.ReplaceAll(tpl, "{beadID}", beadID)
	return tpl
}

// Manager operates on worktrees of a single project repository.
type Manager struct {
	ProjectPath  string
	BasePath     string // default: sibling directory of ProjectPath
	NameTemplate NameTemplate
	BaseBranch   string // default "main"
}

// New constructs a Manager with defaults filled in.
func New(projectPath, basePath string, tmpl NameTemplate, baseBranch string) *Manager {
	if basePath == "" {
		basePath = filepath.Dir(projectPath)
	}
	if tmpl == "" {
		tmpl = DefaultNameTemplate
	}
	if baseBranch == "" {
		baseBranch = "main"
	}
	return &Manager{ProjectPath: projectPath, BasePath: basePath, NameTemplate: tmpl, BaseBranch: baseBranch}
}

// Path computes the deterministic worktree path for a bead.
func (m *Manager) Path(beadID string) string {
	projectName := filepath.Base(m.ProjectPath)
	return filepath.Join(m.BasePath, m.NameTemplate.Render(projectName, beadID))
}

// Branch computes the deterministic branch name for a bead, by default
// equal to the bead id.
func (m *Manager) Branch(beadID string) string {
	return beadID
}

func (m *Manager) git(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, errs.External("worktree.git "+strings.Join(args, " "), strings.TrimSpace(string(out)), err)
	}
	return out, nil
}

// Exists reports whether a bead's worktree is already registered with git.
func (m *Manager) Exists(ctx context.Context, beadID string) (bool, error) {
	out, err := m.git(ctx, m.ProjectPath, "worktree", "list", "--porcelain")
	if err != nil {
		return false, err
	}
	target := m.Path(beadID)
	absTarget, aerr := filepath.Abs(target)
	if aerr != nil {
		absTarget = target
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "worktree ") {
			continue
		}
		path := strings.TrimSpace(strings.TrimPrefix(line, "worktree "))
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if absPath == absTarget {
			return true, nil
		}
	}
	return false, nil
}

// Create adds a worktree and branch for beadID, branching from BaseBranch.
// Fails if either already exists.
func (m *Manager) Create(ctx context.Context, beadID string) (path, branch string, err error) {
	branch = m.Branch(beadID)
	path = m.Path(beadID)

	if exists, err := m.Exists(ctx, beadID); err != nil {
		return "", "", err
	} else if exists {
		return "", "", errs.Validation("worktree.create", fmt.Errorf("worktree for %s already exists", beadID))
	}
	if branchExists, _ := m.branchExists(ctx, branch); branchExists {
		return "", "", errs.Validation("worktree.create", fmt.Errorf("branch %s already exists", branch))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", "", errs.Fatal("worktree.create", err)
	}

	if _, err := m.git(ctx, m.ProjectPath, "worktree", "add", "-b", branch, path, m.BaseBranch); err != nil {
		return "", "", err
	}
	return path, branch, nil
}

func (m *Manager) branchExists(ctx context.Context, branch string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "show-ref", "--verify", "--quiet", "refs/heads/"+branch)
	cmd.Dir = m.ProjectPath
	return cmd.Run() == nil, nil
}

// Remove force-removes a bead's worktree and deletes its branch. Idempotent.
func (m *Manager) Remove(ctx context.Context, beadID string) error {
	path := m.Path(beadID)
	branch := m.Branch(beadID)

	if _, err := m.git(ctx, m.ProjectPath, "worktree", "remove", path, "--force"); err != nil {
		_ = os.RemoveAll(path)
		_, _ = m.git(ctx, m.ProjectPath, "worktree", "prune")
	}
	_, _ = m.git(ctx, m.ProjectPath, "branch", "-D", branch)
	return nil
}

// IsDirty reports whether a worktree has uncommitted changes, and which
// files changed.
func (m *Manager) IsDirty(ctx context.Context, worktreePath string) (bool, []string, error) {
	out, err := m.git(ctx, worktreePath, "status", "--porcelain")
	if err != nil {
		return false, nil, err
	}
	var files []string
	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}
		files = append(files, strings.TrimSpace(line[3:]))
	}
	return len(files) > 0, files, nil
}

// CheckMergeConflicts performs a read-only three-way merge probe using
// `git merge-tree`, never touching the working tree.
func (m *Manager) CheckMergeConflicts(ctx context.Context, worktreePath, base string) (hasRisk bool, conflictFiles []string, err error) {
	_, merr := m.mergeBase(ctx, worktreePath, base)
	if merr != nil {
		return false, nil, merr
	}
	headRef, herr := m.revParse(ctx, worktreePath, "HEAD")
	if herr != nil {
		return false, nil, herr
	}
	baseRef, berr := m.revParse(ctx, worktreePath, base)
	if berr != nil {
		return false, nil, berr
	}

	out, err := m.git(ctx, worktreePath, "merge-tree", "--write-tree", headRef, baseRef)
	if err != nil {
		// merge-tree exits non-zero when there are conflicts; that is the
		// signal we want, not a failure to probe.
		if errs.KindOf(err) == errs.KindExternalCommand {
			files := parseConflictedFiles(string(out))
			if len(files) > 0 {
				return true, files, nil
			}
		}
		return false, nil, err
	}
	files := parseConflictedFiles(string(out))
	return len(files) > 0, files, nil
}

func (m *Manager) mergeBase(ctx context.Context, worktreePath, base string) (string, error) {
	out, err := m.git(ctx, worktreePath, "merge-base", "HEAD", base)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func (m *Manager) revParse(ctx context.Context, worktreePath, ref string) (string, error) {
	out, err := m.git(ctx, worktreePath, "rev-parse", ref)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// parseConflictedFiles extracts file paths from the "CONFLICT (...)"
// message lines that `git merge-tree --write-tree` prints, taking the last
// space-separated word of each such line as the path.
func parseConflictedFiles(output string) []string {
	var files []string
	seen := map[string]bool{}
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "CONFLICT") {
			continue
		}
		idx := strings.LastIndex(line, " ")
		if idx < 0 {
			continue
		}
		file := strings.TrimSpace(line[idx+1:])
		if file != "" && !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	return files
}

// BehindCount returns commit counts of worktree relative to base's
// merge-base: how many commits worktree is behind, and how many ahead.
func (m *Manager) BehindCount(ctx context.Context, worktreePath, base string) (behind, ahead int, err error) {
	out, err := m.git(ctx, worktreePath, "rev-list", "--left-right", "--count", base+"...HEAD")
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(out))
	if len(fields) != 2 {
		return 0, 0, errs.Fatal("worktree.behind_count", fmt.Errorf("unexpected rev-list output: %q", string(out)))
	}
	behind, err = strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, errs.Fatal("worktree.behind_count", err)
	}
	ahead, err = strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, errs.Fatal("worktree.behind_count", err)
	}
	return behind, ahead, nil
}

// AbortMerge runs `git merge --abort` in the worktree.
func (m *Manager) AbortMerge(ctx context.Context, worktreePath string) error {
	_, err := m.git(ctx, worktreePath, "merge", "--abort")
	return err
}
