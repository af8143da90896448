// Package multiplexer implements the Multiplexer Adapter (C3) over tmux.
// Session naming is opaque to this package; callers pass the
// fully-qualified name.
package multiplexer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/azedarach/azedarach/internal/errs"
)

var validSessionName = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateSessionName rejects anything outside a conservative allow-list,
// closing the shell-injection surface of a hand-built tmux invocation.
func ValidateSessionName(name string) error {
	if name == "" || !validSessionName.MatchString(name) {
		return errs.Validation("multiplexer.validate_session_name", fmt.Errorf("invalid session name %q", name))
	}
	return nil
}

// Tmux wraps tmux session operations via subprocess, invoked with -u
// (UTF-8) on every call regardless of locale.
type Tmux struct{}

func New() *Tmux { return &Tmux{} }

func (t *Tmux) run(ctx context.Context, args ...string) (string, error) {
	allArgs := append([]string{"-u"}, args...)
	cmd := exec.CommandContext(ctx, "tmux", allArgs...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		return "", t.classify(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (t *Tmux) classify(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)
	op := "multiplexer." + firstOr(args, "run")
	switch {
	case strings.Contains(stderr, "no server running"),
		strings.Contains(stderr, "error connecting to"),
		strings.Contains(stderr, "no current target"):
		return errs.NotFound(op, "", fmt.Errorf("tmux server unavailable: %s", stderr))
	case strings.Contains(stderr, "duplicate session"):
		return errs.Validation(op, fmt.Errorf("session already exists"))
	case strings.Contains(stderr, "session not found"), strings.Contains(stderr, "can't find session"):
		return errs.NotFound(op, "", fmt.Errorf("session not found"))
	default:
		return errs.External(op, stderr, err)
	}
}

func firstOr(args []string, fallback string) string {
	if len(args) > 0 {
		return args[0]
	}
	return fallback
}

// HasSession reports whether a named session currently exists.
func (t *Tmux) HasSession(ctx context.Context, name string) (bool, error) {
	_, err := t.run(ctx, "has-session", "-t", name)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SessionOptions configure a new session.
type SessionOptions struct {
	Cwd     string
	Command string // if set, runs as the pane's initial process instead of a shell
	Prefix  string // reserved for caller-side naming; adapter does not use it
}

// NewSession creates a new detached session.
func (t *Tmux) NewSession(ctx context.Context, name string, opts SessionOptions) error {
	if err := ValidateSessionName(name); err != nil {
		return err
	}
	args := []string{"new-session", "-d", "-s", name}
	if opts.Cwd != "" {
		args = append(args, "-c", opts.Cwd)
	}
	if opts.Command != "" {
		args = append(args, opts.Command)
	}
	_, err := t.run(ctx, args...)
	return err
}

// EnsureSessionFresh creates a session, treating "tmux session exists but
// the assistant process inside it is gone" as a zombie: kill and recreate
// rather than erroring AlreadyExists.
func (t *Tmux) EnsureSessionFresh(ctx context.Context, name string, opts SessionOptions, isAlive func(ctx context.Context, session string) bool) error {
	err := t.NewSession(ctx, name, opts)
	if err == nil {
		return nil
	}
	if errs.KindOf(err) != errs.KindValidation {
		return err
	}

	if isAlive != nil && isAlive(ctx, name) {
		return nil
	}

	if err := t.KillSessionWithProcesses(ctx, name); err != nil {
		return err
	}
	err = t.NewSession(ctx, name, opts)
	if err != nil && errs.KindOf(err) == errs.KindValidation {
		return nil // lost a recreate race to a concurrent caller; treat as success
	}
	return err
}

// KillSession terminates a session by name.
func (t *Tmux) KillSession(ctx context.Context, name string) error {
	_, err := t.run(ctx, "kill-session", "-t", name)
	if errs.KindOf(err) == errs.KindNotFound {
		return nil
	}
	return err
}

const processKillGracePeriod = 2 * time.Second

// KillSessionWithProcesses kills the full process tree of the session's
// pane — process group, then recursive descendants — before terminating
// the tmux session itself, so a forked dev server or sub-shell doesn't
// leak an orphan once the session is gone.
func (t *Tmux) KillSessionWithProcesses(ctx context.Context, name string) error {
	pid, err := t.panePID(ctx, name)
	if err != nil || pid == "" {
		return t.KillSession(ctx, name)
	}

	pgid := processGroupID(pid)
	if pgid != "" {
		_ = signalGroup(pgid, "-TERM")
	}

	descendants := descendantsOf(pid)
	for _, d := range descendants {
		_ = signalPID(d, "-TERM")
	}

	time.Sleep(processKillGracePeriod)

	if pgid != "" {
		_ = signalGroup(pgid, "-KILL")
	}
	for _, d := range descendants {
		_ = signalPID(d, "-KILL")
	}
	_ = signalPID(pid, "-KILL")

	return t.KillSession(ctx, name)
}

func (t *Tmux) panePID(ctx context.Context, session string) (string, error) {
	out, err := t.run(ctx, "list-panes", "-t", session, "-F", "#{pane_pid}")
	if err != nil {
		return "", err
	}
	lines := strings.Split(out, "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", nil
	}
	return lines[0], nil
}

func processGroupID(pid string) string {
	out, err := exec.Command("ps", "-o", "pgid=", "-p", pid).Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func descendantsOf(pid string) []string {
	var all []string
	frontier := []string{pid}
	seen := map[string]bool{pid: true}
	for len(frontier) > 0 {
		next := frontier[0]
		frontier = frontier[1:]
		out, err := exec.Command("pgrep", "-P", next).Output()
		if err != nil {
			continue
		}
		for _, child := range strings.Fields(string(out)) {
			if !seen[child] {
				seen[child] = true
				all = append(all, child)
				frontier = append(frontier, child)
			}
		}
	}
	return all
}

func signalPID(pid, sig string) error {
	return exec.Command("kill", sig, pid).Run()
}

func signalGroup(pgid, sig string) error {
	return exec.Command("kill", sig, "-"+pgid).Run()
}

// SwitchClient attaches the user's terminal to the named session,
// suspending the TUI until the user detaches. Callers run this with the
// TUI's own stdio temporarily released (see internal/app).
func (t *Tmux) SwitchClient(ctx context.Context, name string) error {
	if ValidateSessionName(name) != nil {
		return ValidateSessionName(name)
	}
	cmd := exec.CommandContext(ctx, "tmux", "-u", "attach-session", "-t", name)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errs.External("multiplexer.switch_client", "", err)
	}
	return nil
}

// PopupOptions configure a modal popup.
type PopupOptions struct {
	Command string
	Width   int
	Height  int
	Title   string
	Cwd     string
}

// DisplayPopup runs a modal popup that blocks until dismissed.
func (t *Tmux) DisplayPopup(ctx context.Context, opts PopupOptions) error {
	args := []string{"display-popup", "-E"}
	if opts.Width > 0 {
		args = append(args, "-w", strconv.Itoa(opts.Width))
	}
	if opts.Height > 0 {
		args = append(args, "-h", strconv.Itoa(opts.Height))
	}
	if opts.Title != "" {
		args = append(args, "-T", opts.Title)
	}
	if opts.Cwd != "" {
		args = append(args, "-d", opts.Cwd)
	}
	if opts.Command != "" {
		args = append(args, opts.Command)
	}
	_, err := t.run(ctx, args...)
	return err
}

// CapturePane returns the visible pane text, for activity detection.
func (t *Tmux) CapturePane(ctx context.Context, name string) (string, error) {
	return t.run(ctx, "capture-pane", "-p", "-t", name)
}

// IsAgentAlive reports whether the pane's running command looks like an
// interactive assistant process rather than an idle shell — used by
// EnsureSessionFresh's zombie check.
func (t *Tmux) IsAgentAlive(ctx context.Context, name string) bool {
	out, err := t.run(ctx, "list-panes", "-t", name, "-F", "#{pane_current_command}")
	if err != nil {
		return false
	}
	cmd := strings.TrimSpace(out)
	return cmd != "" && cmd != "bash" && cmd != "zsh" && cmd != "sh" && cmd != "fish"
}
