// Package session implements the Session Manager (C4): the per-bead
// agent session state machine, worktree/multiplexer orchestration for
// start/pause/resume/stop, and pane-text activity classification.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/errs"
	"github.com/azedarach/azedarach/internal/multiplexer"
	"github.com/azedarach/azedarach/internal/worktree"
)

// StartParams configure a session start.
type StartParams struct {
	ProjectPath       string
	InitialPrompt     string
	SkipPermissions   bool
	Model             string
	CliTool           string // e.g. "claude", "opencode"
	TmuxPrefix        string // default "ai"
}

// Manager owns the in-memory session table and drives transitions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*beadmodel.Session

	wt  *worktree.Manager
	mux *multiplexer.Tmux
}

func New(wt *worktree.Manager, mux *multiplexer.Tmux) *Manager {
	return &Manager{
		sessions: make(map[string]*beadmodel.Session),
		wt:       wt,
		mux:      mux,
	}
}

// Get returns the session state for a bead; Idle with ok=false if absent
// (a missing entry is equivalent to Idle per §3).
func (m *Manager) Get(beadID string) (beadmodel.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[beadID]
	if !ok {
		return beadmodel.Session{BeadID: beadID, State: beadmodel.SessionIdle}, false
	}
	return *s, true
}

func (m *Manager) set(beadID string, s beadmodel.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[beadID] = &s
}

func (m *Manager) clear(beadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, beadID)
}

func sessionName(prefix, beadID string) string {
	if prefix == "" {
		prefix = "ai"
	}
	return prefix + "-" + beadID
}

// Start transitions Idle->Busy: creates the worktree (no-op if it
// exists), creates the multiplexer session running the configured
// assistant command, then records Busy. Any step failing after the
// worktree/session exist rolls the prior steps back. Idempotent failure
// if the bead is already non-Idle.
func (m *Manager) Start(ctx context.Context, beadID string, p StartParams) error {
	current, _ := m.Get(beadID)
	if current.State != beadmodel.SessionIdle {
		return errs.Validation("session.start", fmt.Errorf("bead %s is not idle", beadID))
	}

	path, _, err := m.wt.Create(ctx, beadID)
	if err != nil {
		if errs.KindOf(err) != errs.KindValidation {
			return err
		}
		path = m.wt.Path(beadID)
	}

	name := sessionName(p.TmuxPrefix, beadID)
	cmd := buildAssistantCommand(p)

	if err := m.mux.EnsureSessionFresh(ctx, name, multiplexer.SessionOptions{Cwd: path, Command: cmd}, m.mux.IsAgentAlive); err != nil {
		_ = m.wt.Remove(ctx, beadID)
		return err
	}

	m.set(beadID, beadmodel.Session{
		BeadID:             beadID,
		State:              beadmodel.SessionBusy,
		MultiplexerSession: name,
		WorktreePath:       path,
		StartedAt:          now(),
		LastActivity:       now(),
	})
	return nil
}

func buildAssistantCommand(p StartParams) string {
	tool := p.CliTool
	if tool == "" {
		tool = "claude"
	}
	cmd := tool
	if p.Model != "" {
		cmd += " --model " + shellQuote(p.Model)
	}
	if p.SkipPermissions {
		cmd += " --dangerously-skip-permissions"
	}
	if p.InitialPrompt != "" {
		cmd += " " + shellQuote(p.InitialPrompt)
	}
	return cmd
}

func shellQuote(s string) string {
	return "'" + replaceAll(s, "'", `'\''`) + "'"
}

func replaceAll(s, old, new string) string {
	out := ""
	for i := 0; i < len(s); {
		if i+len(old) <= len(s) && s[i:i+len(old)] == old {
			out += new
			i += len(old)
		} else {
			out += string(s[i])
			i++
		}
	}
	return out
}

func now() time.Time { return timeNow() }

// timeNow is a package-level indirection so tests can fake the clock.
var timeNow = time.Now

// Pause transitions Busy->Paused.
func (m *Manager) Pause(beadID string) error {
	s, ok := m.Get(beadID)
	if !ok || s.State != beadmodel.SessionBusy {
		return errs.Validation("session.pause", fmt.Errorf("bead %s is not busy", beadID))
	}
	s.State = beadmodel.SessionPaused
	m.set(beadID, s)
	return nil
}

// Resume transitions Paused->Busy.
func (m *Manager) Resume(beadID string) error {
	s, ok := m.Get(beadID)
	if !ok || s.State != beadmodel.SessionPaused {
		return errs.Validation("session.resume", fmt.Errorf("bead %s is not paused", beadID))
	}
	s.State = beadmodel.SessionBusy
	m.set(beadID, s)
	return nil
}

// Stop tears down the multiplexer session from any non-Idle state and
// transitions to Idle.
func (m *Manager) Stop(ctx context.Context, beadID string) error {
	s, ok := m.Get(beadID)
	if !ok || s.State == beadmodel.SessionIdle {
		return errs.Validation("session.stop", fmt.Errorf("bead %s is already idle", beadID))
	}
	if s.MultiplexerSession != "" {
		if err := m.mux.KillSessionWithProcesses(ctx, s.MultiplexerSession); err != nil {
			return err
		}
	}
	m.clear(beadID)
	return nil
}

// Classifier is an ordered set of rules applied to captured pane text;
// the first match wins.
type Classifier struct {
	Rules []Rule
}

// Rule matches pane text against a regex-equivalent predicate and yields
// the resulting session state.
type Rule struct {
	Name    string
	Matches func(paneText string) bool
	State   beadmodel.SessionState
}

// Classify applies the first matching rule, defaulting to Busy (input
// still pending, no terminal marker seen) if none match.
func (c Classifier) Classify(paneText string) beadmodel.SessionState {
	for _, r := range c.Rules {
		if r.Matches(paneText) {
			return r.State
		}
	}
	return beadmodel.SessionBusy
}

// Monitor samples capture_pane on interval for every session currently in
// a non-terminal state and publishes classified transitions via onChange.
type Monitor struct {
	mux        *multiplexer.Tmux
	manager    *Manager
	classifier Classifier
	interval   time.Duration
	onChange   func(beadID string, state beadmodel.SessionState)
}

func NewMonitor(mux *multiplexer.Tmux, mgr *Manager, c Classifier, interval time.Duration, onChange func(string, beadmodel.SessionState)) *Monitor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Monitor{mux: mux, manager: mgr, classifier: c, interval: interval, onChange: onChange}
}

// Run polls until ctx is cancelled.
func (mon *Monitor) Run(ctx context.Context, beadIDs func() []string) {
	ticker := time.NewTicker(mon.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, id := range beadIDs() {
				s, ok := mon.manager.Get(id)
				if !ok || s.MultiplexerSession == "" {
					continue
				}
				if s.State != beadmodel.SessionBusy && s.State != beadmodel.SessionWaiting {
					continue
				}
				text, err := mon.mux.CapturePane(ctx, s.MultiplexerSession)
				if err != nil {
					continue
				}
				newState := mon.classifier.Classify(text)
				if newState != s.State {
					s.State = newState
					s.LastActivity = timeNow()
					mon.manager.set(id, s)
					if mon.onChange != nil {
						mon.onChange(id, newState)
					}
				}
			}
		}
	}
}
