package session

import (
	"strings"
	"testing"

	"github.com/azedarach/azedarach/internal/beadmodel"
)

func TestClassifier_FirstMatchWins(t *testing.T) {
	c := Classifier{Rules: []Rule{
		{Name: "waiting", Matches: func(s string) bool { return strings.Contains(s, "Do you want to proceed?") }, State: beadmodel.SessionWaiting},
		{Name: "done", Matches: func(s string) bool { return strings.Contains(s, "Task complete") }, State: beadmodel.SessionDone},
	}}

	if got := c.Classify("Do you want to proceed? Task complete"); got != beadmodel.SessionWaiting {
		t.Fatalf("expected first matching rule (waiting) to win, got %v", got)
	}
	if got := c.Classify("Task complete"); got != beadmodel.SessionDone {
		t.Fatalf("expected done rule to match, got %v", got)
	}
}

func TestClassifier_DefaultsToBusy(t *testing.T) {
	c := Classifier{Rules: []Rule{
		{Name: "done", Matches: func(s string) bool { return strings.Contains(s, "complete") }, State: beadmodel.SessionDone},
	}}
	if got := c.Classify("still working..."); got != beadmodel.SessionBusy {
		t.Fatalf("expected default classification Busy, got %v", got)
	}
}

func TestSessionName_DefaultPrefix(t *testing.T) {
	if got := sessionName("", "az-1"); got != "ai-az-1" {
		t.Fatalf("expected default prefix 'ai', got %q", got)
	}
	if got := sessionName("dev", "az-1"); got != "dev-az-1" {
		t.Fatalf("expected custom prefix honored, got %q", got)
	}
}

func TestBuildAssistantCommand(t *testing.T) {
	cmd := buildAssistantCommand(StartParams{
		CliTool:         "claude",
		Model:           "opus",
		SkipPermissions: true,
		InitialPrompt:   "fix the bug",
	})
	want := "claude --model 'opus' --dangerously-skip-permissions 'fix the bug'"
	if cmd != want {
		t.Fatalf("expected %q, got %q", want, cmd)
	}
}

func TestBuildAssistantCommand_QuotesEmbeddedSingleQuotes(t *testing.T) {
	cmd := buildAssistantCommand(StartParams{InitialPrompt: "it's broken"})
	if !strings.Contains(cmd, `it'\''s broken`) {
		t.Fatalf("expected embedded single quote to be escaped, got %q", cmd)
	}
}

func TestManager_GetMissingIsIdle(t *testing.T) {
	m := New(nil, nil)
	s, ok := m.Get("az-404")
	if ok {
		t.Fatalf("expected ok=false for an unknown bead")
	}
	if s.State != beadmodel.SessionIdle {
		t.Fatalf("expected missing session to report Idle, got %v", s.State)
	}
}

func TestManager_PauseRequiresBusy(t *testing.T) {
	m := New(nil, nil)
	if err := m.Pause("az-1"); err == nil {
		t.Fatalf("expected pausing an idle bead to fail")
	}
}
