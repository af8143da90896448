package multiplexer

import (
	"errors"
	"testing"

	"github.com/azedarach/azedarach/internal/errs"
)

func TestValidateSessionName_Valid(t *testing.T) {
	cases := []string{"ai-az-1a2b", "dev_server", "abc123", "ABC"}
	for _, c := range cases {
		if err := ValidateSessionName(c); err != nil {
			t.Fatalf("expected %q to be valid, got %v", c, err)
		}
	}
}

func TestValidateSessionName_Invalid(t *testing.T) {
	cases := []string{"", "has space", "semi;colon", "rm -rf /", "$(whoami)", "a\nb"}
	for _, c := range cases {
		if err := ValidateSessionName(c); err == nil {
			t.Fatalf("expected %q to be rejected", c)
		}
	}
}

func TestProcessGroupID_InvalidPID(t *testing.T) {
	if got := processGroupID("not-a-pid"); got != "" {
		t.Fatalf("expected empty pgid for invalid pid, got %q", got)
	}
}

func TestTmux_Classify(t *testing.T) {
	tm := &Tmux{}
	cases := []struct {
		stderr string
		want   errs.Kind
	}{
		{"no server running on /tmp/tmux-0/default", errs.KindNotFound},
		{"error connecting to /tmp/tmux-0/default", errs.KindNotFound},
		{"duplicate session: ai-az-1", errs.KindValidation},
		{"session not found: ai-az-1", errs.KindNotFound},
		{"can't find session ai-az-1", errs.KindNotFound},
		{"some other failure", errs.KindExternalCommand},
	}
	for _, c := range cases {
		err := tm.classify(errors.New("exit status 1"), c.stderr, []string{"has-session"})
		if errs.KindOf(err) != c.want {
			t.Fatalf("classify(%q) = %v, want %v", c.stderr, errs.KindOf(err), c.want)
		}
	}
}

func TestFirstOr_UsesFirstArgWhenPresent(t *testing.T) {
	if got := firstOr([]string{"kill-session", "-t", "x"}, "run"); got != "kill-session" {
		t.Fatalf("expected first arg returned, got %q", got)
	}
	if got := firstOr(nil, "run"); got != "run" {
		t.Fatalf("expected fallback for empty args, got %q", got)
	}
}

func TestDescendantsOf_NoChildrenForUnknownPID(t *testing.T) {
	got := descendantsOf("999999999")
	if len(got) != 0 {
		t.Fatalf("expected no descendants for a nonexistent pid, got %v", got)
	}
}
