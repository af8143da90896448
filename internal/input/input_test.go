package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/azedarach/azedarach/internal/mode"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func modeOf(k mode.Kind) mode.Mode { return mode.Mode{Kind: k} }

func TestDispatch_ModeSpecificBindingWins(t *testing.T) {
	r := New()
	r.Bind(Binding{Kind: mode.Normal, Key: "j", Make: func() Action { return "normal-j" }})
	r.Bind(Binding{Kind: mode.Select, Key: "j", Make: func() Action { return "select-j" }})

	act, ok := r.Dispatch(modeOf(mode.Normal), runeKey('j'))
	if !ok || act != "normal-j" {
		t.Fatalf("expected mode-specific binding for Normal, got %v ok=%v", act, ok)
	}
	act, ok = r.Dispatch(modeOf(mode.Select), runeKey('j'))
	if !ok || act != "select-j" {
		t.Fatalf("expected mode-specific binding for Select, got %v ok=%v", act, ok)
	}
}

func TestDispatch_GlobalBindingAppliesToAnyMode(t *testing.T) {
	r := New()
	r.Bind(Binding{Kind: KindAny, Key: "q", Make: func() Action { return "quit" }})

	for _, k := range []mode.Kind{mode.Normal, mode.Search, mode.Select} {
		act, ok := r.Dispatch(modeOf(k), runeKey('q'))
		if !ok || act != "quit" {
			t.Fatalf("expected global binding to apply in mode %v, got %v ok=%v", k, act, ok)
		}
	}
}

func TestDispatch_ModeSpecificShadowsGlobal(t *testing.T) {
	r := New()
	r.Bind(Binding{Kind: KindAny, Key: "q", Make: func() Action { return "global-quit" }})
	r.Bind(Binding{Kind: mode.Search, Key: "q", Make: func() Action { return "search-specific-q" }})

	act, ok := r.Dispatch(modeOf(mode.Search), runeKey('q'))
	if !ok || act != "search-specific-q" {
		t.Fatalf("expected mode-specific binding to shadow the global one, got %v ok=%v", act, ok)
	}
}

func TestDispatch_NoBindingReturnsFalse(t *testing.T) {
	r := New()
	_, ok := r.Dispatch(modeOf(mode.Normal), runeKey('z'))
	if ok {
		t.Fatalf("expected no match for an unbound key")
	}
}

func TestDispatchGlobal_IgnoresModeSpecificBindings(t *testing.T) {
	r := New()
	r.Bind(Binding{Kind: KindAny, Key: "esc", Make: func() Action { return "cancel" }})
	r.Bind(Binding{Kind: mode.Normal, Key: "j", Make: func() Action { return "normal-j" }})

	act, ok := r.DispatchGlobal(tea.KeyMsg{Type: tea.KeyEsc})
	if !ok || act != "cancel" {
		t.Fatalf("expected the global esc binding, got %v ok=%v", act, ok)
	}
	if _, ok := r.DispatchGlobal(runeKey('j')); ok {
		t.Fatalf("expected DispatchGlobal to ignore mode-specific bindings")
	}
}

func TestBind_LastRegistrationWins(t *testing.T) {
	r := New()
	r.Bind(Binding{Kind: mode.Normal, Key: "j", Make: func() Action { return "first" }})
	r.Bind(Binding{Kind: mode.Normal, Key: "j", Make: func() Action { return "second" }})

	act, _ := r.Dispatch(modeOf(mode.Normal), runeKey('j'))
	if act != "second" {
		t.Fatalf("expected the later binding to win, got %v", act)
	}
}
