package app

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/azedarach/azedarach/internal/mode"
	"github.com/azedarach/azedarach/internal/ui/styles"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func modeOf(k mode.Kind) mode.Mode { return mode.Mode{Kind: k} }

func TestDefaultRouter_QuitBoundGlobally(t *testing.T) {
	r := defaultRouter()
	for _, k := range []mode.Kind{mode.Normal, mode.Search, mode.Select} {
		if _, ok := r.Dispatch(modeOf(k), runeKey('q')); !ok {
			t.Fatalf("expected 'q' to be bound to quit in mode %v", k)
		}
	}
}

func TestDefaultRouter_CancelOverlayBoundGlobally(t *testing.T) {
	r := defaultRouter()
	if _, ok := r.Dispatch(modeOf(mode.Normal), tea.KeyMsg{Type: tea.KeyEsc}); !ok {
		t.Fatalf("expected esc to be bound globally")
	}
}

func TestDefaultRouter_SortBindingsOnlyInSortMode(t *testing.T) {
	r := defaultRouter()
	if _, ok := r.Dispatch(modeOf(mode.Sort), runeKey('u')); !ok {
		t.Fatalf("expected 'u' (sort-updated) bound in Sort mode")
	}
	if _, ok := r.Dispatch(modeOf(mode.Normal), runeKey('u')); ok {
		t.Fatalf("expected 'u' to not be bound in Normal mode")
	}
}

func TestDefaultRouter_NormalModeNavigation(t *testing.T) {
	r := defaultRouter()
	for _, key := range []rune{'j', 'k', '/', 'o', 'f', 'g', 'v'} {
		if _, ok := r.Dispatch(modeOf(mode.Normal), runeKey(key)); !ok {
			t.Fatalf("expected %q bound in Normal mode", string(key))
		}
	}
}

func TestDefaultRouter_ActionModeDispatchesCoordinatorKeys(t *testing.T) {
	r := defaultRouter()
	for _, key := range []rune{'s', 'a', 'p', 'r', 'x', 'u', 'm', 'M', 'b', 'c', 'g', 'v', 'i', 'd'} {
		if _, ok := r.Dispatch(modeOf(mode.Action), runeKey(key)); !ok {
			t.Fatalf("expected %q bound in Action mode", string(key))
		}
	}
}

func TestDefaultRouter_MergeSelectBindings(t *testing.T) {
	r := defaultRouter()
	for _, key := range []rune{'u', 'm', 'a'} {
		if _, ok := r.Dispatch(modeOf(mode.MergeSelect), runeKey(key)); !ok {
			t.Fatalf("expected %q bound in MergeSelect mode", string(key))
		}
	}
}

func TestOverlaySuspendsRouter(t *testing.T) {
	routed := []mode.OverlayKind{mode.OverlayMergeChoice, mode.OverlayActionMenu, mode.OverlaySortMenu, mode.OverlayFilterMenu, mode.OverlayNone}
	for _, k := range routed {
		if overlaySuspendsRouter(k) {
			t.Fatalf("expected overlay kind %v to fall through to the Router", k)
		}
	}
	captured := []mode.OverlayKind{mode.OverlayCreateBead, mode.OverlayBeadEdit, mode.OverlaySettings, mode.OverlayConfirmDelete, mode.OverlayLogs}
	for _, k := range captured {
		if !overlaySuspendsRouter(k) {
			t.Fatalf("expected overlay kind %v to capture its own keys", k)
		}
	}
}

func TestNew_InitializesModelDefaults(t *testing.T) {
	a := New(nil, styles.Resolve("default"), "Blocked", nil)
	if a.model.Mode.Kind != mode.Normal {
		t.Fatalf("expected initial mode Normal, got %v", a.model.Mode.Kind)
	}
}

func TestView_RendersWithoutPanicking(t *testing.T) {
	a := New(nil, styles.Resolve("default"), "Blocked", nil)
	a.width, a.height = 100, 30
	out := a.View()
	if !strings.Contains(out, a.model.Mode.String()) {
		t.Fatalf("expected the status bar's mode name to appear in the view")
	}
}

func TestHandleKey_ConfirmDeleteCapturesYN(t *testing.T) {
	a := New(nil, styles.Resolve("default"), "Blocked", nil)
	a.model.Overlay.Push(mode.Overlay{Kind: mode.OverlayConfirmDelete})
	model, _ := a.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	next := model.(*App)
	if _, ok := next.model.Overlay.Top(); ok {
		t.Fatalf("expected 'n' to cancel and pop the confirm-delete overlay")
	}
}

func TestHandleKey_OverlayStillAllowsGlobalQuit(t *testing.T) {
	a := New(nil, styles.Resolve("default"), "Blocked", nil)
	a.model.Overlay.Push(mode.Overlay{Kind: mode.OverlayHelp})
	model, _ := a.handleKey(runeKey('q'))
	next := model.(*App)
	if !next.model.Quitting {
		t.Fatalf("expected 'q' to quit even while the help overlay is open")
	}
}
