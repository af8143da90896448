// Package input implements the Input Router (C12): a table mapping key
// presses, qualified by the active Mode's Kind, onto update.Action
// values. The router itself performs no state mutation — it is a pure
// lookup that the bubbletea wiring in internal/app calls from its
// Update method.
package input

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/azedarach/azedarach/internal/mode"
)

// Action is the abstract result of a key dispatch; internal/update
// interprets concrete Action values (re-exported there to avoid an
// import cycle, this package only needs to produce opaque values).
type Action = any

// Binding is one entry in the router's table. Bindings key off a Mode's
// Kind rather than its full payload, since the payload (selection sets,
// captured ids, jump labels, ...) varies per keystroke while the set of
// keys bound in a given Kind does not.
type Binding struct {
	Kind mode.Kind
	Key  string // tea.KeyMsg.String() form, e.g. "j", "ctrl+c", "enter"
	Make func() Action
}

// Router dispatches key messages to Actions based on the active mode's
// Kind. Bindings registered for a specific Kind take precedence;
// bindings registered with KindAny (-1) apply in every mode unless
// shadowed.
const KindAny mode.Kind = -1

type Router struct {
	byKind map[mode.Kind]map[string]func() Action
	global map[string]func() Action
}

func New() *Router {
	return &Router{
		byKind: make(map[mode.Kind]map[string]func() Action),
		global: make(map[string]func() Action),
	}
}

// Bind registers a binding. A duplicate (kind, key) pair overwrites the
// previous entry — later Bind calls win, matching the teacher's
// last-registration-wins key-table convention.
func (r *Router) Bind(b Binding) {
	if b.Kind == KindAny {
		r.global[b.Key] = b.Make
		return
	}
	m, ok := r.byKind[b.Kind]
	if !ok {
		m = make(map[string]func() Action)
		r.byKind[b.Kind] = m
	}
	m[b.Key] = b.Make
}

// Dispatch resolves a key message in the given mode to an Action, or
// returns nil, false if no binding matches — callers should then fall
// through to any mode-specific textual input handling (e.g. typing into
// a search box).
func (r *Router) Dispatch(m mode.Mode, msg tea.KeyMsg) (Action, bool) {
	key := msg.String()
	if byKey, ok := r.byKind[m.Kind]; ok {
		if make, ok := byKey[key]; ok {
			return make(), true
		}
	}
	if make, ok := r.global[key]; ok {
		return make(), true
	}
	return nil, false
}

// DispatchGlobal resolves a key message against only the KindAny
// bindings, ignoring whatever Kind is active. Overlays that suspend
// board-level routing (forms, menus, confirmations) still want quit and
// cancel-overlay to work; this is how app wires that without letting the
// underlying mode's own bindings (j/k, etc.) leak through.
func (r *Router) DispatchGlobal(msg tea.KeyMsg) (Action, bool) {
	if make, ok := r.global[msg.String()]; ok {
		return make(), true
	}
	return nil, false
}
