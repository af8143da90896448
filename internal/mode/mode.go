// Package mode implements the Mode tagged variant and the Overlay stack
// (C11): the board's top-level interaction state and the LIFO stack of
// modal surfaces drawn above it.
package mode

// Kind identifies which variant of Mode is active. Exactly one Kind is
// active at a time; an open Overlay suspends board-level key handling
// but does not change Kind.
type Kind int

const (
	Normal Kind = iota
	Select
	Action
	Goto
	Search
	Sort
	Filter
	Orchestrate
	MergeSelect
)

func (k Kind) String() string {
	switch k {
	case Normal:
		return "normal"
	case Select:
		return "select"
	case Action:
		return "action"
	case Goto:
		return "goto"
	case Search:
		return "search"
	case Sort:
		return "sort"
	case Filter:
		return "filter"
	case Orchestrate:
		return "orchestrate"
	case MergeSelect:
		return "merge-select"
	default:
		return "unknown"
	}
}

// FilterField is a facet of the Filter submenu.
type FilterField int

const (
	FilterStatus FilterField = iota
	FilterPriority
	FilterType
	FilterSession
	FilterAge
)

// GotoSub distinguishes Goto mode's two phases: pending, just entered
// with no jump labels assigned yet, and jump, once labels are live and
// the user is typing one.
type GotoSub int

const (
	GotoPending GotoSub = iota
	GotoJump
)

// GotoState is Goto mode's payload. Labels is populated on transition
// into the Jump sub-state via the aa, ab, ... generator; PendingChar
// holds the first rune of a two-rune label typed so far, 0 if none.
type GotoState struct {
	Sub         GotoSub
	Labels      map[string]string
	PendingChar rune
}

// SelectState is Select mode's payload: the set of selected bead ids.
type SelectState struct {
	SelectedIDs map[string]bool
}

// ActionState is Action mode's payload. CapturedTaskID is fixed at
// mode-entry time; subsequent cursor movement does not retarget it.
type ActionState struct {
	CapturedTaskID string
}

// SearchState is Search mode's payload.
type SearchState struct {
	Query string
}

// FilterState is Filter mode's payload. ActiveField is nil at the
// top-level filter menu and set once a facet submenu is entered.
type FilterState struct {
	ActiveField *FilterField
}

// OrchestrateState is Orchestrate mode's payload: the child tasks of an
// epic being fanned out, which one has focus, and which are selected for
// a batch action.
type OrchestrateState struct {
	ChildTasks  []string
	Focus       int
	SelectedIDs map[string]bool
}

// MergeSelectState is MergeSelect mode's payload: the bead a merge
// choice was requested for, and which offered choice has focus.
type MergeSelectState struct {
	Source string
	Focus  int
}

// Mode is the board's top-level interaction state: Kind says which
// variant is active, and that variant's payload lives in the matching
// field below. Fields belonging to other kinds sit at their zero value.
type Mode struct {
	Kind Kind

	Select      SelectState
	Action      ActionState
	Goto        GotoState
	Search      SearchState
	Filter      FilterState
	Orchestrate OrchestrateState
	MergeSelect MergeSelectState
}

func (m Mode) String() string { return m.Kind.String() }

// OverlayKind identifies a modal surface.
type OverlayKind int

const (
	OverlayNone OverlayKind = iota
	OverlayHelp
	OverlayBeadDetail
	OverlayBeadEdit
	OverlayCreateBead
	OverlayPlanning
	OverlayMergeChoice
	OverlayConfirmDelete
	OverlayDiagnostics
	OverlayProjectSwitcher
	OverlayImageViewer
	OverlayActionMenu
	OverlayFilterMenu
	OverlaySortMenu
	OverlaySettings
	OverlayLogs
	OverlayDevServerMenu
	OverlayDiffViewer
	OverlayImageAttach
	OverlayImageList
	OverlayImagePreview
)

// Overlay is one entry on the stack; Data carries overlay-specific state
// (e.g. the bead id a detail overlay is showing) as an opaque payload
// the UI layer type-asserts.
type Overlay struct {
	Kind OverlayKind
	Data any
}

// Stack is a LIFO of open overlays. The zero value is an empty stack.
type Stack struct {
	entries []Overlay
}

// Push opens a new overlay on top of the stack.
func (s *Stack) Push(o Overlay) { s.entries = append(s.entries, o) }

// Pop closes the topmost overlay, if any, returning it.
func (s *Stack) Pop() (Overlay, bool) {
	if len(s.entries) == 0 {
		return Overlay{}, false
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top, true
}

// Top returns the topmost overlay without removing it.
func (s *Stack) Top() (Overlay, bool) {
	if len(s.entries) == 0 {
		return Overlay{}, false
	}
	return s.entries[len(s.entries)-1], true
}

// ReplaceTop swaps the topmost overlay's Data in place, for overlays
// (forms, menus) whose payload mutates as the user interacts with them.
func (s *Stack) ReplaceTop(o Overlay) {
	if len(s.entries) == 0 {
		return
	}
	s.entries[len(s.entries)-1] = o
}

// Empty reports whether no overlay is open.
func (s *Stack) Empty() bool { return len(s.entries) == 0 }

// Len returns the number of open overlays.
func (s *Stack) Len() int { return len(s.entries) }

// Reset closes every overlay.
func (s *Stack) Reset() { s.entries = nil }

// GenerateJumpLabels builds the aa, ab, ... two-letter label table of
// §4.12, assigning one label per id in order; it wraps from az to ba and
// so on, enough for up to 26*26 ids.
func GenerateJumpLabels(ids []string) map[string]string {
	labels := make(map[string]string, len(ids))
	for i, id := range ids {
		first := byte('a' + (i/26)%26)
		second := byte('a' + i%26)
		labels[string([]byte{first, second})] = id
	}
	return labels
}
