// Package update implements the Update function (C13): the pure state
// transition at the heart of the Elm-architecture loop. Update never
// errors — every failure path is instead an effect that runs later and
// reports back as a Toast, TaskMoveFailed, or an Error-level
// SessionStateChanged, per the error-propagation policy of §7.
package update

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/huh"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/coordinator"
	"github.com/azedarach/azedarach/internal/devserver"
	"github.com/azedarach/azedarach/internal/effect"
	"github.com/azedarach/azedarach/internal/mode"
	"github.com/azedarach/azedarach/internal/session"
)

// Cursor is a board position: which column (0..3, matching
// beadmodel.Status.Column()) and which task within that column's visible
// list. An empty board is Cursor{}.
type Cursor struct {
	Column int
	Task   int
}

// Model is the full, immutable-by-convention application state. Update
// takes a Model and an Action and returns the next Model plus any
// effects to run; every case returns a modified copy of its Model
// argument. The copy is shallow: map-valued fields such as the Select-mode
// selection and the filter facet sets are shared with the argument and
// toggled in place.
type Model struct {
	Mode    mode.Mode
	Overlay mode.Stack

	Beads  []beadmodel.Bead
	Cursor Cursor

	Filter beadmodel.Filter
	Sort   beadmodel.SortField

	SearchHits []string

	Toasts      []Toast
	nextToastID int

	Project  string
	Projects []beadmodel.Project

	DevServerDefs []devserver.Def

	AnyBusy       bool
	RunningLabels []string

	Ticks int

	Quitting bool
}

// Toast is a displayed message with an identity for expiration.
type Toast struct {
	ID      int
	Level   coordinator.ToastLevel
	Message string
}

// Action is the sum type Update consumes. Each case below is one
// variant; exactly one is non-zero per value dispatched.
type Action interface{ isAction() }

type KeyAction struct{ Name string } // resolved symbolic action, e.g. "cursor-down", "quit"

func (KeyAction) isAction() {}

type TypedChar struct{ Ch rune }

func (TypedChar) isAction() {}

type Backspace struct{}

func (Backspace) isAction() {}

type SubmitSearch struct{}

func (SubmitSearch) isAction() {}

type CancelOverlay struct{}

func (CancelOverlay) isAction() {}

type CoordinatorEvent struct{ Event coordinator.UiMsg }

func (CoordinatorEvent) isAction() {}

type ToastExpiredAction struct{ ID int }

func (ToastExpiredAction) isAction() {}

type TickAction struct{ At time.Time }

func (TickAction) isAction() {}

// LogLinesAction carries the tail read for an open Logs overlay.
type LogLinesAction struct{ Lines []string }

func (LogLinesAction) isAction() {}

// GotoChar is one rune typed while in Goto mode — either the first half
// of a jump label (Pending sub-state) or the second (Jump sub-state).
type GotoChar struct{ Ch rune }

func (GotoChar) isAction() {}

// CreateBeadSubmitted carries the huh.Form result of the CreateBead
// overlay once its State reaches huh.StateCompleted.
type CreateBeadSubmitted struct{ Draft beadmodel.Draft }

func (CreateBeadSubmitted) isAction() {}

// BeadEditSubmitted carries the huh.Form result of the BeadEdit overlay.
type BeadEditSubmitted struct {
	BeadID string
	Update beadmodel.PartialUpdate
}

func (BeadEditSubmitted) isAction() {}

// SettingsSubmitted carries the huh.Form result of the Settings overlay.
type SettingsSubmitted struct{ BlockingLabel string }

func (SettingsSubmitted) isAction() {}

// ProjectSwitchSubmitted carries the typed project name from the
// ProjectSwitcher overlay's textinput on enter.
type ProjectSwitchSubmitted struct{ Name string }

func (ProjectSwitchSubmitted) isAction() {}

// ImageAttachSubmitted carries the typed file path from the ImageAttach
// overlay's textinput on enter.
type ImageAttachSubmitted struct{ Path string }

func (ImageAttachSubmitted) isAction() {}

// PlanningSubmitted carries the typed planning description from the
// Planning overlay's textinput on enter.
type PlanningSubmitted struct{ Description string }

func (PlanningSubmitted) isAction() {}

// PendingCoordinatorSend is the Action a coordinator-bound effect
// resolves to. Update has no coordinator handle of its own — it
// describes the request via effect.From(PendingCoordinatorSend{...}),
// and internal/app's apply converts it into a real Coordinator.Send once
// the effect runs.
type PendingCoordinatorSend struct{ Msg coordinator.Msg }

const maxToasts = 5

// Update is the pure transition function.
func Update(m Model, a Action) (Model, []effect.Effect) {
	switch act := a.(type) {
	case CoordinatorEvent:
		return applyEvent(m, act.Event)

	case KeyAction:
		return applyKey(m, act.Name)

	case TypedChar:
		if m.Mode.Kind == mode.Search {
			m.Mode.Search.Query += string(act.Ch)
		}
		return m, nil

	case Backspace:
		if m.Mode.Kind == mode.Search && len(m.Mode.Search.Query) > 0 {
			m.Mode.Search.Query = m.Mode.Search.Query[:len(m.Mode.Search.Query)-1]
		}
		return m, nil

	case SubmitSearch:
		m.Filter.Search = m.Mode.Search.Query
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.RefreshBeads{}})}

	case CancelOverlay:
		if _, ok := m.Overlay.Pop(); ok {
			m.Mode = mode.Mode{Kind: mode.Normal}
			return m, nil
		}
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil

	case ToastExpiredAction:
		m.Toasts = removeToast(m.Toasts, act.ID)
		return m, nil

	case TickAction:
		m.Ticks++
		return m, nil

	case LogLinesAction:
		if top, ok := m.Overlay.Top(); ok && top.Kind == mode.OverlayLogs {
			vp := viewport.New(0, 0)
			if prev, ok := top.Data.(LogsOverlay); ok {
				vp = prev.Viewport
			}
			vp.SetContent(strings.Join(act.Lines, "\n"))
			vp.GotoBottom()
			m.Overlay.ReplaceTop(mode.Overlay{Kind: mode.OverlayLogs, Data: LogsOverlay{Lines: act.Lines, Viewport: vp}})
		}
		return m, nil

	case GotoChar:
		return applyGotoChar(m, act.Ch)

	case CreateBeadSubmitted:
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.CreateBead{Draft: act.Draft}})}

	case BeadEditSubmitted:
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.EditBead{BeadID: act.BeadID, Update: act.Update}})}

	case SettingsSubmitted:
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil

	case ProjectSwitchSubmitted:
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		if act.Name == "" {
			return m, nil
		}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.SwitchProject{Name: act.Name}})}

	case ImageAttachSubmitted:
		top, ok := m.Overlay.Top()
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		if !ok || act.Path == "" {
			return m, nil
		}
		data, _ := top.Data.(ImageAttachOverlay)
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.AttachFile{BeadID: data.BeadID, Path: act.Path}})}

	case PlanningSubmitted:
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		if act.Description == "" {
			return m, nil
		}
		parentID := CursorBeadID(m)
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.RunPlanning{Description: act.Description, ParentID: parentID}})}
	}
	return m, nil
}

// Overlay payload types. These live alongside Update rather than in
// internal/ui/overlay because Update is what mutates them (huh.Form and
// textinput.Model both have their own Update methods that must run on
// every keystroke); internal/ui/overlay only ever reads them back out to
// render a View.

// CreateBeadOverlay holds the live huh.Form for creating a bead, plus
// the struct its fields are bound to.
type CreateBeadOverlay struct {
	Form *huh.Form
	Raw  *CreateBeadRaw
}

type CreateBeadRaw struct {
	Title       string
	Description string
	DesignNotes string
	IssueType   string
	Priority    string
}

// BeadEditOverlay holds the live huh.Form for editing an existing bead.
type BeadEditOverlay struct {
	BeadID string
	Form   *huh.Form
	Raw    *BeadEditRaw
}

type BeadEditRaw struct {
	Title       string
	Description string
	DesignNotes string
	Status      string
	Priority    string
}

// SettingsOverlay holds the live huh.Form for session settings.
type SettingsOverlay struct {
	Form *huh.Form
	Raw  *SettingsRaw
}

type SettingsRaw struct {
	BlockingLabel string
}

// ProjectSwitcherOverlay, ImageAttachOverlay, and PlanningOverlay each
// hold a bubbles/textinput.Model; these are simple single-line prompts
// rather than full huh forms.
type ProjectSwitcherOverlay struct {
	Input    TextInput
	Projects []beadmodel.Project
}

type ImageAttachOverlay struct {
	BeadID string
	Input  TextInput
}

type PlanningOverlay struct {
	Input TextInput
}

// ActionMenuOverlay is the per-task action menu opened over a captured
// bead id.
type ActionMenuOverlay struct {
	BeadID string
}

// DevServerMenuOverlay lists the dev-server defs available for a bead,
// with Focus tracking which entry is highlighted.
type DevServerMenuOverlay struct {
	BeadID string
	Defs   []devserver.Def
	Focus  int
}

// DiffViewerOverlay shows the dirty-file set returned by RequestDiff.
type DiffViewerOverlay struct {
	BeadID string
	Files  []string
}

// ImageListOverlay lists a bead's attached images.
type ImageListOverlay struct {
	BeadID string
	Images []beadmodel.Image
	Focus  int
}

// ImagePreviewOverlay shows a single image's path and caption.
type ImagePreviewOverlay struct {
	Image beadmodel.Image
}

// LogsOverlay holds the last-read tail of the log file. Viewport is a
// bubbles/viewport.Model so the overlay scrolls when the tail is taller
// than the screen; app.go owns resizing it and forwarding scroll keys.
type LogsOverlay struct {
	Lines    []string
	Viewport viewport.Model
}

// BeadDetailOverlay shows a single bead's full description.
type BeadDetailOverlay struct {
	Bead beadmodel.Bead
}

func applyKey(m Model, name string) (Model, []effect.Effect) {
	switch name {
	case "quit":
		if m.AnyBusy {
			id := m.nextToastID
			m.nextToastID++
			m.Toasts = append(m.Toasts, Toast{ID: id, Level: coordinator.ToastWarning, Message: "a session is still busy: " + joinLabels(m.RunningLabels)})
			return m, []effect.Effect{effect.ScheduleToastExpiration(id, 4*time.Second)}
		}
		m.Quitting = true
		return m, []effect.Effect{effect.Exit(0)}

	case "mode-normal":
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil
	case "mode-select":
		m.Mode = mode.Mode{Kind: mode.Select, Select: mode.SelectState{SelectedIDs: map[string]bool{}}}
		return m, nil
	case "mode-search":
		m.Mode = mode.Mode{Kind: mode.Search}
		return m, nil
	case "mode-sort":
		m.Mode = mode.Mode{Kind: mode.Sort}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlaySortMenu})
		return m, nil
	case "mode-filter":
		m.Mode = mode.Mode{Kind: mode.Filter}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayFilterMenu})
		return m, nil
	case "mode-goto":
		m.Mode = mode.Mode{Kind: mode.Goto, Goto: mode.GotoState{Sub: mode.GotoPending}}
		return m, nil
	case "mode-orchestrate":
		m.Mode = mode.Mode{Kind: mode.Orchestrate}
		return m, nil

	case "cursor-down":
		m.Cursor = moveCursor(m.Cursor, 0, 1, columnLengths(m.Beads))
		return m, nil
	case "cursor-up":
		m.Cursor = moveCursor(m.Cursor, 0, -1, columnLengths(m.Beads))
		return m, nil
	case "cursor-left":
		m.Cursor = moveCursor(m.Cursor, -1, 0, columnLengths(m.Beads))
		return m, nil
	case "cursor-right":
		m.Cursor = moveCursor(m.Cursor, 1, 0, columnLengths(m.Beads))
		return m, nil

	case "toggle-select":
		id := CursorBeadID(m)
		if id == "" {
			return m, nil
		}
		sel := m.Mode.Select.SelectedIDs
		if sel == nil {
			sel = map[string]bool{}
		}
		if sel[id] {
			delete(sel, id)
		} else {
			sel[id] = true
		}
		m.Mode.Select.SelectedIDs = sel
		return m, nil

	case "sort-session":
		m.Sort = beadmodel.SortSession
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil
	case "sort-priority":
		m.Sort = beadmodel.SortPriority
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil
	case "sort-updated":
		m.Sort = beadmodel.SortUpdated
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil

	case "filter-field-status":
		return setFilterField(m, mode.FilterStatus), nil
	case "filter-field-priority":
		return setFilterField(m, mode.FilterPriority), nil
	case "filter-field-type":
		return setFilterField(m, mode.FilterType), nil
	case "filter-field-session":
		return setFilterField(m, mode.FilterSession), nil
	case "filter-field-age":
		return setFilterField(m, mode.FilterAge), nil
	case "filter-clear":
		m.Filter = beadmodel.Filter{}
		m.Mode.Filter = mode.FilterState{}
		return m, nil
	case "filter-toggle-0", "filter-toggle-1", "filter-toggle-2", "filter-toggle-3", "filter-toggle-4", "filter-toggle-5":
		n := int(name[len(name)-1] - '0')
		toggleFilterValue(&m, n)
		return m, nil

	case "open-help":
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayHelp})
		return m, nil
	case "open-detail":
		b, ok := beadByID(m.Beads, CursorBeadID(m))
		if !ok {
			return m, nil
		}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayBeadDetail, Data: BeadDetailOverlay{Bead: b}})
		return m, nil
	case "open-create":
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayCreateBead, Data: NewCreateBeadOverlay()})
		return m, nil
	case "open-edit":
		b, ok := beadByID(m.Beads, CursorBeadID(m))
		if !ok {
			return m, nil
		}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayBeadEdit, Data: NewBeadEditOverlay(b)})
		return m, nil
	case "open-delete":
		id := CursorBeadID(m)
		if id == "" {
			return m, nil
		}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayConfirmDelete, Data: id})
		return m, nil
	case "confirm-delete":
		top, ok := m.Overlay.Pop()
		if !ok {
			return m, nil
		}
		id, _ := top.Data.(string)
		if id == "" {
			return m, nil
		}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.DeleteBead{BeadID: id}})}
	case "open-project-switcher":
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayProjectSwitcher, Data: ProjectSwitcherOverlay{Input: NewTextInput("project name"), Projects: m.Projects}})
		return m, nil
	case "open-logs":
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayLogs, Data: LogsOverlay{}})
		return m, []effect.Effect{effect.ReadLogTail(LogFilePath(), 200)}
	case "open-planning":
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayPlanning, Data: PlanningOverlay{Input: NewTextInput("describe the work to plan")}})
		return m, nil

	case "open-action-menu":
		id := CursorBeadID(m)
		if id == "" {
			return m, nil
		}
		m.Mode = mode.Mode{Kind: mode.Action, Action: mode.ActionState{CapturedTaskID: id}}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayActionMenu, Data: ActionMenuOverlay{BeadID: id}})
		return m, nil

	case "action-start-session":
		return dispatchFromAction(m, func(id string) coordinator.Msg {
			return coordinator.StartSession{BeadID: id, Params: session.StartParams{}}
		})
	case "action-attach-session":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.AttachSession{BeadID: id} })
	case "action-pause-session":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.PauseSession{BeadID: id} })
	case "action-resume-session":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.ResumeSession{BeadID: id} })
	case "action-stop-session":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.StopSession{BeadID: id} })
	case "action-update-from-main":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.UpdateFromMain{BeadID: id} })
	case "action-merge-to-main":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.MergeToMain{BeadID: id} })
	case "action-merge-and-attach":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.MergeAndAttach{BeadID: id} })
	case "action-abort-merge":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.AbortMerge{BeadID: id} })
	case "action-create-pr":
		return dispatchFromAction(m, func(id string) coordinator.Msg { return coordinator.CreatePR{BeadID: id} })
	case "action-request-diff":
		id := m.Mode.Action.CapturedTaskID
		if id == "" {
			return m, nil
		}
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.RequestDiff{BeadID: id}})}
	case "action-open-dev-servers":
		id := m.Mode.Action.CapturedTaskID
		if id == "" {
			return m, nil
		}
		m.Overlay.ReplaceTop(mode.Overlay{Kind: mode.OverlayDevServerMenu, Data: DevServerMenuOverlay{BeadID: id, Defs: m.DevServerDefs}})
		return m, nil
	case "action-open-images":
		id := m.Mode.Action.CapturedTaskID
		if id == "" {
			return m, nil
		}
		b, _ := beadByID(m.Beads, id)
		m.Overlay.ReplaceTop(mode.Overlay{Kind: mode.OverlayImageList, Data: ImageListOverlay{BeadID: id, Images: b.Images}})
		return m, nil

	case "devserver-focus-next":
		return moveDevServerFocus(m, 1), nil
	case "devserver-focus-prev":
		return moveDevServerFocus(m, -1), nil
	case "devserver-toggle":
		return dispatchDevServer(m, true)
	case "devserver-restart":
		return dispatchDevServer(m, false)
	case "devserver-view":
		top, ok := m.Overlay.Top()
		if !ok {
			return m, nil
		}
		data, _ := top.Data.(DevServerMenuOverlay)
		if data.Focus < 0 || data.Focus >= len(data.Defs) {
			return m, nil
		}
		m.Overlay.Pop()
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.ViewDevServer{BeadID: data.BeadID, Name: data.Defs[data.Focus].Name}})}

	case "imagelist-focus-next":
		return moveImageListFocus(m, 1), nil
	case "imagelist-focus-prev":
		return moveImageListFocus(m, -1), nil
	case "imagelist-preview":
		top, ok := m.Overlay.Top()
		if !ok {
			return m, nil
		}
		data, _ := top.Data.(ImageListOverlay)
		if data.Focus < 0 || data.Focus >= len(data.Images) {
			return m, nil
		}
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayImagePreview, Data: ImagePreviewOverlay{Image: data.Images[data.Focus]}})
		return m, nil
	case "imagelist-delete":
		top, ok := m.Overlay.Top()
		if !ok {
			return m, nil
		}
		data, _ := top.Data.(ImageListOverlay)
		if data.Focus < 0 || data.Focus >= len(data.Images) {
			return m, nil
		}
		img := data.Images[data.Focus]
		return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: coordinator.DeleteImage{BeadID: data.BeadID, Path: img.Path}})}
	case "imagelist-attach":
		top, ok := m.Overlay.Top()
		if !ok {
			return m, nil
		}
		data, _ := top.Data.(ImageListOverlay)
		m.Overlay.ReplaceTop(mode.Overlay{Kind: mode.OverlayImageAttach, Data: ImageAttachOverlay{BeadID: data.BeadID, Input: NewTextInput("path to image")}})
		return m, nil

	case "merge-choice-update":
		return mergeChoiceDispatch(m, func(id string) coordinator.Msg { return coordinator.UpdateFromMain{BeadID: id} })
	case "merge-choice-merge":
		return mergeChoiceDispatch(m, func(id string) coordinator.Msg { return coordinator.MergeToMain{BeadID: id} })
	case "merge-choice-abort":
		return mergeChoiceDispatch(m, func(id string) coordinator.Msg { return coordinator.AbortMerge{BeadID: id} })

	case "open-settings":
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlaySettings, Data: NewSettingsOverlay(m)})
		return m, nil
	}
	return m, nil
}

// dispatchFromAction sends a coordinator Msg for Action mode's captured
// task, closing the action menu first.
func dispatchFromAction(m Model, build func(id string) coordinator.Msg) (Model, []effect.Effect) {
	id := m.Mode.Action.CapturedTaskID
	if id == "" {
		return m, nil
	}
	m.Overlay.Pop()
	m.Mode = mode.Mode{Kind: mode.Normal}
	return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: build(id)})}
}

func mergeChoiceDispatch(m Model, build func(id string) coordinator.Msg) (Model, []effect.Effect) {
	top, ok := m.Overlay.Pop()
	m.Mode = mode.Mode{Kind: mode.Normal}
	if !ok {
		return m, nil
	}
	rmc, ok := top.Data.(coordinator.RequestMergeChoice)
	if !ok {
		return m, nil
	}
	return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: build(rmc.BeadID)})}
}

func setFilterField(m Model, f mode.FilterField) Model {
	m.Mode.Filter.ActiveField = &f
	return m
}

func toggleFilterValue(m *Model, n int) {
	field := m.Mode.Filter.ActiveField
	if field == nil {
		return
	}
	switch *field {
	case mode.FilterStatus:
		if m.Filter.Statuses == nil {
			m.Filter.Statuses = map[beadmodel.Status]bool{}
		}
		toggleBool(m.Filter.Statuses, beadmodel.Status(n))
	case mode.FilterPriority:
		if m.Filter.Priorities == nil {
			m.Filter.Priorities = map[beadmodel.Priority]bool{}
		}
		toggleBool(m.Filter.Priorities, beadmodel.Priority(n))
	case mode.FilterType:
		if m.Filter.Types == nil {
			m.Filter.Types = map[beadmodel.IssueType]bool{}
		}
		toggleBool(m.Filter.Types, beadmodel.IssueType(n))
	case mode.FilterSession:
		if m.Filter.SessionStates == nil {
			m.Filter.SessionStates = map[beadmodel.SessionState]bool{}
		}
		toggleBool(m.Filter.SessionStates, beadmodel.SessionState(n))
	case mode.FilterAge:
		m.Filter.AgeDays = n * 7
	}
}

// toggleBool flips key's presence in a boolean-valued set, the shape
// every facet of beadmodel.Filter uses.
func toggleBool[K comparable](set map[K]bool, key K) {
	if set[key] {
		delete(set, key)
	} else {
		set[key] = true
	}
}

func moveDevServerFocus(m Model, delta int) Model {
	top, ok := m.Overlay.Top()
	if !ok {
		return m
	}
	data, ok := top.Data.(DevServerMenuOverlay)
	if !ok || len(data.Defs) == 0 {
		return m
	}
	data.Focus = clamp(data.Focus+delta, 0, len(data.Defs)-1)
	m.Overlay.ReplaceTop(mode.Overlay{Kind: mode.OverlayDevServerMenu, Data: data})
	return m
}

func dispatchDevServer(m Model, toggle bool) (Model, []effect.Effect) {
	top, ok := m.Overlay.Top()
	if !ok {
		return m, nil
	}
	data, ok := top.Data.(DevServerMenuOverlay)
	if !ok || data.Focus < 0 || data.Focus >= len(data.Defs) {
		return m, nil
	}
	def := data.Defs[data.Focus]
	var msg coordinator.Msg
	if toggle {
		msg = coordinator.ToggleDevServer{BeadID: data.BeadID, Def: def}
	} else {
		msg = coordinator.RestartDevServer{BeadID: data.BeadID, Def: def}
	}
	return m, []effect.Effect{effect.From(PendingCoordinatorSend{Msg: msg})}
}

func moveImageListFocus(m Model, delta int) Model {
	top, ok := m.Overlay.Top()
	if !ok {
		return m
	}
	data, ok := top.Data.(ImageListOverlay)
	if !ok || len(data.Images) == 0 {
		return m
	}
	data.Focus = clamp(data.Focus+delta, 0, len(data.Images)-1)
	m.Overlay.ReplaceTop(mode.Overlay{Kind: mode.OverlayImageList, Data: data})
	return m
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func applyGotoChar(m Model, ch rune) (Model, []effect.Effect) {
	if m.Mode.Kind != mode.Goto {
		return m, nil
	}
	g := m.Mode.Goto
	if g.Sub == mode.GotoPending {
		g.Labels = mode.GenerateJumpLabels(visibleBeadIDs(m.Beads))
		g.Sub = mode.GotoJump
		g.PendingChar = ch
		m.Mode.Goto = g
		return m, nil
	}
	label := string([]rune{g.PendingChar, ch})
	if id, ok := g.Labels[label]; ok {
		m.Cursor = cursorForBeadID(m.Beads, id)
		m.Mode = mode.Mode{Kind: mode.Normal}
		return m, nil
	}
	g.PendingChar = ch
	m.Mode.Goto = g
	return m, nil
}

func applyEvent(m Model, evt coordinator.UiMsg) (Model, []effect.Effect) {
	switch e := evt.(type) {
	case coordinator.TasksUpdated:
		currentID := CursorBeadID(m)
		m.Beads = e.Beads
		if currentID != "" {
			m.Cursor = cursorForBeadID(m.Beads, currentID)
		}
		return m, nil

	case coordinator.Toast:
		id := m.nextToastID
		m.nextToastID++
		t := Toast{ID: id, Level: e.Level, Message: e.Message}
		m.Toasts = append(m.Toasts, t)
		if len(m.Toasts) > maxToasts {
			m.Toasts = m.Toasts[len(m.Toasts)-maxToasts:]
		}
		return m, []effect.Effect{effect.ScheduleToastExpiration(id, 4*time.Second)}

	case coordinator.TaskMoveFailed:
		return m, nil

	case coordinator.ProjectChanged:
		m.Project = e.Name
		return m, nil

	case coordinator.ProjectsUpdated:
		m.Projects = e.Projects
		return m, nil

	case coordinator.SearchResults:
		m.SearchHits = e.BeadIDs
		return m, nil

	case coordinator.RequestMergeChoice:
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayMergeChoice, Data: e})
		m.Mode = mode.Mode{Kind: mode.MergeSelect, MergeSelect: mode.MergeSelectState{Source: e.BeadID}}
		return m, nil

	case coordinator.DiffReady:
		m.Overlay.Push(mode.Overlay{Kind: mode.OverlayDiffViewer, Data: DiffViewerOverlay{BeadID: e.BeadID, Files: e.Files}})
		return m, nil

	case coordinator.QueueStateChanged:
		m.AnyBusy = e.AnyBusy
		m.RunningLabels = e.RunningLabels
		return m, nil
	}
	return m, nil
}

func removeToast(toasts []Toast, id int) []Toast {
	out := toasts[:0:0]
	for _, t := range toasts {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += ", "
		}
		out += l
	}
	return out
}

// columnBuckets groups beads into the board's 4 status columns, in input
// order — the same bucketing internal/ui/board.Render performs, kept in
// lockstep so cursor movement always lands on what's actually rendered.
func columnBuckets(beads []beadmodel.Bead) [4][]beadmodel.Bead {
	var cols [4][]beadmodel.Bead
	for _, b := range beads {
		col := b.Status.Column()
		if col < 0 || col > 3 {
			continue
		}
		cols[col] = append(cols[col], b)
	}
	return cols
}

func columnLengths(beads []beadmodel.Bead) [4]int {
	cols := columnBuckets(beads)
	var lens [4]int
	for i, c := range cols {
		lens[i] = len(c)
	}
	return lens
}

// moveCursor is the pure law governing cursor movement: moving past
// column 0 on the left or column 3 on the right is a no-op; moving the
// task index clamps at the destination column's bounds rather than
// wrapping or overflowing.
func moveCursor(cur Cursor, dx, dy int, columnLengths [4]int) Cursor {
	col := cur.Column
	if dx != 0 {
		newCol := col + dx
		if newCol < 0 || newCol > 3 {
			return cur
		}
		col = newCol
		cur.Task = clamp(cur.Task, 0, maxIndex(columnLengths[col]))
	}
	cur.Column = col
	if dy != 0 {
		cur.Task = clamp(cur.Task+dy, 0, maxIndex(columnLengths[col]))
	}
	return cur
}

func maxIndex(length int) int {
	if length == 0 {
		return 0
	}
	return length - 1
}

// CursorBeadID resolves a Cursor to the bead id currently under it, or
// "" if the board (or that column) is empty.
func CursorBeadID(m Model) string {
	cols := columnBuckets(m.Beads)
	col := clamp(m.Cursor.Column, 0, 3)
	bucket := cols[col]
	if m.Cursor.Task < 0 || m.Cursor.Task >= len(bucket) {
		return ""
	}
	return bucket[m.Cursor.Task].ID
}

func cursorForBeadID(beads []beadmodel.Bead, id string) Cursor {
	cols := columnBuckets(beads)
	for colIdx, bucket := range cols {
		for taskIdx, b := range bucket {
			if b.ID == id {
				return Cursor{Column: colIdx, Task: taskIdx}
			}
		}
	}
	return Cursor{}
}

func visibleBeadIDs(beads []beadmodel.Bead) []string {
	cols := columnBuckets(beads)
	var ids []string
	for _, bucket := range cols {
		for _, b := range bucket {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func beadByID(beads []beadmodel.Bead, id string) (beadmodel.Bead, bool) {
	for _, b := range beads {
		if b.ID == id {
			return b, true
		}
	}
	return beadmodel.Bead{}, false
}

// Visible applies the current Filter/Sort to Beads for board rendering.
func (m Model) Visible(lookup beadmodel.SessionLookup, now time.Time) []beadmodel.Bead {
	filtered := beadmodel.Apply(m.Beads, m.Filter, lookup, now)
	beadmodel.Sort(filtered, m.Sort, lookup)
	return filtered
}
