// Package app wires the Coordinator (C8), the Effect system (C10), the
// Mode/Overlay model (C11), the Input Router (C12), and the Update
// function (C13) into a bubbletea program.
package app

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/coordinator"
	"github.com/azedarach/azedarach/internal/devserver"
	"github.com/azedarach/azedarach/internal/effect"
	"github.com/azedarach/azedarach/internal/input"
	"github.com/azedarach/azedarach/internal/mode"
	"github.com/azedarach/azedarach/internal/ui/board"
	"github.com/azedarach/azedarach/internal/ui/overlay"
	"github.com/azedarach/azedarach/internal/ui/statusbar"
	"github.com/azedarach/azedarach/internal/ui/styles"
	"github.com/azedarach/azedarach/internal/ui/toast"
	"github.com/azedarach/azedarach/internal/update"
)

// App is the bubbletea root model.
type App struct {
	model update.Model

	coord  *coordinator.Coordinator
	events chan coordinator.UiMsg
	router *input.Router
	theme  styles.Theme

	blockingLabel string
	width, height int

	ctx    context.Context
	cancel context.CancelFunc
}

func New(coord *coordinator.Coordinator, theme styles.Theme, blockingLabel string, devServerDefs []devserver.Def) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		model: update.Model{
			Mode:          mode.Mode{Kind: mode.Normal},
			Sort:          beadmodel.SortPriority,
			DevServerDefs: devServerDefs,
		},
		coord:         coord,
		events:        make(chan coordinator.UiMsg, 64),
		router:        defaultRouter(),
		theme:         theme,
		blockingLabel: blockingLabel,
		ctx:           ctx,
		cancel:        cancel,
	}
}

func defaultRouter() *input.Router {
	r := input.New()
	bind := func(k mode.Kind, key, name string) {
		r.Bind(input.Binding{Kind: k, Key: key, Make: func() input.Action { return update.KeyAction{Name: name} }})
	}
	bind(input.KindAny, "ctrl+c", "quit")
	bind(input.KindAny, "q", "quit")
	bind(input.KindAny, "esc", "cancel-overlay")

	bind(mode.Normal, "j", "cursor-down")
	bind(mode.Normal, "k", "cursor-up")
	bind(mode.Normal, "h", "cursor-left")
	bind(mode.Normal, "l", "cursor-right")
	bind(mode.Normal, "enter", "open-detail")
	bind(mode.Normal, "n", "open-create")
	bind(mode.Normal, "e", "open-edit")
	bind(mode.Normal, "d", "open-delete")
	bind(mode.Normal, "s", "action-start-session")
	bind(mode.Normal, "a", "action-attach-session")
	bind(mode.Normal, "p", "action-pause-session")
	bind(mode.Normal, "r", "action-resume-session")
	bind(mode.Normal, "x", "action-stop-session")
	bind(mode.Normal, "/", "mode-search")
	bind(mode.Normal, "o", "mode-sort")
	bind(mode.Normal, "f", "mode-filter")
	bind(mode.Normal, "g", "mode-goto")
	bind(mode.Normal, "v", "mode-select")
	bind(mode.Normal, "A", "open-action-menu")
	bind(mode.Normal, "P", "open-project-switcher")
	bind(mode.Normal, "L", "open-logs")
	bind(mode.Normal, "S", "open-settings")
	bind(mode.Normal, "?", "open-help")
	bind(mode.Normal, "ctrl+p", "open-planning")

	bind(mode.Select, "j", "cursor-down")
	bind(mode.Select, "k", "cursor-up")
	bind(mode.Select, "h", "cursor-left")
	bind(mode.Select, "l", "cursor-right")
	bind(mode.Select, " ", "toggle-select")

	bind(mode.Sort, "s", "sort-session")
	bind(mode.Sort, "p", "sort-priority")
	bind(mode.Sort, "u", "sort-updated")

	bind(mode.Filter, "1", "filter-field-status")
	bind(mode.Filter, "2", "filter-field-priority")
	bind(mode.Filter, "3", "filter-field-type")
	bind(mode.Filter, "4", "filter-field-session")
	bind(mode.Filter, "5", "filter-field-age")
	bind(mode.Filter, "c", "filter-clear")
	for _, d := range []string{"0", "1", "2", "3", "4", "5"} {
		bind(mode.Filter, d, "filter-toggle-"+d)
	}

	bind(mode.Action, "s", "action-start-session")
	bind(mode.Action, "a", "action-attach-session")
	bind(mode.Action, "p", "action-pause-session")
	bind(mode.Action, "r", "action-resume-session")
	bind(mode.Action, "x", "action-stop-session")
	bind(mode.Action, "u", "action-update-from-main")
	bind(mode.Action, "m", "action-merge-to-main")
	bind(mode.Action, "M", "action-merge-and-attach")
	bind(mode.Action, "b", "action-abort-merge")
	bind(mode.Action, "c", "action-create-pr")
	bind(mode.Action, "g", "action-request-diff")
	bind(mode.Action, "v", "action-open-dev-servers")
	bind(mode.Action, "i", "action-open-images")
	bind(mode.Action, "d", "open-delete")

	bind(mode.MergeSelect, "u", "merge-choice-update")
	bind(mode.MergeSelect, "m", "merge-choice-merge")
	bind(mode.MergeSelect, "a", "merge-choice-abort")

	return r
}

// overlaySuspendsRouter reports whether an open overlay should capture
// every key itself rather than falling through to the mode-keyed
// Router: true for overlays with no Mode of their own to dispatch
// through (forms, menus, passive readouts); false for overlays that
// mirror an active Mode (MergeChoice/MergeSelect, ActionMenu/Action,
// SortMenu/Sort, FilterMenu/Filter), whose keys are already bound under
// that Mode's Kind.
func overlaySuspendsRouter(k mode.OverlayKind) bool {
	switch k {
	case mode.OverlayMergeChoice, mode.OverlayActionMenu, mode.OverlaySortMenu, mode.OverlayFilterMenu, mode.OverlayNone:
		return false
	default:
		return true
	}
}

// Init subscribes to the coordinator, requests an initial refresh, and
// starts the ~60Hz poll ticker.
func (a *App) Init() tea.Cmd {
	a.coord.Send(coordinator.Subscribe{Reply: a.events})
	a.coord.Send(coordinator.RefreshBeads{})
	return tea.Batch(a.pollCmd(), a.tickCmd())
}

func (a *App) pollCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case evt := <-a.events:
			return update.CoordinatorEvent{Event: evt}
		case <-time.After(effect.DefaultTickInterval):
			return nil
		}
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(effect.DefaultTickInterval, func(t time.Time) tea.Msg {
		return update.TickAction{At: t}
	})
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(m)

	case update.CoordinatorEvent:
		next, _ := a.apply(m)
		return next, a.pollCmd()

	case update.TickAction:
		return a.apply(m)

	case nil:
		return a, a.pollCmd()
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	if top, ok := a.model.Overlay.Top(); ok && overlaySuspendsRouter(top.Kind) {
		if model, cmd, handled := a.handleOverlayKey(top, m); handled {
			return model, cmd
		}
		if act, ok := a.router.DispatchGlobal(m); ok {
			return a.apply(act.(update.Action))
		}
		return a, nil
	}

	if act, ok := a.router.Dispatch(a.model.Mode, m); ok {
		if ka, ok := act.(update.KeyAction); ok && ka.Name == "cancel-overlay" {
			act = update.CancelOverlay{}
		}
		return a.apply(act.(update.Action))
	}

	switch a.model.Mode.Kind {
	case mode.Search:
		if m.Type == tea.KeyEnter {
			return a.apply(update.SubmitSearch{})
		}
		if m.Type == tea.KeyBackspace {
			return a.apply(update.Backspace{})
		}
		if m.Type == tea.KeyRunes && len(m.Runes) > 0 {
			return a.apply(update.TypedChar{Ch: m.Runes[0]})
		}
	case mode.Goto:
		if m.Type == tea.KeyRunes && len(m.Runes) > 0 {
			return a.apply(update.GotoChar{Ch: m.Runes[0]})
		}
	}
	return a, nil
}

// handleOverlayKey processes a keystroke for an overlay that suspends
// board-level routing. Returning handled=false lets the caller fall back
// to the global router (quit, cancel-overlay).
func (a *App) handleOverlayKey(top mode.Overlay, msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch top.Kind {
	case mode.OverlayConfirmDelete:
		switch msg.String() {
		case "y":
			model, cmd := a.apply(update.KeyAction{Name: "confirm-delete"})
			return model, cmd, true
		case "n":
			model, cmd := a.apply(update.CancelOverlay{})
			return model, cmd, true
		}
		return nil, nil, false

	case mode.OverlayCreateBead, mode.OverlayBeadEdit, mode.OverlaySettings:
		return a.forwardForm(top, msg)

	case mode.OverlayProjectSwitcher, mode.OverlayImageAttach, mode.OverlayPlanning:
		return a.forwardTextInput(top, msg)

	case mode.OverlayDevServerMenu:
		names := map[string]string{
			"j": "devserver-focus-next",
			"k": "devserver-focus-prev",
			"t": "devserver-toggle",
			"r": "devserver-restart",
			"v": "devserver-view",
		}
		name, ok := names[msg.String()]
		if !ok {
			return nil, nil, false
		}
		model, cmd := a.apply(update.KeyAction{Name: name})
		return model, cmd, true

	case mode.OverlayImageList:
		names := map[string]string{
			"j":     "imagelist-focus-next",
			"k":     "imagelist-focus-prev",
			"enter": "imagelist-preview",
			"d":     "imagelist-delete",
			"n":     "imagelist-attach",
		}
		name, ok := names[msg.String()]
		if !ok {
			return nil, nil, false
		}
		model, cmd := a.apply(update.KeyAction{Name: name})
		return model, cmd, true

	case mode.OverlayLogs:
		return a.forwardViewport(top, msg)

	default:
		// Help, Diagnostics, BeadDetail, ImageViewer, ImagePreview,
		// DiffViewer: read-only, only esc/quit (global) apply.
		return nil, nil, false
	}
}

// forwardViewport scrolls a viewport-backed overlay (currently only
// Logs) in response to j/k/arrow/pgup/pgdown, sizing it to the overlay
// box the first time it sees a non-zero width.
func (a *App) forwardViewport(top mode.Overlay, msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	data, ok := top.Data.(update.LogsOverlay)
	if !ok {
		return nil, nil, false
	}
	if data.Viewport.Width == 0 {
		data.Viewport.Width = a.width*2/3 - 4
		data.Viewport.Height = a.height - 6
		data.Viewport.SetContent(strings.Join(data.Lines, "\n"))
		data.Viewport.GotoBottom()
	}
	switch msg.String() {
	case "j", "down":
		data.Viewport.LineDown(1)
	case "k", "up":
		data.Viewport.LineUp(1)
	case "pgdown":
		data.Viewport.ViewDown()
	case "pgup":
		data.Viewport.ViewUp()
	default:
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		return nil, nil, false
	}
	a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
	return a, nil, true
}

func (a *App) forwardForm(top mode.Overlay, msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch data := top.Data.(type) {
	case update.CreateBeadOverlay:
		updated, cmd := data.Form.Update(msg)
		data.Form = updated.(*huh.Form)
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		if data.Form.State == huh.StateCompleted {
			model, submitCmd := a.apply(update.CreateBeadSubmitted{Draft: data.Raw.ParsedDraft()})
			return model, submitCmd, true
		}
		if data.Form.State == huh.StateAborted {
			model, cancelCmd := a.apply(update.CancelOverlay{})
			return model, cancelCmd, true
		}
		return a, cmd, true

	case update.BeadEditOverlay:
		updated, cmd := data.Form.Update(msg)
		data.Form = updated.(*huh.Form)
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		if data.Form.State == huh.StateCompleted {
			model, submitCmd := a.apply(update.BeadEditSubmitted{BeadID: data.BeadID, Update: data.Raw.ParsedUpdate()})
			return model, submitCmd, true
		}
		if data.Form.State == huh.StateAborted {
			model, cancelCmd := a.apply(update.CancelOverlay{})
			return model, cancelCmd, true
		}
		return a, cmd, true

	case update.SettingsOverlay:
		updated, cmd := data.Form.Update(msg)
		data.Form = updated.(*huh.Form)
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		if data.Form.State == huh.StateCompleted {
			model, submitCmd := a.apply(update.SettingsSubmitted{BlockingLabel: data.Raw.BlockingLabel})
			return model, submitCmd, true
		}
		if data.Form.State == huh.StateAborted {
			model, cancelCmd := a.apply(update.CancelOverlay{})
			return model, cancelCmd, true
		}
		return a, cmd, true
	}
	return nil, nil, false
}

func (a *App) forwardTextInput(top mode.Overlay, msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch data := top.Data.(type) {
	case update.ProjectSwitcherOverlay:
		if msg.Type == tea.KeyEnter {
			model, cmd := a.apply(update.ProjectSwitchSubmitted{Name: data.Input.Value()})
			return model, cmd, true
		}
		updated, cmd := data.Input.Update(msg)
		data.Input = updated
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		return a, cmd, true

	case update.ImageAttachOverlay:
		if msg.Type == tea.KeyEnter {
			model, cmd := a.apply(update.ImageAttachSubmitted{Path: data.Input.Value()})
			return model, cmd, true
		}
		updated, cmd := data.Input.Update(msg)
		data.Input = updated
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		return a, cmd, true

	case update.PlanningOverlay:
		if msg.Type == tea.KeyEnter {
			model, cmd := a.apply(update.PlanningSubmitted{Description: data.Input.Value()})
			return model, cmd, true
		}
		updated, cmd := data.Input.Update(msg)
		data.Input = updated
		a.model.Overlay.ReplaceTop(mode.Overlay{Kind: top.Kind, Data: data})
		return a, cmd, true
	}
	return nil, nil, false
}

func (a *App) apply(act update.Action) (tea.Model, tea.Cmd) {
	next, effs := update.Update(a.model, act)
	a.model = next
	if len(effs) == 0 {
		return a, nil
	}
	cmds := make([]tea.Cmd, 0, len(effs))
	for _, e := range effs {
		e := e
		cmds = append(cmds, func() tea.Msg {
			switch action := e(a.ctx).(type) {
			case effect.ToastExpired:
				return update.ToastExpiredAction{ID: action.ID}
			case effect.ExitSignal:
				a.cancel()
				return tea.Quit()
			case effect.LogLines:
				return update.LogLinesAction{Lines: action.Lines}
			case update.PendingCoordinatorSend:
				a.coord.Send(action.Msg)
				return nil
			default:
				return nil
			}
		})
	}
	return a, tea.Batch(cmds...)
}

func (a *App) View() string {
	body := board.Render(a.model.Beads, update.CursorBeadID(a.model), a.theme, a.width, a.height-2, a.blockingLabel)
	ov := overlay.Render(a.model.Overlay, a.theme, a.width, a.height)
	var toastEntries []toast.Entry
	for _, t := range a.model.Toasts {
		toastEntries = append(toastEntries, toast.Entry{Level: t.Level, Message: t.Message})
	}
	toasts := toast.Render(toastEntries, a.theme)
	bar := statusbar.Render(a.model.Mode, a.model.Project, a.model.AnyBusy, a.model.RunningLabels, a.model.Ticks, a.theme, a.width)

	out := body + "\n" + bar
	if ov != "" {
		out = ov + "\n" + out
	}
	if toasts != "" {
		out = toasts + "\n" + out
	}
	return out
}
