// Package overlay renders the modal surfaces pushed onto a mode.Stack:
// help, bead detail/edit, bead creation, planning, merge choice, delete
// confirmation, diagnostics, project switcher, action/sort/filter
// menus, settings, logs, dev-server menu, diff viewer, and image
// attach/list/preview.
package overlay

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/azedarach/azedarach/internal/coordinator"
	"github.com/azedarach/azedarach/internal/mode"
	"github.com/azedarach/azedarach/internal/ui/styles"
	"github.com/azedarach/azedarach/internal/update"
)

// Render draws the topmost overlay, or "" if none is open.
func Render(stack mode.Stack, theme styles.Theme, width, height int) string {
	top, ok := stack.Top()
	if !ok {
		return ""
	}
	box := lipgloss.NewStyle().
		Width(width * 2 / 3).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Accent).
		Padding(1, 2)

	var body string
	switch top.Kind {
	case mode.OverlayHelp:
		body = helpText()

	case mode.OverlayBeadDetail:
		body = renderBeadDetail(top.Data, width*2/3-4)

	case mode.OverlayBeadEdit:
		if data, ok := top.Data.(update.BeadEditOverlay); ok {
			body = data.Form.View()
		}

	case mode.OverlayCreateBead:
		if data, ok := top.Data.(update.CreateBeadOverlay); ok {
			body = data.Form.View()
		}

	case mode.OverlaySettings:
		if data, ok := top.Data.(update.SettingsOverlay); ok {
			body = data.Form.View()
		}

	case mode.OverlayPlanning:
		if data, ok := top.Data.(update.PlanningOverlay); ok {
			body = "Describe the work to plan, then press enter:\n\n" + data.Input.View()
		}

	case mode.OverlayMergeChoice:
		if rmc, ok := top.Data.(coordinator.RequestMergeChoice); ok {
			body = fmt.Sprintf("Merge conflicts for %s:\n\n%s\n\n[u]pdate from main  [m]erge anyway  [a]bort", rmc.BeadID, strings.Join(rmc.ConflictFiles, "\n"))
		}

	case mode.OverlayConfirmDelete:
		body = "Delete this bead? This also removes its worktree. [y/n]"

	case mode.OverlayDiagnostics:
		body = "Running diagnostics…\n\nChecking bd, tmux, and git reachability."

	case mode.OverlayProjectSwitcher:
		body = renderProjectSwitcher(top.Data)

	case mode.OverlayImageViewer:
		body = "No image selected."

	case mode.OverlayActionMenu:
		body = actionMenuText(top.Data)

	case mode.OverlayFilterMenu:
		body = filterMenuText()

	case mode.OverlaySortMenu:
		body = "[s] session  [p] priority  [u] updated"

	case mode.OverlayLogs:
		if data, ok := top.Data.(update.LogsOverlay); ok {
			if data.Viewport.Width > 0 {
				body = data.Viewport.View()
			} else {
				body = strings.Join(data.Lines, "\n")
			}
		}

	case mode.OverlayDevServerMenu:
		body = renderDevServerMenu(top.Data)

	case mode.OverlayDiffViewer:
		body = renderDiffViewer(top.Data)

	case mode.OverlayImageAttach:
		if data, ok := top.Data.(update.ImageAttachOverlay); ok {
			body = "Path to image (enter to attach):\n\n" + data.Input.View()
		}

	case mode.OverlayImageList:
		body = renderImageList(top.Data)

	case mode.OverlayImagePreview:
		if data, ok := top.Data.(update.ImagePreviewOverlay); ok {
			body = fmt.Sprintf("%s\n\n%s", data.Image.Path, data.Image.Caption)
		}

	default:
		body = ""
	}
	return box.Render(body)
}

func renderBeadDetail(raw any, width int) string {
	data, ok := raw.(update.BeadDetailOverlay)
	if !ok {
		return ""
	}
	md := fmt.Sprintf("# %s\n\n%s\n\n## Design Notes\n\n%s", data.Bead.Title, data.Bead.Description, data.Bead.DesignNotes)
	renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

func renderProjectSwitcher(raw any) string {
	data, ok := raw.(update.ProjectSwitcherOverlay)
	if !ok {
		return "Select a project (type to filter, enter to switch)"
	}
	var names []string
	for _, p := range data.Projects {
		names = append(names, p.Name)
	}
	return "Select a project (type to filter, enter to switch):\n\n" +
		data.Input.View() + "\n\n" + strings.Join(names, "\n")
}

func actionMenuText(raw any) string {
	data, ok := raw.(update.ActionMenuOverlay)
	id := ""
	if ok {
		id = data.BeadID
	}
	return strings.Join([]string{
		fmt.Sprintf("Actions for %s:", id),
		"",
		"[s] start   [a] attach   [p] pause   [r] resume   [x] stop",
		"[u] update from main   [m] merge to main   [M] merge + attach   [b] abort merge",
		"[c] create PR   [g] diff   [v] dev servers   [i] images   [d] delete",
	}, "\n")
}

func filterMenuText() string {
	return strings.Join([]string{
		"[1] status  [2] priority  [3] type  [4] session  [5] age",
		"digits 0-5 toggle a value within the active facet, [c] clears all",
	}, "\n")
}

func renderDevServerMenu(raw any) string {
	data, ok := raw.(update.DevServerMenuOverlay)
	if !ok || len(data.Defs) == 0 {
		return "No dev servers configured for this project."
	}
	var lines []string
	lines = append(lines, "Dev servers ([t] toggle  [r] restart  [v] view):", "")
	for i, d := range data.Defs {
		marker := "  "
		if i == data.Focus {
			marker = "> "
		}
		lines = append(lines, marker+d.Name+"  "+d.Command)
	}
	return strings.Join(lines, "\n")
}

func renderDiffViewer(raw any) string {
	data, ok := raw.(update.DiffViewerOverlay)
	if !ok {
		return ""
	}
	if len(data.Files) == 0 {
		return fmt.Sprintf("%s: no uncommitted changes.", data.BeadID)
	}
	return fmt.Sprintf("Dirty files for %s:\n\n%s", data.BeadID, strings.Join(data.Files, "\n"))
}

func renderImageList(raw any) string {
	data, ok := raw.(update.ImageListOverlay)
	if !ok {
		return ""
	}
	if len(data.Images) == 0 {
		return "No images attached. [n] attach one."
	}
	var lines []string
	lines = append(lines, "Images ([enter] preview  [d] delete  [n] attach):", "")
	for i, img := range data.Images {
		marker := "  "
		if i == data.Focus {
			marker = "> "
		}
		lines = append(lines, marker+img.Path+"  "+img.Caption)
	}
	return strings.Join(lines, "\n")
}

func helpText() string {
	return strings.Join([]string{
		"j/k        move cursor",
		"h/l        change column",
		"enter      open bead detail",
		"n          new bead",
		"e          edit bead",
		"d          delete bead",
		"s          start session",
		"a          attach session",
		"p          pause session",
		"r          resume session",
		"x          stop session",
		"v          select mode",
		"A          action menu",
		"P          switch project",
		"L          logs",
		"S          settings",
		"ctrl+p     plan from cursor",
		"/          search",
		"o          sort",
		"f          filter",
		"g          goto",
		"q          quit",
	}, "\n")
}
