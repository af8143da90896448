// Package statusbar renders the single-line footer: active mode,
// project, and busy-queue indicators.
package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"

	"github.com/azedarach/azedarach/internal/mode"
	"github.com/azedarach/azedarach/internal/ui/styles"
)

// Render draws the status line. ticks is the count of ~60Hz app ticks
// elapsed since startup, used only to animate the busy spinner.
func Render(m mode.Mode, project string, anyBusy bool, runningLabels []string, ticks int, theme styles.Theme, width int) string {
	left := fmt.Sprintf(" %s │ %s ", project, m.String())
	right := ""
	if anyBusy {
		frames := spinner.Dot.Frames
		frame := frames[(ticks/4)%len(frames)]
		right = frame + " " + strings.Join(runningLabels, ", ") + " "
	}
	style := lipgloss.NewStyle().Width(width).Background(theme.Border).Foreground(theme.Text)
	pad := width - len(left) - len(right)
	if pad < 0 {
		pad = 0
	}
	return style.Render(left + strings.Repeat(" ", pad) + right)
}
