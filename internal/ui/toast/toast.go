// Package toast renders the stacked toast notifications in the board's
// corner.
package toast

import (
	"strings"

	"github.com/azedarach/azedarach/internal/coordinator"
	"github.com/azedarach/azedarach/internal/ui/styles"
)

// Entry is the minimal shape toast rendering needs, matching
// internal/update.Toast without importing it (avoids a cycle since
// update already depends on coordinator/effect).
type Entry struct {
	Level   coordinator.ToastLevel
	Message string
}

func levelName(l coordinator.ToastLevel) string {
	switch l {
	case coordinator.ToastWarning:
		return "warning"
	case coordinator.ToastError:
		return "error"
	default:
		return "info"
	}
}

// Render stacks toasts bottom-to-top, most recent last.
func Render(entries []Entry, theme styles.Theme) string {
	var lines []string
	for _, e := range entries {
		lines = append(lines, theme.ToastStyle(levelName(e.Level)).Render(e.Message))
	}
	return strings.Join(lines, "\n")
}
