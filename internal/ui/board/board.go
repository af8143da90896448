// Package board renders the four-column kanban view: one column per
// beadmodel.Status, each bead drawn as a card showing its id and title;
// session state, priority and type are not drawn on the card.
package board

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/ui/styles"
)

var columnTitles = [...]string{"Open", "In Progress", "Blocking", "Done"}

// Render lays the filtered/sorted beads out into their status columns
// within the given terminal width/height, highlighting cursor.
func Render(beads []beadmodel.Bead, cursor string, theme styles.Theme, width, height int, blockingLabel string) string {
	titles := columnTitles
	titles[2] = blockingLabel

	columns := make([][]beadmodel.Bead, 4)
	for _, b := range beads {
		col := b.Status.Column()
		if col < 0 || col > 3 {
			continue
		}
		columns[col] = append(columns[col], b)
	}

	colWidth := width / 4
	if colWidth < 16 {
		colWidth = 16
	}

	rendered := make([]string, 4)
	for i, beads := range columns {
		header := theme.BoardColumnStyle(i).Render(fmt.Sprintf("%s (%d)", titles[i], len(beads)))
		var cards []string
		for _, b := range beads {
			cards = append(cards, renderCard(b, b.ID == cursor, theme, colWidth-2))
		}
		body := strings.Join(cards, "\n")
		col := lipgloss.JoinVertical(lipgloss.Left, header, body)
		rendered[i] = lipgloss.NewStyle().Width(colWidth).Height(height).Border(lipgloss.NormalBorder()).BorderForeground(theme.Border).Render(col)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func renderCard(b beadmodel.Bead, selected bool, theme styles.Theme, width int) string {
	style := lipgloss.NewStyle().Width(width).Padding(0, 1)
	if selected {
		style = style.Bold(true).Foreground(theme.Accent)
	} else {
		style = style.Foreground(theme.Text)
	}
	title := b.Title
	if len(title) > width && width > 1 {
		title = title[:width-1] + "…"
	}
	return style.Render(fmt.Sprintf("%s  %s", b.ID, title))
}
