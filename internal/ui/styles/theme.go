package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is a named palette + derived lipgloss styles, §6's `theme`
// config option.
type Theme struct {
	Name string

	Accent   lipgloss.Color
	Muted    lipgloss.Color
	Success  lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
	Info     lipgloss.Color
	Border   lipgloss.Color
	Text     lipgloss.Color
	TextDim  lipgloss.Color
}

var themes = map[string]Theme{
	"default": {
		Name:    "default",
		Accent:  lipgloss.Color("39"),
		Muted:   lipgloss.Color("240"),
		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("214"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("33"),
		Border:  lipgloss.Color("240"),
		Text:    lipgloss.Color("252"),
		TextDim: lipgloss.Color("244"),
	},
	"high-contrast": {
		Name:    "high-contrast",
		Accent:  lipgloss.Color("15"),
		Muted:   lipgloss.Color("250"),
		Success: lipgloss.Color("10"),
		Warning: lipgloss.Color("11"),
		Error:   lipgloss.Color("9"),
		Info:    lipgloss.Color("14"),
		Border:  lipgloss.Color("15"),
		Text:    lipgloss.Color("15"),
		TextDim: lipgloss.Color("7"),
	},
	"solarized": {
		Name:    "solarized",
		Accent:  lipgloss.Color("33"),
		Muted:   lipgloss.Color("245"),
		Success: lipgloss.Color("64"),
		Warning: lipgloss.Color("136"),
		Error:   lipgloss.Color("160"),
		Info:    lipgloss.Color("37"),
		Border:  lipgloss.Color("240"),
		Text:    lipgloss.Color("230"),
		TextDim: lipgloss.Color("244"),
	},
}

// Resolve looks up a theme by name, falling back to "default".
func Resolve(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes["default"]
}

// Profile reports the detected terminal color profile, used to decide
// whether to downgrade a theme's truecolor values.
func Profile() termenv.Profile {
	return termenv.NewOutput(nil_Writer{}).Profile
}

type nil_Writer struct{}

func (nil_Writer) Write(p []byte) (int, error) { return len(p), nil }

// BoardColumnStyle returns the lipgloss style for a board column header
// at the given index (0..3: Open, InProgress, Blocking, Done).
func (t Theme) BoardColumnStyle(column int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	switch column {
	case 0:
		return base.Foreground(t.Info)
	case 1:
		return base.Foreground(t.Warning)
	case 2:
		return base.Foreground(t.Error)
	case 3:
		return base.Foreground(t.Success)
	default:
		return base.Foreground(t.Text)
	}
}

func (t Theme) ToastStyle(level string) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder())
	switch level {
	case "success":
		return base.BorderForeground(t.Success).Foreground(t.Success)
	case "warning":
		return base.BorderForeground(t.Warning).Foreground(t.Warning)
	case "error":
		return base.BorderForeground(t.Error).Foreground(t.Error)
	default:
		return base.BorderForeground(t.Info).Foreground(t.Info)
	}
}
