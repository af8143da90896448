package update

import (
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/huh"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/config"
)

// TextInput is the bubbles/textinput model embedded in overlays that
// just need a single line of free text (project switcher, image attach
// path, planning description) rather than a full huh form.
type TextInput = textinput.Model

// NewTextInput returns a focused, empty single-line input with the given
// placeholder text.
func NewTextInput(placeholder string) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 500
	ti.Focus()
	return ti
}

var issueTypeOptions = []huh.Option[string]{
	huh.NewOption("Task", "task"),
	huh.NewOption("Bug", "bug"),
	huh.NewOption("Feature", "feature"),
	huh.NewOption("Epic", "epic"),
	huh.NewOption("Chore", "chore"),
}

var priorityOptions = []huh.Option[string]{
	huh.NewOption("P0 - Critical", "0"),
	huh.NewOption("P1 - High", "1"),
	huh.NewOption("P2 - Medium", "2"),
	huh.NewOption("P3 - Low", "3"),
	huh.NewOption("P4 - None", "4"),
}

var statusOptions = []huh.Option[string]{
	huh.NewOption("Open", "0"),
	huh.NewOption("In Progress", "1"),
	huh.NewOption("Blocking", "2"),
	huh.NewOption("Done", "3"),
}

// NewCreateBeadOverlay builds the CreateBead huh.Form, bound to a fresh
// raw-input struct.
func NewCreateBeadOverlay() CreateBeadOverlay {
	raw := &CreateBeadRaw{IssueType: "task", Priority: "2"}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("short summary").
				Value(&raw.Title).
				Validate(func(s string) error {
					if s == "" {
						return errRequired
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				CharLimit(5000).
				Value(&raw.Description),
			huh.NewSelect[string]().
				Title("Type").
				Options(issueTypeOptions...).
				Value(&raw.IssueType),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&raw.Priority),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Design Notes").
				CharLimit(5000).
				Value(&raw.DesignNotes),
		),
	).WithTheme(huh.ThemeDracula())
	form.Init()
	return CreateBeadOverlay{Form: form, Raw: raw}
}

// NewBeadEditOverlay builds the BeadEdit huh.Form, pre-populated from an
// existing bead.
func NewBeadEditOverlay(b beadmodel.Bead) BeadEditOverlay {
	raw := &BeadEditRaw{
		Title:       b.Title,
		Description: b.Description,
		DesignNotes: b.DesignNotes,
		Status:      strconv.Itoa(b.Status.Column()),
		Priority:    strconv.Itoa(int(b.Priority)),
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&raw.Title).
				Validate(func(s string) error {
					if s == "" {
						return errRequired
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				CharLimit(5000).
				Value(&raw.Description),
			huh.NewText().
				Title("Design Notes").
				CharLimit(5000).
				Value(&raw.DesignNotes),
			huh.NewSelect[string]().
				Title("Status").
				Options(statusOptions...).
				Value(&raw.Status),
			huh.NewSelect[string]().
				Title("Priority").
				Options(priorityOptions...).
				Value(&raw.Priority),
		),
	).WithTheme(huh.ThemeDracula())
	form.Init()
	return BeadEditOverlay{BeadID: b.ID, Form: form, Raw: raw}
}

// NewSettingsOverlay builds the Settings huh.Form.
func NewSettingsOverlay(m Model) SettingsOverlay {
	raw := &SettingsRaw{}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Blocking-column label").
				Description(`"Blocked" or "Review"`).
				Value(&raw.BlockingLabel),
		),
	).WithTheme(huh.ThemeDracula())
	form.Init()
	return SettingsOverlay{Form: form, Raw: raw}
}

// ParsedDraft converts a completed CreateBeadRaw into a beadmodel.Draft.
func (raw CreateBeadRaw) ParsedDraft() beadmodel.Draft {
	return beadmodel.Draft{
		Title:       raw.Title,
		Description: raw.Description,
		DesignNotes: raw.DesignNotes,
		IssueType:   parseIssueType(raw.IssueType),
		Priority:    parsePriority(raw.Priority),
	}
}

// ParsedUpdate converts a completed BeadEditRaw into a beadmodel.PartialUpdate.
func (raw BeadEditRaw) ParsedUpdate() beadmodel.PartialUpdate {
	status := parseStatus(raw.Status)
	priority := parsePriority(raw.Priority)
	return beadmodel.PartialUpdate{
		Title:       &raw.Title,
		Description: &raw.Description,
		DesignNotes: &raw.DesignNotes,
		Status:      &status,
		Priority:    &priority,
	}
}

func parseIssueType(s string) beadmodel.IssueType {
	switch s {
	case "bug":
		return beadmodel.TypeBug
	case "feature":
		return beadmodel.TypeFeature
	case "epic":
		return beadmodel.TypeEpic
	case "chore":
		return beadmodel.TypeChore
	default:
		return beadmodel.TypeTask
	}
}

func parsePriority(s string) beadmodel.Priority {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 4 {
		return beadmodel.PriorityMedium
	}
	return beadmodel.Priority(n)
}

func parseStatus(s string) beadmodel.Status {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 3 {
		return beadmodel.StatusOpen
	}
	return beadmodel.Status(n)
}

type formError string

func (e formError) Error() string { return string(e) }

const errRequired = formError("required")

// LogFilePath is where the Logs overlay reads its tail from: the az.log
// file logx writes under the configured session.logDir.
func LogFilePath() string {
	return filepath.Join(config.GetString("session.logDir"), "az.log")
}
