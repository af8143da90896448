// Package beadstore implements the Bead Store Adapter (C1): a thin,
// cache-free shim over the external `bd` CLI. The adapter performs no
// caching; the coordinator owns the cache.
package beadstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/errs"
)

// Adapter shells out to `bd` with working directory set to the project
// path. All calls are cancellable via ctx.
type Adapter struct {
	ProjectPath string
	BinaryPath  string // default "bd"
}

func New(projectPath string) *Adapter {
	return &Adapter{ProjectPath: projectPath, BinaryPath: "bd"}
}

func (a *Adapter) bin() string {
	if a.BinaryPath == "" {
		return "bd"
	}
	return a.BinaryPath
}

func (a *Adapter) run(ctx context.Context, args ...string) ([]byte, error) {
	bin := a.bin()
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = a.ProjectPath
	out, err := cmd.Output()
	if err != nil {
		stderr := ""
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		if ctx.Err() != nil {
			return nil, errs.Timeout("beadstore."+args[0], ctx.Err())
		}
		if stderr != "" && strings.Contains(strings.ToLower(stderr), "not found") {
			return nil, errs.NotFound("beadstore."+args[0], argID(args), err)
		}
		return nil, errs.External("beadstore."+args[0], stderr, err)
	}
	return out, nil
}

func argID(args []string) string {
	if len(args) >= 2 {
		return args[len(args)-1]
	}
	return ""
}

// wireBead is the shape of one `bd show --json` / `bd list --json` row.
type wireBead struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DesignNotes string   `json:"design"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	IssueType   string   `json:"issue_type"`
	ParentID    string   `json:"parent_id"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	Images      []string `json:"images"`
}

func (w wireBead) toDomain() beadmodel.Bead {
	b := beadmodel.Bead{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		DesignNotes: w.DesignNotes,
		Status:      parseStatus(w.Status),
		Priority:    beadmodel.Priority(w.Priority),
		IssueType:   parseIssueType(w.IssueType),
		ParentID:    w.ParentID,
	}
	b.CreatedAt, _ = time.Parse(time.RFC3339, w.CreatedAt)
	b.UpdatedAt, _ = time.Parse(time.RFC3339, w.UpdatedAt)
	for _, img := range w.Images {
		b.Images = append(b.Images, beadmodel.Image{Path: img})
	}
	return b
}

func parseStatus(s string) beadmodel.Status {
	switch strings.ToLower(s) {
	case "open":
		return beadmodel.StatusOpen
	case "in_progress", "in-progress":
		return beadmodel.StatusInProgress
	case "blocked", "review":
		return beadmodel.StatusBlocking
	case "done", "closed":
		return beadmodel.StatusDone
	default:
		return beadmodel.StatusOpen
	}
}

func statusWireValue(s beadmodel.Status, blockingLabel string) string {
	switch s {
	case beadmodel.StatusOpen:
		return "open"
	case beadmodel.StatusInProgress:
		return "in_progress"
	case beadmodel.StatusBlocking:
		return strings.ToLower(blockingLabel)
	case beadmodel.StatusDone:
		return "done"
	default:
		return "open"
	}
}

func parseIssueType(s string) beadmodel.IssueType {
	switch strings.ToLower(s) {
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

func issueTypeWireValue(t beadmodel.IssueType) string {
	switch t {
	case beadmodel.TypeBug:
		return "bug"
	case beadmodel.TypeFeature:
		return "feature"
	case beadmodel.TypeEpic:
		return "epic"
	case beadmodel.TypeChore:
		return "chore"
	default:
		return "task"
	}
}

// List returns a full, unordered snapshot of beads in the project.
func (a *Adapter) List(ctx context.Context) ([]beadmodel.Bead, error) {
	out, err := a.run(ctx, "list", "--json")
	if err != nil {
		return nil, err
	}
	var wire []wireBead
	if err := json.Unmarshal(out, &wire); err != nil {
		return nil, errs.External("beadstore.list", "", fmt.Errorf("parsing bd list output: %w", err))
	}
	beads := make([]beadmodel.Bead, 0, len(wire))
	for _, w := range wire {
		beads = append(beads, w.toDomain())
	}
	return beads, nil
}

// Show fetches a single bead including description and design notes.
func (a *Adapter) Show(ctx context.Context, id string) (beadmodel.Bead, error) {
	out, err := a.run(ctx, "show", id, "--json")
	if err != nil {
		return beadmodel.Bead{}, err
	}
	var w wireBead
	if err := json.Unmarshal(out, &w); err != nil {
		return beadmodel.Bead{}, errs.External("beadstore.show", "", fmt.Errorf("parsing bd show output: %w", err))
	}
	return w.toDomain(), nil
}

// Create creates a bead from a draft. IssueType is required.
func (a *Adapter) Create(ctx context.Context, d beadmodel.Draft) (beadmodel.Bead, error) {
	args := []string{"create", d.Title, "--type", issueTypeWireValue(d.IssueType), "--json"}
	if d.Description != "" {
		args = append(args, "--description", d.Description)
	}
	if d.DesignNotes != "" {
		args = append(args, "--design", d.DesignNotes)
	}
	if d.ParentID != "" {
		args = append(args, "--parent", d.ParentID)
	}
	args = append(args, "--priority", strconv.Itoa(int(d.Priority)))

	out, err := a.run(ctx, args...)
	if err != nil {
		return beadmodel.Bead{}, err
	}
	var w wireBead
	if err := json.Unmarshal(out, &w); err != nil {
		return beadmodel.Bead{}, errs.External("beadstore.create", "", fmt.Errorf("parsing bd create output: %w", err))
	}
	return w.toDomain(), nil
}

// Update applies a partial set of fields to an existing bead.
func (a *Adapter) Update(ctx context.Context, id string, p beadmodel.PartialUpdate, blockingLabel string) (beadmodel.Bead, error) {
	args := []string{"update", id, "--json"}
	if p.Title != nil {
		args = append(args, "--title", *p.Title)
	}
	if p.Description != nil {
		args = append(args, "--description", *p.Description)
	}
	if p.DesignNotes != nil {
		args = append(args, "--design", *p.DesignNotes)
	}
	if p.Status != nil {
		args = append(args, "--status", statusWireValue(*p.Status, blockingLabel))
	}
	if p.Priority != nil {
		args = append(args, "--priority", strconv.Itoa(int(*p.Priority)))
	}
	if p.Notes != nil {
		args = append(args, "--notes", *p.Notes)
	}
	if len(args) == 3 {
		return a.Show(ctx, id)
	}

	out, err := a.run(ctx, args...)
	if err != nil {
		return beadmodel.Bead{}, err
	}
	var w wireBead
	if err := json.Unmarshal(out, &w); err != nil {
		return beadmodel.Bead{}, errs.External("beadstore.update", "", fmt.Errorf("parsing bd update output: %w", err))
	}
	return w.toDomain(), nil
}

// Delete removes a bead. Idempotent on NotFound.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	_, err := a.run(ctx, "delete", id, "--force")
	if errs.KindOf(err) == errs.KindNotFound {
		return nil
	}
	return err
}

// AddDependency records an inter-bead edge.
func (a *Adapter) AddDependency(ctx context.Context, child, parent string, kind beadmodel.DependencyKind) error {
	_, err := a.run(ctx, "dep", "add", child, parent, "--kind", string(kind))
	return err
}

// EpicChildren returns the immediate children of an epic.
func (a *Adapter) EpicChildren(ctx context.Context, epicID string) ([]string, error) {
	out, err := a.run(ctx, "children", epicID, "--json")
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(out, &rows); err != nil {
		return nil, errs.External("beadstore.epic_children", "", fmt.Errorf("parsing bd children output: %w", err))
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	return ids, nil
}
