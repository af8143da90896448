package board

import (
	"strings"
	"testing"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/ui/styles"
)

func TestRender_GroupsBeadsByColumn(t *testing.T) {
	theme := styles.Resolve("default")
	beads := []beadmodel.Bead{
		{ID: "az-1", Title: "one", Status: beadmodel.StatusOpen},
		{ID: "az-2", Title: "two", Status: beadmodel.StatusDone},
	}
	out := Render(beads, "az-1", theme, 120, 20, "Blocked")
	if !strings.Contains(out, "az-1") || !strings.Contains(out, "az-2") {
		t.Fatalf("expected both bead ids to appear in rendered board, got %q", out)
	}
	if !strings.Contains(out, "Blocked") {
		t.Fatalf("expected configured blocking label in column header, got %q", out)
	}
}

func TestRender_EmptyBoard(t *testing.T) {
	theme := styles.Resolve("default")
	out := Render(nil, "", theme, 80, 20, "Blocked")
	if !strings.Contains(out, "Open") || !strings.Contains(out, "Done") {
		t.Fatalf("expected column headers even with no beads, got %q", out)
	}
}

func TestRenderCard_TruncatesLongTitles(t *testing.T) {
	theme := styles.Resolve("default")
	b := beadmodel.Bead{ID: "az-1", Title: strings.Repeat("x", 50)}
	out := renderCard(b, false, theme, 10)
	if !strings.Contains(out, "…") {
		t.Fatalf("expected a long title to be truncated with an ellipsis, got %q", out)
	}
}

func TestRender_DoesNotMutateSharedColumnTitles(t *testing.T) {
	theme := styles.Resolve("default")
	Render(nil, "", theme, 80, 20, "Custom")
	out := Render(nil, "", theme, 80, 20, "Blocked")
	if !strings.Contains(out, "Blocked") || strings.Contains(out, "Custom") {
		t.Fatalf("expected a prior call's custom blocking label not to leak into a later render, got %q", out)
	}
}
