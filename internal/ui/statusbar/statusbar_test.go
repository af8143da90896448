package statusbar

import (
	"strings"
	"testing"

	"github.com/azedarach/azedarach/internal/mode"
	"github.com/azedarach/azedarach/internal/ui/styles"
)

func TestRender_ShowsProjectAndMode(t *testing.T) {
	theme := styles.Resolve("default")
	m := mode.Mode{Kind: mode.Normal}
	out := Render(m, "demo", false, nil, 0, theme, 80)
	if !strings.Contains(out, "demo") {
		t.Fatalf("expected project name present, got %q", out)
	}
	if !strings.Contains(out, m.String()) {
		t.Fatalf("expected mode name present, got %q", out)
	}
}

func TestRender_ShowsRunningLabelsWhenBusy(t *testing.T) {
	theme := styles.Resolve("default")
	m := mode.Mode{Kind: mode.Normal}
	out := Render(m, "demo", true, []string{"move", "create"}, 0, theme, 80)
	if !strings.Contains(out, "move") || !strings.Contains(out, "create") {
		t.Fatalf("expected busy labels to appear, got %q", out)
	}
}

func TestRender_HidesRunningLabelsWhenIdle(t *testing.T) {
	theme := styles.Resolve("default")
	m := mode.Mode{Kind: mode.Normal}
	out := Render(m, "demo", false, []string{"move"}, 0, theme, 80)
	if strings.Contains(out, "move") {
		t.Fatalf("expected idle status bar not to show queue labels, got %q", out)
	}
}

func TestRender_SpinnerFrameAdvancesWithTicks(t *testing.T) {
	theme := styles.Resolve("default")
	m := mode.Mode{Kind: mode.Normal}
	first := Render(m, "demo", true, []string{"move"}, 0, theme, 80)
	later := Render(m, "demo", true, []string{"move"}, 4, theme, 80)
	if first == later {
		t.Fatalf("expected the spinner frame to change as ticks advance")
	}
}
