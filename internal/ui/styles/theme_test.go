package styles

import "testing"

func TestResolve_KnownTheme(t *testing.T) {
	th := Resolve("solarized")
	if th.Name != "solarized" {
		t.Fatalf("expected resolved theme 'solarized', got %q", th.Name)
	}
}

func TestResolve_UnknownFallsBackToDefault(t *testing.T) {
	th := Resolve("does-not-exist")
	if th.Name != "default" {
		t.Fatalf("expected fallback to 'default' theme, got %q", th.Name)
	}
}

func TestBoardColumnStyle_DistinctPerColumn(t *testing.T) {
	th := Resolve("default")
	seen := make(map[string]bool)
	for i := 0; i < 4; i++ {
		out := th.BoardColumnStyle(i).Render("x")
		seen[out] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected 4 visually distinct column styles, got %d unique renders", len(seen))
	}
}

func TestBoardColumnStyle_OutOfRangeFallsBackToTextColor(t *testing.T) {
	th := Resolve("default")
	out := th.BoardColumnStyle(99).Render("x")
	if out == "" {
		t.Fatalf("expected a non-empty render for an out-of-range column index")
	}
}

func TestToastStyle_KnownLevels(t *testing.T) {
	th := Resolve("default")
	for _, level := range []string{"success", "warning", "error", "info", "unknown"} {
		if out := th.ToastStyle(level).Render("msg"); out == "" {
			t.Fatalf("expected non-empty render for toast level %q", level)
		}
	}
}
