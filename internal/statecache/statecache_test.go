package statecache

import (
	"context"
	"path/filepath"
	"testing"
)

func openTest(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("unexpected error opening cache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGet_UnsetKeyReturnsEmpty(t *testing.T) {
	c := openTest(t)
	got, err := c.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string for an unset key, got %q", got)
	}
}

func TestSetGet_RoundTrips(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	if err := c.Set(ctx, "theme", "solarized"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := c.Get(ctx, "theme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "solarized" {
		t.Fatalf("expected 'solarized', got %q", got)
	}
}

func TestSet_UpsertsExistingKey(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	if err := c.Set(ctx, "theme", "default"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.Set(ctx, "theme", "high-contrast"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := c.Get(ctx, "theme")
	if got != "high-contrast" {
		t.Fatalf("expected the later Set to win, got %q", got)
	}
}

func TestLastCursor_UnsetProjectReturnsEmpty(t *testing.T) {
	c := openTest(t)
	got, err := c.LastCursor(context.Background(), "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Fatalf("expected empty string for a project with no remembered cursor, got %q", got)
	}
}

func TestSetCursor_RoundTripsPerProject(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	if err := c.SetCursor(ctx, "demo", "az-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetCursor(ctx, "other", "az-99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := c.LastCursor(ctx, "demo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "az-1" {
		t.Fatalf("expected cursor scoped to 'demo', got %q", got)
	}
}

func TestSetCursor_UpsertsSameProject(t *testing.T) {
	c := openTest(t)
	ctx := context.Background()
	if err := c.SetCursor(ctx, "demo", "az-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.SetCursor(ctx, "demo", "az-2"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := c.LastCursor(ctx, "demo")
	if got != "az-2" {
		t.Fatalf("expected the later cursor to win, got %q", got)
	}
}
