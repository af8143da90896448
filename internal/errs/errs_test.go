package errs

import (
	"errors"
	"testing"
)

func TestKindOf_ClassifiedError(t *testing.T) {
	err := NotFound("beadstore.show", "a-1", errors.New("no such bead"))
	if KindOf(err) != KindNotFound {
		t.Fatalf("expected KindNotFound, got %v", KindOf(err))
	}
}

func TestKindOf_UnclassifiedError(t *testing.T) {
	if KindOf(errors.New("plain")) != KindOther {
		t.Fatalf("expected KindOther for a plain error")
	}
}

func TestKindOf_NilError(t *testing.T) {
	if KindOf(nil) != KindOther {
		t.Fatalf("expected KindOther for nil")
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := Validation("worktree.create", inner)
	if !errors.Is(err, inner) {
		t.Fatalf("expected errors.Is to find the wrapped error")
	}
}

func TestError_BusyMessage(t *testing.T) {
	err := Busy("a-1", "start")
	if got := err.Error(); got != "a-1 is busy (start in progress)" {
		t.Fatalf("unexpected message: %q", got)
	}
}

func TestError_MergeConflictMessage(t *testing.T) {
	err := MergeConflict("coordinator.merge_to_main", []string{"a.go", "b.go"})
	if KindOf(err) != KindMergeConflict {
		t.Fatalf("expected KindMergeConflict")
	}
	var e *Error
	errors.As(err, &e)
	if len(e.Files) != 2 {
		t.Fatalf("expected two conflicting files recorded")
	}
}
