package mutation

import (
	"testing"

	"github.com/azedarach/azedarach/internal/beadmodel"
)

func TestReconcile_ClearsOnTargetMatch(t *testing.T) {
	rec := beadmodel.OptimisticRecord{BeadID: "az-1", PreviousStatus: beadmodel.StatusOpen, TargetStatus: beadmodel.StatusInProgress}
	var cleared string
	Reconcile(rec, beadmodel.StatusInProgress, func(id string) { cleared = id })
	if cleared != "az-1" {
		t.Fatalf("expected reconcile to clear az-1 once observed matches target")
	}
}

func TestReconcile_ClearsWhenObservedDivergesFromPreviousToo(t *testing.T) {
	rec := beadmodel.OptimisticRecord{BeadID: "az-1", PreviousStatus: beadmodel.StatusOpen, TargetStatus: beadmodel.StatusInProgress}
	var cleared string
	// A manual edit elsewhere moved the bead to Done, neither the
	// optimistic pre-image nor its target: that observation wins.
	Reconcile(rec, beadmodel.StatusDone, func(id string) { cleared = id })
	if cleared != "az-1" {
		t.Fatalf("expected reconcile to clear when observed status is neither previous nor target")
	}
}

func TestReconcile_StaysPendingWhileStillPreviousStatus(t *testing.T) {
	rec := beadmodel.OptimisticRecord{BeadID: "az-1", PreviousStatus: beadmodel.StatusOpen, TargetStatus: beadmodel.StatusInProgress}
	cleared := false
	Reconcile(rec, beadmodel.StatusOpen, func(id string) { cleared = true })
	if cleared {
		t.Fatalf("expected the optimistic record to remain pending while backend still reports the pre-image status")
	}
}
