package coordinator

import (
	"testing"

	"github.com/azedarach/azedarach/internal/beadmodel"
)

func TestOptimisticTable_RecordAndGet(t *testing.T) {
	tbl := newOptimisticTable()
	rec := beadmodel.OptimisticRecord{BeadID: "az-1", PreviousStatus: beadmodel.StatusOpen, TargetStatus: beadmodel.StatusInProgress}
	tbl.Record(rec)

	got, ok := tbl.get("az-1")
	if !ok || got.TargetStatus != beadmodel.StatusInProgress {
		t.Fatalf("expected recorded optimistic record to be retrievable, got %+v ok=%v", got, ok)
	}
}

func TestOptimisticTable_ClearRemovesRecord(t *testing.T) {
	tbl := newOptimisticTable()
	tbl.Record(beadmodel.OptimisticRecord{BeadID: "az-1"})
	tbl.Clear("az-1")

	if _, ok := tbl.get("az-1"); ok {
		t.Fatalf("expected the record to be gone after Clear")
	}
}

func TestOptimisticTable_GetMissingIsFalse(t *testing.T) {
	tbl := newOptimisticTable()
	if _, ok := tbl.get("az-404"); ok {
		t.Fatalf("expected ok=false for an untracked bead id")
	}
}

func TestMutationReconcile_ClearsWhenTargetObserved(t *testing.T) {
	rec := beadmodel.OptimisticRecord{BeadID: "az-1", PreviousStatus: beadmodel.StatusOpen, TargetStatus: beadmodel.StatusInProgress}
	if !mutation_reconcile(rec, beadmodel.StatusInProgress) {
		t.Fatalf("expected reconcile to report true once the backend reflects the target status")
	}
}

func TestMutationReconcile_StaysPendingWhileUnobserved(t *testing.T) {
	rec := beadmodel.OptimisticRecord{BeadID: "az-1", PreviousStatus: beadmodel.StatusOpen, TargetStatus: beadmodel.StatusInProgress}
	if mutation_reconcile(rec, beadmodel.StatusOpen) {
		t.Fatalf("expected reconcile to stay pending while backend still reports the pre-image status")
	}
}
