package validation

import (
	"testing"

	"github.com/azedarach/azedarach/internal/beadmodel"
)

func TestParsePriority_Numeric(t *testing.T) {
	p, err := ParsePriority("2")
	if err != nil || p != beadmodel.PriorityMedium {
		t.Fatalf("expected PriorityMedium, got %v err=%v", p, err)
	}
}

func TestParsePriority_PPrefix(t *testing.T) {
	p, err := ParsePriority("P0")
	if err != nil || p != beadmodel.PriorityCritical {
		t.Fatalf("expected PriorityCritical, got %v err=%v", p, err)
	}
}

func TestParsePriority_WordFormRejected(t *testing.T) {
	if _, err := ParsePriority("high"); err == nil {
		t.Fatalf("expected word form to be rejected")
	}
}

func TestParsePriority_OutOfRange(t *testing.T) {
	if _, err := ParsePriority("9"); err == nil {
		t.Fatalf("expected out-of-range priority to be rejected")
	}
}

func TestParseIssueType(t *testing.T) {
	ty, err := ParseIssueType("Bug")
	if err != nil || ty != beadmodel.TypeBug {
		t.Fatalf("expected TypeBug, got %v err=%v", ty, err)
	}
	if _, err := ParseIssueType("nonsense"); err == nil {
		t.Fatalf("expected unknown type to be rejected")
	}
}

func TestValidateDraft_RequiresTitle(t *testing.T) {
	if err := ValidateDraft(beadmodel.Draft{Title: "  "}); err == nil {
		t.Fatalf("expected blank title to fail validation")
	}
	if err := ValidateDraft(beadmodel.Draft{Title: "fix bug"}); err != nil {
		t.Fatalf("expected valid draft to pass: %v", err)
	}
}

func TestValidateIDFormat(t *testing.T) {
	prefix, err := ValidateIDFormat("az-1a2b")
	if err != nil || prefix != "az" {
		t.Fatalf("expected prefix az, got %q err=%v", prefix, err)
	}
	if _, err := ValidateIDFormat("noprefix"); err == nil {
		t.Fatalf("expected missing separator to fail")
	}
	if _, err := ValidateIDFormat(""); err == nil {
		t.Fatalf("expected empty id to fail")
	}
}
