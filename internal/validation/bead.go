// Package validation parses and validates the free-text fields entered
// through the Create/Edit bead forms before they reach the Bead Store
// Adapter.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/azedarach/azedarach/internal/beadmodel"
)

// ParsePriority extracts a priority from free text. Supports numeric
// (0-4) and P-prefix ("P0".."P4") forms; word forms ("high") are
// rejected deliberately, matching the teacher's stance that priority
// input should be unambiguous.
func ParsePriority(content string) (beadmodel.Priority, error) {
	content = strings.TrimSpace(content)
	stripped := content
	if strings.HasPrefix(strings.ToUpper(content), "P") {
		stripped = content[1:]
	}
	n, err := strconv.Atoi(stripped)
	if err != nil || n < 0 || n > 4 {
		return 0, fmt.Errorf("invalid priority %q (expected 0-4 or P0-P4)", content)
	}
	return beadmodel.Priority(n), nil
}

// ParseIssueType validates a free-text issue type against the known set.
func ParseIssueType(content string) (beadmodel.IssueType, error) {
	switch strings.ToLower(strings.TrimSpace(content)) {
	case "task":
		return beadmodel.TypeTask, nil
	case "bug":
		return beadmodel.TypeBug, nil
	case "feature":
		return beadmodel.TypeFeature, nil
	case "epic":
		return beadmodel.TypeEpic, nil
	case "chore":
		return beadmodel.TypeChore, nil
	default:
		return 0, fmt.Errorf("invalid issue type %q (expected task, bug, feature, epic, or chore)", content)
	}
}

// ValidateDraft checks the required fields of a Draft before Create is
// called: a non-empty title and an issue type from the known set (the
// latter is a struct field, not free text, so it is always valid; the
// check here is for the title alone).
func ValidateDraft(d beadmodel.Draft) error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("title is required")
	}
	return nil
}

// ValidateIDFormat checks that id looks like `<prefix>-<suffix>`, the
// shape bd emits for bead ids (e.g. "az-1a2b").
func ValidateIDFormat(id string) (prefix string, err error) {
	if id == "" {
		return "", fmt.Errorf("id is required")
	}
	idx := strings.Index(id, "-")
	if idx <= 0 {
		return "", fmt.Errorf("invalid id format %q (expected prefix-suffix, e.g. az-1a2b)", id)
	}
	return id[:idx], nil
}
