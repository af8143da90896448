// Package errs classifies errors surfaced by the external collaborators
// (bd, git, tmux) into the taxonomy used to pick a UI response: toast,
// rollback, merge-choice dialog, or queue advance.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the coarse classification used to decide how an error is surfaced.
type Kind int

const (
	KindOther Kind = iota
	KindValidation
	KindNotFound
	KindBusy
	KindExternalCommand
	KindMergeConflict
	KindTimeout
	KindFatal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindBusy:
		return "busy"
	case KindExternalCommand:
		return "external_command"
	case KindMergeConflict:
		return "merge_conflict"
	case KindTimeout:
		return "timeout"
	case KindFatal:
		return "fatal"
	default:
		return "other"
	}
}

// Error is a classified error carrying enough context to render a toast or
// drive a MergeChoice overlay without the caller re-parsing stderr.
type Error struct {
	Kind    Kind
	Op      string // the operation that failed, e.g. "worktree.create"
	Stderr  string // captured stderr of an external command, if any
	Files   []string // conflicting files, for KindMergeConflict
	Label   string   // queue label, for KindBusy
	ID      string   // resource id, for KindNotFound/KindBusy
	Wrapped error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindBusy:
		return fmt.Sprintf("%s is busy (%s in progress)", e.ID, e.Label)
	case KindMergeConflict:
		return fmt.Sprintf("%s: merge conflicts in %d file(s)", e.Op, len(e.Files))
	case KindExternalCommand:
		if e.Stderr != "" {
			return fmt.Sprintf("%s: %s", e.Op, e.Stderr)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
	default:
		if e.Wrapped != nil {
			return fmt.Sprintf("%s: %v", e.Op, e.Wrapped)
		}
		return e.Op
	}
}

func (e *Error) Unwrap() error { return e.Wrapped }

// KindOf extracts the classification from an error, defaulting to KindOther
// for errors that were never wrapped by this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

func NotFound(op, id string, wrapped error) error {
	return &Error{Kind: KindNotFound, Op: op, ID: id, Wrapped: wrapped}
}

func Validation(op string, wrapped error) error {
	return &Error{Kind: KindValidation, Op: op, Wrapped: wrapped}
}

func Busy(id, label string) error {
	return &Error{Kind: KindBusy, Op: "queue", ID: id, Label: label}
}

func External(op, stderr string, wrapped error) error {
	return &Error{Kind: KindExternalCommand, Op: op, Stderr: stderr, Wrapped: wrapped}
}

func MergeConflict(op string, files []string) error {
	return &Error{Kind: KindMergeConflict, Op: op, Files: files}
}

func Timeout(op string, wrapped error) error {
	return &Error{Kind: KindTimeout, Op: op, Wrapped: wrapped}
}

func Fatal(op string, wrapped error) error {
	return &Error{Kind: KindFatal, Op: op, Wrapped: wrapped}
}

func BackendUnavailable(op string, wrapped error) error {
	return &Error{Kind: KindExternalCommand, Op: op, Wrapped: wrapped}
}
