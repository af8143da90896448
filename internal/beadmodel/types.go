// Package beadmodel holds the core business types — beads, sessions,
// dev-servers, optimistic records — and the pure filter/sort pipeline
// applied to them for board rendering.
package beadmodel

import "time"

// Status is the workflow status of a bead. The "middle blocking" name
// (Blocked vs Review) is a per-deployment label choice over the same
// underlying value; see BlockingLabel.
type Status int

const (
	StatusOpen Status = iota
	StatusInProgress
	StatusBlocking // rendered as "Blocked" or "Review" depending on config
	StatusDone
)

// Column returns the board column index for a status. Status→column is
// injective by construction (iota order matches column order).
func (s Status) Column() int { return int(s) }

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusInProgress:
		return "in_progress"
	case StatusBlocking:
		return "blocking"
	case StatusDone:
		return "done"
	default:
		return "unknown"
	}
}

// Priority is 0 (highest) through 4 (lowest/none).
type Priority int

const (
	PriorityCritical Priority = iota
	PriorityHigh
	PriorityMedium
	PriorityLow
	PriorityNone
)

func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "critical"
	case PriorityHigh:
		return "high"
	case PriorityMedium:
		return "medium"
	case PriorityLow:
		return "low"
	case PriorityNone:
		return "none"
	default:
		return "unknown"
	}
}

// IssueType categorizes a bead.
type IssueType int

const (
	TypeTask IssueType = iota
	TypeBug
	TypeFeature
	TypeEpic
	TypeChore
)

func (t IssueType) String() string {
	switch t {
	case TypeTask:
		return "task"
	case TypeBug:
		return "bug"
	case TypeFeature:
		return "feature"
	case TypeEpic:
		return "epic"
	case TypeChore:
		return "chore"
	default:
		return "unknown"
	}
}

// DependencyKind identifies the nature of an inter-bead edge.
type DependencyKind string

const ParentChild DependencyKind = "parent-child"

// Image is an attachment stored alongside a bead.
type Image struct {
	Path      string
	Caption   string
	AddedAt   time.Time
}

// Bead is the core unit of work. Beads are owned by the external tracker;
// this struct is the cached, parsed representation of one row of `bd`
// output, never the source of truth.
type Bead struct {
	ID          string
	Title       string
	Description string
	DesignNotes string
	Status      Status
	Priority    Priority
	IssueType   IssueType
	ParentID    string // empty if no parent
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Images      []Image
}

// Draft is the input to Bead Store Adapter create(); IssueType is
// required, everything else optional.
type Draft struct {
	Title       string
	Description string
	DesignNotes string
	IssueType   IssueType
	Priority    Priority
	ParentID    string
}

// PartialUpdate carries a subset of mutable Bead fields; nil pointers mean
// "leave unchanged".
type PartialUpdate struct {
	Title       *string
	Description *string
	DesignNotes *string
	Status      *Status
	Priority    *Priority
	Notes       *string
}

// SessionState is the per-bead Claude/agent session state machine value.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionBusy
	SessionWaiting
	SessionPaused
	SessionDone
	SessionError
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionBusy:
		return "busy"
	case SessionWaiting:
		return "waiting"
	case SessionPaused:
		return "paused"
	case SessionDone:
		return "done"
	case SessionError:
		return "error"
	default:
		return "unknown"
	}
}

// sessionRank implements the Session sort order: Waiting > Busy > Paused >
// Error > Done > Idle > missing (missing sorts as if Idle but last among
// ties — callers pass hasSession=false for "missing").
func sessionRank(s SessionState, hasSession bool) int {
	if !hasSession {
		return 0
	}
	switch s {
	case SessionWaiting:
		return 6
	case SessionBusy:
		return 5
	case SessionPaused:
		return 4
	case SessionError:
		return 3
	case SessionDone:
		return 2
	case SessionIdle:
		return 1
	default:
		return 0
	}
}

// Session tracks an active multiplexer-backed agent session for a bead.
// Idle implies no multiplexer session and no worktree; every other state
// implies both exist — enforced by the coordinator, not this struct.
type Session struct {
	BeadID       string
	State        SessionState
	MultiplexerSession string
	WorktreePath string
	StartedAt    time.Time
	LastActivity time.Time
}

// DevServerStatus is the per-(bead,server) lifecycle value.
type DevServerStatus int

const (
	DevServerStopped DevServerStatus = iota
	DevServerStarting
	DevServerRunning
	DevServerError
)

func (s DevServerStatus) String() string {
	switch s {
	case DevServerStopped:
		return "stopped"
	case DevServerStarting:
		return "starting"
	case DevServerRunning:
		return "running"
	case DevServerError:
		return "error"
	default:
		return "unknown"
	}
}

// DevServer is the state of one named dev-server process for a bead.
// Multiple servers per bead are independent.
type DevServer struct {
	BeadID             string
	Name               string
	Status             DevServerStatus
	Port               int // 0 if unassigned
	MultiplexerSession string
}

// OptimisticRecord reflects a pending, not-yet-confirmed status mutation.
// Cleared on reconciliation once observed status equals Target.
type OptimisticRecord struct {
	BeadID        string
	PreviousStatus Status
	TargetStatus  Status
	CorrelationID string // "<beadID>:<target status>", built by the coordinator's moveTask
}

// Reconcile returns true if this record should be cleared given the
// latest observed status for its bead.
func (r OptimisticRecord) Reconcile(observed Status) bool {
	return observed == r.TargetStatus
}

// Project is a registered git working directory.
type Project struct {
	Name string
	Path string
}
