package coordinator

import (
	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/devserver"
	"github.com/azedarach/azedarach/internal/session"
)

// Msg is a request sent to the coordinator's single actor goroutine. Each
// variant below is a distinct request kind; exactly one field is
// populated per Msg value sent on the request channel.
type Msg interface{ isMsg() }

type RefreshBeads struct{}

func (RefreshBeads) isMsg() {}

type SwitchProject struct{ Name string }

func (SwitchProject) isMsg() {}

type StartSession struct {
	BeadID string
	Params session.StartParams
}

func (StartSession) isMsg() {}

type AttachSession struct{ BeadID string }

func (AttachSession) isMsg() {}

type PauseSession struct{ BeadID string }

func (PauseSession) isMsg() {}

type ResumeSession struct{ BeadID string }

func (ResumeSession) isMsg() {}

type StopSession struct{ BeadID string }

func (StopSession) isMsg() {}

type ToggleDevServer struct {
	BeadID string
	Def    devserver.Def
}

func (ToggleDevServer) isMsg() {}

type ViewDevServer struct {
	BeadID string
	Name   string
}

func (ViewDevServer) isMsg() {}

type RestartDevServer struct {
	BeadID string
	Def    devserver.Def
}

func (RestartDevServer) isMsg() {}

type UpdateFromMain struct{ BeadID string }

func (UpdateFromMain) isMsg() {}

type MergeToMain struct{ BeadID string }

func (MergeToMain) isMsg() {}

type MergeAndAttach struct{ BeadID string }

func (MergeAndAttach) isMsg() {}

type AbortMerge struct{ BeadID string }

func (AbortMerge) isMsg() {}

type CreatePR struct{ BeadID string }

func (CreatePR) isMsg() {}

type DeleteCleanup struct{ BeadID string }

func (DeleteCleanup) isMsg() {}

type MoveTask struct {
	BeadID string
	From   beadmodel.Status
	To     beadmodel.Status
}

func (MoveTask) isMsg() {}

type CreateBead struct{ Draft beadmodel.Draft }

func (CreateBead) isMsg() {}

type EditBead struct {
	BeadID string
	Update beadmodel.PartialUpdate
}

func (EditBead) isMsg() {}

type DeleteBead struct{ BeadID string }

func (DeleteBead) isMsg() {}

type PasteImage struct {
	BeadID string
	Path   string
}

func (PasteImage) isMsg() {}

type AttachFile struct {
	BeadID string
	Path   string
}

func (AttachFile) isMsg() {}

type OpenImage struct {
	BeadID string
	Path   string
}

func (OpenImage) isMsg() {}

type DeleteImage struct {
	BeadID string
	Path   string
}

func (DeleteImage) isMsg() {}

type RunPlanning struct {
	Description string
	ParentID    string
}

func (RunPlanning) isMsg() {}

type AttachPlanningSession struct{ BeadID string }

func (AttachPlanningSession) isMsg() {}

// RequestDiff asks for the set of dirty files in a bead's worktree, for
// the DiffViewer overlay.
type RequestDiff struct{ BeadID string }

func (RequestDiff) isMsg() {}

// Subscribe registers a new UiMsg subscriber; the coordinator replies on
// the returned channel for the subscription's lifetime.
type Subscribe struct {
	Reply chan<- UiMsg
}

func (Subscribe) isMsg() {}

// UiMsg is an event published from the coordinator to the TUI layer.
type UiMsg interface{ isUiMsg() }

type TasksUpdated struct{ Beads []beadmodel.Bead }

func (TasksUpdated) isUiMsg() {}

type SessionStateChanged struct {
	BeadID string
	State  beadmodel.SessionState
}

func (SessionStateChanged) isUiMsg() {}

type DevServerStateChanged struct {
	BeadID string
	Name   string
	Status beadmodel.DevServerStatus
}

func (DevServerStateChanged) isUiMsg() {}

// ToastLevel distinguishes informational from error toasts.
type ToastLevel int

const (
	ToastInfo ToastLevel = iota
	ToastWarning
	ToastError
)

type Toast struct {
	Level   ToastLevel
	Message string
}

func (Toast) isUiMsg() {}

type RequestMergeChoice struct {
	BeadID        string
	ConflictFiles []string
}

func (RequestMergeChoice) isUiMsg() {}

type ProjectChanged struct{ Name string }

func (ProjectChanged) isUiMsg() {}

type ProjectsUpdated struct{ Projects []beadmodel.Project }

func (ProjectsUpdated) isUiMsg() {}

type TaskMoveSucceeded struct{ BeadID string }

func (TaskMoveSucceeded) isUiMsg() {}

type TaskMoveFailed struct {
	BeadID string
	Err    error
}

func (TaskMoveFailed) isUiMsg() {}

type SearchResults struct{ BeadIDs []string }

func (SearchResults) isUiMsg() {}

// DiffReady answers a RequestDiff with the dirty files observed.
type DiffReady struct {
	BeadID string
	Files  []string
}

func (DiffReady) isUiMsg() {}

// QueueStateChanged reports the command queue's overall busy state
// whenever it transitions, for Quit gating and the status bar.
type QueueStateChanged struct {
	AnyBusy       bool
	RunningLabels []string
}

func (QueueStateChanged) isUiMsg() {}
