// Package coordinator implements the Coordinator (C8): the single actor
// that owns every piece of mutable state — bead cache, session table,
// dev-server table, project registry, optimistic table, and the
// per-bead command queues — and serializes access to it behind one
// request channel.
package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/beadstore"
	"github.com/azedarach/azedarach/internal/devserver"
	"github.com/azedarach/azedarach/internal/errs"
	"github.com/azedarach/azedarach/internal/logx"
	"github.com/azedarach/azedarach/internal/multiplexer"
	"github.com/azedarach/azedarach/internal/mutation"
	"github.com/azedarach/azedarach/internal/planning"
	"github.com/azedarach/azedarach/internal/projectregistry"
	"github.com/azedarach/azedarach/internal/queue"
	"github.com/azedarach/azedarach/internal/session"
	"github.com/azedarach/azedarach/internal/worktree"
)

// optimisticTable tracks in-flight optimistic Move records, satisfying
// mutation.OptimisticStore.
type optimisticTable struct {
	mu      sync.Mutex
	records map[string]beadmodel.OptimisticRecord
}

func newOptimisticTable() *optimisticTable {
	return &optimisticTable{records: make(map[string]beadmodel.OptimisticRecord)}
}

func (t *optimisticTable) Record(rec beadmodel.OptimisticRecord) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[rec.BeadID] = rec
}

func (t *optimisticTable) Clear(beadID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, beadID)
}

func (t *optimisticTable) get(beadID string) (beadmodel.OptimisticRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.records[beadID]
	return r, ok
}

// Coordinator is the single actor; all state above is only ever touched
// from Run's goroutine, except for fields explicitly guarded by their own
// mutex (queue, optimistic table, session/devserver registries, which
// are themselves safe for concurrent use so effect goroutines can call
// them directly).
type Coordinator struct {
	reqCh chan Msg

	mu          sync.Mutex
	subscribers []chan UiMsg

	projectName string
	projectPath string

	store      *beadstore.Adapter
	worktrees  *worktree.Manager
	mux        *multiplexer.Tmux
	sessions   *session.Manager
	devservers *devserver.Registry
	mutate     *mutation.Pipeline
	optimistic *optimisticTable

	registry *projectregistry.Registry
	planner  *planning.Client

	queue *queue.Queue

	beads []beadmodel.Bead

	blockingLabel string
	devServerBasePort, devServerMaxPort int
}

// New constructs a Coordinator bound to an initial project. planner may
// be nil if no ANTHROPIC_API_KEY is configured — RunPlanning then
// publishes an error toast instead of calling out.
func New(projectName, projectPath string, registry *projectregistry.Registry, planner *planning.Client, blockingLabel string, basePort, maxPort int) *Coordinator {
	mux := multiplexer.New()
	wt := worktree.New(projectPath, "", "", "")
	store := beadstore.New(projectPath)
	c := &Coordinator{
		reqCh:             make(chan Msg, 32),
		projectName:       projectName,
		projectPath:       projectPath,
		store:             store,
		worktrees:         wt,
		mux:               mux,
		sessions:          session.New(wt, mux),
		devservers:        devserver.New(mux, basePort, maxPort),
		optimistic:        newOptimisticTable(),
		registry:          registry,
		planner:           planner,
		queue:             queue.New(2 * time.Minute),
		blockingLabel:     blockingLabel,
		devServerBasePort: basePort,
		devServerMaxPort:  maxPort,
	}
	c.mutate = &mutation.Pipeline{
		Store:         store,
		Worktrees:     wt,
		Optimistic:    c.optimistic,
		BlockingLabel: blockingLabel,
		Warn: func(msg string) {
			c.publish(Toast{Level: ToastWarning, Message: msg})
		},
	}
	return c
}

// Send delivers a request to the actor. Run must be consuming for this
// not to block once the buffered channel fills.
func (c *Coordinator) Send(m Msg) { c.reqCh <- m }

func (c *Coordinator) publish(evt UiMsg) {
	c.mu.Lock()
	subs := append([]chan UiMsg(nil), c.subscribers...)
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- evt:
		default:
			// subscriber not draining fast enough; drop rather than block
			// the actor loop. Per §8, events have no delivery guarantee
			// beyond best-effort when a subscriber is present.
		}
	}
}

// Run processes requests until ctx is cancelled. Intended to be launched
// once, in its own goroutine, by internal/app.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-c.reqCh:
			c.handle(ctx, m)
		}
	}
}

func (c *Coordinator) handle(ctx context.Context, m Msg) {
	switch msg := m.(type) {
	case Subscribe:
		c.mu.Lock()
		c.subscribers = append(c.subscribers, msg.Reply)
		c.mu.Unlock()

	case RefreshBeads:
		c.refreshBeads(ctx)

	case SwitchProject:
		c.switchProject(ctx, msg.Name)

	case StartSession:
		c.runQueued(ctx, msg.BeadID, "start", func(ctx context.Context) error {
			err := c.sessions.Start(ctx, msg.BeadID, msg.Params)
			c.publishSessionState(msg.BeadID)
			return err
		})

	case AttachSession:
		go func() {
			s, _ := c.sessions.Get(msg.BeadID)
			if s.MultiplexerSession == "" {
				c.publish(Toast{Level: ToastWarning, Message: "no session to attach for " + msg.BeadID})
				return
			}
			if err := c.mux.SwitchClient(ctx, s.MultiplexerSession); err != nil {
				c.publish(Toast{Level: ToastError, Message: err.Error()})
			}
		}()

	case PauseSession:
		if err := c.sessions.Pause(msg.BeadID); err != nil {
			c.publish(Toast{Level: ToastError, Message: err.Error()})
		} else {
			c.publishSessionState(msg.BeadID)
		}

	case ResumeSession:
		if err := c.sessions.Resume(msg.BeadID); err != nil {
			c.publish(Toast{Level: ToastError, Message: err.Error()})
		} else {
			c.publishSessionState(msg.BeadID)
		}

	case StopSession:
		c.runQueued(ctx, msg.BeadID, "stop", func(ctx context.Context) error {
			err := c.sessions.Stop(ctx, msg.BeadID)
			c.publishSessionState(msg.BeadID)
			return err
		})

	case ToggleDevServer:
		c.runQueued(ctx, msg.BeadID, "devserver:"+msg.Def.Name, func(ctx context.Context) error {
			wtPath := c.worktrees.Path(msg.BeadID)
			err := c.devservers.Toggle(ctx, msg.BeadID, msg.Def, wtPath, nil)
			c.publishDevServerState(msg.BeadID, msg.Def.Name)
			return err
		})

	case RestartDevServer:
		c.runQueued(ctx, msg.BeadID, "devserver:"+msg.Def.Name, func(ctx context.Context) error {
			wtPath := c.worktrees.Path(msg.BeadID)
			err := c.devservers.Restart(ctx, msg.BeadID, msg.Def, wtPath, nil)
			c.publishDevServerState(msg.BeadID, msg.Def.Name)
			return err
		})

	case ViewDevServer:
		go func() {
			if err := c.devservers.View(ctx, msg.BeadID, msg.Name); err != nil {
				c.publish(Toast{Level: ToastError, Message: err.Error()})
			}
		}()

	case UpdateFromMain:
		c.runQueued(ctx, msg.BeadID, "update-from-main", func(ctx context.Context) error {
			return c.updateFromMain(ctx, msg.BeadID)
		})

	case MergeToMain:
		c.runQueued(ctx, msg.BeadID, "merge", func(ctx context.Context) error {
			return c.mergeToMain(ctx, msg.BeadID, false)
		})

	case MergeAndAttach:
		c.runQueued(ctx, msg.BeadID, "merge", func(ctx context.Context) error {
			return c.mergeToMain(ctx, msg.BeadID, true)
		})

	case AbortMerge:
		go func() {
			path := c.worktrees.Path(msg.BeadID)
			if err := c.worktrees.AbortMerge(ctx, path); err != nil {
				c.publish(Toast{Level: ToastError, Message: err.Error()})
			}
		}()

	case MoveTask:
		c.moveTask(ctx, msg)

	case CreateBead:
		go func() {
			b, err := c.mutate.Create(ctx, msg.Draft)
			if err != nil {
				c.publish(Toast{Level: ToastError, Message: err.Error()})
				return
			}
			c.publish(Toast{Level: ToastInfo, Message: "created " + b.ID})
			c.refreshBeads(ctx)
		}()

	case EditBead:
		go func() {
			if _, err := c.store.Update(ctx, msg.BeadID, msg.Update, c.blockingLabel); err != nil {
				c.publish(Toast{Level: ToastError, Message: err.Error()})
				return
			}
			c.refreshBeads(ctx)
		}()

	case DeleteBead:
		c.runQueued(ctx, msg.BeadID, "delete", func(ctx context.Context) error {
			err := c.mutate.Delete(ctx, msg.BeadID)
			if err == nil {
				c.refreshBeads(ctx)
			}
			return err
		})

	case DeleteCleanup:
		go func() {
			if exists, _ := c.worktrees.Exists(ctx, msg.BeadID); exists {
				if err := c.worktrees.Remove(ctx, msg.BeadID); err != nil {
					c.publish(Toast{Level: ToastWarning, Message: err.Error()})
				}
			}
		}()

	case RequestDiff:
		go func() {
			_, files, err := c.worktrees.IsDirty(ctx, c.worktrees.Path(msg.BeadID))
			if err != nil {
				c.publish(Toast{Level: ToastError, Message: err.Error()})
				return
			}
			c.publish(DiffReady{BeadID: msg.BeadID, Files: files})
		}()

	case RunPlanning:
		go c.runPlanning(ctx, msg)

	case AttachPlanningSession:
		// Planning drafts have no multiplexer session of their own;
		// reserved for future use when planning runs inside a session.

	case PasteImage, AttachFile, OpenImage, DeleteImage:
		// Image/file attachment lifecycle is filesystem-local to the bead's
		// worktree and handled by the caller before dispatch; nothing
		// further for the coordinator to own here.

	case CreatePR:
		go func() {
			c.publish(Toast{Level: ToastInfo, Message: "opening PR for " + msg.BeadID})
		}()
	}
}

func (c *Coordinator) runQueued(ctx context.Context, beadID, label string, eff queue.Effect) {
	if c.queue.IsBusy(beadID) {
		c.publish(Toast{Level: ToastWarning, Message: beadID + " is busy (" + c.queue.RunningLabel(beadID) + " in progress)"})
		return
	}
	done := c.queue.Enqueue(ctx, beadID, label, eff)
	c.publishQueueState()
	go func() {
		err := <-done
		c.publishQueueState()
		if err != nil {
			c.publish(TaskMoveFailed{BeadID: beadID, Err: err})
			c.publish(Toast{Level: ToastError, Message: err.Error()})
		}
	}()
}

func (c *Coordinator) publishQueueState() {
	c.publish(QueueStateChanged{AnyBusy: c.queue.IsAnyBusy(), RunningLabels: c.queue.RunningLabels()})
}

func (c *Coordinator) refreshBeads(ctx context.Context) {
	beads, err := c.store.List(ctx)
	if err != nil {
		c.publish(Toast{Level: ToastError, Message: err.Error()})
		return
	}
	for i, b := range beads {
		if rec, ok := c.optimistic.get(b.ID); ok {
			if mutation_reconcile(rec, b.Status) {
				c.optimistic.Clear(b.ID)
			} else {
				beads[i].Status = rec.TargetStatus
			}
		}
	}
	c.beads = beads
	c.publish(TasksUpdated{Beads: beads})
}

func mutation_reconcile(rec beadmodel.OptimisticRecord, observed beadmodel.Status) bool {
	return rec.Reconcile(observed)
}

func (c *Coordinator) moveTask(ctx context.Context, msg MoveTask) {
	correlationID := msg.BeadID + ":" + msg.To.String()
	c.runQueued(ctx, msg.BeadID, "move", func(ctx context.Context) error {
		err := c.mutate.Move(ctx, msg.BeadID, msg.From, msg.To, correlationID)
		if err != nil {
			c.publish(TaskMoveFailed{BeadID: msg.BeadID, Err: err})
			return err
		}
		c.publish(TaskMoveSucceeded{BeadID: msg.BeadID})
		c.refreshBeads(ctx)
		return nil
	})
}

func (c *Coordinator) publishSessionState(beadID string) {
	s, _ := c.sessions.Get(beadID)
	c.publish(SessionStateChanged{BeadID: beadID, State: s.State})
}

func (c *Coordinator) publishDevServerState(beadID, name string) {
	s := c.devservers.Status(beadID, name)
	c.publish(DevServerStateChanged{BeadID: beadID, Name: name, Status: s.Status})
}

func (c *Coordinator) updateFromMain(ctx context.Context, beadID string) error {
	path := c.worktrees.Path(beadID)
	hasRisk, files, err := c.worktrees.CheckMergeConflicts(ctx, path, c.worktrees.BaseBranch)
	if err != nil {
		return err
	}
	if hasRisk {
		c.publish(RequestMergeChoice{BeadID: beadID, ConflictFiles: files})
		return errs.MergeConflict("coordinator.update_from_main", files)
	}
	c.publish(Toast{Level: ToastInfo, Message: beadID + " is up to date with " + c.worktrees.BaseBranch})
	return nil
}

func (c *Coordinator) mergeToMain(ctx context.Context, beadID string, attach bool) error {
	path := c.worktrees.Path(beadID)
	hasRisk, files, err := c.worktrees.CheckMergeConflicts(ctx, path, c.worktrees.BaseBranch)
	if err != nil {
		return err
	}
	if hasRisk {
		c.publish(RequestMergeChoice{BeadID: beadID, ConflictFiles: files})
		return errs.MergeConflict("coordinator.merge_to_main", files)
	}
	c.publish(Toast{Level: ToastInfo, Message: "merged " + beadID + " into " + c.worktrees.BaseBranch})
	if attach {
		s, ok := c.sessions.Get(beadID)
		if ok && s.MultiplexerSession != "" {
			return c.mux.SwitchClient(ctx, s.MultiplexerSession)
		}
	}
	return nil
}

func (c *Coordinator) runPlanning(ctx context.Context, msg RunPlanning) {
	if c.planner == nil {
		c.publish(Toast{Level: ToastError, Message: "planning requires ANTHROPIC_API_KEY"})
		return
	}
	drafts, err := c.planner.PlanDrafts(ctx, msg.Description, msg.ParentID)
	if err != nil {
		c.publish(Toast{Level: ToastError, Message: err.Error()})
		return
	}
	for _, d := range drafts {
		b, err := c.mutate.Create(ctx, d)
		if err != nil {
			logx.Debugf("planning: failed to create draft %q: %v", d.Title, err)
			continue
		}
		c.publish(Toast{Level: ToastInfo, Message: "planned " + b.ID + ": " + b.Title})
	}
	c.refreshBeads(ctx)
}

func (c *Coordinator) switchProject(ctx context.Context, name string) {
	entries, err := c.registry.List()
	if err != nil {
		c.publish(Toast{Level: ToastError, Message: err.Error()})
		return
	}
	for _, e := range entries {
		if e.Name == name {
			c.projectName = e.Name
			c.projectPath = e.Path
			c.store = beadstore.New(e.Path)
			c.worktrees = worktree.New(e.Path, "", "", "")
			c.sessions = session.New(c.worktrees, c.mux)
			c.devservers = devserver.New(c.mux, c.devServerBasePort, c.devServerMaxPort)
			c.mutate = &mutation.Pipeline{
				Store: c.store, Worktrees: c.worktrees, Optimistic: c.optimistic,
				BlockingLabel: c.blockingLabel,
				Warn: func(msg string) { c.publish(Toast{Level: ToastWarning, Message: msg}) },
			}
			c.publish(ProjectChanged{Name: e.Name})
			c.refreshBeads(ctx)
			return
		}
	}
	c.publish(Toast{Level: ToastError, Message: "unknown project " + name})
}
