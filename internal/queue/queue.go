// Package queue implements the Command Queue (C6): a per-task-id FIFO
// with mutual exclusion, used to serialize mutating operations issued
// against the same bead.
package queue

import (
	"context"
	"sync"
	"time"
)

// Effect is a unit of queued work. It must honor ctx cancellation.
type Effect func(ctx context.Context) error

type entry struct {
	label  string
	effect Effect
	done   chan error
}

type taskQueue struct {
	mu      sync.Mutex
	pending []entry
	running bool
	label   string
}

// Queue manages one FIFO per task id.
type Queue struct {
	mu      sync.Mutex
	tasks   map[string]*taskQueue
	timeout time.Duration
}

// New creates a Queue with a default per-entry timeout (0 = no timeout).
func New(perEntryTimeout time.Duration) *Queue {
	return &Queue{tasks: make(map[string]*taskQueue), timeout: perEntryTimeout}
}

func (q *Queue) taskFor(taskID string) *taskQueue {
	q.mu.Lock()
	defer q.mu.Unlock()
	tq, ok := q.tasks[taskID]
	if !ok {
		tq = &taskQueue{}
		q.tasks[taskID] = tq
	}
	return tq
}

// Enqueue appends an entry for taskID. If no entry is currently running
// for that task, it starts immediately on a background goroutine; the
// returned channel receives the effect's terminal error (nil on
// success) exactly once.
func (q *Queue) Enqueue(ctx context.Context, taskID, label string, eff Effect) <-chan error {
	tq := q.taskFor(taskID)
	done := make(chan error, 1)
	e := entry{label: label, effect: eff, done: done}

	tq.mu.Lock()
	shouldStart := !tq.running
	if shouldStart {
		tq.running = true
		tq.label = label
	} else {
		tq.pending = append(tq.pending, e)
	}
	tq.mu.Unlock()

	if shouldStart {
		go q.run(ctx, taskID, tq, e)
	}
	return done
}

func (q *Queue) run(ctx context.Context, taskID string, tq *taskQueue, e entry) {
	runCtx := ctx
	var cancel context.CancelFunc
	if q.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, q.timeout)
	}
	err := e.effect(runCtx)
	if cancel != nil {
		cancel()
	}
	e.done <- err
	close(e.done)

	tq.mu.Lock()
	var next entry
	hasNext := false
	if len(tq.pending) > 0 {
		next = tq.pending[0]
		tq.pending = tq.pending[1:]
		hasNext = true
		tq.label = next.label
	} else {
		tq.running = false
		tq.label = ""
	}
	tq.mu.Unlock()

	if hasNext {
		q.run(ctx, taskID, tq, next)
	}
}

// IsBusy reports whether taskID currently has a running entry.
func (q *Queue) IsBusy(taskID string) bool {
	tq := q.taskFor(taskID)
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.running
}

// RunningLabel returns the label of the executing entry, or "" if idle.
func (q *Queue) RunningLabel(taskID string) string {
	tq := q.taskFor(taskID)
	tq.mu.Lock()
	defer tq.mu.Unlock()
	return tq.label
}

// IsAnyBusy reports whether any task has a running entry, for UI gating
// of quit.
func (q *Queue) IsAnyBusy() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, tq := range q.tasks {
		tq.mu.Lock()
		busy := tq.running
		tq.mu.Unlock()
		if busy {
			return true
		}
	}
	return false
}

// RunningLabels returns the labels of every currently-running entry.
func (q *Queue) RunningLabels() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	var labels []string
	for _, tq := range q.tasks {
		tq.mu.Lock()
		if tq.running && tq.label != "" {
			labels = append(labels, tq.label)
		}
		tq.mu.Unlock()
	}
	return labels
}
