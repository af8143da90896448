// Package mutation implements the Mutation Pipeline (C7): the Move,
// Create, and Delete kinds applied against a bead, with the optimistic
// update path for Move and worktree cleanup for Delete.
package mutation

import (
	"context"

	"github.com/azedarach/azedarach/internal/beadmodel"
	"github.com/azedarach/azedarach/internal/beadstore"
	"github.com/azedarach/azedarach/internal/worktree"
)

// Kind identifies a mutation variety.
type Kind int

const (
	KindMove Kind = iota
	KindCreate
	KindDelete
)

// OptimisticStore is the narrow slice of coordinator state the pipeline
// needs to record and clear in-flight optimistic moves.
type OptimisticStore interface {
	Record(rec beadmodel.OptimisticRecord)
	Clear(beadID string)
}

// Pipeline applies mutations against the bead store, coordinating the
// optimistic-update bookkeeping and worktree cleanup that the board and
// session layers depend on.
type Pipeline struct {
	Store      *beadstore.Adapter
	Worktrees  *worktree.Manager
	Optimistic OptimisticStore
	BlockingLabel string

	// Warn reports a non-fatal problem, e.g. worktree cleanup failure
	// during delete, which must not abort the delete itself.
	Warn func(msg string)
}

// Move applies the optimistic path described in §5: the pre-image is
// recorded before the backend call so the UI can show the bead in its
// new column immediately and roll back on failure; the cursor follows
// the move regardless of outcome (a UI concern, not this package's).
func (p *Pipeline) Move(ctx context.Context, beadID string, from, to beadmodel.Status, correlationID string) error {
	if p.Optimistic != nil {
		p.Optimistic.Record(beadmodel.OptimisticRecord{
			BeadID:         beadID,
			PreviousStatus: from,
			TargetStatus:   to,
			CorrelationID:  correlationID,
		})
	}

	target := to
	_, err := p.Store.Update(ctx, beadID, beadmodel.PartialUpdate{Status: &target}, p.BlockingLabel)
	if err != nil {
		if p.Optimistic != nil {
			p.Optimistic.Clear(beadID)
		}
		return err
	}
	return nil
}

// Reconcile clears the optimistic record for beadID once the observed
// status from a refresh matches the target, or if the backend ended up
// somewhere else entirely (manual edit elsewhere wins).
func Reconcile(rec beadmodel.OptimisticRecord, observed beadmodel.Status, clear func(string)) {
	if rec.Reconcile(observed) || observed != rec.PreviousStatus {
		clear(rec.BeadID)
	}
}

// Create drafts a new bead.
func (p *Pipeline) Create(ctx context.Context, d beadmodel.Draft) (beadmodel.Bead, error) {
	return p.Store.Create(ctx, d)
}

// Delete cleans up the bead's worktree, if any, before deleting the bead
// itself. Cleanup failure is logged/warned but never aborts the delete —
// a dangling worktree is recoverable manually, a bead the user asked to
// delete but which silently survived is not.
func (p *Pipeline) Delete(ctx context.Context, beadID string) error {
	if p.Worktrees != nil {
		if exists, err := p.Worktrees.Exists(ctx, beadID); err == nil && exists {
			if err := p.Worktrees.Remove(ctx, beadID); err != nil && p.Warn != nil {
				p.Warn("worktree cleanup failed for " + beadID + ": " + err.Error())
			}
		}
	}
	return p.Store.Delete(ctx, beadID)
}
