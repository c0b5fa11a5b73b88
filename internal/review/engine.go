package review

import (
	"context"
	"errors"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

// ErrNoDraft is returned by Approve when nothing has been snapshotted.
var ErrNoDraft = errors.New("no pending changes")

// Saver persists a record and returns its id.
type Saver interface {
	Persist(ctx context.Context, r model.Record) (string, error)
}

// Surface is the review panel state: visible only while the last diff had changes.
type Surface struct {
	Visible bool
	Entries []Entry
}

// Engine holds the original and pending snapshots of the record being edited.
// It is not safe for concurrent use; the caller serializes access.
type Engine struct {
	original model.Record
	pending  model.Record
	surface  Surface
}

// NewEngine returns an engine with an empty original and no draft.
func NewEngine() *Engine {
	return &Engine{}
}

// Original returns a copy of the last loaded or persisted record.
func (e *Engine) Original() model.Record { return e.original.Clone() }

// Pending returns a copy of the draft; the zero Record means no draft.
func (e *Engine) Pending() model.Record { return e.pending.Clone() }

// Surface returns the review panel state.
func (e *Engine) Surface() Surface {
	return Surface{Visible: e.surface.Visible, Entries: append([]Entry(nil), e.surface.Entries...)}
}

// Load makes r the original, drops any draft and hides the review panel.
func (e *Engine) Load(r model.Record) {
	e.original = r.Clone()
	e.pending = model.Record{}
	e.hide()
}

// Snapshot replaces the draft with the current form state. The draft keeps
// the original's identity so approving updates the loaded record.
func (e *Engine) Snapshot(formState model.Record) model.Record {
	p := formState.Clone()
	if p.Equipment == nil {
		p.Equipment = []model.Equipment{}
	}
	p.ID = e.original.ID
	p.CreatedAt = e.original.CreatedAt
	e.pending = p
	return p.Clone()
}

// Review diffs original against the draft and updates the panel visibility.
// Without a draft there is nothing to review.
func (e *Engine) Review() ([]Entry, bool) {
	if e.pending.IsZero() {
		e.hide()
		return nil, false
	}
	entries, changed := Diff(e.original, e.pending)
	if changed {
		e.surface = Surface{Visible: true, Entries: entries}
	} else {
		e.hide()
	}
	return entries, changed
}

// Dirty reports whether a draft exists and differs from the original.
func (e *Engine) Dirty() bool {
	if e.pending.IsZero() {
		return false
	}
	_, changed := Diff(e.original, e.pending)
	return changed
}

// Approve persists the draft. On success the draft becomes the original
// (with its store id) and the panel is hidden. On failure nothing changes.
func (e *Engine) Approve(ctx context.Context, s Saver) (string, error) {
	if e.pending.IsZero() {
		return "", ErrNoDraft
	}
	id, err := s.Persist(ctx, e.pending.Clone())
	if err != nil {
		var pe *errs.PersistenceError
		if errors.Is(err, errs.ErrUnauthenticated) || errors.As(err, &pe) {
			return "", err
		}
		return "", errs.Persistence("approve changes", err)
	}
	saved := e.pending
	saved.ID = id
	e.original = saved
	e.pending = model.Record{}
	e.hide()
	return id, nil
}

// Discard drops the draft and returns the original for the form to repopulate.
func (e *Engine) Discard() model.Record {
	e.pending = model.Record{}
	e.hide()
	return e.original.Clone()
}

func (e *Engine) hide() { e.surface = Surface{} }
