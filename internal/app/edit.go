package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/intakedesk/internal/autocache"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/output"
	"github.com/and161185/intakedesk/internal/review"
)

// ErrDeclined is returned when the user declines a confirmation.
var ErrDeclined = errors.New("cancelled by user")

// Field returns the current form value of a base field.
func (a *App) Field(name string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form.Get(name)
}

// Current returns the form state as a record.
func (a *App) Current() model.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currentLocked()
}

func (a *App) currentLocked() model.Record {
	r := a.form.Data()
	orig := a.engine.Original()
	r.ID = orig.ID
	r.CreatedAt = orig.CreatedAt
	r.EditedAt = orig.EditedAt
	return r
}

// Original returns the last loaded or approved record.
func (a *App) Original() model.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Original()
}

// Pending returns the draft; the zero record means none.
func (a *App) Pending() model.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Pending()
}

// Surface returns the review panel state.
func (a *App) Surface() review.Surface {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.engine.Surface()
}

// DoorCount returns the number of equipment entries on the form.
func (a *App) DoorCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.form.EquipmentCount()
}

// Set edits a base field and restarts the auto-cache timer.
func (a *App) Set(field, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.form.Set(field, value); err != nil {
		return err
	}
	if field == "jobsite" {
		a.refreshLocationLocked()
	}
	a.touchLocked()
	return nil
}

// SetDoor edits field of door i (zero-based).
func (a *App) SetDoor(i int, field, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.form.SetEquipment(i, field, value); err != nil {
		return err
	}
	a.touchLocked()
	return nil
}

// AddDoor appends an empty door and returns its index.
func (a *App) AddDoor() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	i := a.form.AddEquipment()
	a.touchLocked()
	return i
}

// DeleteDoor removes door i after confirmation.
func (a *App) DeleteDoor(i int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= a.form.EquipmentCount() {
		return a.form.DeleteEquipment(i)
	}
	if !a.confirmf("Are you sure you want to delete Door %d?", i+1) {
		return ErrDeclined
	}
	if err := a.form.DeleteEquipment(i); err != nil {
		return err
	}
	a.touchLocked()
	return nil
}

// CopyBillingToJobsite copies the billing address into the jobsite address.
func (a *App) CopyBillingToJobsite() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.form.CopyBillingToJobsite()
	a.refreshLocationLocked()
	a.touchLocked()
}

func (a *App) touchLocked() {
	a.touched = true
	a.cache.Touch()
}

// onAutoCache runs when the debounce window elapses.
func (a *App) onAutoCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.touched {
		return
	}
	switch a.cache.Policy() {
	case autocache.DirectSave:
		if a.session == nil {
			a.notifyf("You must be logged in to save.")
			return
		}
		a.snapshotLocked()
		if _, err := a.approveLocked(a.ctx); err != nil {
			a.notifyf("❌ Error saving record: %v", err)
		}
	default:
		a.snapshotLocked()
		a.engine.Review()
	}
}

func (a *App) snapshotLocked() {
	a.engine.Snapshot(a.form.Data())
	a.touched = false
}

// flushLocked brings the draft up to date with unsnapshotted edits.
func (a *App) flushLocked() {
	if a.touched {
		a.cache.Cancel()
		a.snapshotLocked()
	}
}

// Review snapshots the form now and returns the diff against the original.
func (a *App) Review() ([]review.Entry, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.Cancel()
	a.snapshotLocked()
	return a.engine.Review()
}

// Dirty reports whether there are edits that differ from the original.
func (a *App) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirtyLocked()
}

func (a *App) dirtyLocked() bool {
	if !a.touched {
		return a.engine.Dirty()
	}
	_, changed := review.Diff(a.engine.Original(), a.form.Data())
	return changed
}

// Approve persists the draft and makes it the original.
func (a *App) Approve(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flushLocked()
	return a.approveLocked(ctx)
}

func (a *App) approveLocked(ctx context.Context) (string, error) {
	if err := a.requireSession(); err != nil {
		return "", err
	}
	if a.engine.Pending().IsZero() {
		a.engine.Snapshot(a.form.Data())
	}
	id, err := a.engine.Approve(ctx, a.store)
	if err != nil {
		return "", err
	}
	a.log.Debug("record saved", zap.String("id", id))
	return id, nil
}

// Discard drops the draft and restores the form from the original.
func (a *App) Discard() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache.Cancel()
	a.touched = false
	orig := a.engine.Discard()
	a.form.Populate(orig)
	a.refreshLocationLocked()
}

// NewRecord starts an empty record, asking first when there are unsaved
// changes. It returns the new document id.
func (a *App) NewRecord() (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.dirtyLocked() && !a.confirmf("You have un-approved changes. Start a new record? Your changes will be lost.") {
		return "", ErrDeclined
	}
	return a.newRecordLocked(), nil
}

func (a *App) newRecordLocked() string {
	a.cache.Cancel()
	a.touched = false
	name := ""
	if a.session != nil {
		name = a.session.DisplayName
	}
	docID := a.form.Reset(a.clock.Now(), a.prefs.KeepInitials, name)
	a.engine.Load(model.Record{Fields: map[string]string{"docId": docID}, Equipment: []model.Equipment{}})
	a.refreshLocationLocked()
	return docID
}

// LoadRecord switches the form to record id. With unapproved changes the
// user must confirm; declining leaves everything as it was.
func (a *App) LoadRecord(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadLocked(ctx, id)
}

func (a *App) loadLocked(ctx context.Context, id string) error {
	rec, ok := a.findLocked(id)
	if !ok {
		if err := a.requireSession(); err != nil {
			return err
		}
		got, err := a.store.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("load record: %w", err)
		}
		rec = got
	}
	if a.dirtyLocked() && !a.confirmf("You have un-approved changes. Are you sure you want to load a new record? Your changes will be lost.") {
		return ErrDeclined
	}
	a.cache.Cancel()
	a.touched = false
	a.engine.Load(rec)
	a.form.Populate(rec)
	a.refreshLocationLocked()
	a.search.Clear()
	return nil
}

func (a *App) findLocked(id string) (model.Record, bool) {
	for _, r := range a.records {
		if r.ID == id {
			return r.Clone(), true
		}
	}
	return model.Record{}, false
}

// Location returns the preview URLs for the jobsite; ok is false when hidden.
func (a *App) Location() (output.Location, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.location, a.showLoc
}

func (a *App) refreshLocationLocked() {
	a.location, a.showLoc = output.LocationURLs(a.form.Get("jobsite"), a.prefs.MapsAPIKey)
}
