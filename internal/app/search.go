package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/intakedesk/internal/model"
)

// SearchResults is the result list of an active search with a keyboard cursor.
// Active is -1 when no row is highlighted.
type SearchResults struct {
	Items  []model.Record
	Active int
}

// Set replaces the items and resets the cursor.
func (s *SearchResults) Set(items []model.Record) {
	s.Items = items
	s.Active = -1
}

// Refresh replaces the items, keeping the cursor on the highlighted record
// when it is still listed.
func (s *SearchResults) Refresh(items []model.Record) {
	cur, ok := s.Selected()
	s.Set(items)
	if !ok {
		return
	}
	for i, r := range items {
		if r.ID == cur.ID {
			s.Active = i
			return
		}
	}
}

// Clear hides the results.
func (s *SearchResults) Clear() { s.Set(nil) }

// Down moves the cursor to the next row, wrapping around.
func (s *SearchResults) Down() {
	if n := len(s.Items); n > 0 {
		s.Active = (s.Active + 1) % n
	}
}

// Up moves the cursor to the previous row, wrapping around.
func (s *SearchResults) Up() {
	n := len(s.Items)
	switch {
	case n == 0:
	case s.Active < 0:
		s.Active = n - 1
	default:
		s.Active = (s.Active - 1 + n) % n
	}
}

// Selected returns the highlighted record.
func (s *SearchResults) Selected() (model.Record, bool) {
	if s.Active < 0 || s.Active >= len(s.Items) {
		return model.Record{}, false
	}
	return s.Items[s.Active], true
}

// subscribeLocked replaces the live subscription with one for term.
// Callbacks of the previous subscription are dropped by generation.
func (a *App) subscribeLocked(term string) {
	a.detachLocked()
	if a.session == nil {
		return
	}
	a.watchGen++
	gen := a.watchGen
	a.watchTerm = term
	ctx, cancel := context.WithCancel(a.ctx)
	a.watchCancel = cancel

	a.watchers.Add(1)
	go func() {
		defer a.watchers.Done()
		err := a.store.Watch(ctx, term, func(rs []model.Record) { a.onRecords(gen, rs) })
		if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		a.onWatchError(gen, err)
	}()
}

func (a *App) detachLocked() {
	if a.watchCancel != nil {
		a.watchCancel()
		a.watchCancel = nil
	}
	a.watchGen++
}

func (a *App) onRecords(gen uint64, rs []model.Record) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.watchGen {
		return
	}
	a.records = rs
	if a.watchTerm != "" {
		a.search.Refresh(rs)
	}
}

func (a *App) onWatchError(gen uint64, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.watchGen {
		return
	}
	a.log.Warn("record subscription failed", zap.Error(err))
	a.notifyf("❌ Error loading records.")
}

// Search replaces the live subscription with one filtered by term. An empty
// term clears the search results and goes back to the full record list.
func (a *App) Search(term string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireSession(); err != nil {
		return err
	}
	term = strings.TrimSpace(term)
	a.search.Clear()
	a.subscribeLocked(term)
	return nil
}

// SearchResults returns a copy of the visible search results.
func (a *App) SearchResults() SearchResults {
	a.mu.Lock()
	defer a.mu.Unlock()
	return SearchResults{Items: append([]model.Record(nil), a.search.Items...), Active: a.search.Active}
}

// SearchDown moves the search cursor down.
func (a *App) SearchDown() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.search.Down()
}

// SearchUp moves the search cursor up.
func (a *App) SearchUp() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.search.Up()
}

// SearchEscape hides the search results.
func (a *App) SearchEscape() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.search.Clear()
}

// SearchEnter loads the highlighted search result. Without a highlighted row
// it does nothing.
func (a *App) SearchEnter(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	r, ok := a.search.Selected()
	if !ok {
		return nil
	}
	return a.loadLocked(ctx, r.ID)
}

// Records returns the latest record list delivered by the subscription.
func (a *App) Records() []model.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]model.Record, len(a.records))
	for i, r := range a.records {
		out[i] = r.Clone()
	}
	return out
}

// Page returns page (1-based) of the record list and the number of pages.
func (a *App) Page(page, perPage int) ([]model.Record, int) {
	recs := a.Records()
	if perPage <= 0 {
		perPage = 10
	}
	pages := (len(recs) + perPage - 1) / perPage
	if page < 1 {
		page = 1
	}
	start := (page - 1) * perPage
	if start >= len(recs) {
		return nil, pages
	}
	end := min(start+perPage, len(recs))
	return recs[start:end], pages
}

// Delete removes record id from the store after confirmation.
func (a *App) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.requireSession(); err != nil {
		return err
	}
	if !a.confirmf("Are you sure you want to delete this record?") {
		return ErrDeclined
	}
	if err := a.store.Delete(ctx, id); err != nil {
		return persistErr("delete record", err)
	}
	if a.engine.Original().ID == id {
		// the form no longer has a stored counterpart
		a.newRecordLocked()
	}
	return nil
}
