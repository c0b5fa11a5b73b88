package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/intakedesk/internal/autocache"
	"github.com/and161185/intakedesk/internal/clock"
	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/output"
	"github.com/and161185/intakedesk/internal/review"
)

// ---- fakes ----

type fakeStore struct {
	mu         sync.Mutex
	recs       map[string]model.Record
	seq        int
	persists   []model.Record
	persistErr error
	watchErr   error
	watchTerms []string
	subs       map[chan struct{}]struct{}
	tick       time.Time
}

func newFakeStore(seed ...model.Record) *fakeStore {
	s := &fakeStore{recs: map[string]model.Record{}, subs: map[chan struct{}]struct{}{}, tick: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, r := range seed {
		s.tick = s.tick.Add(time.Minute)
		r.EditedAt = s.tick
		s.recs[r.ID] = r
	}
	return s
}

func (s *fakeStore) changed() {
	for ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (s *fakeStore) Persist(_ context.Context, r model.Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists = append(s.persists, r.Clone())
	if s.persistErr != nil {
		return "", s.persistErr
	}
	if r.ID == "" {
		s.seq++
		r.ID = "new-" + string(rune('0'+s.seq))
	} else if _, ok := s.recs[r.ID]; !ok {
		return "", errs.ErrNotFound
	}
	s.tick = s.tick.Add(time.Minute)
	r.EditedAt = s.tick
	s.recs[r.ID] = r.Clone()
	s.changed()
	return r.ID, nil
}

func (s *fakeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return errs.ErrNotFound
	}
	delete(s.recs, id)
	s.changed()
	return nil
}

func (s *fakeStore) Get(_ context.Context, id string) (model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.recs[id]
	if !ok {
		return model.Record{}, errs.ErrNotFound
	}
	return r.Clone(), nil
}

func (s *fakeStore) query(term string) []model.Record {
	var out []model.Record
	for _, r := range s.recs {
		if term == "" || strings.Contains(strings.ToLower(r.Get("name")), strings.ToLower(term)) {
			out = append(out, r.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EditedAt.After(out[j].EditedAt) })
	return out
}

func (s *fakeStore) Watch(ctx context.Context, term string, fn func([]model.Record)) error {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchTerms = append(s.watchTerms, term)
	if s.watchErr != nil {
		err := s.watchErr
		s.mu.Unlock()
		return err
	}
	s.subs[ch] = struct{}{}
	first := s.query(term)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	fn(first)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			s.mu.Lock()
			rs := s.query(term)
			s.mu.Unlock()
			fn(rs)
		}
	}
}

func (s *fakeStore) watching() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type fakeAuth struct {
	session   *model.Session
	saved     *model.Session
	loginErr  error
	loggedOut bool
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*model.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.session = &model.Session{Identity: model.Identity{UserID: "u1", DisplayName: "Sam Csr", Email: "sam@example.com"}, AccessToken: "t"}
	return f.session, nil
}

func (f *fakeAuth) Restore() (*model.Session, error) {
	if f.saved == nil {
		return nil, errors.New("no session")
	}
	return f.saved, nil
}

func (f *fakeAuth) Logout() error {
	f.loggedOut = true
	f.session = nil
	return nil
}

type recorder struct {
	mu       sync.Mutex
	messages []string
	answer   bool
	prompts  []string
	copied   []string
	copyErr  error
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *recorder) Confirm(prompt string) bool {
	r.prompts = append(r.prompts, prompt)
	return r.answer
}

func (r *recorder) Copy(text string) error {
	if r.copyErr != nil {
		return r.copyErr
	}
	r.copied = append(r.copied, text)
	return nil
}

func (r *recorder) has(sub string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

type memPrefs struct {
	p     model.Preferences
	saved int
}

func (m *memPrefs) Load() (model.Preferences, error) { return m.p, nil }
func (m *memPrefs) Save(p model.Preferences) error {
	m.p = p
	m.saved++
	return nil
}

type harness struct {
	app   *App
	store *fakeStore
	auth  *fakeAuth
	ui    *recorder
	clock *clock.Fake
	prefs *memPrefs
}

var start = time.Date(2024, 3, 7, 9, 5, 2, 0, time.Local)

func jane() model.Record {
	return model.Record{
		ID:        "r1",
		Fields:    map[string]string{"name": "Jane Doe", "jobsite": "1 Main St", "docId": "DOC-20240101-000000"},
		Equipment: []model.Equipment{{"door": "36x80"}},
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newHarness(t *testing.T, policy autocache.Policy, seed ...model.Record) *harness {
	t.Helper()
	h := &harness{
		store: newFakeStore(seed...),
		auth:  &fakeAuth{},
		ui:    &recorder{answer: true},
		clock: clock.NewFake(start),
		prefs: &memPrefs{p: model.Preferences{ActiveTab: "job"}},
	}
	h.app = New(Deps{
		Store: h.store, Auth: h.auth, Notifier: h.ui, Confirmer: h.ui, Clipboard: h.ui,
		Prefs: h.prefs, Clock: h.clock, Logger: zaptest.NewLogger(t), Policy: policy,
	})
	t.Cleanup(h.app.Close)
	return h
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	require.NoError(t, h.app.Login(context.Background(), "sam", "pw"))
	require.Eventually(t, func() bool { return len(h.app.Records()) == len(h.store.recs) }, 2*time.Second, 5*time.Millisecond)
}

// ---- tests ----

func TestApp_LoginStartsNewRecord(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)

	require.NotNil(t, h.app.Session())
	require.Equal(t, "DOC-20240307-090502", h.app.Field("docId"))
	require.Equal(t, "SC", h.app.Field("initials"))
	require.Equal(t, "2024-03-07", h.app.Field("installDate"))
	orig := h.app.Original()
	require.Equal(t, map[string]string{"docId": "DOC-20240307-090502"}, orig.Fields)
	require.Equal(t, []model.Equipment{}, orig.Equipment)
	require.True(t, h.app.Pending().IsZero())
	require.True(t, h.ui.has("Signed in as: Sam Csr"))
	require.Equal(t, []string{""}, h.store.watchTerms)
}

func TestApp_StartRestoresSavedSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated)
	h.app.Start()
	require.Nil(t, h.app.Session())

	h.auth.saved = &model.Session{Identity: model.Identity{DisplayName: "Kim Lee"}}
	h.app.Start()
	require.Equal(t, "Kim Lee", h.app.Session().DisplayName)
	require.Equal(t, "KL", h.app.Field("initials"))
}

func TestApp_DebouncedReviewAndApprove(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))

	require.NoError(t, h.app.Set("name", "Jane S"))
	h.clock.Advance(500 * time.Millisecond)
	require.NoError(t, h.app.Set("name", "Jane Sm"))
	h.clock.Advance(500 * time.Millisecond)
	require.NoError(t, h.app.Set("name", "Jane Smith"))
	h.clock.Advance(999 * time.Millisecond)
	require.True(t, h.app.Pending().IsZero(), "fired before the window elapsed")
	require.False(t, h.app.Surface().Visible)

	h.clock.Advance(time.Millisecond)
	require.Equal(t, "Jane Smith", h.app.Pending().Get("name"))
	s := h.app.Surface()
	require.True(t, s.Visible)
	require.Equal(t, []review.Entry{{Path: "name", Old: "Jane Doe", New: "Jane Smith"}}, s.Entries)
	require.Contains(t, h.app.ReviewText(), "Jane Smith")

	id, err := h.app.Approve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "r1", id)
	require.Len(t, h.store.persists, 1)
	require.Equal(t, "r1", h.store.persists[0].ID)
	require.Equal(t, "Jane Smith", h.app.Original().Get("name"))
	require.False(t, h.app.Surface().Visible)
	require.False(t, h.app.Dirty())
}

func TestApp_LoadedRecordWithUnknownFieldIsClean(t *testing.T) {
	t.Parallel()
	legacy := jane()
	legacy.Fields["legacyNote"] = "from older client"
	h := newHarness(t, autocache.ReviewGated, legacy)
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))

	entries, changed := h.app.Review()
	require.False(t, changed, "unexpected entries %v", entries)
	require.False(t, h.app.Surface().Visible)
	require.False(t, h.app.Dirty())

	require.NoError(t, h.app.Set("name", "Jane Smith"))
	_, err := h.app.Approve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from older client", h.store.persists[0].Get("legacyNote"))
}

func TestApp_ApproveFlushesPendingEdits(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))

	require.NoError(t, h.app.Set("notes", "gate code 1234"))
	_, err := h.app.Approve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "gate code 1234", h.store.persists[0].Get("notes"))

	// the cancelled timer does not fire later
	h.clock.Advance(5 * time.Second)
	require.True(t, h.app.Pending().IsZero())
}

func TestApp_ApproveErrors(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())

	_, err := h.app.Approve(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthenticated)

	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))
	require.NoError(t, h.app.Set("name", "Other"))
	h.store.persistErr = errors.New("backend down")
	_, err = h.app.Approve(context.Background())
	var pe *errs.PersistenceError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "Jane Doe", h.app.Original().Get("name"))
	require.Equal(t, "Other", h.app.Pending().Get("name"))
	require.Equal(t, "Other", h.app.Field("name"))
}

func TestApp_DirectSavePolicy(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.DirectSave)
	h.login(t)

	require.NoError(t, h.app.Set("name", "Walk In"))
	h.clock.Advance(1999 * time.Millisecond)
	require.Empty(t, h.store.persists)
	h.clock.Advance(time.Millisecond)
	require.Len(t, h.store.persists, 1)
	id := h.app.Original().ID
	require.NotEmpty(t, id)
	require.False(t, h.app.Surface().Visible)

	require.NoError(t, h.app.Set("phone", "5551234567"))
	h.clock.Advance(2 * time.Second)
	require.Len(t, h.store.persists, 2)
	require.Equal(t, id, h.store.persists[1].ID, "second save updates the same record")
	require.Equal(t, "(555) 123-4567", h.store.persists[1].Get("phone"))
}

func TestApp_DirectSaveWithoutSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.DirectSave)
	require.NoError(t, h.app.Set("name", "x"))
	h.clock.Advance(2 * time.Second)
	require.Empty(t, h.store.persists)
	require.True(t, h.ui.has("You must be logged in to save."))
}

func TestApp_LoadRecordConfirmation(t *testing.T) {
	t.Parallel()
	other := model.Record{ID: "r2", Fields: map[string]string{"name": "Bob Roe"}, Equipment: []model.Equipment{}}
	h := newHarness(t, autocache.ReviewGated, jane(), other)
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))
	require.Empty(t, h.ui.prompts, "clean form switches without asking")

	require.NoError(t, h.app.Set("name", "Edited"))
	h.ui.answer = false
	err := h.app.LoadRecord(context.Background(), "r2")
	require.ErrorIs(t, err, ErrDeclined)
	require.Len(t, h.ui.prompts, 1)
	require.Equal(t, "r1", h.app.Original().ID)
	require.Equal(t, "Edited", h.app.Field("name"))

	h.ui.answer = true
	require.NoError(t, h.app.LoadRecord(context.Background(), "r2"))
	require.Equal(t, "r2", h.app.Original().ID)
	require.Equal(t, "Bob Roe", h.app.Field("name"))
	require.True(t, h.app.Pending().IsZero())
	require.False(t, h.app.Surface().Visible)

	// the debounce armed before the switch was cancelled
	h.clock.Advance(2 * time.Second)
	require.True(t, h.app.Pending().IsZero())

	err = h.app.LoadRecord(context.Background(), "missing")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestApp_LocationFollowsJobsiteAndKey(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))
	_, ok := h.app.Location()
	require.False(t, ok, "no maps key yet")

	require.NoError(t, h.app.UpdatePreferences(func(p *model.Preferences) { p.MapsAPIKey = "k" }))
	require.Equal(t, 1, h.prefs.saved)
	loc, ok := h.app.Location()
	require.True(t, ok)
	require.Contains(t, loc.MapEmbed, "q=1%20Main%20St")

	require.NoError(t, h.app.Set("billing", "9 Elm"))
	h.app.CopyBillingToJobsite()
	loc, _ = h.app.Location()
	require.Contains(t, loc.StreetView, "location=9%20Elm")
}

func TestApp_DiscardRestoresOriginal(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))

	h.app.AddDoor()
	require.NoError(t, h.app.Set("name", "Nope"))
	_, changed := h.app.Review()
	require.True(t, changed)

	h.app.Discard()
	require.Equal(t, "Jane Doe", h.app.Field("name"))
	require.Equal(t, 1, h.app.DoorCount())
	require.False(t, h.app.Surface().Visible)
	require.False(t, h.app.Dirty())
	_, changed = h.app.Review()
	require.False(t, changed)
}

func TestApp_NewRecordKeepsInitialsByPreference(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated)
	h.login(t)
	require.NoError(t, h.app.Set("initials", "XY"))

	h.ui.answer = false
	_, err := h.app.NewRecord()
	require.ErrorIs(t, err, ErrDeclined)

	h.ui.answer = true
	require.NoError(t, h.app.UpdatePreferences(func(p *model.Preferences) { p.KeepInitials = true }))
	h.clock.Advance(3 * time.Second)
	id, err := h.app.NewRecord()
	require.NoError(t, err)
	require.Equal(t, "DOC-20240307-090505", id)
	require.Equal(t, "XY", h.app.Field("initials"))

	require.NoError(t, h.app.UpdatePreferences(func(p *model.Preferences) { p.KeepInitials = false }))
	_, err = h.app.NewRecord()
	require.NoError(t, err)
	require.Equal(t, "SC", h.app.Field("initials"))
}

func TestApp_DeleteDoorAsks(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated)
	i := h.app.AddDoor()
	require.NoError(t, h.app.SetDoor(i, "door", "36x80"))

	h.ui.answer = false
	require.ErrorIs(t, h.app.DeleteDoor(i), ErrDeclined)
	require.Equal(t, 1, h.app.DoorCount())
	require.Equal(t, "Are you sure you want to delete Door 1?", h.ui.prompts[0])

	h.ui.answer = true
	require.NoError(t, h.app.DeleteDoor(i))
	require.Equal(t, 0, h.app.DoorCount())
	require.Error(t, h.app.DeleteDoor(3))
}

func TestApp_SearchReplacesSubscription(t *testing.T) {
	t.Parallel()
	smith := model.Record{ID: "r2", Fields: map[string]string{"name": "Al Smith"}, Equipment: []model.Equipment{}}
	smythe := model.Record{ID: "r3", Fields: map[string]string{"name": "Bo Smithers"}, Equipment: []model.Equipment{}}
	h := newHarness(t, autocache.ReviewGated, jane(), smith, smythe)
	h.login(t)

	require.NoError(t, h.app.Search("  smith "))
	require.Eventually(t, func() bool { return len(h.app.SearchResults().Items) == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return h.store.watching() == 1 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"", "smith"}, h.store.watchTerms)

	res := h.app.SearchResults()
	require.Equal(t, -1, res.Active)
	require.NoError(t, h.app.SearchEnter(context.Background()), "enter without a highlighted row is a no-op")

	h.app.SearchUp()
	require.Equal(t, 1, h.app.SearchResults().Active)
	h.app.SearchDown()
	require.Equal(t, 0, h.app.SearchResults().Active)
	want := h.app.SearchResults().Items[0].ID

	require.NoError(t, h.app.SearchEnter(context.Background()))
	require.Equal(t, want, h.app.Original().ID)
	require.Empty(t, h.app.SearchResults().Items)

	require.NoError(t, h.app.Search("smith"))
	require.Eventually(t, func() bool { return len(h.app.SearchResults().Items) == 2 }, 2*time.Second, 5*time.Millisecond)
	h.app.SearchEscape()
	require.Empty(t, h.app.SearchResults().Items)

	require.NoError(t, h.app.Search(""))
	require.Eventually(t, func() bool { return len(h.app.Records()) == 3 }, 2*time.Second, 5*time.Millisecond)
	require.Empty(t, h.app.SearchResults().Items)
}

func TestApp_SearchCursorSurvivesLiveUpdate(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)

	require.NoError(t, h.app.Search("jane"))
	require.Eventually(t, func() bool { return len(h.app.SearchResults().Items) == 1 }, 2*time.Second, 5*time.Millisecond)
	h.app.SearchDown()
	require.Equal(t, 0, h.app.SearchResults().Active)

	// a newer match is listed first; the highlight follows r1
	_, err := h.store.Persist(context.Background(), model.Record{Fields: map[string]string{"name": "Jane Roe"}})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.app.SearchResults().Items) == 2 }, 2*time.Second, 5*time.Millisecond)
	res := h.app.SearchResults()
	require.Equal(t, 1, res.Active)
	require.Equal(t, "r1", res.Items[1].ID)
}

func TestApp_StaleSubscriptionCallbacksDropped(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)

	h.app.mu.Lock()
	oldGen := h.app.watchGen
	h.app.mu.Unlock()
	require.NoError(t, h.app.Search("nobody"))
	require.Eventually(t, func() bool { return len(h.app.Records()) == 0 }, 2*time.Second, 5*time.Millisecond)

	h.app.onRecords(oldGen, []model.Record{jane()})
	require.Empty(t, h.app.Records())
	h.app.onWatchError(oldGen, errors.New("late"))
	require.False(t, h.ui.has("Error loading records"))
}

func TestApp_SubscriptionErrorKeepsList(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)

	h.store.mu.Lock()
	h.store.watchErr = errors.New("listener failed")
	h.store.mu.Unlock()
	require.NoError(t, h.app.Search("jane"))
	require.Eventually(t, func() bool { return h.ui.has("❌ Error loading records.") }, 2*time.Second, 5*time.Millisecond)
	require.Len(t, h.app.Records(), 1)
}

func TestApp_LogoutCancelsWork(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)
	require.Eventually(t, func() bool { return h.store.watching() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, h.app.Set("name", "pending edit"))
	require.NoError(t, h.app.Logout())
	require.True(t, h.auth.loggedOut)
	require.Nil(t, h.app.Session())
	require.Empty(t, h.app.Records())
	require.Eventually(t, func() bool { return h.store.watching() == 0 }, 2*time.Second, 5*time.Millisecond)

	h.clock.Advance(5 * time.Second)
	require.True(t, h.app.Pending().IsZero())
	require.ErrorIs(t, h.app.Search("x"), errs.ErrUnauthenticated)
}

func TestApp_Delete(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	require.ErrorIs(t, h.app.Delete(context.Background(), "r1"), errs.ErrUnauthenticated)

	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))

	h.ui.answer = false
	require.ErrorIs(t, h.app.Delete(context.Background(), "r1"), ErrDeclined)
	h.ui.answer = true
	require.NoError(t, h.app.Delete(context.Background(), "r1"))
	require.Eventually(t, func() bool { return len(h.app.Records()) == 0 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, "", h.app.Original().ID, "deleting the loaded record starts a new one")

	var pe *errs.PersistenceError
	require.ErrorAs(t, h.app.Delete(context.Background(), "r1"), &pe)
}

func TestApp_Outputs(t *testing.T) {
	t.Parallel()
	h := newHarness(t, autocache.ReviewGated, jane())
	h.login(t)
	require.NoError(t, h.app.LoadRecord(context.Background(), "r1"))
	require.NoError(t, h.app.Set("tsNumber", "T9"))

	ticket := h.app.ServiceTicket()
	require.Contains(t, ticket, "TAKEN: 3-7-2024 ")
	require.Equal(t, []string{ticket}, h.ui.copied)
	require.True(t, h.ui.has("Service Ticket Output copied"))

	h.ui.copyErr = errors.New("no clipboard")
	require.Contains(t, h.app.Quote(), "50% DEPOSIT REQUIRED TO PROCEED")
	require.True(t, h.ui.has("Failed to copy output"))

	_, err := h.app.EmailLink(output.EmailQuote)
	require.ErrorIs(t, err, errs.ErrValidationGap)
	require.NoError(t, h.app.Set("email", "jane@example.com"))
	link, err := h.app.EmailLink(output.EmailQuote)
	require.NoError(t, err)
	require.Contains(t, link, "to=jane%40example.com")

	dir := t.TempDir()
	path, err := h.app.PaymentPDF(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "DOE_T9_20240307-090502.pdf"), path)
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())

	var html strings.Builder
	require.NoError(t, h.app.PrintHTML(&html))
	require.Contains(t, html.String(), "Jane Doe")
	require.Contains(t, h.app.Summary(), "Door 1: 36x80")

	var xlsx strings.Builder
	n, err := h.app.Export(&xlsx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NotZero(t, xlsx.Len())
}

func TestApp_Page(t *testing.T) {
	t.Parallel()
	var seed []model.Record
	for i := range 5 {
		seed = append(seed, model.Record{ID: string(rune('a' + i)), Fields: map[string]string{"name": "n"}})
	}
	h := newHarness(t, autocache.ReviewGated, seed...)
	h.login(t)

	page, pages := h.app.Page(1, 2)
	require.Len(t, page, 2)
	require.Equal(t, 3, pages)
	page, _ = h.app.Page(3, 2)
	require.Len(t, page, 1)
	page, _ = h.app.Page(4, 2)
	require.Empty(t, page)
}

func TestSearchResults_Cursor(t *testing.T) {
	t.Parallel()
	var s SearchResults
	s.Clear()
	s.Down()
	require.Equal(t, -1, s.Active)
	_, ok := s.Selected()
	require.False(t, ok)

	s.Set([]model.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	s.Down()
	s.Down()
	s.Down()
	s.Down()
	r, ok := s.Selected()
	require.True(t, ok)
	require.Equal(t, "a", r.ID)
	s.Up()
	r, _ = s.Selected()
	require.Equal(t, "c", r.ID)

	s.Refresh([]model.Record{{ID: "x"}, {ID: "c"}})
	r, _ = s.Selected()
	require.Equal(t, "c", r.ID)
	s.Refresh([]model.Record{{ID: "y"}})
	require.Equal(t, -1, s.Active)
}
