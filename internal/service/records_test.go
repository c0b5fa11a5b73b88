package service

import (
	"context"
	"errors"
	"maps"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/live"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/repository"
)

type fakeRecords struct {
	mu   sync.Mutex
	rows map[string]model.Record
	own  map[string]uuid.UUID

	createErr error
	searchErr error
	searches  int
}

var _ repository.RecordRepository = (*fakeRecords)(nil)

func newFakeRecords() *fakeRecords {
	return &fakeRecords{rows: map[string]model.Record{}, own: map[string]uuid.UUID{}}
}

func (f *fakeRecords) Create(_ context.Context, owner uuid.UUID, r model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[r.ID] = r.Clone()
	f.own[r.ID] = owner
	return nil
}

func (f *fakeRecords) Update(_ context.Context, owner uuid.UUID, r model.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.rows[r.ID]
	if !ok || f.own[r.ID] != owner {
		return errs.ErrNotFound
	}
	maps.Copy(cur.Fields, r.Fields)
	cur.Equipment = r.Clone().Equipment
	cur.Tokens = append([]string(nil), r.Tokens...)
	cur.EditedAt = r.EditedAt
	f.rows[r.ID] = cur
	return nil
}

func (f *fakeRecords) Delete(_ context.Context, owner, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id.String()]; !ok || f.own[id.String()] != owner {
		return errs.ErrNotFound
	}
	delete(f.rows, id.String())
	return nil
}

func (f *fakeRecords) Get(_ context.Context, owner, id uuid.UUID) (model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[id.String()]
	if !ok || f.own[id.String()] != owner {
		return model.Record{}, errs.ErrNotFound
	}
	return r.Clone(), nil
}

func (f *fakeRecords) Search(_ context.Context, owner uuid.UUID, token string) ([]model.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches++
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	out := []model.Record{}
	for id, r := range f.rows {
		if f.own[id] != owner {
			continue
		}
		if token != "" && !contains(r.Tokens, token) {
			continue
		}
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EditedAt.After(out[j].EditedAt) })
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func newRecordService(t *testing.T, repo repository.RecordRepository) *RecordServiceImpl {
	t.Helper()
	s := NewRecordService(repo, live.NewHub(), zaptest.NewLogger(t))
	now := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	return s
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	toks := Tokenize(model.Record{
		ID:        "not-tokenized",
		Fields:    map[string]string{"request": "Spring Replacement", "name": "Jane  SPRING\tDoe", "notes": ""},
		Equipment: []model.Equipment{{"door": "9x7 Steel", "spring": "torsion"}},
	})
	require.Equal(t, []string{"jane", "spring", "doe", "replacement", "9x7", "steel", "torsion"}, toks)
	require.NotContains(t, toks, "Spring")
	require.NotContains(t, toks, "not-tokenized")

	require.Equal(t, []string{}, Tokenize(model.Record{}))
	require.Equal(t, "spring", NormalizeTerm("  Spring "))
}

func TestRecordService_PersistCreateThenUpdate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newFakeRecords()
	s := newRecordService(t, repo)
	owner := uuid.Must(uuid.NewV4())

	_, err := s.Persist(ctx, uuid.Nil, model.Record{})
	require.Error(t, err)

	id, err := s.Persist(ctx, owner, model.Record{Fields: map[string]string{"request": "Spring Replacement", "phone": "555"}})
	require.NoError(t, err)
	_, err = uuid.FromString(id)
	require.NoError(t, err)

	stored := repo.rows[id]
	require.Equal(t, []model.Equipment{}, stored.Equipment)
	require.Contains(t, stored.Tokens, "spring")
	require.Contains(t, stored.Tokens, "replacement")
	require.False(t, stored.CreatedAt.IsZero())
	require.Equal(t, stored.CreatedAt, stored.EditedAt)

	id2, err := s.Persist(ctx, owner, model.Record{
		ID:        id,
		Fields:    map[string]string{"request": "Opener install"},
		Equipment: []model.Equipment{{"door": "36x80"}},
	})
	require.NoError(t, err)
	require.Equal(t, id, id2, "update keeps the id")

	stored = repo.rows[id]
	require.Equal(t, "Opener install", stored.Get("request"))
	require.Equal(t, "555", stored.Get("phone"), "merge keeps untouched fields")
	require.Equal(t, []string{"opener", "install", "36x80"}, stored.Tokens)
	require.True(t, stored.EditedAt.After(stored.CreatedAt))

	_, err = s.Persist(ctx, owner, model.Record{ID: uuid.Must(uuid.NewV4()).String()})
	require.ErrorIs(t, err, errs.ErrNotFound)
	_, err = s.Persist(ctx, owner, model.Record{ID: "garbage"})
	require.ErrorIs(t, err, errs.ErrNotFound)

	repo.createErr = errors.New("disk full")
	_, err = s.Persist(ctx, owner, model.Record{})
	require.ErrorContains(t, err, "disk full")
}

func TestRecordService_OwnerScoping(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := newFakeRecords()
	s := newRecordService(t, repo)
	alice, bob := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())

	id, err := s.Persist(ctx, alice, model.Record{Fields: map[string]string{"name": "Jane"}})
	require.NoError(t, err)

	_, err = s.Get(ctx, bob, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, bob, id), errs.ErrNotFound)

	got, err := s.Get(ctx, alice, id)
	require.NoError(t, err)
	require.Equal(t, "Jane", got.Get("name"))

	require.NoError(t, s.Delete(ctx, alice, id))
	_, err = s.Get(ctx, alice, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, s.Delete(ctx, alice, "bad-id"), errs.ErrNotFound)
}

func TestRecordService_Query(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newRecordService(t, newFakeRecords())
	owner := uuid.Must(uuid.NewV4())

	first, err := s.Persist(ctx, owner, model.Record{Fields: map[string]string{"request": "Spring Replacement"}})
	require.NoError(t, err)
	second, err := s.Persist(ctx, owner, model.Record{Fields: map[string]string{"request": "Opener"}})
	require.NoError(t, err)

	all, err := s.Query(ctx, owner, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, second, all[0].ID)

	hits, err := s.Query(ctx, owner, " SPRING ")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, first, hits[0].ID)
}

func TestRecordService_WatchEmitsInitialAndOnChange(t *testing.T) {
	t.Parallel()
	repo := newFakeRecords()
	s := newRecordService(t, repo)
	owner := uuid.Must(uuid.NewV4())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []model.Record, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, owner, "", func(recs []model.Record) error {
			got <- recs
			return nil
		})
	}()

	initial := <-got
	require.Empty(t, initial)

	_, err := s.Persist(context.Background(), owner, model.Record{Fields: map[string]string{"name": "Jane"}})
	require.NoError(t, err)
	select {
	case recs := <-got:
		require.Len(t, recs, 1)
	case <-time.After(2 * time.Second):
		t.Fatal("no update after persist")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestRecordService_WatchStopsOnEmitOrQueryError(t *testing.T) {
	t.Parallel()
	repo := newFakeRecords()
	s := newRecordService(t, repo)
	owner := uuid.Must(uuid.NewV4())

	stop := errors.New("client gone")
	err := s.Watch(context.Background(), owner, "", func([]model.Record) error { return stop })
	require.ErrorIs(t, err, stop)

	repo.searchErr = errors.New("db down")
	err = s.Watch(context.Background(), owner, "", func([]model.Record) error { return nil })
	require.ErrorContains(t, err, "db down")
}
