package service

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/live"
	"github.com/and161185/intakedesk/internal/model"
	"github.com/and161185/intakedesk/internal/repository"
)

// RecordService defines owner-scoped operations over intake records.
type RecordService interface {
	// Persist creates r when it has no ID, otherwise merges it into the stored
	// record. It returns the record ID.
	Persist(ctx context.Context, owner uuid.UUID, r model.Record) (string, error)
	// Delete removes a record.
	Delete(ctx context.Context, owner uuid.UUID, id string) error
	// Get returns one record.
	Get(ctx context.Context, owner uuid.UUID, id string) (model.Record, error)
	// Query returns records matching term (all records when empty), newest edit first.
	Query(ctx context.Context, owner uuid.UUID, term string) ([]model.Record, error)
	// Watch calls emit with the current result set of term and again after
	// every change to the owner's records. It blocks until ctx is done or
	// emit or a query fails.
	Watch(ctx context.Context, owner uuid.UUID, term string, emit func([]model.Record) error) error
}

type RecordServiceImpl struct {
	repo repository.RecordRepository
	hub  *live.Hub
	now  func() time.Time
	log  *zap.Logger
}

// NewRecordService constructs RecordService. hub may be shared with other services.
func NewRecordService(repo repository.RecordRepository, hub *live.Hub, log *zap.Logger) *RecordServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &RecordServiceImpl{repo: repo, hub: hub, now: time.Now, log: log}
}

func parseID(id string) (uuid.UUID, error) {
	u, err := uuid.FromString(id)
	if err != nil || u == uuid.Nil {
		// an id that cannot exist
		return uuid.Nil, errs.ErrNotFound
	}
	return u, nil
}

// Persist stamps edited time and tokens and writes the record.
func (s *RecordServiceImpl) Persist(ctx context.Context, owner uuid.UUID, r model.Record) (string, error) {
	if owner == uuid.Nil {
		return "", errors.New("validation: empty owner")
	}
	rec := r.Clone()
	if rec.Fields == nil {
		rec.Fields = map[string]string{}
	}
	if rec.Equipment == nil {
		rec.Equipment = []model.Equipment{}
	}
	rec.Tokens = Tokenize(rec)
	rec.EditedAt = s.now().UTC()

	if rec.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return "", err
		}
		rec.ID = id.String()
		rec.CreatedAt = rec.EditedAt
		if err := s.repo.Create(ctx, owner, rec); err != nil {
			return "", err
		}
		s.log.Debug("record created", zap.String("owner", owner.String()), zap.String("record", rec.ID))
	} else {
		if _, err := parseID(rec.ID); err != nil {
			return "", err
		}
		if err := s.repo.Update(ctx, owner, rec); err != nil {
			return "", err
		}
		s.log.Debug("record updated", zap.String("owner", owner.String()), zap.String("record", rec.ID))
	}
	s.hub.Publish(owner)
	return rec.ID, nil
}

// Delete removes a record and notifies watchers.
func (s *RecordServiceImpl) Delete(ctx context.Context, owner uuid.UUID, id string) error {
	rid, err := parseID(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, owner, rid); err != nil {
		return err
	}
	s.hub.Publish(owner)
	return nil
}

// Get fetches one record.
func (s *RecordServiceImpl) Get(ctx context.Context, owner uuid.UUID, id string) (model.Record, error) {
	rid, err := parseID(id)
	if err != nil {
		return model.Record{}, err
	}
	return s.repo.Get(ctx, owner, rid)
}

// Query searches by the normalized term.
func (s *RecordServiceImpl) Query(ctx context.Context, owner uuid.UUID, term string) ([]model.Record, error) {
	if owner == uuid.Nil {
		return nil, errors.New("validation: empty owner")
	}
	return s.repo.Search(ctx, owner, NormalizeTerm(term))
}

// Watch re-runs the query whenever the owner's records change.
func (s *RecordServiceImpl) Watch(ctx context.Context, owner uuid.UUID, term string, emit func([]model.Record) error) error {
	changed, cancel := s.hub.Subscribe(owner)
	defer cancel()

	for {
		recs, err := s.Query(ctx, owner, term)
		if err != nil {
			return err
		}
		if err := emit(recs); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
