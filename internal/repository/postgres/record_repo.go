package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

// RecordRepo implements repository.RecordRepository using PostgreSQL.
// Fields and equipment are jsonb, tokens a text[] with a GIN index.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

func encodeContent(r model.Record) (fields, equipment []byte, err error) {
	f := r.Fields
	if f == nil {
		f = map[string]string{}
	}
	if fields, err = json.Marshal(f); err != nil {
		return nil, nil, fmt.Errorf("encode fields: %w", err)
	}
	eq := r.Equipment
	if eq == nil {
		eq = []model.Equipment{}
	}
	if equipment, err = json.Marshal(eq); err != nil {
		return nil, nil, fmt.Errorf("encode equipment: %w", err)
	}
	return fields, equipment, nil
}

func tokensOrEmpty(t []string) []string {
	if t == nil {
		return []string{}
	}
	return t
}

// Create inserts a record row.
func (r *RecordRepo) Create(ctx context.Context, owner uuid.UUID, rec model.Record) error {
	id, err := uuid.FromString(rec.ID)
	if err != nil {
		return fmt.Errorf("validation: record id: %w", err)
	}
	fields, equipment, err := encodeContent(rec)
	if err != nil {
		return err
	}
	const q = `
INSERT INTO records (id, owner_id, fields, equipment, tokens, created_at, edited_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.Pool.Exec(ctx, q, id, owner, fields, equipment, tokensOrEmpty(rec.Tokens), rec.CreatedAt, rec.EditedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// Update merges fields and replaces equipment, tokens and edited_at.
func (r *RecordRepo) Update(ctx context.Context, owner uuid.UUID, rec model.Record) error {
	id, err := uuid.FromString(rec.ID)
	if err != nil {
		return errs.ErrNotFound
	}
	fields, equipment, err := encodeContent(rec)
	if err != nil {
		return err
	}
	const q = `
UPDATE records
SET fields = fields || $3::jsonb, equipment = $4, tokens = $5, edited_at = $6
WHERE id = $1 AND owner_id = $2`
	tag, err := r.db.Pool.Exec(ctx, q, id, owner, fields, equipment, tokensOrEmpty(rec.Tokens), rec.EditedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes one record.
func (r *RecordRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	const q = `DELETE FROM records WHERE id = $1 AND owner_id = $2`
	tag, err := r.db.Pool.Exec(ctx, q, id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const selectRecord = `
SELECT id, fields, equipment, tokens, created_at, edited_at
FROM records `

type scanner interface{ Scan(dest ...any) error }

func scanRecord(row scanner) (model.Record, error) {
	var (
		id                uuid.UUID
		fields, equipment []byte
		rec               model.Record
		created, edited   time.Time
	)
	if err := row.Scan(&id, &fields, &equipment, &rec.Tokens, &created, &edited); err != nil {
		return model.Record{}, err
	}
	if err := json.Unmarshal(fields, &rec.Fields); err != nil {
		return model.Record{}, fmt.Errorf("decode fields of %s: %w", id, err)
	}
	if err := json.Unmarshal(equipment, &rec.Equipment); err != nil {
		return model.Record{}, fmt.Errorf("decode equipment of %s: %w", id, err)
	}
	if rec.Equipment == nil {
		rec.Equipment = []model.Equipment{}
	}
	rec.ID = id.String()
	rec.CreatedAt, rec.EditedAt = created, edited
	return rec, nil
}

// Get loads a record by id.
func (r *RecordRepo) Get(ctx context.Context, owner, id uuid.UUID) (model.Record, error) {
	rec, err := scanRecord(r.db.Pool.QueryRow(ctx, selectRecord+`WHERE id = $1 AND owner_id = $2`, id, owner))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Record{}, errs.ErrNotFound
	}
	return rec, err
}

// Search lists the owner's records, optionally filtered by a token.
func (r *RecordRepo) Search(ctx context.Context, owner uuid.UUID, token string) ([]model.Record, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if token == "" {
		rows, err = r.db.Pool.Query(ctx, selectRecord+`WHERE owner_id = $1 ORDER BY edited_at DESC`, owner)
	} else {
		rows, err = r.db.Pool.Query(ctx,
			selectRecord+`WHERE owner_id = $1 AND tokens @> ARRAY[$2]::text[] ORDER BY edited_at DESC`, owner, token)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
