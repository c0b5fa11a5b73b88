package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

var nowUTC = func() time.Time { return time.Now().UTC() }

// RecordRepo implements repository.RecordRepository on SQLite. Fields and
// equipment are JSON text; tokens live in record_tokens in insertion order.
type RecordRepo struct{ db *DB }

// NewRecordRepo constructs a record repository.
func NewRecordRepo(db *DB) *RecordRepo { return &RecordRepo{db: db} }

func encodeContent(r model.Record) (string, string, error) {
	f := r.Fields
	if f == nil {
		f = map[string]string{}
	}
	fields, err := json.Marshal(f)
	if err != nil {
		return "", "", fmt.Errorf("encode fields: %w", err)
	}
	eq := r.Equipment
	if eq == nil {
		eq = []model.Equipment{}
	}
	equipment, err := json.Marshal(eq)
	if err != nil {
		return "", "", fmt.Errorf("encode equipment: %w", err)
	}
	return string(fields), string(equipment), nil
}

// withTx runs fn in a transaction, committing when it returns nil.
func (r *RecordRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()
	return fn(tx)
}

func writeTokens(ctx context.Context, tx *sql.Tx, id string, tokens []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM record_tokens WHERE record_id = ?`, id); err != nil {
		return err
	}
	for i, tok := range tokens {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO record_tokens (record_id, pos, token) VALUES (?, ?, ?)`, id, i, tok); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a record and its tokens.
func (r *RecordRepo) Create(ctx context.Context, owner uuid.UUID, rec model.Record) error {
	if _, err := uuid.FromString(rec.ID); err != nil {
		return fmt.Errorf("validation: record id: %w", err)
	}
	fields, equipment, err := encodeContent(rec)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
INSERT INTO records (id, owner_id, fields, equipment, created_at, edited_at)
VALUES (?, ?, ?, ?, ?, ?)`
		_, err := tx.ExecContext(ctx, q, rec.ID, owner.String(), fields, equipment,
			unixNano(rec.CreatedAt), unixNano(rec.EditedAt))
		if isUniqueViolation(err) {
			return errs.ErrAlreadyExists
		}
		if err != nil {
			return err
		}
		return writeTokens(ctx, tx, rec.ID, rec.Tokens)
	})
}

// Update merges fields with json_patch and replaces equipment and tokens.
func (r *RecordRepo) Update(ctx context.Context, owner uuid.UUID, rec model.Record) error {
	fields, equipment, err := encodeContent(rec)
	if err != nil {
		return err
	}
	return r.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
UPDATE records
SET fields = json_patch(fields, ?), equipment = ?, edited_at = ?
WHERE id = ? AND owner_id = ?`
		res, err := tx.ExecContext(ctx, q, fields, equipment, unixNano(rec.EditedAt), rec.ID, owner.String())
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return errs.ErrNotFound
		}
		return writeTokens(ctx, tx, rec.ID, rec.Tokens)
	})
}

// Delete removes a record; its tokens go with it.
func (r *RecordRepo) Delete(ctx context.Context, owner, id uuid.UUID) error {
	res, err := r.db.SQL.ExecContext(ctx, `DELETE FROM records WHERE id = ? AND owner_id = ?`, id.String(), owner.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.ErrNotFound
	}
	return nil
}

const selectRecord = `SELECT id, fields, equipment, created_at, edited_at FROM records `

// Get loads a record by id.
func (r *RecordRepo) Get(ctx context.Context, owner, id uuid.UUID) (model.Record, error) {
	recs, err := r.query(ctx, selectRecord+`WHERE id = ? AND owner_id = ?`, id.String(), owner.String())
	if err != nil {
		return model.Record{}, err
	}
	if len(recs) == 0 {
		return model.Record{}, errs.ErrNotFound
	}
	return recs[0], nil
}

// Search lists the owner's records, optionally filtered by a token.
func (r *RecordRepo) Search(ctx context.Context, owner uuid.UUID, token string) ([]model.Record, error) {
	if token == "" {
		return r.query(ctx, selectRecord+`WHERE owner_id = ? ORDER BY edited_at DESC`, owner.String())
	}
	return r.query(ctx, selectRecord+`
WHERE owner_id = ? AND EXISTS (
    SELECT 1 FROM record_tokens t WHERE t.record_id = records.id AND t.token = ?
)
ORDER BY edited_at DESC`, owner.String(), token)
}

// query reads matching rows, then attaches tokens once the row cursor is closed
// (the pool has a single connection).
func (r *RecordRepo) query(ctx context.Context, q string, args ...any) ([]model.Record, error) {
	rows, err := r.db.SQL.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	out := []model.Record{}
	for rows.Next() {
		var (
			rec               model.Record
			fields, equipment string
			created, edited   int64
		)
		if err := rows.Scan(&rec.ID, &fields, &equipment, &created, &edited); err != nil {
			rows.Close()
			return nil, err
		}
		if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode fields of %s: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(equipment), &rec.Equipment); err != nil {
			rows.Close()
			return nil, fmt.Errorf("decode equipment of %s: %w", rec.ID, err)
		}
		if rec.Equipment == nil {
			rec.Equipment = []model.Equipment{}
		}
		rec.CreatedAt, rec.EditedAt = fromUnixNano(created), fromUnixNano(edited)
		out = append(out, rec)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Tokens, err = r.tokens(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *RecordRepo) tokens(ctx context.Context, id string) ([]string, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT token FROM record_tokens WHERE record_id = ? ORDER BY pos`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		out = append(out, tok)
	}
	return out, rows.Err()
}
