package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/intakedesk/internal/errs"
	"github.com/and161185/intakedesk/internal/model"
)

// UserRepo implements repository.UserRepository on SQLite.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row. A zero CreatedAt is stored as now.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	created := u.CreatedAt
	if created.IsZero() {
		created = nowUTC()
	}
	const q = `
INSERT INTO users (id, username, display_name, email, pwd_hash, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.SQL.ExecContext(ctx, q, u.ID.String(), u.Username, u.DisplayName, u.Email, u.PwdHash, unixNano(created))
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return err
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.one(ctx, `id = ?`, id.String())
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.one(ctx, `username = ?`, username)
}

func (r *UserRepo) one(ctx context.Context, where string, arg any) (*model.User, error) {
	var (
		u       model.User
		id      string
		created int64
	)
	err := r.db.SQL.QueryRowContext(ctx,
		`SELECT id, username, display_name, email, pwd_hash, created_at FROM users WHERE `+where, arg).
		Scan(&id, &u.Username, &u.DisplayName, &u.Email, &u.PwdHash, &created)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, errs.ErrNotFound
	case err != nil:
		return nil, err
	}
	if u.ID, err = uuid.FromString(id); err != nil {
		return nil, err
	}
	u.CreatedAt = fromUnixNano(created)
	return &u, nil
}
