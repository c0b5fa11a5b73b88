package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/intakedesk/internal/model"
)

// RecordRepository stores intake records scoped to an owner.
// Lookups of another owner's record behave as if it did not exist.
type RecordRepository interface {
	// Create inserts r. ID, CreatedAt, EditedAt and Tokens are already set.
	Create(ctx context.Context, owner uuid.UUID, r model.Record) error
	// Update merges r.Fields into the stored fields key-wise and replaces
	// equipment, tokens and edited time. Missing records yield errs.ErrNotFound.
	Update(ctx context.Context, owner uuid.UUID, r model.Record) error
	// Delete removes a record.
	Delete(ctx context.Context, owner uuid.UUID, id uuid.UUID) error
	// Get loads one record.
	Get(ctx context.Context, owner uuid.UUID, id uuid.UUID) (model.Record, error)
	// Search returns records whose tokens contain token, or all records when
	// token is empty, most recently edited first.
	Search(ctx context.Context, owner uuid.UUID, token string) ([]model.Record, error)
}
