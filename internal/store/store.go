package store

import (
	"context"

	"github.com/google/uuid"
)

// RecordStore is the datastore surface a resource is served from. The
// CountMatching/Fetch pair is what the pagination engine consumes.
type RecordStore[T any] interface {
	CountMatching(ctx context.Context, filter Filter) (int64, error)
	Fetch(ctx context.Context, filter Filter, skip, limit int) ([]T, error)
	GetByID(ctx context.Context, id uuid.UUID) (*T, error)
	Create(ctx context.Context, fields map[string]any) (*T, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any) (*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
