package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/Nydv01/chemviz-analytics/internal/analytics"
	"github.com/Nydv01/chemviz-analytics/internal/entity"
)

// ErrNotFound covers both an absent resource and one owned by another user,
// so lookups never leak existence to non-owners.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername is returned when registration collides with an
// existing username.
var ErrDuplicateUsername = errors.New("username already taken")

// DefaultRetentionLimit is the number of datasets retained per owner.
const DefaultRetentionLimit = 5

// DatasetStore persists datasets and their records. Two implementations
// exist: GormStore against a relational database and MemoryStore as the
// degraded-mode fallback. Exactly one is selected at boot.
type DatasetStore interface {
	// Create persists the dataset metadata and all rows atomically, then
	// prunes the owner's datasets beyond the retention limit. A prune
	// failure after the primary write has committed is logged by the
	// caller, not surfaced.
	Create(ctx context.Context, ownerID uuid.UUID, filename string, rows []analytics.Row, summary *analytics.Summary) (*entity.Dataset, error)

	// Get returns dataset metadata only when the owner matches.
	Get(ctx context.Context, id, ownerID uuid.UUID) (*entity.Dataset, error)

	// Records returns the dataset's rows, owner-scoped like Get.
	Records(ctx context.Context, id, ownerID uuid.UUID) ([]entity.Record, error)

	// List returns the owner's datasets newest first, bounded by the
	// retention limit by construction.
	List(ctx context.Context, ownerID uuid.UUID) ([]entity.Dataset, error)

	// Delete removes the dataset and cascades to its records. Deleting an
	// already-deleted id returns ErrNotFound.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// SetStoragePath records where the raw upload was archived.
	SetStoragePath(ctx context.Context, id uuid.UUID, path string) error
}

// UserStore persists user accounts for credential authentication.
type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}
