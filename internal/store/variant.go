package store

import (
	"context"

	"github.com/phrazzld/spellbook-variants/internal/domain"
)

// VariantStore defines the operations the synchronizer performs on persisted variants.
// Implementations are expected to be used inside a transaction handed out by
// TxManager so that a generation run is applied atomically.
type VariantStore interface {
	// DeleteByStatus removes every variant with the given status and returns
	// the number of deleted rows.
	DeleteByStatus(ctx context.Context, status domain.VariantStatus) (int, error)

	// ListIDs returns the ids of all persisted variants.
	ListIDs(ctx context.Context) ([]string, error)

	// GetByID retrieves a variant with all of its associations.
	// Returns ErrVariantNotFound if the variant does not exist.
	GetByID(ctx context.Context, id string) (*domain.Variant, error)

	// Create persists a new variant together with its includes, requires,
	// of and produces associations. Returns ErrVariantExists if the id is
	// already taken and ErrInvalidEntity if the variant fails validation.
	Create(ctx context.Context, variant *domain.Variant) error

	// UpdateAssociations replaces the of (combos) and produces (features)
	// associations of an existing variant and bumps its update time.
	// Returns ErrVariantNotFound if the variant does not exist.
	UpdateAssociations(ctx context.Context, id string, of, produces []int) error

	// DeleteByIDs removes the given variants and returns the number of deleted rows.
	DeleteByIDs(ctx context.Context, ids []string) (int, error)
}

// TxManager runs a unit of work against the variant table atomically.
type TxManager interface {
	// WithinTx calls fn with a VariantStore bound to a single transaction.
	// The transaction is committed if fn returns nil and rolled back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, variants VariantStore) error) error
}
