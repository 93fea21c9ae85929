package store

import (
	"context"

	"github.com/phrazzld/spellbook-variants/internal/domain"
)

// GraphStore loads the combo catalog.
type GraphStore interface {
	// LoadGraph returns a snapshot of all cards, templates, features and combos.
	// The returned graph is owned by the caller and is not shared with the store.
	LoadGraph(ctx context.Context) (*domain.Graph, error)
}
