package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

// variantTx is the VariantStore handed to a unit of work.
type variantTx struct {
	variants map[string]domain.Variant
	now      time.Time
}

var _ store.VariantStore = (*variantTx)(nil)

func (tx *variantTx) DeleteByStatus(ctx context.Context, status domain.VariantStatus) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deleted := 0
	for id, v := range tx.variants {
		if v.Status == status {
			delete(tx.variants, id)
			deleted++
		}
	}
	return deleted, nil
}

func (tx *variantTx) ListIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(tx.variants))
	for id := range tx.variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (tx *variantTx) GetByID(ctx context.Context, id string) (*domain.Variant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := tx.variants[id]
	if !ok {
		return nil, store.ErrVariantNotFound
	}
	out := cloneVariant(v)
	return &out, nil
}

func (tx *variantTx) Create(ctx context.Context, variant *domain.Variant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := variant.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}
	if _, exists := tx.variants[variant.ID]; exists {
		return store.ErrVariantExists
	}
	v := cloneVariant(*variant)
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	tx.variants[v.ID] = v
	return nil
}

func (tx *variantTx) UpdateAssociations(ctx context.Context, id string, of, produces []int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, ok := tx.variants[id]
	if !ok {
		return store.ErrVariantNotFound
	}
	v.Of = slices.Clone(of)
	v.Produces = slices.Clone(produces)
	v.UpdatedAt = tx.now
	tx.variants[id] = v
	return nil
}

func (tx *variantTx) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deleted := 0
	for _, id := range ids {
		if _, ok := tx.variants[id]; ok {
			delete(tx.variants, id)
			deleted++
		}
	}
	return deleted, nil
}
