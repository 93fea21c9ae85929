// Package memstore provides an in-memory implementation of the store
// contracts. Variant writes run against a cloned state that replaces the
// live state only when the unit of work succeeds, so a failed run leaves
// nothing behind. It backs the generator tests and the dry-run mode of the CLI.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store"
)

var (
	_ store.GraphStore = (*Store)(nil)
	_ store.TxManager  = (*Store)(nil)
	_ store.JobStore   = (*Store)(nil)
)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.nowFn = now
	}
}

type catalog struct {
	cards     []domain.Card
	templates []domain.Template
	features  []domain.Feature
	combos    []domain.Combo
}

// Store is a concurrency-safe in-memory store.
type Store struct {
	mu       sync.Mutex
	catalog  catalog
	variants map[string]domain.Variant

	jobMu sync.RWMutex
	jobs  map[uuid.UUID]domain.Job

	nowFn func() time.Time
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		variants: map[string]domain.Variant{},
		jobs:     map[uuid.UUID]domain.Job{},
		nowFn:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCatalog replaces the combo catalog returned by LoadGraph.
func (s *Store) SetCatalog(
	cards []domain.Card,
	templates []domain.Template,
	features []domain.Feature,
	combos []domain.Combo,
) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = catalog{
		cards:     slices.Clone(cards),
		templates: slices.Clone(templates),
		features:  cloneFeatures(features),
		combos:    cloneCombos(combos),
	}
}

// SetCatalogFromGraph replaces the combo catalog with the entities of g.
func (s *Store) SetCatalogFromGraph(g *domain.Graph) {
	var (
		cards     []domain.Card
		templates []domain.Template
		features  []domain.Feature
		combos    []domain.Combo
	)
	for _, c := range g.Cards {
		cards = append(cards, *c)
	}
	for _, t := range g.Templates {
		templates = append(templates, *t)
	}
	for _, f := range g.Features {
		features = append(features, *f)
	}
	for _, c := range g.Combos {
		combos = append(combos, *c)
	}
	s.SetCatalog(cards, templates, features, combos)
}

// SeedVariants stores the given variants as if they had been persisted by an earlier run.
func (s *Store) SeedVariants(variants ...domain.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range variants {
		s.variants[v.ID] = cloneVariant(v)
	}
}

// Variants returns a copy of the persisted variants ordered by id.
func (s *Store) Variants() []domain.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Variant, 0, len(s.variants))
	for _, v := range s.variants {
		out = append(out, cloneVariant(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadGraph implements store.GraphStore.
func (s *Store) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	c := catalog{
		cards:     slices.Clone(s.catalog.cards),
		templates: slices.Clone(s.catalog.templates),
		features:  cloneFeatures(s.catalog.features),
		combos:    cloneCombos(s.catalog.combos),
	}
	s.mu.Unlock()
	return domain.NewGraph(c.cards, c.templates, c.features, c.combos), nil
}

// WithinTx implements store.TxManager. Units of work are serialised; fn sees
// a private copy of the variants that is published only if fn returns nil.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, variants store.VariantStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &variantTx{
		variants: make(map[string]domain.Variant, len(s.variants)),
		now:      s.nowFn(),
	}
	for id, v := range s.variants {
		tx.variants[id] = cloneVariant(v)
	}

	if err := fn(ctx, tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}
	s.variants = tx.variants
	return nil
}

func cloneVariant(v domain.Variant) domain.Variant {
	v.Includes = slices.Clone(v.Includes)
	v.Requires = slices.Clone(v.Requires)
	v.Of = slices.Clone(v.Of)
	v.Produces = slices.Clone(v.Produces)
	return v
}

func cloneFeatures(in []domain.Feature) []domain.Feature {
	out := make([]domain.Feature, len(in))
	for i, f := range in {
		f.Cards = slices.Clone(f.Cards)
		f.ProducedByCombos = slices.Clone(f.ProducedByCombos)
		out[i] = f
	}
	return out
}

func cloneCombos(in []domain.Combo) []domain.Combo {
	out := make([]domain.Combo, len(in))
	for i, c := range in {
		c.Includes = slices.Clone(c.Includes)
		c.Requires = slices.Clone(c.Requires)
		c.Needs = slices.Clone(c.Needs)
		c.Produces = slices.Clone(c.Produces)
		out[i] = c
	}
	return out
}
