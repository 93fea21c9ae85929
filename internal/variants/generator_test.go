package variants

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/phrazzld/spellbook-variants/internal/config"
	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/phrazzld/spellbook-variants/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testGeneratorConfig = config.GeneratorConfig{
	Workers:        2,
	RecursionLimit: DefaultRecursionLimit,
}

func newTestGenerator(s *memstore.Store) *Generator {
	return NewGenerator(testGeneratorConfig, s, s, nil, slog.New(slog.DiscardHandler))
}

func seedCatalog(s *memstore.Store, c catalog) {
	s.SetCatalog(c.cards, c.templates, c.features, c.combos)
}

func TestGenerateVariants_EndToEnd(t *testing.T) {
	s := memstore.New()
	seedCatalog(s, orAndCatalog())
	gen := newTestGenerator(s)

	first, err := gen.GenerateVariants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Added: 3}, first)
	assert.Equal(t, "Generated 3 new variants, updated 0 variants, removed 0 variants for all combos", first.Message())

	variants := s.Variants()
	require.Len(t, variants, 3)
	for _, v := range variants {
		assert.Equal(t, domain.VariantStatusNew, v.Status)
		assert.Equal(t, UniqueID(v.Includes, v.Requires), v.ID)
	}

	second, err := gen.GenerateVariants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 3}, second)
}

func TestGenerateVariants_RemovesVariantsOfDeletedCombos(t *testing.T) {
	s := memstore.New()
	c := orAndCatalog()
	seedCatalog(s, c)
	gen := newTestGenerator(s)
	_, err := gen.GenerateVariants(context.Background())
	require.NoError(t, err)

	// Without combo 2 only the variant of combo 1 survives.
	c.combos = c.combos[:1]
	seedCatalog(s, c)

	res, err := gen.GenerateVariants(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Updated: 1, Removed: 2}, res)
	require.Len(t, s.Variants(), 1)
	assert.Equal(t, UniqueID([]int{1, 2}, nil), s.Variants()[0].ID)
}

func TestGenerateVariants_DanglingReference(t *testing.T) {
	s := memstore.New()
	seedCatalog(s, catalog{
		cards:  cards(1),
		combos: []domain.Combo{{ID: 1, Includes: []int{1, 2}}},
	})

	_, err := newTestGenerator(s).GenerateVariants(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDanglingReference))
	assert.Empty(t, s.Variants())
}

func TestGenerateVariants_RecursiveCombosDoNotAbort(t *testing.T) {
	s := memstore.New()
	seedCatalog(s, catalog{
		cards:    cards(1, 2),
		features: []domain.Feature{{ID: 1}, {ID: 2}},
		combos: []domain.Combo{
			{ID: 1, Includes: []int{1}, Needs: []int{1}, Produces: []int{2}},
			{ID: 2, Includes: []int{2}, Needs: []int{2}, Produces: []int{1}},
		},
	})

	res, err := newTestGenerator(s).GenerateVariants(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	require.Len(t, s.Variants(), 1)
	assert.Equal(t, []int{1, 2}, s.Variants()[0].Includes)
}

func TestGenerateVariants_InconsistentSolverLeavesVariantsUntouched(t *testing.T) {
	s := memstore.New()
	seedCatalog(s, orAndCatalog())
	require.NoError(t, ignoreResult(newTestGenerator(s).GenerateVariants(context.Background())))
	before := s.Variants()
	require.NotEmpty(t, before)

	broken := &scriptedSolver{results: []scriptedResult{
		{err: fmt.Errorf("%w: constraint 4 violated", ErrSolverInconsistent)},
	}}
	cfg := testGeneratorConfig
	cfg.Workers = 1
	gen := NewGenerator(cfg, s, s, broken, slog.New(slog.DiscardHandler))

	_, err := gen.GenerateVariants(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSolverInconsistent)
	assert.Equal(t, before, s.Variants())
}

func ignoreResult(_ Result, err error) error {
	return err
}
