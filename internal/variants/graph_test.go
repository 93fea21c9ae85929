package variants

import (
	"errors"
	"testing"

	"github.com/phrazzld/spellbook-variants/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chainGraph builds combos 1..n where combo i needs feature i, which is
// produced by combo i+1. Combo n needs nothing.
func chainGraph(n int) *domain.Graph {
	var features []domain.Feature
	var combos []domain.Combo
	for i := 1; i <= n; i++ {
		c := domain.Combo{ID: i, Includes: []int{i}}
		if i < n {
			c.Needs = []int{i}
			features = append(features, domain.Feature{ID: i})
		}
		if i > 1 {
			c.Produces = []int{i - 1}
		}
		combos = append(combos, c)
	}
	return domain.NewGraph(nil, nil, features, combos)
}

func TestCheckDepth_WithinLimit(t *testing.T) {
	// Chain of 5 combos has depth 4.
	assert.NoError(t, CheckDepth(chainGraph(5), 4))
}

func TestCheckDepth_ExceedsLimit(t *testing.T) {
	err := CheckDepth(chainGraph(5), 3)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRecursiveCombo))

	var rerr *RecursiveComboError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 1, rerr.ComboID)
	assert.Equal(t, 3, rerr.Limit)
	assert.False(t, rerr.Cycle)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rerr.Path)
	assert.Contains(t, rerr.Error(), "B1 -> B2 -> B3 -> B4 -> B5")
}

func TestFindRecursiveCombos_ReportsEveryOffender(t *testing.T) {
	found := FindRecursiveCombos(chainGraph(5), 2)

	require.Len(t, found, 2)
	assert.Equal(t, 1, found[0].ComboID)
	assert.Equal(t, 2, found[1].ComboID)
}

func TestFindRecursiveCombos_Cycle(t *testing.T) {
	g := domain.NewGraph(nil, nil,
		[]domain.Feature{{ID: 1}, {ID: 2}},
		[]domain.Combo{
			{ID: 1, Needs: []int{1}, Produces: []int{2}},
			{ID: 2, Needs: []int{2}, Produces: []int{1}},
			{ID: 3, Includes: []int{1}},
		},
	)

	found := FindRecursiveCombos(g, DefaultRecursionLimit)

	require.Len(t, found, 2)
	assert.True(t, found[0].Cycle)
	assert.Equal(t, []int{1, 2, 1}, found[0].Path)
	assert.Equal(t, 2, found[1].ComboID)
	assert.True(t, found[1].Cycle)
}

func TestFindRecursiveCombos_DefaultLimit(t *testing.T) {
	assert.Empty(t, FindRecursiveCombos(chainGraph(DefaultRecursionLimit+1), 0))
	assert.Len(t, FindRecursiveCombos(chainGraph(DefaultRecursionLimit+2), 0), 1)
}
