package variants

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModel_GetOrCreate(t *testing.T) {
	m := NewModel()

	c1 := m.GetOrCreate(Variable{Kind: KindCard, ID: 1})
	f1 := m.GetOrCreate(Variable{Kind: KindFeature, ID: 1})
	again := m.GetOrCreate(Variable{Kind: KindCard, ID: 1})

	assert.Equal(t, Handle(1), c1)
	assert.Equal(t, Handle(2), f1)
	assert.Equal(t, c1, again)
	assert.Equal(t, 2, m.NumVariables())
	assert.Equal(t, Variable{Kind: KindFeature, ID: 1}, m.Variable(f1))
}

func TestModel_LookupDoesNotCreate(t *testing.T) {
	m := NewModel()

	_, ok := m.Lookup(Variable{Kind: KindCombo, ID: 7})

	assert.False(t, ok)
	assert.Equal(t, 0, m.NumVariables())
}

func TestModel_HandlesOf(t *testing.T) {
	m := NewModel()
	c := m.GetOrCreate(Variable{Kind: KindCard, ID: 1})
	f := m.GetOrCreate(Variable{Kind: KindFeature, ID: 1})
	tpl := m.GetOrCreate(Variable{Kind: KindTemplate, ID: 1})

	assert.Equal(t, []Handle{c, tpl}, m.HandlesOf(KindCard, KindTemplate))
	assert.Equal(t, []Handle{f}, m.HandlesOf(KindFeature))
	assert.Empty(t, m.HandlesOf(KindCombo))
}

func TestModel_CopyIsIndependent(t *testing.T) {
	base := NewModel()
	x := base.GetOrCreate(Variable{Kind: KindCard, ID: 1})
	base.Add(Constraint{Terms: Sum(1, x), Op: OpLtEq, RHS: 1})

	left := base.Copy()
	right := base.Copy()

	y := left.GetOrCreate(Variable{Kind: KindCard, ID: 2})
	left.Add(Constraint{Terms: Sum(1, x, y), Op: OpGtEq, RHS: 1})
	right.Add(Constraint{Terms: Sum(1, x), Op: OpEq, RHS: 0})

	assert.Len(t, base.Constraints(), 1)
	assert.Equal(t, 1, base.NumVariables())
	_, ok := base.Lookup(Variable{Kind: KindCard, ID: 2})
	assert.False(t, ok)

	require.Len(t, left.Constraints(), 2)
	require.Len(t, right.Constraints(), 2)
	assert.Equal(t, OpGtEq, left.Constraints()[1].Op)
	assert.Equal(t, OpEq, right.Constraints()[1].Op)
	assert.Equal(t, 1, right.NumVariables())
}

func TestModel_AddCopiesTerms(t *testing.T) {
	m := NewModel()
	x := m.GetOrCreate(Variable{Kind: KindCard, ID: 1})
	terms := Sum(1, x)

	m.Add(Constraint{Terms: terms, Op: OpGtEq, RHS: 1})
	terms[0].Coef = 5

	assert.Equal(t, 1, m.Constraints()[0].Terms[0].Coef)
}

func TestVariable_String(t *testing.T) {
	assert.Equal(t, "C12", Variable{Kind: KindCard, ID: 12}.String())
	assert.Equal(t, "T3", Variable{Kind: KindTemplate, ID: 3}.String())
	assert.Equal(t, "F4", Variable{Kind: KindFeature, ID: 4}.String())
	assert.Equal(t, "B5", Variable{Kind: KindCombo, ID: 5}.String())
}
