package variants

import (
	"github.com/phrazzld/spellbook-variants/internal/domain"
)

// BuildModel encodes the graph as a 0/1 model.
//
// For a feature f with producers p1..pn:
//
//	f - pi >= 0 for every i
//	f - Σ pi <= 0
//
// so f = OR(p1..pn), and f = 0 when it has no producer.
// For a combo b with requirements r1..rk (cards, templates and features):
//
//	b - ri <= 0 for every i
//	b - Σ ri >= 1 - k
//
// so b = AND(r1..rk).
func BuildModel(g *domain.Graph) *Model {
	m := NewModel()

	for _, id := range g.ComboIDs() {
		addCombo(m, g.Combos[id])
	}
	for _, id := range g.FeatureIDs() {
		addFeature(m, g.Features[id])
	}

	return m
}

func addFeature(m *Model, feature *domain.Feature) {
	f := m.GetOrCreate(Variable{Kind: KindFeature, ID: feature.ID})

	producers := make([]Handle, 0, feature.ProducerCount())
	for _, cardID := range feature.Cards {
		producers = append(producers, m.GetOrCreate(Variable{Kind: KindCard, ID: cardID}))
	}
	for _, comboID := range feature.ProducedByCombos {
		producers = append(producers, m.GetOrCreate(Variable{Kind: KindCombo, ID: comboID}))
	}

	for _, p := range producers {
		m.Add(Constraint{
			Terms: []Term{{Coef: 1, Var: f}, {Coef: -1, Var: p}},
			Op:    OpGtEq,
			RHS:   0,
		})
	}
	m.Add(Constraint{
		Terms: append([]Term{{Coef: 1, Var: f}}, Sum(-1, producers...)...),
		Op:    OpLtEq,
		RHS:   0,
	})
}

func addCombo(m *Model, combo *domain.Combo) {
	b := m.GetOrCreate(Variable{Kind: KindCombo, ID: combo.ID})

	requirements := make([]Handle, 0, combo.RequirementCount())
	for _, cardID := range combo.Includes {
		requirements = append(requirements, m.GetOrCreate(Variable{Kind: KindCard, ID: cardID}))
	}
	for _, templateID := range combo.Requires {
		requirements = append(requirements, m.GetOrCreate(Variable{Kind: KindTemplate, ID: templateID}))
	}
	for _, featureID := range combo.Needs {
		requirements = append(requirements, m.GetOrCreate(Variable{Kind: KindFeature, ID: featureID}))
	}

	for _, r := range requirements {
		m.Add(Constraint{
			Terms: []Term{{Coef: 1, Var: b}, {Coef: -1, Var: r}},
			Op:    OpLtEq,
			RHS:   0,
		})
	}
	m.Add(Constraint{
		Terms: append([]Term{{Coef: 1, Var: b}}, Sum(-1, requirements...)...),
		Op:    OpGtEq,
		RHS:   1 - len(requirements),
	})
}
