package domain

import (
	"fmt"
	"sort"
)

// Graph is a read-only snapshot of the combo catalog used by one generation run.
type Graph struct {
	Cards     map[int]*Card
	Templates map[int]*Template
	Features  map[int]*Feature
	Combos    map[int]*Combo
}

// NewGraph indexes the given entities and fills Feature.ProducedByCombos from
// Combo.Produces. Input slices are not modified.
func NewGraph(cards []Card, templates []Template, features []Feature, combos []Combo) *Graph {
	g := &Graph{
		Cards:     make(map[int]*Card, len(cards)),
		Templates: make(map[int]*Template, len(templates)),
		Features:  make(map[int]*Feature, len(features)),
		Combos:    make(map[int]*Combo, len(combos)),
	}

	for i := range cards {
		c := cards[i]
		g.Cards[c.ID] = &c
	}
	for i := range templates {
		t := templates[i]
		g.Templates[t.ID] = &t
	}
	for i := range features {
		f := features[i]
		f.Cards = append([]int(nil), f.Cards...)
		f.ProducedByCombos = nil
		g.Features[f.ID] = &f
	}
	for i := range combos {
		c := combos[i]
		g.Combos[c.ID] = &c
	}

	for _, id := range g.ComboIDs() {
		for _, featureID := range g.Combos[id].Produces {
			if f, ok := g.Features[featureID]; ok {
				f.ProducedByCombos = append(f.ProducedByCombos, id)
			}
		}
	}

	return g
}

// ComboIDs returns the combo ids in ascending order.
func (g *Graph) ComboIDs() []int {
	return sortedKeys(g.Combos)
}

// FeatureIDs returns the feature ids in ascending order.
func (g *Graph) FeatureIDs() []int {
	return sortedKeys(g.Features)
}

// Validate checks that every reference in the graph points at a loaded entity.
func (g *Graph) Validate() error {
	for _, id := range g.ComboIDs() {
		c := g.Combos[id]
		for _, cardID := range c.Includes {
			if _, ok := g.Cards[cardID]; !ok {
				return fmt.Errorf("%w: combo %d includes unknown card %d", ErrDanglingReference, id, cardID)
			}
		}
		for _, templateID := range c.Requires {
			if _, ok := g.Templates[templateID]; !ok {
				return fmt.Errorf("%w: combo %d requires unknown template %d", ErrDanglingReference, id, templateID)
			}
		}
		for _, featureID := range c.Needs {
			if _, ok := g.Features[featureID]; !ok {
				return fmt.Errorf("%w: combo %d needs unknown feature %d", ErrDanglingReference, id, featureID)
			}
		}
		for _, featureID := range c.Produces {
			if _, ok := g.Features[featureID]; !ok {
				return fmt.Errorf("%w: combo %d produces unknown feature %d", ErrDanglingReference, id, featureID)
			}
		}
	}
	for _, id := range g.FeatureIDs() {
		for _, cardID := range g.Features[id].Cards {
			if _, ok := g.Cards[cardID]; !ok {
				return fmt.Errorf("%w: feature %d produced by unknown card %d", ErrDanglingReference, id, cardID)
			}
		}
	}
	return nil
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
