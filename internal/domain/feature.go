package domain

// Feature is a named effect. It is produced directly by cards or by combos.
type Feature struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// Cards lists the ids of the cards that produce this feature on their own.
	Cards []int `json:"cards"`

	// ProducedByCombos lists the ids of the combos that produce this feature.
	// It is the inverse of Combo.Produces and is filled in by NewGraph.
	ProducedByCombos []int `json:"produced_by_combos"`
}

// ProducerCount returns the number of cards and combos producing the feature.
func (f *Feature) ProducerCount() int {
	return len(f.Cards) + len(f.ProducedByCombos)
}
