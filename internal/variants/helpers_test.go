package variants

import (
	"github.com/phrazzld/spellbook-variants/internal/domain"
)

// catalog is a compact description of a combo graph for tests.
type catalog struct {
	cards     []domain.Card
	templates []domain.Template
	features  []domain.Feature
	combos    []domain.Combo
}

func (c catalog) graph() *domain.Graph {
	return domain.NewGraph(c.cards, c.templates, c.features, c.combos)
}

func cards(ids ...int) []domain.Card {
	out := make([]domain.Card, len(ids))
	for i, id := range ids {
		out[i] = domain.Card{ID: id}
	}
	return out
}

// orAndCatalog: feature 1 is produced by card 10 or by combo 1 (cards 1, 2);
// combo 2 needs feature 1 and card 20.
func orAndCatalog() catalog {
	return catalog{
		cards: []domain.Card{
			{ID: 1, Identity: "W"},
			{ID: 2, Identity: "U"},
			{ID: 10, Identity: "B"},
			{ID: 20, Identity: "G"},
		},
		features: []domain.Feature{{ID: 1, Name: "Infinite mana", Cards: []int{10}}},
		combos: []domain.Combo{
			{
				ID:            1,
				Includes:      []int{1, 2},
				Produces:      []int{1},
				Description:   "Tap both.",
				Prerequisites: "Both on the battlefield.",
			},
			{
				ID:            2,
				Includes:      []int{20},
				Needs:         []int{1},
				Description:   "Pump with mana.",
				Prerequisites: "Untapped creature.",
			},
		},
	}
}
