package domain

// Combo is a rule requiring specific cards, templates and features to jointly
// produce other features.
type Combo struct {
	ID            int    `json:"id"`
	Description   string `json:"description"`
	Prerequisites string `json:"prerequisites"`

	// Includes lists the ids of the required cards.
	Includes []int `json:"includes"`
	// Requires lists the ids of the required templates.
	Requires []int `json:"requires"`
	// Needs lists the ids of the required features.
	Needs []int `json:"needs"`
	// Produces lists the ids of the features this combo produces.
	Produces []int `json:"produces"`
}

// RequirementCount returns the total number of requirement components.
func (c *Combo) RequirementCount() int {
	return len(c.Includes) + len(c.Requires) + len(c.Needs)
}

// IsEnumerable reports whether variants should be generated for this combo.
// Combos with at most one requirement are plain 1:1 mappings and are skipped.
func (c *Combo) IsEnumerable() bool {
	return c.RequirementCount() > 1
}
