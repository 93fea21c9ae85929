package domain

import (
	"fmt"
	"strings"
)

// identityOrder is the canonical ordering of color identity symbols.
const identityOrder = "WUBRG"

// Card is an atomic game piece.
type Card struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Identity string `json:"identity"`
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("%w: card id %d", ErrInvalidID, c.ID)
	}
	if !IsValidIdentity(c.Identity) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentity, c.Identity)
	}
	return nil
}

// Template is a placeholder satisfied by any card matching a query.
// The variant engine treats it as an opaque requirement.
type Template struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	ScryfallQuery string `json:"scryfall_query"`
}

// IsValidIdentity reports whether identity is an in-order subset of WUBRG.
// The empty identity (colorless) is valid.
func IsValidIdentity(identity string) bool {
	next := 0
	for _, r := range identity {
		idx := strings.IndexRune(identityOrder[next:], r)
		if idx < 0 {
			return false
		}
		next += idx + 1
	}
	return true
}

// MergeIdentities returns the union of the given color identities, rendered
// in WUBRG order.
func MergeIdentities(identities ...string) string {
	var b strings.Builder
	for _, symbol := range identityOrder {
		for _, identity := range identities {
			if strings.ContainsRune(identity, symbol) {
				b.WriteRune(symbol)
				break
			}
		}
	}
	return b.String()
}
