package domain

import (
	"errors"
	"time"
)

// VariantStatus represents the review state of a variant.
type VariantStatus string

// Possible variant status values
const (
	VariantStatusNew         VariantStatus = "NEW"
	VariantStatusDraft       VariantStatus = "DRAFT"
	VariantStatusNeedsReview VariantStatus = "NEEDS_REVIEW"
	VariantStatusOK          VariantStatus = "OK"
	VariantStatusRestore     VariantStatus = "RESTORE"
	VariantStatusNotWorking  VariantStatus = "NOT_WORKING"
)

// Variant validation errors
var (
	ErrEmptyVariantID    = errors.New("variant ID cannot be empty")
	ErrEmptyVariantCards = errors.New("variant must include at least one card or template")
)

// Variant is a minimal set of cards and templates realizing one or more combos.
// Its ID is the content hash of its card and template ids, which keeps it
// stable across generation runs.
type Variant struct {
	ID            string        `json:"id"`
	Status        VariantStatus `json:"status"`
	Identity      string        `json:"identity"`
	Prerequisites string        `json:"prerequisites"`
	Description   string        `json:"description"`

	// Includes lists the ids of the cards in the variant.
	Includes []int `json:"includes"`
	// Requires lists the ids of the templates in the variant.
	Requires []int `json:"requires"`
	// Of lists the ids of the combos realized by the variant.
	Of []int `json:"of"`
	// Produces lists the ids of the features produced by the variant.
	Produces []int `json:"produces"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the Variant has valid data.
// Returns an error if any field fails validation.
func (v *Variant) Validate() error {
	if v.ID == "" {
		return ErrEmptyVariantID
	}

	if len(v.Includes)+len(v.Requires) == 0 {
		return ErrEmptyVariantCards
	}

	if !IsValidVariantStatus(v.Status) {
		return ErrInvalidVariantStatus
	}

	if !IsValidIdentity(v.Identity) {
		return ErrInvalidIdentity
	}

	return nil
}

// IsValidVariantStatus reports whether status is one of the known values.
func IsValidVariantStatus(status VariantStatus) bool {
	switch status {
	case VariantStatusNew,
		VariantStatusDraft,
		VariantStatusNeedsReview,
		VariantStatusOK,
		VariantStatusRestore,
		VariantStatusNotWorking:
		return true
	default:
		return false
	}
}
